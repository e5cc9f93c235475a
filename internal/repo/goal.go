package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/stridelog/internal/domain"
)

// GoalRepo defines the persistence operations for Goals.
// Every operation is scoped by userID.
type GoalRepo interface {
	// Create inserts a goal and returns it with id and created_at populated.
	Create(ctx context.Context, goal domain.Goal) (domain.Goal, error)

	// ListActive returns the user's active goals, newest first.
	ListActive(ctx context.Context, userID uuid.UUID) ([]domain.Goal, error)

	// GetByID returns domain.ErrNotFound if the goal is missing or not the user's.
	GetByID(ctx context.Context, userID, id uuid.UUID) (domain.Goal, error)

	// SetCurrentValue overwrites the progress counter of a goal.
	SetCurrentValue(ctx context.Context, userID, id uuid.UUID, value float64) (domain.Goal, error)

	// Delete removes a goal. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type pgGoalRepo struct {
	db db
}

// NewGoalRepo constructs a GoalRepo backed by the provided db connection.
func NewGoalRepo(db db) GoalRepo {
	return &pgGoalRepo{db: db}
}

const goalColumns = `
	id, user_id, title, description, goal_type, target_value, current_value,
	period, start_date, end_date, is_active, created_at`

func (r *pgGoalRepo) Create(ctx context.Context, g domain.Goal) (domain.Goal, error) {
	q := `
		INSERT INTO goals (user_id, title, description, goal_type, target_value,
		                   current_value, period, start_date, end_date, is_active)
		VALUES (@user_id, @title, @description, @goal_type, @target_value,
		        @current_value, @period, @start_date, @end_date, @is_active)
		RETURNING` + goalColumns

	args := pgx.NamedArgs{
		"user_id":       g.UserID,
		"title":         g.Title,
		"description":   g.Description,
		"goal_type":     string(g.Type),
		"target_value":  g.TargetValue,
		"current_value": g.CurrentValue,
		"period":        string(g.Period),
		"start_date":    g.StartDate,
		"end_date":      g.EndDate,
		"is_active":     g.IsActive,
	}

	result, err := scanGoal(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Goal{}, fmt.Errorf("repo.GoalRepo.Create: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgGoalRepo) ListActive(ctx context.Context, userID uuid.UUID) ([]domain.Goal, error) {
	q := `SELECT` + goalColumns + `
		FROM goals
		WHERE user_id = @user_id AND is_active
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.GoalRepo.ListActive: %w", err)
	}
	goals, err := collect(rows, scanGoal)
	if err != nil {
		return nil, fmt.Errorf("repo.GoalRepo.ListActive: scan: %w", err)
	}
	return goals, nil
}

func (r *pgGoalRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (domain.Goal, error) {
	q := `SELECT` + goalColumns + ` FROM goals WHERE id = @id AND user_id = @user_id`

	result, err := scanGoal(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID}))
	if err != nil {
		return domain.Goal{}, fmt.Errorf("repo.GoalRepo.GetByID: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgGoalRepo) SetCurrentValue(ctx context.Context, userID, id uuid.UUID, value float64) (domain.Goal, error) {
	q := `
		UPDATE goals SET current_value = @value
		WHERE id = @id AND user_id = @user_id
		RETURNING` + goalColumns

	result, err := scanGoal(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID, "value": value}))
	if err != nil {
		return domain.Goal{}, fmt.Errorf("repo.GoalRepo.SetCurrentValue: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgGoalRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM goals WHERE id = @id AND user_id = @user_id`,
		pgx.NamedArgs{"id": id, "user_id": userID},
	)
	if err != nil {
		return fmt.Errorf("repo.GoalRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.GoalRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanGoal(s scanner) (domain.Goal, error) {
	var (
		g                  domain.Goal
		id, userID         pgtype.UUID
		goalType, period   string
		startDate, endDate pgtype.Date
	)
	err := s.Scan(&id, &userID, &g.Title, &g.Description, &goalType, &g.TargetValue,
		&g.CurrentValue, &period, &startDate, &endDate, &g.IsActive, &g.CreatedAt)
	if err != nil {
		return domain.Goal{}, err
	}
	g.ID = fromPgUUID(id)
	g.UserID = fromPgUUID(userID)
	g.Type = domain.GoalType(goalType)
	g.Period = domain.GoalPeriod(period)
	g.StartDate = startDate.Time
	g.EndDate = endDate.Time
	return g, nil
}
