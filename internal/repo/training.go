package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/stridelog/internal/domain"
)

// TrainingRepo defines the persistence operations for training plans and
// their workouts. Workouts are reached through their plan, so every
// operation is scoped by the plan owner's userID.
type TrainingRepo interface {
	CreatePlan(ctx context.Context, plan domain.TrainingPlan) (domain.TrainingPlan, error)

	// ListPlans returns the user's plans, newest first.
	ListPlans(ctx context.Context, userID uuid.UUID) ([]domain.TrainingPlan, error)

	GetPlan(ctx context.Context, userID, id uuid.UUID) (domain.TrainingPlan, error)

	// DeletePlan removes a plan and, by cascade, its workouts.
	DeletePlan(ctx context.Context, userID, id uuid.UUID) error

	// CreateWorkout inserts a workout. The caller has already verified that
	// the plan belongs to the user.
	CreateWorkout(ctx context.Context, w domain.Workout) (domain.Workout, error)

	// ListUpcoming returns incomplete workouts across all of the user's
	// plans, earliest scheduled_date first, with PlanName populated.
	ListUpcoming(ctx context.Context, userID uuid.UUID) ([]domain.Workout, error)

	// CompleteWorkout marks a workout completed. Returns domain.ErrNotFound
	// if it does not exist or belongs to another user's plan.
	CompleteWorkout(ctx context.Context, userID, workoutID uuid.UUID) (domain.Workout, error)
}

type pgTrainingRepo struct {
	db db
}

// NewTrainingRepo constructs a TrainingRepo backed by the provided db connection.
func NewTrainingRepo(db db) TrainingRepo {
	return &pgTrainingRepo{db: db}
}

const planColumns = `
	id, user_id, name, description, start_date, end_date, goal_type,
	goal_value, is_active, created_at`

func (r *pgTrainingRepo) CreatePlan(ctx context.Context, p domain.TrainingPlan) (domain.TrainingPlan, error) {
	q := `
		INSERT INTO training_plans (user_id, name, description, start_date,
		                            end_date, goal_type, goal_value, is_active)
		VALUES (@user_id, @name, @description, @start_date,
		        @end_date, @goal_type, @goal_value, @is_active)
		RETURNING` + planColumns

	args := pgx.NamedArgs{
		"user_id":     p.UserID,
		"name":        p.Name,
		"description": p.Description,
		"start_date":  p.StartDate,
		"end_date":    p.EndDate,
		"goal_type":   string(p.GoalType),
		"goal_value":  p.GoalValue,
		"is_active":   p.IsActive,
	}
	result, err := scanPlan(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.TrainingPlan{}, fmt.Errorf("repo.TrainingRepo.CreatePlan: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgTrainingRepo) ListPlans(ctx context.Context, userID uuid.UUID) ([]domain.TrainingPlan, error) {
	q := `SELECT` + planColumns + `
		FROM training_plans
		WHERE user_id = @user_id
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.TrainingRepo.ListPlans: %w", err)
	}
	plans, err := collect(rows, scanPlan)
	if err != nil {
		return nil, fmt.Errorf("repo.TrainingRepo.ListPlans: scan: %w", err)
	}
	return plans, nil
}

func (r *pgTrainingRepo) GetPlan(ctx context.Context, userID, id uuid.UUID) (domain.TrainingPlan, error) {
	q := `SELECT` + planColumns + ` FROM training_plans WHERE id = @id AND user_id = @user_id`

	result, err := scanPlan(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID}))
	if err != nil {
		return domain.TrainingPlan{}, fmt.Errorf("repo.TrainingRepo.GetPlan: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgTrainingRepo) DeletePlan(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM training_plans WHERE id = @id AND user_id = @user_id`,
		pgx.NamedArgs{"id": id, "user_id": userID},
	)
	if err != nil {
		return fmt.Errorf("repo.TrainingRepo.DeletePlan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TrainingRepo.DeletePlan: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgTrainingRepo) CreateWorkout(ctx context.Context, w domain.Workout) (domain.Workout, error) {
	const q = `
		WITH inserted AS (
			INSERT INTO training_plan_workouts (training_plan_id, title, description, scheduled_date)
			VALUES (@plan_id, @title, @description, @scheduled_date)
			RETURNING id, training_plan_id, title, description, scheduled_date, is_completed, created_at
		)
		SELECT i.id, i.training_plan_id, p.name, i.title, i.description,
		       i.scheduled_date, i.is_completed, i.created_at
		FROM inserted i
		JOIN training_plans p ON p.id = i.training_plan_id`

	args := pgx.NamedArgs{
		"plan_id":        w.PlanID,
		"title":          w.Title,
		"description":    w.Description,
		"scheduled_date": w.ScheduledDate,
	}
	result, err := scanWorkout(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Workout{}, fmt.Errorf("repo.TrainingRepo.CreateWorkout: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgTrainingRepo) ListUpcoming(ctx context.Context, userID uuid.UUID) ([]domain.Workout, error) {
	const q = `
		SELECT w.id, w.training_plan_id, p.name, w.title, w.description,
		       w.scheduled_date, w.is_completed, w.created_at
		FROM training_plan_workouts w
		JOIN training_plans p ON p.id = w.training_plan_id
		WHERE p.user_id = @user_id AND NOT w.is_completed
		ORDER BY w.scheduled_date ASC, w.created_at ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.TrainingRepo.ListUpcoming: %w", err)
	}
	workouts, err := collect(rows, scanWorkout)
	if err != nil {
		return nil, fmt.Errorf("repo.TrainingRepo.ListUpcoming: scan: %w", err)
	}
	return workouts, nil
}

func (r *pgTrainingRepo) CompleteWorkout(ctx context.Context, userID, workoutID uuid.UUID) (domain.Workout, error) {
	const q = `
		UPDATE training_plan_workouts w
		SET is_completed = TRUE
		FROM training_plans p
		WHERE w.id = @id AND p.id = w.training_plan_id AND p.user_id = @user_id
		RETURNING w.id, w.training_plan_id, p.name, w.title, w.description,
		          w.scheduled_date, w.is_completed, w.created_at`

	result, err := scanWorkout(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": workoutID, "user_id": userID}))
	if err != nil {
		return domain.Workout{}, fmt.Errorf("repo.TrainingRepo.CompleteWorkout: %w", mapErr(err))
	}
	return result, nil
}

func scanPlan(s scanner) (domain.TrainingPlan, error) {
	var (
		p                  domain.TrainingPlan
		id, userID         pgtype.UUID
		startDate, endDate pgtype.Date
		goalType           string
	)
	err := s.Scan(&id, &userID, &p.Name, &p.Description, &startDate, &endDate,
		&goalType, &p.GoalValue, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return domain.TrainingPlan{}, err
	}
	p.ID = fromPgUUID(id)
	p.UserID = fromPgUUID(userID)
	p.StartDate = startDate.Time
	p.EndDate = endDate.Time
	p.GoalType = domain.PlanGoalType(goalType)
	return p, nil
}

func scanWorkout(s scanner) (domain.Workout, error) {
	var (
		w          domain.Workout
		id, planID pgtype.UUID
		scheduled  pgtype.Date
	)
	err := s.Scan(&id, &planID, &w.PlanName, &w.Title, &w.Description,
		&scheduled, &w.IsCompleted, &w.CreatedAt)
	if err != nil {
		return domain.Workout{}, err
	}
	w.ID = fromPgUUID(id)
	w.PlanID = fromPgUUID(planID)
	w.ScheduledDate = scheduled.Time
	return w, nil
}
