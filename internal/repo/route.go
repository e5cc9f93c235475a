package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/stridelog/internal/domain"
)

// RouteRepo defines the persistence operations for saved Routes.
type RouteRepo interface {
	// Create inserts a route and returns the persisted record.
	Create(ctx context.Context, route domain.Route) (domain.Route, error)

	// ListByUser returns the user's routes, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Route, error)

	// ListPublic returns up to limit public routes from all users, newest
	// first, with AuthorName populated from the owner's profile.
	ListPublic(ctx context.Context, limit int) ([]domain.Route, error)

	// GetVisible returns a route the user owns or that is public.
	// Returns domain.ErrNotFound otherwise.
	GetVisible(ctx context.Context, userID, id uuid.UUID) (domain.Route, error)

	// Delete removes one of the user's routes.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type pgRouteRepo struct {
	db db
}

// NewRouteRepo constructs a RouteRepo backed by the provided db connection.
func NewRouteRepo(db db) RouteRepo {
	return &pgRouteRepo{db: db}
}

const routeColumns = `
	r.id, r.user_id, r.name, r.description, r.activity_type, r.distance,
	r.elevation_gain, r.polyline, r.is_public, COALESCE(p.full_name, ''), r.created_at`

func (r *pgRouteRepo) Create(ctx context.Context, route domain.Route) (domain.Route, error) {
	q := `
		WITH r AS (
			INSERT INTO routes (user_id, name, description, activity_type, distance,
			                    elevation_gain, polyline, is_public)
			VALUES (@user_id, @name, @description, @activity_type, @distance,
			        @elevation_gain, @polyline, @is_public)
			RETURNING *
		)
		SELECT` + routeColumns + `
		FROM r LEFT JOIN profiles p ON p.id = r.user_id`

	args := pgx.NamedArgs{
		"user_id":        route.UserID,
		"name":           route.Name,
		"description":    route.Description,
		"activity_type":  string(route.Type),
		"distance":       route.Distance,
		"elevation_gain": route.ElevationGain,
		"polyline":       route.Polyline,
		"is_public":      route.IsPublic,
	}
	result, err := scanRoute(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.Create: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgRouteRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Route, error) {
	q := `SELECT` + routeColumns + `
		FROM routes r LEFT JOIN profiles p ON p.id = r.user_id
		WHERE r.user_id = @user_id
		ORDER BY r.created_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.RouteRepo.ListByUser: %w", err)
	}
	routes, err := collect(rows, scanRoute)
	if err != nil {
		return nil, fmt.Errorf("repo.RouteRepo.ListByUser: scan: %w", err)
	}
	return routes, nil
}

func (r *pgRouteRepo) ListPublic(ctx context.Context, limit int) ([]domain.Route, error) {
	q := `SELECT` + routeColumns + `
		FROM routes r LEFT JOIN profiles p ON p.id = r.user_id
		WHERE r.is_public
		ORDER BY r.created_at DESC
		LIMIT @limit`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.RouteRepo.ListPublic: %w", err)
	}
	routes, err := collect(rows, scanRoute)
	if err != nil {
		return nil, fmt.Errorf("repo.RouteRepo.ListPublic: scan: %w", err)
	}
	return routes, nil
}

func (r *pgRouteRepo) GetVisible(ctx context.Context, userID, id uuid.UUID) (domain.Route, error) {
	q := `SELECT` + routeColumns + `
		FROM routes r LEFT JOIN profiles p ON p.id = r.user_id
		WHERE r.id = @id AND (r.user_id = @user_id OR r.is_public)`

	result, err := scanRoute(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID}))
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.GetVisible: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgRouteRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM routes WHERE id = @id AND user_id = @user_id`,
		pgx.NamedArgs{"id": id, "user_id": userID},
	)
	if err != nil {
		return fmt.Errorf("repo.RouteRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.RouteRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanRoute(s scanner) (domain.Route, error) {
	var (
		rt           domain.Route
		id, userID   pgtype.UUID
		activityType string
	)
	err := s.Scan(&id, &userID, &rt.Name, &rt.Description, &activityType, &rt.Distance,
		&rt.ElevationGain, &rt.Polyline, &rt.IsPublic, &rt.AuthorName, &rt.CreatedAt)
	if err != nil {
		return domain.Route{}, err
	}
	rt.ID = fromPgUUID(id)
	rt.UserID = fromPgUUID(userID)
	rt.Type = domain.ActivityType(activityType)
	return rt, nil
}
