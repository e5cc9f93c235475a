package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/stridelog/internal/domain"
)

// ActivityRepo defines the persistence operations for Activities.
// User-facing reads and deletes are scoped by userID to enforce ownership.
type ActivityRepo interface {
	// ListPaged returns one page of a user's activities, newest start_date
	// first, along with the user's total activity count.
	ListPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Activity, int64, error)

	// ListBetween returns a user's activities with from <= start_date < to,
	// oldest first.
	ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Activity, error)

	// GetByID returns domain.ErrNotFound when the activity does not exist or
	// belongs to another user.
	GetByID(ctx context.Context, userID, id uuid.UUID) (domain.Activity, error)

	// Delete removes one of the user's activities.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// Stats aggregates the user's activities that started at or after since.
	Stats(ctx context.Context, userID uuid.UUID, since time.Time) (domain.ActivityStats, error)

	// UpsertStrava inserts or patches the activity with the given Strava id.
	// Nil patch fields keep their stored value. inserted reports whether a
	// new row was created.
	UpsertStrava(ctx context.Context, userID uuid.UUID, stravaID int64, patch domain.ActivityPatch) (a domain.Activity, inserted bool, err error)

	// PatchStrava applies patch to the user's already-synced activity with the
	// given Strava id. It never inserts; domain.ErrNotFound is returned when
	// no such activity exists.
	PatchStrava(ctx context.Context, userID uuid.UUID, stravaID int64, patch domain.ActivityPatch) (domain.Activity, error)

	// DeleteByStravaID removes the activity with the given Strava id. Deleting
	// an id that was never synced is not an error.
	DeleteByStravaID(ctx context.Context, stravaID int64) error
}

type pgActivityRepo struct {
	db db
}

// NewActivityRepo constructs an ActivityRepo backed by the provided db connection.
func NewActivityRepo(db db) ActivityRepo {
	return &pgActivityRepo{db: db}
}

const activityColumns = `
	id, user_id, strava_id, external_source, title, activity_type, distance,
	duration, elevation_gain, average_speed, max_speed, average_heart_rate,
	max_heart_rate, calories, start_date, polyline, created_at`

func (r *pgActivityRepo) ListPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Activity, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM activities WHERE user_id = @user_id`,
		pgx.NamedArgs{"user_id": userID},
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ActivityRepo.ListPaged: count: %w", err)
	}

	q := `SELECT` + activityColumns + `
		FROM activities
		WHERE user_id = @user_id
		ORDER BY start_date DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"user_id": userID,
		"limit":   p.Limit,
		"offset":  p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ActivityRepo.ListPaged: %w", err)
	}
	activities, err := collect(rows, scanActivity)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ActivityRepo.ListPaged: scan: %w", err)
	}
	return activities, total, nil
}

func (r *pgActivityRepo) ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Activity, error) {
	q := `SELECT` + activityColumns + `
		FROM activities
		WHERE user_id = @user_id AND start_date >= @from AND start_date < @to
		ORDER BY start_date ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID, "from": from, "to": to})
	if err != nil {
		return nil, fmt.Errorf("repo.ActivityRepo.ListBetween: %w", err)
	}
	activities, err := collect(rows, scanActivity)
	if err != nil {
		return nil, fmt.Errorf("repo.ActivityRepo.ListBetween: scan: %w", err)
	}
	return activities, nil
}

func (r *pgActivityRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (domain.Activity, error) {
	q := `SELECT` + activityColumns + `
		FROM activities
		WHERE id = @id AND user_id = @user_id`

	a, err := scanActivity(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID}))
	if err != nil {
		return domain.Activity{}, fmt.Errorf("repo.ActivityRepo.GetByID: %w", mapErr(err))
	}
	return a, nil
}

func (r *pgActivityRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM activities WHERE id = @id AND user_id = @user_id`,
		pgx.NamedArgs{"id": id, "user_id": userID},
	)
	if err != nil {
		return fmt.Errorf("repo.ActivityRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ActivityRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgActivityRepo) Stats(ctx context.Context, userID uuid.UUID, since time.Time) (domain.ActivityStats, error) {
	const q = `
		SELECT count(*),
		       COALESCE(sum(distance), 0),
		       COALESCE(sum(duration), 0),
		       COALESCE(sum(elevation_gain), 0),
		       COALESCE(sum(calories), 0),
		       avg(average_heart_rate),
		       max(max_heart_rate)
		FROM activities
		WHERE user_id = @user_id AND start_date >= @since`

	s := domain.ActivityStats{Since: since}
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID, "since": since}).
		Scan(&s.Count, &s.Distance, &s.Duration, &s.ElevationGain, &s.Calories,
			&s.AverageHeartRate, &s.MaxHeartRate)
	if err != nil {
		return domain.ActivityStats{}, fmt.Errorf("repo.ActivityRepo.Stats: %w", err)
	}
	return s, nil
}

func (r *pgActivityRepo) UpsertStrava(ctx context.Context, userID uuid.UUID, stravaID int64, patch domain.ActivityPatch) (domain.Activity, bool, error) {
	q := `
		INSERT INTO activities (
			user_id, strava_id, external_source, title, activity_type, distance,
			duration, elevation_gain, average_speed, max_speed, average_heart_rate,
			max_heart_rate, calories, start_date, polyline)
		VALUES (
			@user_id, @strava_id, 'strava',
			COALESCE(@title::text, ''),
			COALESCE(@activity_type::text, 'other'),
			COALESCE(@distance::float8, 0),
			COALESCE(@duration::int, 0),
			@elevation_gain::float8, @average_speed::float8, @max_speed::float8,
			@average_heart_rate::float8, @max_heart_rate::float8, @calories::float8,
			COALESCE(@start_date::timestamptz, now()),
			COALESCE(@polyline::text, ''))
		ON CONFLICT (strava_id) DO UPDATE SET
			title              = COALESCE(@title::text, activities.title),
			activity_type      = COALESCE(@activity_type::text, activities.activity_type),
			distance           = COALESCE(@distance::float8, activities.distance),
			duration           = COALESCE(@duration::int, activities.duration),
			elevation_gain     = COALESCE(@elevation_gain::float8, activities.elevation_gain),
			average_speed      = COALESCE(@average_speed::float8, activities.average_speed),
			max_speed          = COALESCE(@max_speed::float8, activities.max_speed),
			average_heart_rate = COALESCE(@average_heart_rate::float8, activities.average_heart_rate),
			max_heart_rate     = COALESCE(@max_heart_rate::float8, activities.max_heart_rate),
			calories           = COALESCE(@calories::float8, activities.calories),
			start_date         = COALESCE(@start_date::timestamptz, activities.start_date),
			polyline           = COALESCE(@polyline::text, activities.polyline)
		RETURNING` + activityColumns + `, (xmax = 0) AS inserted`

	var inserted bool
	a, err := scanActivityWith(r.db.QueryRow(ctx, q, patchArgs(userID, stravaID, patch)), &inserted)
	if err != nil {
		return domain.Activity{}, false, fmt.Errorf("repo.ActivityRepo.UpsertStrava: %w", mapErr(err))
	}
	return a, inserted, nil
}

func (r *pgActivityRepo) PatchStrava(ctx context.Context, userID uuid.UUID, stravaID int64, patch domain.ActivityPatch) (domain.Activity, error) {
	q := `
		UPDATE activities SET
			title              = COALESCE(@title::text, title),
			activity_type      = COALESCE(@activity_type::text, activity_type),
			distance           = COALESCE(@distance::float8, distance),
			duration           = COALESCE(@duration::int, duration),
			elevation_gain     = COALESCE(@elevation_gain::float8, elevation_gain),
			average_speed      = COALESCE(@average_speed::float8, average_speed),
			max_speed          = COALESCE(@max_speed::float8, max_speed),
			average_heart_rate = COALESCE(@average_heart_rate::float8, average_heart_rate),
			max_heart_rate     = COALESCE(@max_heart_rate::float8, max_heart_rate),
			calories           = COALESCE(@calories::float8, calories),
			start_date         = COALESCE(@start_date::timestamptz, start_date),
			polyline           = COALESCE(@polyline::text, polyline)
		WHERE strava_id = @strava_id AND user_id = @user_id
		RETURNING` + activityColumns

	a, err := scanActivity(r.db.QueryRow(ctx, q, patchArgs(userID, stravaID, patch)))
	if err != nil {
		return domain.Activity{}, fmt.Errorf("repo.ActivityRepo.PatchStrava: %w", mapErr(err))
	}
	return a, nil
}

func patchArgs(userID uuid.UUID, stravaID int64, patch domain.ActivityPatch) pgx.NamedArgs {
	var activityType *string
	if patch.Type != nil {
		s := string(*patch.Type)
		activityType = &s
	}

	return pgx.NamedArgs{
		"user_id":            userID,
		"strava_id":          stravaID,
		"title":              patch.Title,
		"activity_type":      activityType,
		"distance":           patch.Distance,
		"duration":           patch.Duration,
		"elevation_gain":     patch.ElevationGain,
		"average_speed":      patch.AverageSpeed,
		"max_speed":          patch.MaxSpeed,
		"average_heart_rate": patch.AverageHeartRate,
		"max_heart_rate":     patch.MaxHeartRate,
		"calories":           patch.Calories,
		"start_date":         patch.StartDate,
		"polyline":           patch.Polyline,
	}
}

func (r *pgActivityRepo) DeleteByStravaID(ctx context.Context, stravaID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM activities WHERE strava_id = @strava_id`,
		pgx.NamedArgs{"strava_id": stravaID},
	)
	if err != nil {
		return fmt.Errorf("repo.ActivityRepo.DeleteByStravaID: %w", err)
	}
	return nil
}

func scanActivity(s scanner) (domain.Activity, error) {
	return scanActivityWith(s)
}

// scanActivityWith scans the activity columns followed by any extra
// destinations selected after them.
func scanActivityWith(s scanner, extra ...any) (domain.Activity, error) {
	var (
		a            domain.Activity
		id, userID   pgtype.UUID
		activityType string
	)
	dest := []any{
		&id, &userID, &a.StravaID, &a.ExternalSource, &a.Title, &activityType,
		&a.Distance, &a.Duration, &a.ElevationGain, &a.AverageSpeed, &a.MaxSpeed,
		&a.AverageHeartRate, &a.MaxHeartRate, &a.Calories, &a.StartDate,
		&a.Polyline, &a.CreatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return domain.Activity{}, err
	}
	a.ID = fromPgUUID(id)
	a.UserID = fromPgUUID(userID)
	a.Type = domain.ActivityType(activityType)
	return a, nil
}
