package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/stridelog/internal/domain"
)

// SegmentRepo is read-only: segments and efforts are loaded by sync jobs.
type SegmentRepo interface {
	// List returns all segments, newest first.
	List(ctx context.Context) ([]domain.Segment, error)

	GetByID(ctx context.Context, id uuid.UUID) (domain.Segment, error)

	// Leaderboard returns the fastest efforts on a segment, with the
	// athlete's display name.
	Leaderboard(ctx context.Context, segmentID uuid.UUID, limit int) ([]domain.SegmentEffort, error)

	// BestEffort returns the user's fastest effort on a segment.
	// Returns domain.ErrNotFound if the user has none.
	BestEffort(ctx context.Context, segmentID, userID uuid.UUID) (domain.SegmentEffort, error)

	// CountEfforts returns the number of efforts recorded on a segment.
	CountEfforts(ctx context.Context, segmentID uuid.UUID) (int, error)
}

type pgSegmentRepo struct {
	db db
}

// NewSegmentRepo constructs a SegmentRepo backed by the provided db connection.
func NewSegmentRepo(db db) SegmentRepo {
	return &pgSegmentRepo{db: db}
}

const effortColumns = `
	e.id, e.segment_id, e.user_id, COALESCE(p.full_name, ''), e.elapsed_time,
	e.average_heart_rate, e.max_heart_rate, e.start_date`

func (r *pgSegmentRepo) List(ctx context.Context) ([]domain.Segment, error) {
	const q = `
		SELECT id, name, activity_type, distance, elevation_gain, created_at
		FROM segments
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.SegmentRepo.List: %w", err)
	}
	segments, err := collect(rows, scanSegment)
	if err != nil {
		return nil, fmt.Errorf("repo.SegmentRepo.List: scan: %w", err)
	}
	return segments, nil
}

func (r *pgSegmentRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Segment, error) {
	const q = `
		SELECT id, name, activity_type, distance, elevation_gain, created_at
		FROM segments
		WHERE id = @id`

	result, err := scanSegment(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Segment{}, fmt.Errorf("repo.SegmentRepo.GetByID: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgSegmentRepo) Leaderboard(ctx context.Context, segmentID uuid.UUID, limit int) ([]domain.SegmentEffort, error) {
	q := `SELECT` + effortColumns + `
		FROM segment_efforts e LEFT JOIN profiles p ON p.id = e.user_id
		WHERE e.segment_id = @segment_id
		ORDER BY e.elapsed_time ASC, e.start_date ASC
		LIMIT @limit`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"segment_id": segmentID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.SegmentRepo.Leaderboard: %w", err)
	}
	efforts, err := collect(rows, scanEffort)
	if err != nil {
		return nil, fmt.Errorf("repo.SegmentRepo.Leaderboard: scan: %w", err)
	}
	return efforts, nil
}

func (r *pgSegmentRepo) BestEffort(ctx context.Context, segmentID, userID uuid.UUID) (domain.SegmentEffort, error) {
	q := `SELECT` + effortColumns + `
		FROM segment_efforts e LEFT JOIN profiles p ON p.id = e.user_id
		WHERE e.segment_id = @segment_id AND e.user_id = @user_id
		ORDER BY e.elapsed_time ASC
		LIMIT 1`

	result, err := scanEffort(r.db.QueryRow(ctx, q, pgx.NamedArgs{"segment_id": segmentID, "user_id": userID}))
	if err != nil {
		return domain.SegmentEffort{}, fmt.Errorf("repo.SegmentRepo.BestEffort: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgSegmentRepo) CountEfforts(ctx context.Context, segmentID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM segment_efforts WHERE segment_id = @segment_id`,
		pgx.NamedArgs{"segment_id": segmentID},
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("repo.SegmentRepo.CountEfforts: %w", err)
	}
	return n, nil
}

func scanSegment(s scanner) (domain.Segment, error) {
	var (
		seg          domain.Segment
		id           pgtype.UUID
		activityType string
	)
	if err := s.Scan(&id, &seg.Name, &activityType, &seg.Distance, &seg.ElevationGain, &seg.CreatedAt); err != nil {
		return domain.Segment{}, err
	}
	seg.ID = fromPgUUID(id)
	seg.Type = domain.ActivityType(activityType)
	return seg, nil
}

func scanEffort(s scanner) (domain.SegmentEffort, error) {
	var (
		e                     domain.SegmentEffort
		id, segmentID, userID pgtype.UUID
	)
	err := s.Scan(&id, &segmentID, &userID, &e.AthleteName, &e.ElapsedTime,
		&e.AverageHeartRate, &e.MaxHeartRate, &e.StartDate)
	if err != nil {
		return domain.SegmentEffort{}, err
	}
	e.ID = fromPgUUID(id)
	e.SegmentID = fromPgUUID(segmentID)
	e.UserID = fromPgUUID(userID)
	return e, nil
}
