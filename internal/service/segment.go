package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/repo"
)

// leaderboardSize is the number of efforts on a segment leaderboard.
const leaderboardSize = 10

// SegmentService exposes segments, leaderboards and personal stats.
type SegmentService struct {
	repo repo.SegmentRepo
}

// NewSegmentService constructs a SegmentService backed by the provided repo.
func NewSegmentService(r repo.SegmentRepo) *SegmentService {
	return &SegmentService{repo: r}
}

// List returns every segment.
func (s *SegmentService) List(ctx context.Context) ([]domain.Segment, error) {
	segments, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.SegmentService.List: %w", err)
	}
	return nonNil(segments), nil
}

// Get returns one segment.
func (s *SegmentService) Get(ctx context.Context, id uuid.UUID) (domain.Segment, error) {
	seg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Segment{}, fmt.Errorf("service.SegmentService.Get: %w", err)
	}
	return seg, nil
}

// Leaderboard returns the ten fastest efforts on a segment.
func (s *SegmentService) Leaderboard(ctx context.Context, id uuid.UUID) ([]domain.SegmentEffort, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("service.SegmentService.Leaderboard: %w", err)
	}
	efforts, err := s.repo.Leaderboard(ctx, id, leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("service.SegmentService.Leaderboard: %w", err)
	}
	return nonNil(efforts), nil
}

// Stats returns the user's best effort and the segment's effort count.
// Best is nil when the user has never ridden or run the segment.
func (s *SegmentService) Stats(ctx context.Context, userID, id uuid.UUID) (domain.SegmentStats, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return domain.SegmentStats{}, fmt.Errorf("service.SegmentService.Stats: %w", err)
	}

	var stats domain.SegmentStats
	best, err := s.repo.BestEffort(ctx, id, userID)
	switch {
	case err == nil:
		stats.Best = &best
	case !errors.Is(err, domain.ErrNotFound):
		return domain.SegmentStats{}, fmt.Errorf("service.SegmentService.Stats: %w", err)
	}

	stats.TotalEfforts, err = s.repo.CountEfforts(ctx, id)
	if err != nil {
		return domain.SegmentStats{}, fmt.Errorf("service.SegmentService.Stats: %w", err)
	}
	return stats, nil
}
