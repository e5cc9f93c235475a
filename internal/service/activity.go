package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/geo"
	"github.com/pkordes/stridelog/internal/polyline"
	"github.com/pkordes/stridelog/internal/repo"
)

// statsWindow is how far back the dashboard overview looks.
const statsWindow = 30 * 24 * time.Hour

// ActivityDetail is an activity with its decoded route.
// PathDistance is recomputed from the waypoints and is 0 without a polyline.
type ActivityDetail struct {
	domain.Activity
	Waypoints    []geo.Point
	PathDistance float64
}

// ActivityService implements the activity list, detail, stats and export.
type ActivityService struct {
	repo repo.ActivityRepo
	log  *slog.Logger
	now  Clock
}

// NewActivityService constructs an ActivityService backed by the provided repo.
func NewActivityService(r repo.ActivityRepo, log *slog.Logger) *ActivityService {
	return &ActivityService{repo: r, log: log, now: utcNow}
}

// List returns one page of the user's activities, newest first, with the
// total number of activities.
func (s *ActivityService) List(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Activity, int64, error) {
	activities, total, err := s.repo.ListPaged(ctx, userID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ActivityService.List: %w", err)
	}
	return nonNil(activities), total, nil
}

// Get returns one of the user's activities. A polyline that fails to decode
// is logged and the detail is returned without waypoints.
func (s *ActivityService) Get(ctx context.Context, userID, id uuid.UUID) (ActivityDetail, error) {
	a, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return ActivityDetail{}, fmt.Errorf("service.ActivityService.Get: %w", err)
	}

	detail := ActivityDetail{Activity: a, Waypoints: []geo.Point{}}
	if a.Polyline == "" {
		return detail, nil
	}
	points, err := polyline.Decode(a.Polyline)
	if err != nil {
		s.log.WarnContext(ctx, "activity polyline undecodable",
			"activity_id", a.ID, "error", err)
		return detail, nil
	}
	detail.Waypoints = points
	detail.PathDistance = geo.Distance(points)
	return detail, nil
}

// Delete removes one of the user's activities.
func (s *ActivityService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("service.ActivityService.Delete: %w", err)
	}
	return nil
}

// Stats aggregates the user's activities over the last 30 days.
func (s *ActivityService) Stats(ctx context.Context, userID uuid.UUID) (domain.ActivityStats, error) {
	stats, err := s.repo.Stats(ctx, userID, s.now().Add(-statsWindow))
	if err != nil {
		return domain.ActivityStats{}, fmt.Errorf("service.ActivityService.Stats: %w", err)
	}
	return stats, nil
}

// Export returns every activity the user has, oldest first.
func (s *ActivityService) Export(ctx context.Context, userID uuid.UUID) ([]domain.Activity, error) {
	activities, err := s.repo.ListBetween(ctx, userID, time.Unix(0, 0).UTC(), s.now().AddDate(1, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("service.ActivityService.Export: %w", err)
	}
	return nonNil(activities), nil
}
