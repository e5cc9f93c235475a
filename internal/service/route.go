package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/geo"
	"github.com/pkordes/stridelog/internal/polyline"
	"github.com/pkordes/stridelog/internal/repo"
	"github.com/pkordes/stridelog/internal/routeeditor"
)

// publicRoutesLimit caps the public route listing.
const publicRoutesLimit = 20

// RouteInput describes a route to save. Exactly one of Waypoints or
// Polyline should be set; Waypoints wins when both are.
type RouteInput struct {
	Name          string
	Description   string
	Type          domain.ActivityType
	ElevationGain *float64
	IsPublic      bool
	Waypoints     []geo.Point
	Polyline      string
}

// RouteService implements saved routes and the stateless preview.
type RouteService struct {
	repo repo.RouteRepo
}

// NewRouteService constructs a RouteService backed by the provided repo.
func NewRouteService(r repo.RouteRepo) *RouteService {
	return &RouteService{repo: r}
}

// Create derives the polyline and distance and persists the route.
func (s *RouteService) Create(ctx context.Context, userID uuid.UUID, in RouteInput) (domain.Route, error) {
	if blank(in.Name) {
		return domain.Route{}, invalid("name is required")
	}
	if in.Type == "" {
		in.Type = domain.ActivityRun
	}
	if !in.Type.Valid() {
		return domain.Route{}, invalid("activity_type must be one of run, ride, swim, other")
	}

	points, err := routePoints(in)
	if err != nil {
		return domain.Route{}, err
	}
	if len(points) < 2 {
		return domain.Route{}, invalid("a route needs at least 2 waypoints")
	}
	snap := routeeditor.Restore(points, nil).Snapshot()
	if !(snap.Distance > 0) {
		return domain.Route{}, invalid("route distance must be greater than 0")
	}

	route, err := s.repo.Create(ctx, domain.Route{
		UserID:        userID,
		Name:          in.Name,
		Description:   in.Description,
		Type:          in.Type,
		Distance:      snap.Distance,
		ElevationGain: in.ElevationGain,
		Polyline:      snap.Polyline,
		IsPublic:      in.IsPublic,
	})
	if err != nil {
		return domain.Route{}, fmt.Errorf("service.RouteService.Create: %w", err)
	}
	return route, nil
}

func routePoints(in RouteInput) ([]geo.Point, error) {
	if len(in.Waypoints) > 0 {
		if err := validatePoints(in.Waypoints); err != nil {
			return nil, err
		}
		return in.Waypoints, nil
	}
	if in.Polyline == "" {
		return nil, invalid("waypoints or polyline is required")
	}
	points, err := polyline.Decode(in.Polyline)
	if err != nil {
		return nil, invalid("polyline: %s", err)
	}
	if err := validatePoints(points); err != nil {
		return nil, err
	}
	return points, nil
}

// ListMine returns the user's routes, newest first.
func (s *RouteService) ListMine(ctx context.Context, userID uuid.UUID) ([]domain.Route, error) {
	routes, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.RouteService.ListMine: %w", err)
	}
	return nonNil(routes), nil
}

// ListPublic returns the newest public routes from every user.
func (s *RouteService) ListPublic(ctx context.Context) ([]domain.Route, error) {
	routes, err := s.repo.ListPublic(ctx, publicRoutesLimit)
	if err != nil {
		return nil, fmt.Errorf("service.RouteService.ListPublic: %w", err)
	}
	return nonNil(routes), nil
}

// Get returns a route the user owns or that is public.
func (s *RouteService) Get(ctx context.Context, userID, id uuid.UUID) (domain.Route, error) {
	route, err := s.repo.GetVisible(ctx, userID, id)
	if err != nil {
		return domain.Route{}, fmt.Errorf("service.RouteService.Get: %w", err)
	}
	return route, nil
}

// Waypoints decodes a visible route's polyline.
func (s *RouteService) Waypoints(ctx context.Context, userID, id uuid.UUID) ([]geo.Point, error) {
	route, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	points, err := polyline.Decode(route.Polyline)
	if err != nil {
		return nil, fmt.Errorf("service.RouteService.Waypoints: %w", err)
	}
	return points, nil
}

// Delete removes one of the user's routes.
func (s *RouteService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("service.RouteService.Delete: %w", err)
	}
	return nil
}

// Preview returns the distance and polyline for waypoints without storing
// anything.
func (s *RouteService) Preview(points []geo.Point) (routeeditor.Snapshot, error) {
	if err := validatePoints(points); err != nil {
		return routeeditor.Snapshot{}, err
	}
	return routeeditor.Restore(points, nil).Snapshot(), nil
}
