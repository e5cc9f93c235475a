package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/stridelog/internal/cache"
	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/geo"
	"github.com/pkordes/stridelog/internal/routeeditor"
)

// DraftStore is the persistence the draft service needs. *cache.DraftStore
// satisfies it.
type DraftStore interface {
	Get(id uuid.UUID) (cache.Draft, error)
	Put(d cache.Draft) error
	Delete(id uuid.UUID) bool
}

// DraftView is the state returned to the client after every draft operation.
type DraftView struct {
	ID uuid.UUID
	routeeditor.Snapshot
}

// SaveDraftInput names the route a draft is saved as.
type SaveDraftInput struct {
	Name          string
	Description   string
	Type          domain.ActivityType
	ElevationGain *float64
	IsPublic      bool
}

// DraftService runs the route editor over drafts held in a DraftStore.
// A draft is acquired by Create and released by Save or Discard.
type DraftService struct {
	store  DraftStore
	routes *RouteService
	now    Clock

	// mu serialises load, edit, store.
	mu sync.Mutex
}

// NewDraftService constructs a DraftService. Saved drafts become routes
// through routes.
func NewDraftService(store DraftStore, routes *RouteService) *DraftService {
	return &DraftService{store: store, routes: routes, now: utcNow}
}

// Create starts an empty draft owned by userID.
func (s *DraftService) Create(userID uuid.UUID) (DraftView, error) {
	d := cache.Draft{ID: uuid.New(), UserID: userID, CreatedAt: s.now()}
	if err := s.store.Put(d); err != nil {
		return DraftView{}, fmt.Errorf("service.DraftService.Create: %w", err)
	}
	return DraftView{ID: d.ID, Snapshot: routeeditor.New(nil).Snapshot()}, nil
}

// Get returns the current state of a draft.
func (s *DraftService) Get(userID, id uuid.UUID) (DraftView, error) {
	d, err := s.load(userID, id)
	if err != nil {
		return DraftView{}, fmt.Errorf("service.DraftService.Get: %w", err)
	}
	return DraftView{ID: id, Snapshot: routeeditor.Restore(d.Waypoints, nil).Snapshot()}, nil
}

// AddPoint appends a waypoint.
func (s *DraftService) AddPoint(userID, id uuid.UUID, p geo.Point) (DraftView, error) {
	return s.edit("AddPoint", userID, id, func(e *routeeditor.Editor) error {
		return e.AddPoint(cache.Quantize(p))
	})
}

// DragPoint moves the waypoint at index.
func (s *DraftService) DragPoint(userID, id uuid.UUID, index int, p geo.Point) (DraftView, error) {
	return s.edit("DragPoint", userID, id, func(e *routeeditor.Editor) error {
		return e.DragPoint(index, cache.Quantize(p))
	})
}

// Undo removes the last waypoint. Undo on an empty draft changes nothing.
func (s *DraftService) Undo(userID, id uuid.UUID) (DraftView, error) {
	return s.edit("Undo", userID, id, func(e *routeeditor.Editor) error {
		e.Undo()
		return nil
	})
}

// Clear removes every waypoint.
func (s *DraftService) Clear(userID, id uuid.UUID) (DraftView, error) {
	return s.edit("Clear", userID, id, func(e *routeeditor.Editor) error {
		e.Clear()
		return nil
	})
}

// Save stores the draft as a route and releases the draft. The draft is kept
// when the route is rejected so the user can fix it.
func (s *DraftService) Save(ctx context.Context, userID, id uuid.UUID, in SaveDraftInput) (domain.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load(userID, id)
	if err != nil {
		return domain.Route{}, fmt.Errorf("service.DraftService.Save: %w", err)
	}
	route, err := s.routes.Create(ctx, userID, RouteInput{
		Name:          in.Name,
		Description:   in.Description,
		Type:          in.Type,
		ElevationGain: in.ElevationGain,
		IsPublic:      in.IsPublic,
		Waypoints:     d.Waypoints,
	})
	if err != nil {
		return domain.Route{}, err
	}
	s.store.Delete(id)
	return route, nil
}

// Discard releases a draft without saving it.
func (s *DraftService) Discard(userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(userID, id); err != nil {
		return fmt.Errorf("service.DraftService.Discard: %w", err)
	}
	s.store.Delete(id)
	return nil
}

// edit loads the draft, applies op and stores the result when the editor
// reported a change.
func (s *DraftService) edit(name string, userID, id uuid.UUID, op func(*routeeditor.Editor) error) (DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.load(userID, id)
	if err != nil {
		return DraftView{}, fmt.Errorf("service.DraftService.%s: %w", name, err)
	}

	var changed *routeeditor.Snapshot
	e := routeeditor.Restore(d.Waypoints, func(snap routeeditor.Snapshot) { changed = &snap })

	if err := op(e); err != nil {
		return DraftView{}, invalid("%s", errors.Unwrap(err))
	}

	if changed == nil {
		return DraftView{ID: id, Snapshot: e.Snapshot()}, nil
	}
	d.Waypoints = changed.Waypoints
	if err := s.store.Put(d); err != nil {
		return DraftView{}, fmt.Errorf("service.DraftService.%s: %w", name, err)
	}
	return DraftView{ID: id, Snapshot: *changed}, nil
}

// load fetches a draft and hides drafts owned by someone else.
func (s *DraftService) load(userID, id uuid.UUID) (cache.Draft, error) {
	d, err := s.store.Get(id)
	if err != nil {
		return cache.Draft{}, err
	}
	if d.UserID != userID {
		return cache.Draft{}, domain.ErrNotFound
	}
	return d, nil
}
