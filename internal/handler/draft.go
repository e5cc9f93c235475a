package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/stridelog/internal/geo"
	"github.com/pkordes/stridelog/internal/service"
)

// Route drafts are the server side of the interactive route editor. Each
// endpoint returns the draft's full state so the client can redraw.

// CreateDraft handles POST /api/route-drafts.
func (s *Server) CreateDraft(w http.ResponseWriter, r *http.Request) {
	v, err := s.opts.Drafts.Create(userID(r))
	if err != nil {
		s.fail(w, r, err, "route draft")
		return
	}
	writeJSON(w, http.StatusCreated, draftToResponse(v))
}

// GetDraft handles GET /api/route-drafts/{id}.
func (s *Server) GetDraft(w http.ResponseWriter, r *http.Request) {
	s.draftOp(w, r, func(id uuid.UUID) (service.DraftView, error) {
		return s.opts.Drafts.Get(userID(r), id)
	})
}

// AddDraftPoint handles POST /api/route-drafts/{id}/points.
func (s *Server) AddDraftPoint(w http.ResponseWriter, r *http.Request) {
	var p geo.Point
	if !readBody(w, r, &p) {
		return
	}
	s.draftOp(w, r, func(id uuid.UUID) (service.DraftView, error) {
		return s.opts.Drafts.AddPoint(userID(r), id, p)
	})
}

// DragDraftPoint handles PUT /api/route-drafts/{id}/points/{index}.
func (s *Server) DragDraftPoint(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		badRequest(w, "invalid index: must be an integer")
		return
	}
	var p geo.Point
	if !readBody(w, r, &p) {
		return
	}
	s.draftOp(w, r, func(id uuid.UUID) (service.DraftView, error) {
		return s.opts.Drafts.DragPoint(userID(r), id, index, p)
	})
}

// UndoDraft handles POST /api/route-drafts/{id}/undo.
func (s *Server) UndoDraft(w http.ResponseWriter, r *http.Request) {
	s.draftOp(w, r, func(id uuid.UUID) (service.DraftView, error) {
		return s.opts.Drafts.Undo(userID(r), id)
	})
}

// ClearDraft handles POST /api/route-drafts/{id}/clear.
func (s *Server) ClearDraft(w http.ResponseWriter, r *http.Request) {
	s.draftOp(w, r, func(id uuid.UUID) (service.DraftView, error) {
		return s.opts.Drafts.Clear(userID(r), id)
	})
}

// SaveDraft handles POST /api/route-drafts/{id}/save. On success the draft
// is gone and the saved route is returned.
func (s *Server) SaveDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body SaveDraftRequest
	if !readBody(w, r, &body) {
		return
	}
	route, err := s.opts.Drafts.Save(r.Context(), userID(r), id, service.SaveDraftInput{
		Name:          body.Name,
		Description:   body.Description,
		Type:          body.ActivityType,
		ElevationGain: body.ElevationGain,
		IsPublic:      body.IsPublic,
	})
	if err != nil {
		s.fail(w, r, err, "route draft")
		return
	}
	writeJSON(w, http.StatusCreated, routeToResponse(route))
}

// DiscardDraft handles DELETE /api/route-drafts/{id}.
func (s *Server) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.opts.Drafts.Discard(userID(r), id); err != nil {
		s.fail(w, r, err, "route draft")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// draftOp parses the draft id, runs op and writes the resulting state.
func (s *Server) draftOp(w http.ResponseWriter, r *http.Request, op func(id uuid.UUID) (service.DraftView, error)) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	v, err := op(id)
	if err != nil {
		s.fail(w, r, err, "route draft")
		return
	}
	writeJSON(w, http.StatusOK, draftToResponse(v))
}
