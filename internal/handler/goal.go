package handler

import (
	"net/http"

	"github.com/pkordes/stridelog/internal/service"
)

// CreateGoal handles POST /api/goals.
func (s *Server) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var body CreateGoalRequest
	if !readBody(w, r, &body) {
		return
	}
	g, err := s.opts.Goals.Create(r.Context(), userID(r), service.GoalInput{
		Title:       body.Title,
		Description: body.Description,
		Type:        body.GoalType,
		TargetValue: body.TargetValue,
		Period:      body.Period,
	})
	if err != nil {
		s.fail(w, r, err, "goal")
		return
	}
	writeJSON(w, http.StatusCreated, goalToResponse(g))
}

// ListGoals handles GET /api/goals.
func (s *Server) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.opts.Goals.List(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "goal")
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(goals, goalToResponse))
}

// GetGoalProgress handles GET /api/goals/progress.
func (s *Server) GetGoalProgress(w http.ResponseWriter, r *http.Request) {
	sum, err := s.opts.Goals.Progress(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "goal")
		return
	}
	writeJSON(w, http.StatusOK, GoalProgress{
		Total:           sum.Total,
		Completed:       sum.Completed,
		AverageProgress: sum.AverageProgress,
	})
}

// DeleteGoal handles DELETE /api/goals/{id}.
func (s *Server) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.opts.Goals.Delete(r.Context(), userID(r), id); err != nil {
		s.fail(w, r, err, "goal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RefreshGoal handles POST /api/goals/{id}/refresh.
func (s *Server) RefreshGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	g, err := s.opts.Goals.Refresh(r.Context(), userID(r), id)
	if err != nil {
		s.fail(w, r, err, "goal")
		return
	}
	writeJSON(w, http.StatusOK, goalToResponse(g))
}
