package handler

import (
	"net/http"

	"github.com/pkordes/stridelog/internal/service"
)

// CreatePlan handles POST /api/training-plans.
func (s *Server) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var body CreatePlanRequest
	if !readBody(w, r, &body) {
		return
	}
	p, err := s.opts.Training.CreatePlan(r.Context(), userID(r), service.PlanInput{
		Name:        body.Name,
		Description: body.Description,
		StartDate:   body.StartDate.Time,
		EndDate:     body.EndDate.Time,
		GoalType:    body.GoalType,
		GoalValue:   body.GoalValue,
	})
	if err != nil {
		s.fail(w, r, err, "training plan")
		return
	}
	writeJSON(w, http.StatusCreated, planToResponse(p))
}

// ListPlans handles GET /api/training-plans.
func (s *Server) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.opts.Training.ListPlans(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "training plan")
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(plans, planToResponse))
}

// DeletePlan handles DELETE /api/training-plans/{id}.
func (s *Server) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.opts.Training.DeletePlan(r.Context(), userID(r), id); err != nil {
		s.fail(w, r, err, "training plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddWorkout handles POST /api/training-plans/{id}/workouts.
func (s *Server) AddWorkout(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var body CreateWorkoutRequest
	if !readBody(w, r, &body) {
		return
	}
	wo, err := s.opts.Training.AddWorkout(r.Context(), userID(r), planID, service.WorkoutInput{
		Title:         body.Title,
		Description:   body.Description,
		ScheduledDate: body.ScheduledDate.Time,
	})
	if err != nil {
		s.fail(w, r, err, "training plan")
		return
	}
	writeJSON(w, http.StatusCreated, workoutToResponse(wo))
}

// ListUpcomingWorkouts handles GET /api/workouts/upcoming.
func (s *Server) ListUpcomingWorkouts(w http.ResponseWriter, r *http.Request) {
	workouts, err := s.opts.Training.Upcoming(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "workout")
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(workouts, workoutToResponse))
}

// CompleteWorkout handles POST /api/workouts/{id}/complete.
func (s *Server) CompleteWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	wo, err := s.opts.Training.Complete(r.Context(), userID(r), id)
	if err != nil {
		s.fail(w, r, err, "workout")
		return
	}
	writeJSON(w, http.StatusOK, workoutToResponse(wo))
}
