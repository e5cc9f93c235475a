package handler

import (
	"net/http"

	"github.com/pkordes/stridelog/internal/domain"
)

// ListActivities handles GET /api/activities?page=&limit=.
func (s *Server) ListActivities(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(w, r, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	p := domain.NewPaginationParams(page, limit)

	items, total, err := s.opts.Activities.List(r.Context(), userID(r), p)
	if err != nil {
		s.fail(w, r, err, "activity")
		return
	}
	writeJSON(w, http.StatusOK, ActivityList{
		Data:       mapSlice(items, activityToResponse),
		Pagination: Pagination{Page: p.Page, Limit: p.Limit, Total: int(total)},
	})
}

// GetActivityStats handles GET /api/activities/stats.
func (s *Server) GetActivityStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.opts.Activities.Stats(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "activity")
		return
	}
	writeJSON(w, http.StatusOK, ActivityStats{
		Since:         st.Since,
		Count:         st.Count,
		Distance:      st.Distance,
		Duration:      st.Duration,
		ElevationGain: st.ElevationGain,
		Calories:      st.Calories,

		AverageHeartRate: st.AverageHeartRate,
		MaxHeartRate:     st.MaxHeartRate,
	})
}

// GetActivity handles GET /api/activities/{id}.
func (s *Server) GetActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	d, err := s.opts.Activities.Get(r.Context(), userID(r), id)
	if err != nil {
		s.fail(w, r, err, "activity")
		return
	}
	writeJSON(w, http.StatusOK, activityDetailToResponse(d))
}

// DeleteActivity handles DELETE /api/activities/{id}.
func (s *Server) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.opts.Activities.Delete(r.Context(), userID(r), id); err != nil {
		s.fail(w, r, err, "activity")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
