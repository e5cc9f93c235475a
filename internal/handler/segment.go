package handler

import "net/http"

// ListSegments handles GET /api/segments.
func (s *Server) ListSegments(w http.ResponseWriter, r *http.Request) {
	segs, err := s.opts.Segments.List(r.Context())
	if err != nil {
		s.fail(w, r, err, "segment")
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(segs, segmentToResponse))
}

// GetSegment handles GET /api/segments/{id}.
func (s *Server) GetSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	seg, err := s.opts.Segments.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "segment")
		return
	}
	writeJSON(w, http.StatusOK, segmentToResponse(seg))
}

// GetLeaderboard handles GET /api/segments/{id}/leaderboard.
func (s *Server) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	efforts, err := s.opts.Segments.Leaderboard(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "segment")
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(efforts, effortToResponse))
}

// GetSegmentStats handles GET /api/segments/{id}/stats.
// best_effort is null when the caller has no effort on the segment.
func (s *Server) GetSegmentStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	st, err := s.opts.Segments.Stats(r.Context(), userID(r), id)
	if err != nil {
		s.fail(w, r, err, "segment")
		return
	}
	out := SegmentStats{TotalEfforts: st.TotalEfforts}
	if st.Best != nil {
		best := effortToResponse(*st.Best)
		out.BestEffort = &best
	}
	writeJSON(w, http.StatusOK, out)
}
