package handler

import (
	"net/http"

	"github.com/pkordes/stridelog/internal/geo"
	"github.com/pkordes/stridelog/internal/service"
)

// CreateRoute handles POST /api/routes. The body carries either waypoints
// or an encoded polyline.
func (s *Server) CreateRoute(w http.ResponseWriter, r *http.Request) {
	var body CreateRouteRequest
	if !readBody(w, r, &body) {
		return
	}
	route, err := s.opts.Routes.Create(r.Context(), userID(r), service.RouteInput{
		Name:          body.Name,
		Description:   body.Description,
		Type:          body.ActivityType,
		ElevationGain: body.ElevationGain,
		IsPublic:      body.IsPublic,
		Waypoints:     body.Waypoints,
		Polyline:      body.Polyline,
	})
	if err != nil {
		s.fail(w, r, err, "route")
		return
	}
	writeJSON(w, http.StatusCreated, routeToResponse(route))
}

// ListRoutes handles GET /api/routes.
func (s *Server) ListRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := s.opts.Routes.ListMine(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "route")
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(routes, routeToResponse))
}

// ListPublicRoutes handles GET /api/routes/public.
func (s *Server) ListPublicRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := s.opts.Routes.ListPublic(r.Context())
	if err != nil {
		s.fail(w, r, err, "route")
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(routes, routeToResponse))
}

// PreviewRoute handles POST /api/routes/preview. Nothing is stored.
func (s *Server) PreviewRoute(w http.ResponseWriter, r *http.Request) {
	var body WaypointsRequest
	if !readBody(w, r, &body) {
		return
	}
	snap, err := s.opts.Routes.Preview(body.Waypoints)
	if err != nil {
		s.fail(w, r, err, "route")
		return
	}
	writeJSON(w, http.StatusOK, previewToResponse(snap))
}

// GetRoute handles GET /api/routes/{id}.
func (s *Server) GetRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	route, err := s.opts.Routes.Get(r.Context(), userID(r), id)
	if err != nil {
		s.fail(w, r, err, "route")
		return
	}
	writeJSON(w, http.StatusOK, routeToResponse(route))
}

// GetRouteWaypoints handles GET /api/routes/{id}/waypoints.
func (s *Server) GetRouteWaypoints(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	points, err := s.opts.Routes.Waypoints(r.Context(), userID(r), id)
	if err != nil {
		s.fail(w, r, err, "route")
		return
	}
	if points == nil {
		points = []geo.Point{}
	}
	writeJSON(w, http.StatusOK, WaypointsResponse{Waypoints: points})
}

// DeleteRoute handles DELETE /api/routes/{id}.
func (s *Server) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.opts.Routes.Delete(r.Context(), userID(r), id); err != nil {
		s.fail(w, r, err, "route")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
