package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/stridelog/internal/middleware"
)

// userID returns the caller's id. Routes behind RequireUser always have one.
func userID(r *http.Request) uuid.UUID {
	id, _ := middleware.UserID(r.Context())
	return id
}

// pathUUID parses the named URL parameter, writing a 422 when it is not a UUID.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		badRequest(w, "invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter. A missing parameter
// returns nil.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (*int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(w, "invalid "+name+": must be an integer")
		return nil, false
	}
	return &n, true
}
