package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type userKey struct{}

// WithUserID returns a copy of ctx carrying the caller's user id.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userKey{}, id)
}

// UserID returns the caller's user id, if the request carried a valid one.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userKey{}).(uuid.UUID)
	return id, ok
}

// NewUserIdentity reads the user id from header and stores it in the request
// context. Session issuance happens upstream; this trusts the gateway that
// sets the header. Missing or malformed values leave the context untouched.
func NewUserIdentity(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(header))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := uuid.Parse(raw)
			if err != nil || id == uuid.Nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}

// RequireUser rejects requests without a user id with 401.
// Wire it after NewUserIdentity.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserID(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid user id")
			return
		}
		next.ServeHTTP(w, r)
	})
}
