package handler

import (
	"errors"
	"net/http"

	"github.com/pkordes/stridelog/internal/middleware"
	"github.com/pkordes/stridelog/internal/service"
)

const (
	stateCookie    = "strava_oauth_state"
	redirectCookie = "strava_post_connect_redirect"
	// oauthCookieMaxAge bounds how long the user has to approve on Strava.
	oauthCookieMaxAge = 300
)

// StravaAuth handles GET /api/strava/auth?redirect=.
// It stores the OAuth state and the post-connect path in cookies and sends
// the browser to Strava's consent page.
func (s *Server) StravaAuth(w http.ResponseWriter, r *http.Request) {
	start, err := s.opts.Connect.BeginAuth(r.URL.Query().Get("redirect"))
	if err != nil {
		s.fail(w, r, err, "strava connection")
		return
	}
	http.SetCookie(w, s.oauthCookie(stateCookie, start.State, oauthCookieMaxAge))
	http.SetCookie(w, s.oauthCookie(redirectCookie, start.Redirect, oauthCookieMaxAge))
	http.Redirect(w, r, start.URL, http.StatusFound)
}

// StravaCallback handles GET /api/strava/callback.
// Every outcome except a missing code is a redirect into the app.
func (s *Server) StravaCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	uid, hasUser := middleware.UserID(r.Context())
	in := service.CallbackInput{
		Code:           q.Get("code"),
		State:          q.Get("state"),
		Error:          q.Get("error"),
		ErrorRedirect:  q.Get("redirect"),
		CookieState:    cookieValue(r, stateCookie),
		CookieRedirect: cookieValue(r, redirectCookie),
		UserID:         uid,
		HasUser:        hasUser,
	}

	dest, err := s.opts.Connect.Callback(r.Context(), in)
	if errors.Is(err, service.ErrMissingCode) {
		writeError(w, http.StatusBadRequest, "bad_request", "missing code")
		return
	}
	if err != nil {
		s.fail(w, r, err, "strava connection")
		return
	}

	if dest.ClearCookies {
		http.SetCookie(w, s.oauthCookie(stateCookie, "", -1))
		http.SetCookie(w, s.oauthCookie(redirectCookie, "", -1))
	}
	http.Redirect(w, r, dest.Location(s.opts.AppURL), http.StatusFound)
}

// GetStravaConnection handles GET /api/strava/connection.
func (s *Server) GetStravaConnection(w http.ResponseWriter, r *http.Request) {
	c, err := s.opts.Connect.Connection(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "strava connection")
		return
	}
	writeJSON(w, http.StatusOK, connectionToResponse(c))
}

// DisconnectStrava handles DELETE /api/strava/connection.
func (s *Server) DisconnectStrava(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Connect.Disconnect(r.Context(), userID(r)); err != nil {
		s.fail(w, r, err, "strava connection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSyncHistory handles GET /api/strava/sync-history.
func (s *Server) GetSyncHistory(w http.ResponseWriter, r *http.Request) {
	runs, err := s.opts.Connect.SyncHistory(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "sync history")
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(runs, syncRunToResponse))
}

// oauthCookie builds one of the short-lived OAuth cookies. A negative
// maxAge deletes it.
func (s *Server) oauthCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
