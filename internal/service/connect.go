package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/repo"
	"github.com/pkordes/stridelog/internal/strava"
)

const (
	defaultConnectRedirect = "/dashboard"
	loginPath              = "/auth/login"
	syncHistoryLimit       = 20
)

// ErrMissingCode is returned by Callback when Strava sent neither a code
// nor an error.
var ErrMissingCode = errors.New("missing code")

// OAuthExchanger is the part of the Strava OAuth client the connect flow uses.
type OAuthExchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (strava.Grant, error)
}

// AuthStart is everything the handler needs to begin the OAuth dance.
type AuthStart struct {
	URL      string
	State    string
	Redirect string
}

// CallbackInput carries the callback query and the cookies set by BeginAuth.
type CallbackInput struct {
	Code           string
	State          string
	Error          string
	ErrorRedirect  string
	CookieState    string
	CookieRedirect string
	UserID         uuid.UUID
	HasUser        bool
}

// Redirect is where the browser goes after the callback, relative to the
// app URL, with one status query parameter.
type Redirect struct {
	Path         string
	Key          string
	Value        string
	ClearCookies bool
}

// Location resolves the redirect against appURL.
func (r Redirect) Location(appURL string) string {
	base, err := url.Parse(appURL)
	if err != nil {
		base = &url.URL{Path: "/"}
	}
	u := base.ResolveReference(&url.URL{Path: r.Path})
	q := u.Query()
	q.Set(r.Key, r.Value)
	u.RawQuery = q.Encode()
	return u.String()
}

// ConnectService implements the Strava account connection flow.
type ConnectService struct {
	oauth       OAuthExchanger
	connections repo.ConnectionRepo
	audit       repo.AuditRepo
	log         *slog.Logger
	now         Clock
}

// NewConnectService constructs a ConnectService.
func NewConnectService(oauth OAuthExchanger, connections repo.ConnectionRepo, audit repo.AuditRepo, log *slog.Logger) *ConnectService {
	return &ConnectService{oauth: oauth, connections: connections, audit: audit, log: log, now: utcNow}
}

// BeginAuth generates a fresh state and the Strava authorize URL.
func (s *ConnectService) BeginAuth(redirect string) (AuthStart, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return AuthStart{}, fmt.Errorf("service.ConnectService.BeginAuth: %w", err)
	}
	state := hex.EncodeToString(buf)
	return AuthStart{
		URL:      s.oauth.AuthCodeURL(state),
		State:    state,
		Redirect: SafeRedirect(redirect),
	}, nil
}

// Callback completes the flow. Every outcome other than ErrMissingCode is a
// redirect carrying either strava=connected or strava_error=<reason>.
func (s *ConnectService) Callback(ctx context.Context, in CallbackInput) (Redirect, error) {
	if in.Error != "" {
		return Redirect{Path: SafeRedirect(in.ErrorRedirect), Key: "strava_error", Value: in.Error}, nil
	}
	if in.Code == "" {
		return Redirect{}, ErrMissingCode
	}
	if in.State == "" || in.State != in.CookieState {
		return Redirect{Path: defaultConnectRedirect, Key: "strava_error", Value: "invalid_state"}, nil
	}

	after := SafeRedirect(in.CookieRedirect)
	fail := func(reason string) Redirect {
		return Redirect{Path: after, Key: "strava_error", Value: reason, ClearCookies: true}
	}

	if !in.HasUser {
		r := fail("not_authenticated")
		r.Path = loginPath
		return r, nil
	}

	grant, err := s.oauth.Exchange(ctx, in.Code)
	if err != nil {
		if errors.Is(err, strava.ErrInvalidTokenResponse) {
			s.log.WarnContext(ctx, "strava token response incomplete", "user_id", in.UserID)
			return fail("invalid_token_response"), nil
		}
		s.log.WarnContext(ctx, "strava token exchange failed", "user_id", in.UserID, "error", err)
		return fail("token_exchange_failed"), nil
	}

	_, err = s.connections.Upsert(ctx, domain.StravaConnection{
		UserID:         in.UserID,
		AthleteID:      grant.AthleteID,
		AccessToken:    grant.AccessToken,
		RefreshToken:   grant.RefreshToken,
		TokenExpiresAt: grant.ExpiresAt,
		ConnectedAt:    s.now(),
	})
	if err != nil {
		s.log.ErrorContext(ctx, "strava connection upsert failed", "user_id", in.UserID, "error", err)
		return fail("upsert_failed"), nil
	}

	s.log.InfoContext(ctx, "strava connected", "user_id", in.UserID, "athlete_id", grant.AthleteID)
	return Redirect{Path: after, Key: "strava", Value: "connected", ClearCookies: true}, nil
}

// Connection returns the user's Strava connection.
func (s *ConnectService) Connection(ctx context.Context, userID uuid.UUID) (domain.StravaConnection, error) {
	c, err := s.connections.GetByUser(ctx, userID)
	if err != nil {
		return domain.StravaConnection{}, fmt.Errorf("service.ConnectService.Connection: %w", err)
	}
	return c, nil
}

// Disconnect removes the user's Strava connection.
func (s *ConnectService) Disconnect(ctx context.Context, userID uuid.UUID) error {
	if err := s.connections.Delete(ctx, userID); err != nil {
		return fmt.Errorf("service.ConnectService.Disconnect: %w", err)
	}
	return nil
}

// SyncHistory returns the user's most recent sync runs.
func (s *ConnectService) SyncHistory(ctx context.Context, userID uuid.UUID) ([]domain.SyncRun, error) {
	runs, err := s.audit.ListSyncRuns(ctx, userID, syncHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("service.ConnectService.SyncHistory: %w", err)
	}
	return nonNil(runs), nil
}

// SafeRedirect accepts only same-site absolute paths; anything else,
// including protocol-relative "//host" URLs, becomes /dashboard.
func SafeRedirect(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return defaultConnectRedirect
	}
	u, err := url.Parse(p)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return defaultConnectRedirect
	}
	return u.Path
}
