// Package strava talks to the Strava OAuth endpoints and REST API and
// defines the shape of Strava webhook events.
package strava

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

const (
	AuthURL    = "https://www.strava.com/oauth/authorize"
	TokenURL   = "https://www.strava.com/oauth/token"
	APIBaseURL = "https://www.strava.com/api/v3"

	// Scope is sent as a single comma-separated value, the way Strava expects it.
	Scope = "read,activity:read_all,profile:read_all"

	httpTimeout = 10 * time.Second
)

// ErrInvalidTokenResponse is returned when Strava answers the code exchange
// without an athlete id or access token.
var ErrInvalidTokenResponse = errors.New("invalid token response")

// OAuthConfig configures an OAuthClient. AuthURL and TokenURL default to
// Strava's production endpoints.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	HTTPClient   *http.Client
}

// Grant is the result of a successful authorization code exchange.
type Grant struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// OAuthClient builds authorize URLs and exchanges authorization codes.
type OAuthClient struct {
	cfg        oauth2.Config
	httpClient *http.Client
}

// NewOAuthClient returns a client for the Strava authorization code flow.
func NewOAuthClient(c OAuthConfig) *OAuthClient {
	authURL, tokenURL := c.AuthURL, c.TokenURL
	if authURL == "" {
		authURL = AuthURL
	}
	if tokenURL == "" {
		tokenURL = TokenURL
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: httpTimeout}
	}
	return &OAuthClient{
		cfg: oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Scopes:       []string{Scope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: hc,
	}
}

// AuthCodeURL returns the Strava authorize URL carrying state.
func (c *OAuthClient) AuthCodeURL(state string) string {
	return c.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "auto"))
}

// Exchange trades an authorization code for tokens. The athlete id is read
// from the "athlete" object Strava embeds in the token response.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (Grant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		var (
			retrieveErr *oauth2.RetrieveError
			urlErr      *url.Error
		)
		if errors.As(err, &retrieveErr) || errors.As(err, &urlErr) {
			return Grant{}, fmt.Errorf("strava.OAuthClient.Exchange: %w", err)
		}
		// A 2xx answer whose body carries no usable token.
		return Grant{}, fmt.Errorf("strava.OAuthClient.Exchange: %w: %v", ErrInvalidTokenResponse, err)
	}

	g := Grant{
		AthleteID:    athleteID(tok.Extra("athlete")),
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if g.AthleteID == 0 || g.AccessToken == "" {
		return Grant{}, fmt.Errorf("strava.OAuthClient.Exchange: %w", ErrInvalidTokenResponse)
	}

	if at, ok := tok.Extra("expires_at").(float64); ok && at > 0 {
		t := time.Unix(int64(at), 0).UTC()
		g.ExpiresAt = &t
	} else if !tok.Expiry.IsZero() {
		t := tok.Expiry.UTC()
		g.ExpiresAt = &t
	}
	return g, nil
}

func athleteID(v any) int64 {
	athlete, ok := v.(map[string]any)
	if !ok {
		return 0
	}
	switch id := athlete["id"].(type) {
	case float64:
		return int64(id)
	case string:
		var n int64
		if _, err := fmt.Sscan(id, &n); err == nil {
			return n
		}
	}
	return 0
}
