package strava_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/strava"
)

func TestFetchActivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/activities/99", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"id": 99, "name": "Lunch Ride", "type": "GravelRide",
			"distance": 25000.5, "moving_time": 3600,
			"start_date": "2025-05-01T12:00:00Z",
			"map": {"summary_polyline": "_p~iF~ps|U"}
		}`))
	}))
	defer srv.Close()

	got, err := strava.NewAPIClient(srv.URL, nil).FetchActivity(context.Background(), "tok", 99)

	require.NoError(t, err)
	p := got.Patch()
	require.NotNil(t, p.Title)
	assert.Equal(t, "Lunch Ride", *p.Title)
	require.NotNil(t, p.Type)
	assert.Equal(t, domain.ActivityRide, *p.Type)
	require.NotNil(t, p.Duration)
	assert.Equal(t, 3600, *p.Duration)
	require.NotNil(t, p.Polyline)
	assert.Equal(t, "_p~iF~ps|U", *p.Polyline)
	assert.Nil(t, p.Calories)
}

func TestFetchActivity_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := strava.NewAPIClient(srv.URL, nil).FetchActivity(context.Background(), "tok", 1)

	assert.ErrorIs(t, err, strava.ErrActivityNotFound)
}

func TestFetchActivity_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := strava.NewAPIClient(srv.URL, nil).FetchActivity(context.Background(), "expired", 1)

	require.Error(t, err)
	assert.ErrorContains(t, err, "401")
}
