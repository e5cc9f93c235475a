package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/pkordes/stridelog/internal/metrics"
	"github.com/pkordes/stridelog/internal/middleware"
)

func TestRequestMetrics_LabelsByRoutePattern(t *testing.T) {
	m, reg := metrics.NewTestManager()
	r := chi.NewRouter()
	r.Use(middleware.NewRequestMetrics(m))
	r.Get("/api/routes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/routes/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "/api/routes/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "unmatched", "404")))

	n, err := testutil.GatherAndCount(reg, "stridelog_http_request_duration_seconds")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRequestMetrics_ImplicitOK(t *testing.T) {
	m, _ := metrics.NewTestManager()
	r := chi.NewRouter()
	r.Use(middleware.NewRequestMetrics(m))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "/healthz", "200")))
}
