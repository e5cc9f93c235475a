package handler_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/handler"
	"github.com/pkordes/stridelog/internal/service"
	"github.com/pkordes/stridelog/internal/strava"
)

const webhookBody = `{"aspect_type":"create","object_type":"activity","object_id":1360128428,"owner_id":134815,"subscription_id":120475,"event_time":1516126040}`

func acceptSecret(secret string) bool { return secret == "hook-secret" }

func postWebhook(h http.Handler, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/strava", strings.NewReader(body))
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	return record(h, req)
}

// ---- GET /api/webhooks/strava ----------------------------------------------

func TestVerifyWebhook_EchoesChallenge(t *testing.T) {
	svc := &mockWebhookServicer{
		verify: func(mode, token, challenge string) (string, bool) {
			assert.Equal(t, "subscribe", mode)
			assert.Equal(t, "STRIDE", token)
			return challenge, true
		},
	}

	rec := record(newHTTPHandler(handler.Options{Webhooks: svc}),
		newRequest(http.MethodGet, "/api/webhooks/strava?hub.mode=subscribe&hub.verify_token=STRIDE&hub.challenge=15f7d1a91c1f40f8a748fd134752feb3"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hub.challenge":"15f7d1a91c1f40f8a748fd134752feb3"}`, rec.Body.String())
}

func TestVerifyWebhook_403(t *testing.T) {
	svc := &mockWebhookServicer{
		verify: func(string, string, string) (string, bool) { return "", false },
	}

	rec := record(newHTTPHandler(handler.Options{Webhooks: svc}),
		newRequest(http.MethodGet, "/api/webhooks/strava?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=x"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ---- POST /api/webhooks/strava ---------------------------------------------

func TestReceiveWebhook_200(t *testing.T) {
	var got []byte
	svc := &mockWebhookServicer{
		authenticate: acceptSecret,
		handle: func(_ context.Context, body []byte) (strava.Event, error) {
			got = body
			return strava.Event{}, nil
		},
	}

	rec := postWebhook(newHTTPHandler(handler.Options{Webhooks: svc}), "hook-secret", webhookBody)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, webhookBody, string(got))
	assert.True(t, decode[handler.WebhookAck](t, rec).Success)
}

func TestReceiveWebhook_401_BeforeReadingBody(t *testing.T) {
	svc := &mockWebhookServicer{authenticate: acceptSecret}

	rec := postWebhook(newHTTPHandler(handler.Options{Webhooks: svc}), "guess", webhookBody)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorCode(t, rec))
}

func TestReceiveWebhook_400_MissingAspect(t *testing.T) {
	svc := &mockWebhookServicer{
		authenticate: acceptSecret,
		handle: func(context.Context, []byte) (strava.Event, error) {
			return strava.Event{}, fmt.Errorf("%w: missing aspect_type", domain.ErrValidation)
		},
	}

	rec := postWebhook(newHTTPHandler(handler.Options{Webhooks: svc}), "hook-secret", `{"object_type":"activity"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing aspect_type", decode[handler.ErrorResponse](t, rec).Error.Message)
}

func TestReceiveWebhook_500_WithDetails(t *testing.T) {
	svc := &mockWebhookServicer{
		authenticate: acceptSecret,
		handle: func(context.Context, []byte) (strava.Event, error) {
			return strava.Event{}, fmt.Errorf("%w: %w", service.ErrWebhookFailed, fmt.Errorf("no active strava connection for athlete 134815"))
		},
	}

	rec := postWebhook(newHTTPHandler(handler.Options{Webhooks: svc}), "hook-secret", webhookBody)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[handler.ErrorResponse](t, rec)
	assert.Equal(t, "webhook_failed", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "athlete 134815")
}

func TestReceiveWebhook_LimiterWrapsOnlyDeliveries(t *testing.T) {
	limited := 0
	limiter := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limited++
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	svc := &mockWebhookServicer{
		verify: func(_, _, c string) (string, bool) { return c, true },
	}
	h := newHTTPHandler(handler.Options{Webhooks: svc, WebhookLimiter: limiter})

	assert.Equal(t, http.StatusTooManyRequests, postWebhook(h, "hook-secret", webhookBody).Code)
	assert.Equal(t, http.StatusOK, record(h, newRequest(http.MethodGet, "/api/webhooks/strava?hub.challenge=x")).Code)
	assert.Equal(t, 1, limited)
}

func TestReceiveWebhook_413_BodyTooLarge(t *testing.T) {
	svc := &mockWebhookServicer{authenticate: acceptSecret}
	h := newHTTPHandler(handler.Options{Webhooks: svc})
	limit := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, 16)
			next.ServeHTTP(w, r)
		})
	}

	rec := postWebhook(limit(h), "hook-secret", webhookBody)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

// ---- GET /api/webhooks/logs ------------------------------------------------

func TestListWebhookLogs_RawPayload(t *testing.T) {
	svc := &mockWebhookServicer{
		logs: func(context.Context) ([]domain.WebhookLog, error) {
			return []domain.WebhookLog{{
				ID: uuid.New(), WebhookType: "strava_create_activity", Payload: []byte(webhookBody),
				Status: domain.WebhookCompleted, CreatedAt: time.Date(2025, 1, 16, 18, 7, 20, 0, time.UTC),
			}}, nil
		},
	}

	rec := serve(t, newHTTPHandler(handler.Options{Webhooks: svc}), http.MethodGet, "/api/webhooks/logs", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"payload":{"aspect_type":"create"`)
	assert.Contains(t, string(body), `"status":"completed"`)
}

func TestListWebhookLogs_RequiresUser(t *testing.T) {
	rec := record(newHTTPHandler(handler.Options{Webhooks: &mockWebhookServicer{}}), newRequest(http.MethodGet, "/api/webhooks/logs"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
