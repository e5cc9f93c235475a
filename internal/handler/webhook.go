package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/service"
)

// webhookSecretHeader carries the shared secret on webhook deliveries.
const webhookSecretHeader = "X-Webhook-Secret"

// VerifyWebhook handles GET /api/webhooks/strava, Strava's subscription
// handshake.
func (s *Server) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge, ok := s.opts.Webhooks.VerifySubscription(
		q.Get("hub.mode"), q.Get("hub.verify_token"), q.Get("hub.challenge"))
	if !ok {
		writeError(w, http.StatusForbidden, "forbidden", "verification failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"hub.challenge": challenge})
}

// ReceiveWebhook handles POST /api/webhooks/strava.
// The secret is checked before the body is read.
func (s *Server) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.opts.Webhooks.Authenticate(r.Header.Get(webhookSecretHeader)) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid webhook secret")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "could not read body")
		return
	}

	_, err = s.opts.Webhooks.Handle(r.Context(), body)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, WebhookAck{Success: true, Message: "webhook processed successfully"})
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", unwrapMessage(err))
	case errors.Is(err, service.ErrWebhookFailed):
		writeError(w, http.StatusInternalServerError, "webhook_failed", err.Error())
	default:
		s.fail(w, r, err, "webhook")
	}
}

// ListWebhookLogs handles GET /api/webhooks/logs.
func (s *Server) ListWebhookLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.opts.Webhooks.Logs(r.Context())
	if err != nil {
		s.fail(w, r, err, "webhook log")
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(logs, webhookLogToResponse))
}
