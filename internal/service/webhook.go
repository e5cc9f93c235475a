package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pkordes/stridelog/internal/domain"
	"github.com/pkordes/stridelog/internal/metrics"
	"github.com/pkordes/stridelog/internal/repo"
	"github.com/pkordes/stridelog/internal/strava"
)

const (
	webhookLogsLimit = 50
	webhookSyncType  = "webhook"
)

// ErrWebhookFailed wraps the reason a delivery could not be processed.
// The delivery is recorded as failed in the audit log.
var ErrWebhookFailed = errors.New("webhook processing failed")

// ActivityFetcher loads an activity from Strava with an athlete's token.
type ActivityFetcher interface {
	FetchActivity(ctx context.Context, accessToken string, id int64) (strava.ActivityData, error)
}

// WebhookConfig holds the shared secrets for the webhook endpoints.
type WebhookConfig struct {
	VerifyToken string
	Secret      string
}

// WebhookService verifies subscriptions and applies Strava events.
type WebhookService struct {
	cfg         WebhookConfig
	activities  repo.ActivityRepo
	connections repo.ConnectionRepo
	audit       repo.AuditRepo
	fetcher     ActivityFetcher
	metrics     *metrics.Manager
	log         *slog.Logger
	now         Clock
}

// NewWebhookService constructs a WebhookService. fetcher and m may be nil.
func NewWebhookService(
	cfg WebhookConfig,
	activities repo.ActivityRepo,
	connections repo.ConnectionRepo,
	audit repo.AuditRepo,
	fetcher ActivityFetcher,
	m *metrics.Manager,
	log *slog.Logger,
) *WebhookService {
	return &WebhookService{
		cfg:         cfg,
		activities:  activities,
		connections: connections,
		audit:       audit,
		fetcher:     fetcher,
		metrics:     m,
		log:         log,
		now:         utcNow,
	}
}

// VerifySubscription answers Strava's subscription handshake. It returns
// the challenge to echo and whether the handshake is accepted.
func (s *WebhookService) VerifySubscription(mode, token, challenge string) (string, bool) {
	if mode != "subscribe" || !equalSecret(token, s.cfg.VerifyToken) {
		return "", false
	}
	return challenge, true
}

// Authenticate reports whether the request carried the shared secret.
func (s *WebhookService) Authenticate(secret string) bool {
	return equalSecret(secret, s.cfg.Secret)
}

func equalSecret(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// Handle records and applies one webhook delivery. Malformed bodies are
// domain.ErrValidation and are not logged. Processing failures are logged as
// failed and returned wrapped in ErrWebhookFailed.
func (s *WebhookService) Handle(ctx context.Context, body []byte) (strava.Event, error) {
	e, err := strava.ParseEvent(body)
	if err != nil {
		return strava.Event{}, invalid("invalid JSON body")
	}
	if e.AspectType == "" {
		return strava.Event{}, invalid("missing aspect_type")
	}

	entry, err := s.audit.CreateWebhookLog(ctx, e.WebhookType(), body)
	if err != nil {
		return e, fmt.Errorf("service.WebhookService.Handle: %w", err)
	}
	if err := s.audit.SetWebhookStatus(ctx, entry.ID, domain.WebhookProcessing, ""); err != nil {
		return e, fmt.Errorf("service.WebhookService.Handle: %w", err)
	}

	if err := s.dispatch(ctx, e); err != nil {
		s.log.ErrorContext(ctx, "webhook processing failed",
			"owner_id", e.OwnerID,
			"object_id", e.ObjectID,
			"aspect_type", e.AspectType,
			"object_type", e.ObjectType,
			"error", err,
		)
		if uerr := s.audit.SetWebhookStatus(ctx, entry.ID, domain.WebhookFailed, err.Error()); uerr != nil {
			s.log.ErrorContext(ctx, "webhook log update failed", "webhook_log_id", entry.ID, "error", uerr)
		}
		s.metrics.WebhookEvent(aspectLabel(e.AspectType), string(domain.WebhookFailed))
		return e, fmt.Errorf("%w: %w", ErrWebhookFailed, err)
	}

	if err := s.audit.SetWebhookStatus(ctx, entry.ID, domain.WebhookCompleted, ""); err != nil {
		return e, fmt.Errorf("service.WebhookService.Handle: %w", err)
	}
	s.metrics.WebhookEvent(aspectLabel(e.AspectType), string(domain.WebhookCompleted))
	s.log.InfoContext(ctx, "webhook processed",
		"webhook_type", e.WebhookType(), "owner_id", e.OwnerID, "object_id", e.ObjectID)
	return e, nil
}

// Logs returns the most recent webhook deliveries.
func (s *WebhookService) Logs(ctx context.Context) ([]domain.WebhookLog, error) {
	logs, err := s.audit.ListWebhookLogs(ctx, webhookLogsLimit)
	if err != nil {
		return nil, fmt.Errorf("service.WebhookService.Logs: %w", err)
	}
	return nonNil(logs), nil
}

// aspectLabel bounds the metric label to the aspects Strava sends.
func aspectLabel(aspect string) string {
	switch aspect {
	case strava.AspectCreate, strava.AspectUpdate, strava.AspectDelete:
		return aspect
	}
	return "other"
}

func (s *WebhookService) dispatch(ctx context.Context, e strava.Event) error {
	switch e.ObjectType {
	case strava.ObjectActivity:
		switch e.AspectType {
		case strava.AspectCreate, strava.AspectUpdate:
			return s.syncActivity(ctx, e)
		case strava.AspectDelete:
			if e.ObjectID == 0 {
				return errors.New("missing object_id on delete")
			}
			return s.activities.DeleteByStravaID(ctx, e.ObjectID)
		default:
			return fmt.Errorf("unknown aspect_type %q", e.AspectType)
		}
	case strava.ObjectAthlete:
		if e.Deauthorized() {
			return s.connections.DeactivateByAthlete(ctx, e.OwnerID)
		}
		return nil
	default:
		s.log.InfoContext(ctx, "webhook object type ignored", "object_type", e.ObjectType)
		return nil
	}
}

// syncActivity upserts the activity for a create or update event and
// records the attempt in sync_history.
func (s *WebhookService) syncActivity(ctx context.Context, e strava.Event) error {
	if e.OwnerID == 0 {
		return errors.New("missing owner_id")
	}
	conn, err := s.connections.GetActiveByAthlete(ctx, e.OwnerID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no active strava connection for athlete %d", e.OwnerID)
	}
	if err != nil {
		return err
	}

	stravaID := e.ObjectID
	if e.ObjectData != nil && e.ObjectData.ID != nil {
		stravaID = *e.ObjectData.ID
	}
	if stravaID == 0 {
		return errors.New("missing activity id")
	}

	run, err := s.audit.StartSyncRun(ctx, conn.UserID, webhookSyncType)
	if err != nil {
		return err
	}

	err = s.upsert(ctx, e, conn, stravaID)
	if err != nil {
		if ferr := s.audit.FinishSyncRun(ctx, run.ID, domain.SyncFailed, 0, err.Error()); ferr != nil {
			s.log.ErrorContext(ctx, "sync run update failed", "sync_run_id", run.ID, "error", ferr)
		}
		return err
	}
	if err := s.audit.FinishSyncRun(ctx, run.ID, domain.SyncCompleted, 1, ""); err != nil {
		return err
	}
	return s.connections.TouchLastSync(ctx, conn.UserID, s.now())
}

func (s *WebhookService) upsert(ctx context.Context, e strava.Event, conn domain.StravaConnection, stravaID int64) error {
	patch, full, err := s.activityPatch(ctx, e, conn, stravaID)
	if err != nil {
		return err
	}
	if !full {
		// Only the updates map is known, which is not enough to create a row.
		_, err := s.activities.PatchStrava(ctx, conn.UserID, stravaID, patch)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("activity %d was never synced and could not be fetched", stravaID)
		}
		if err != nil {
			return err
		}
		s.log.DebugContext(ctx, "activity patched from updates", "strava_id", stravaID)
		return nil
	}
	_, inserted, err := s.activities.UpsertStrava(ctx, conn.UserID, stravaID, patch)
	if err != nil {
		return err
	}
	s.log.DebugContext(ctx, "activity synced", "strava_id", stravaID, "inserted", inserted)
	return nil
}

// activityPatch picks the activity fields from, in order: the event's
// object_data, the Strava API, and for updates the event's updates map.
// An update's title in the updates map always wins. full is false when the
// patch came from the updates map alone.
func (s *WebhookService) activityPatch(ctx context.Context, e strava.Event, conn domain.StravaConnection, stravaID int64) (patch domain.ActivityPatch, full bool, err error) {
	switch {
	case e.ObjectData != nil:
		patch, full = e.ObjectData.Patch(), true
	case s.fetcher != nil && conn.AccessToken != "":
		data, err := s.fetcher.FetchActivity(ctx, conn.AccessToken, stravaID)
		if err == nil {
			patch, full = data.Patch(), true
		} else if e.AspectType == strava.AspectCreate {
			return domain.ActivityPatch{}, false, fmt.Errorf("fetch activity %d: %w", stravaID, err)
		} else {
			s.log.WarnContext(ctx, "activity fetch failed, applying updates only",
				"strava_id", stravaID, "error", err)
		}
	}

	if e.AspectType == strava.AspectUpdate {
		updates := strava.UpdatesPatch(e.Updates)
		if !full {
			return updates, false, nil
		}
		if updates.Title != nil {
			patch.Title = updates.Title
		}
		return patch, true, nil
	}
	if !full {
		return domain.ActivityPatch{}, false, fmt.Errorf("no activity data for %d", stravaID)
	}
	return patch, true, nil
}
