package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/stridelog/internal/domain"
)

// AuditRepo persists the webhook audit log and the per-user sync history.
type AuditRepo interface {
	// CreateWebhookLog stores a delivery with status received.
	CreateWebhookLog(ctx context.Context, webhookType string, payload []byte) (domain.WebhookLog, error)

	// SetWebhookStatus moves a log entry forward. Terminal statuses
	// (completed, failed) also stamp processed_at.
	SetWebhookStatus(ctx context.Context, id uuid.UUID, status domain.WebhookStatus, errMsg string) error

	// ListWebhookLogs returns the most recent deliveries first.
	ListWebhookLogs(ctx context.Context, limit int) ([]domain.WebhookLog, error)

	// StartSyncRun creates an in_progress sync_history row.
	StartSyncRun(ctx context.Context, userID uuid.UUID, syncType string) (domain.SyncRun, error)

	// FinishSyncRun closes a run as completed or failed.
	FinishSyncRun(ctx context.Context, id uuid.UUID, status domain.SyncStatus, items int, errMsg string) error

	// ListSyncRuns returns the user's most recent runs first.
	ListSyncRuns(ctx context.Context, userID uuid.UUID, limit int) ([]domain.SyncRun, error)
}

type pgAuditRepo struct {
	db db
}

// NewAuditRepo constructs an AuditRepo backed by the provided db connection.
func NewAuditRepo(db db) AuditRepo {
	return &pgAuditRepo{db: db}
}

func (r *pgAuditRepo) CreateWebhookLog(ctx context.Context, webhookType string, payload []byte) (domain.WebhookLog, error) {
	const q = `
		INSERT INTO webhook_logs (webhook_type, payload, status)
		VALUES (@webhook_type, @payload, 'received')
		RETURNING id, webhook_type, payload, status, error_message, created_at, processed_at`

	result, err := scanWebhookLog(r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"webhook_type": webhookType,
		"payload":      payload,
	}))
	if err != nil {
		return domain.WebhookLog{}, fmt.Errorf("repo.AuditRepo.CreateWebhookLog: %w", err)
	}
	return result, nil
}

func (r *pgAuditRepo) SetWebhookStatus(ctx context.Context, id uuid.UUID, status domain.WebhookStatus, errMsg string) error {
	const q = `
		UPDATE webhook_logs
		SET status        = @status,
		    error_message = @error_message,
		    processed_at  = CASE WHEN @status IN ('completed', 'failed') THEN now() ELSE processed_at END
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":            id,
		"status":        string(status),
		"error_message": errMsg,
	})
	if err != nil {
		return fmt.Errorf("repo.AuditRepo.SetWebhookStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.AuditRepo.SetWebhookStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgAuditRepo) ListWebhookLogs(ctx context.Context, limit int) ([]domain.WebhookLog, error) {
	const q = `
		SELECT id, webhook_type, payload, status, error_message, created_at, processed_at
		FROM webhook_logs
		ORDER BY created_at DESC
		LIMIT @limit`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.AuditRepo.ListWebhookLogs: %w", err)
	}
	logs, err := collect(rows, scanWebhookLog)
	if err != nil {
		return nil, fmt.Errorf("repo.AuditRepo.ListWebhookLogs: scan: %w", err)
	}
	return logs, nil
}

func (r *pgAuditRepo) StartSyncRun(ctx context.Context, userID uuid.UUID, syncType string) (domain.SyncRun, error) {
	const q = `
		INSERT INTO sync_history (user_id, sync_type, status)
		VALUES (@user_id, @sync_type, 'in_progress')
		RETURNING id, user_id, sync_type, status, items_synced, error_message, started_at, completed_at`

	result, err := scanSyncRun(r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID, "sync_type": syncType}))
	if err != nil {
		return domain.SyncRun{}, fmt.Errorf("repo.AuditRepo.StartSyncRun: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgAuditRepo) FinishSyncRun(ctx context.Context, id uuid.UUID, status domain.SyncStatus, items int, errMsg string) error {
	const q = `
		UPDATE sync_history
		SET status = @status, items_synced = @items, error_message = @error_message, completed_at = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":            id,
		"status":        string(status),
		"items":         items,
		"error_message": errMsg,
	})
	if err != nil {
		return fmt.Errorf("repo.AuditRepo.FinishSyncRun: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.AuditRepo.FinishSyncRun: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgAuditRepo) ListSyncRuns(ctx context.Context, userID uuid.UUID, limit int) ([]domain.SyncRun, error) {
	const q = `
		SELECT id, user_id, sync_type, status, items_synced, error_message, started_at, completed_at
		FROM sync_history
		WHERE user_id = @user_id
		ORDER BY started_at DESC
		LIMIT @limit`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.AuditRepo.ListSyncRuns: %w", err)
	}
	runs, err := collect(rows, scanSyncRun)
	if err != nil {
		return nil, fmt.Errorf("repo.AuditRepo.ListSyncRuns: scan: %w", err)
	}
	return runs, nil
}

func scanWebhookLog(s scanner) (domain.WebhookLog, error) {
	var (
		l         domain.WebhookLog
		id        pgtype.UUID
		status    string
		processed pgtype.Timestamptz
	)
	if err := s.Scan(&id, &l.WebhookType, &l.Payload, &status, &l.ErrorMessage, &l.CreatedAt, &processed); err != nil {
		return domain.WebhookLog{}, err
	}
	l.ID = fromPgUUID(id)
	l.Status = domain.WebhookStatus(status)
	l.ProcessedAt = optionalTime(processed)
	return l, nil
}

func scanSyncRun(s scanner) (domain.SyncRun, error) {
	var (
		run        domain.SyncRun
		id, userID pgtype.UUID
		status     string
		completed  pgtype.Timestamptz
	)
	err := s.Scan(&id, &userID, &run.SyncType, &status, &run.ItemsSynced,
		&run.ErrorMessage, &run.StartedAt, &completed)
	if err != nil {
		return domain.SyncRun{}, err
	}
	run.ID = fromPgUUID(id)
	run.UserID = fromPgUUID(userID)
	run.Status = domain.SyncStatus(status)
	run.CompletedAt = optionalTime(completed)
	return run, nil
}
