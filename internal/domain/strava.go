package domain

import (
	"time"

	"github.com/google/uuid"
)

// StravaConnection links an internal user to a Strava athlete.
// There is at most one connection per user.
type StravaConnection struct {
	UserID         uuid.UUID
	AthleteID      int64
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt *time.Time
	IsActive       bool
	ConnectedAt    time.Time
	LastSyncAt     *time.Time
	UpdatedAt      time.Time
}

// SyncStatus is the lifecycle of a sync_history row.
type SyncStatus string

const (
	SyncInProgress SyncStatus = "in_progress"
	SyncCompleted  SyncStatus = "completed"
	SyncFailed     SyncStatus = "failed"
)

// SyncRun records one attempt to pull data from Strava for a user.
type SyncRun struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	SyncType     string
	Status       SyncStatus
	ItemsSynced  int
	ErrorMessage string
	StartedAt    time.Time
	CompletedAt  *time.Time
}

// WebhookStatus is the lifecycle of a webhook_logs row:
// received → processing → completed | failed.
type WebhookStatus string

const (
	WebhookReceived   WebhookStatus = "received"
	WebhookProcessing WebhookStatus = "processing"
	WebhookCompleted  WebhookStatus = "completed"
	WebhookFailed     WebhookStatus = "failed"
)

// WebhookLog is the audit record of one inbound webhook delivery.
type WebhookLog struct {
	ID           uuid.UUID
	WebhookType  string
	Payload      []byte // raw JSON as received
	Status       WebhookStatus
	ErrorMessage string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}
