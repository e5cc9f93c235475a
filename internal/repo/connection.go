package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/stridelog/internal/domain"
)

// ConnectionRepo defines the persistence operations for Strava connections.
// A user has at most one connection; user_id is the primary key.
type ConnectionRepo interface {
	// Upsert inserts the connection or, when the user already has one,
	// replaces the athlete id and tokens and reactivates it.
	Upsert(ctx context.Context, c domain.StravaConnection) (domain.StravaConnection, error)

	GetByUser(ctx context.Context, userID uuid.UUID) (domain.StravaConnection, error)

	// GetActiveByAthlete resolves a Strava athlete id to the active
	// connection that owns it.
	GetActiveByAthlete(ctx context.Context, athleteID int64) (domain.StravaConnection, error)

	// DeactivateByAthlete marks every connection for the athlete inactive.
	DeactivateByAthlete(ctx context.Context, athleteID int64) error

	// TouchLastSync records the time of the latest successful sync.
	TouchLastSync(ctx context.Context, userID uuid.UUID, at time.Time) error

	// Delete removes the user's connection.
	Delete(ctx context.Context, userID uuid.UUID) error
}

type pgConnectionRepo struct {
	db db
}

// NewConnectionRepo constructs a ConnectionRepo backed by the provided db connection.
func NewConnectionRepo(db db) ConnectionRepo {
	return &pgConnectionRepo{db: db}
}

const connectionColumns = `
	user_id, strava_athlete_id, access_token, refresh_token, token_expires_at,
	is_active, connected_at, last_sync_at, updated_at`

func (r *pgConnectionRepo) Upsert(ctx context.Context, c domain.StravaConnection) (domain.StravaConnection, error) {
	q := `
		INSERT INTO strava_connections (user_id, strava_athlete_id, access_token,
		                                refresh_token, token_expires_at, is_active, connected_at)
		VALUES (@user_id, @athlete_id, @access_token, @refresh_token, @expires_at, TRUE, @connected_at)
		ON CONFLICT (user_id) DO UPDATE SET
			strava_athlete_id = EXCLUDED.strava_athlete_id,
			access_token      = EXCLUDED.access_token,
			refresh_token     = EXCLUDED.refresh_token,
			token_expires_at  = EXCLUDED.token_expires_at,
			is_active         = TRUE,
			connected_at      = EXCLUDED.connected_at,
			updated_at        = now()
		RETURNING` + connectionColumns

	args := pgx.NamedArgs{
		"user_id":       c.UserID,
		"athlete_id":    c.AthleteID,
		"access_token":  c.AccessToken,
		"refresh_token": c.RefreshToken,
		"expires_at":    c.TokenExpiresAt,
		"connected_at":  c.ConnectedAt,
	}
	result, err := scanConnection(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.StravaConnection{}, fmt.Errorf("repo.ConnectionRepo.Upsert: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgConnectionRepo) GetByUser(ctx context.Context, userID uuid.UUID) (domain.StravaConnection, error) {
	q := `SELECT` + connectionColumns + ` FROM strava_connections WHERE user_id = @user_id`

	result, err := scanConnection(r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID}))
	if err != nil {
		return domain.StravaConnection{}, fmt.Errorf("repo.ConnectionRepo.GetByUser: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgConnectionRepo) GetActiveByAthlete(ctx context.Context, athleteID int64) (domain.StravaConnection, error) {
	q := `SELECT` + connectionColumns + `
		FROM strava_connections
		WHERE strava_athlete_id = @athlete_id AND is_active
		ORDER BY updated_at DESC
		LIMIT 1`

	result, err := scanConnection(r.db.QueryRow(ctx, q, pgx.NamedArgs{"athlete_id": athleteID}))
	if err != nil {
		return domain.StravaConnection{}, fmt.Errorf("repo.ConnectionRepo.GetActiveByAthlete: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgConnectionRepo) DeactivateByAthlete(ctx context.Context, athleteID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE strava_connections SET is_active = FALSE, updated_at = now() WHERE strava_athlete_id = @athlete_id`,
		pgx.NamedArgs{"athlete_id": athleteID},
	)
	if err != nil {
		return fmt.Errorf("repo.ConnectionRepo.DeactivateByAthlete: %w", err)
	}
	return nil
}

func (r *pgConnectionRepo) TouchLastSync(ctx context.Context, userID uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE strava_connections SET last_sync_at = @at, updated_at = now() WHERE user_id = @user_id`,
		pgx.NamedArgs{"user_id": userID, "at": at},
	)
	if err != nil {
		return fmt.Errorf("repo.ConnectionRepo.TouchLastSync: %w", err)
	}
	return nil
}

func (r *pgConnectionRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM strava_connections WHERE user_id = @user_id`,
		pgx.NamedArgs{"user_id": userID},
	)
	if err != nil {
		return fmt.Errorf("repo.ConnectionRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ConnectionRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanConnection(s scanner) (domain.StravaConnection, error) {
	var (
		c         domain.StravaConnection
		userID    pgtype.UUID
		expiresAt pgtype.Timestamptz
		lastSync  pgtype.Timestamptz
	)
	err := s.Scan(&userID, &c.AthleteID, &c.AccessToken, &c.RefreshToken, &expiresAt,
		&c.IsActive, &c.ConnectedAt, &lastSync, &c.UpdatedAt)
	if err != nil {
		return domain.StravaConnection{}, err
	}
	c.UserID = fromPgUUID(userID)
	c.TokenExpiresAt = optionalTime(expiresAt)
	c.LastSyncAt = optionalTime(lastSync)
	return c, nil
}
