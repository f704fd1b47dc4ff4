package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"selective-prep/config"
	"selective-prep/internal/models"
)

// Postgres is the identity store: user profiles, temporary access grants
// (via the store's own stored procedures), the append-only payment log and
// the webhook dedup table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.DBName, cfg.DB.SSLMode, cfg.DB.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.DB.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.DB.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.DB.ConnLifetime
	poolConfig.MaxConnIdleTime = 15 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (db *Postgres) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// GrantTemporaryAccess calls the store's grant_temporary_access procedure,
// opening a time-boxed access window for the user.
func (db *Postgres) GrantTemporaryAccess(ctx context.Context, userID string, hours int, reason string) error {
	_, err := db.pool.Exec(ctx, `SELECT grant_temporary_access($1, $2, $3)`, userID, hours, reason)
	if err != nil {
		return fmt.Errorf("failed to grant temporary access: %w", err)
	}
	return nil
}

// CleanupExpiredAccess calls the store's cleanup_expired_temporary_access
// procedure, expiring stale grants.
func (db *Postgres) CleanupExpiredAccess(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `SELECT cleanup_expired_temporary_access()`)
	if err != nil {
		return fmt.Errorf("failed to clean up expired access: %w", err)
	}
	return nil
}

// PendingProfilesOlderThan returns profiles that are still pending and were
// created more than the given age ago. These are the daily sweep candidates.
func (db *Postgres) PendingProfilesOlderThan(ctx context.Context, age time.Duration) ([]models.UserProfile, error) {
	interval := fmt.Sprintf("%d hours", int(age.Hours()))

	query := `
        SELECT id, email, payment_status, created_at
        FROM user_profiles
        WHERE payment_status = 'pending' AND created_at < now() - $1::interval
        ORDER BY created_at
    `

	rows, err := db.pool.Query(ctx, query, interval)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.UserProfile
	for rows.Next() {
		var p models.UserProfile
		if err := rows.Scan(&p.ID, &p.Email, &p.PaymentStatus, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pending profiles: %w", err)
	}

	return profiles, nil
}

// ActivateProfile transitions a profile from pending to active. The guard on
// the current status makes replays no-ops; the boolean reports whether a row
// actually changed.
func (db *Postgres) ActivateProfile(ctx context.Context, userID string) (bool, error) {
	query := `
        UPDATE user_profiles
        SET payment_status = 'active', updated_at = NOW()
        WHERE id = $1 AND payment_status = 'pending'
    `

	tag, err := db.pool.Exec(ctx, query, userID)
	if err != nil {
		return false, fmt.Errorf("failed to activate profile: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// InsertPaymentLog appends an audit record. The table is append-only; rows
// are never updated or deleted by this service.
func (db *Postgres) InsertPaymentLog(ctx context.Context, entry *models.PaymentLogEntry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode payment log metadata: %w", err)
	}

	query := `
        INSERT INTO payment_logs (id, user_id, stripe_session_id, event_type, payment_status, plan_type, metadata)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `

	_, err = db.pool.Exec(ctx, query,
		entry.ID, entry.UserID, entry.StripeSessionID,
		entry.EventType, entry.PaymentStatus, entry.PlanType, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment log: %w", err)
	}
	return nil
}

// MarkWebhookEventProcessed records a webhook event id for deduplication.
// It returns true the first time an event id is seen; a conflict means the
// event was already processed and must not be applied again.
func (db *Postgres) MarkWebhookEventProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	query := `
        INSERT INTO webhook_events (id, event_type)
        VALUES ($1, $2)
        ON CONFLICT (id) DO NOTHING
    `

	tag, err := db.pool.Exec(ctx, query, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
