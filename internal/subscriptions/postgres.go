package subscriptions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/global-academic-forum/backend/internal/models"
)

// PostgresStore is the production Store backed by the subscriptions table.
// Canceled records are retained as audit history; a partial unique index
// guarantees at most one non-canceled record per owner key.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed subscription store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const subscriptionColumns = `id, plan_id, user_id, institution_id, status, renews_at, created_at, updated_at`

func ownerColumn(kind models.OwnerKind) string {
	if kind == models.OwnerInstitution {
		return "institution_id"
	}
	return "user_id"
}

// Put stores the record in its owner's slot. Any prior non-canceled record
// for the same owner is retired (status -> canceled) in the same transaction,
// so the slot holds at most one live record.
func (s *PostgresStore) Put(ctx context.Context, record *models.Subscription) error {
	if err := record.Validate(); err != nil {
		return err
	}
	kind, ownerID := record.Owner()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	retire := fmt.Sprintf(
		`UPDATE subscriptions SET status = 'canceled', updated_at = NOW()
			WHERE %s = $1 AND status <> 'canceled' AND id <> $2`, ownerColumn(kind))
	if _, err := tx.Exec(ctx, retire, ownerID, record.ID); err != nil {
		return fmt.Errorf("retire prior record: %w", err)
	}

	const upsert = `INSERT INTO subscriptions (id, plan_id, user_id, institution_id, status, renews_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			status = EXCLUDED.status,
			renews_at = EXCLUDED.renews_at,
			updated_at = NOW()`
	if _, err := tx.Exec(ctx, upsert, record.ID, record.PlanID, record.UserID, record.InstitutionID, record.Status, record.RenewsAt); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}

	return tx.Commit(ctx)
}

// Get returns the owner's current record, preferring the live one. When only
// canceled history exists, the most recent canceled record is returned so
// callers can display its state. Absent slots return (nil, nil).
func (s *PostgresStore) Get(ctx context.Context, kind models.OwnerKind, ownerID uuid.UUID) (*models.Subscription, error) {
	q := fmt.Sprintf(`SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE %s = $1
		ORDER BY (status <> 'canceled') DESC, updated_at DESC
		LIMIT 1`, ownerColumn(kind))
	var rec models.Subscription
	err := s.pool.QueryRow(ctx, q, ownerID).Scan(
		&rec.ID, &rec.PlanID, &rec.UserID, &rec.InstitutionID, &rec.Status, &rec.RenewsAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Remove purges all records in the owner's slot, history included. The
// self-serve cancel flow retires records instead; Remove exists for the
// billing provider's hard-delete events and for operator cleanup.
func (s *PostgresStore) Remove(ctx context.Context, kind models.OwnerKind, ownerID uuid.UUID) error {
	q := fmt.Sprintf(`DELETE FROM subscriptions WHERE %s = $1`, ownerColumn(kind))
	_, err := s.pool.Exec(ctx, q, ownerID)
	return err
}
