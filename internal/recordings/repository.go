package recordings

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/global-academic-forum/backend/internal/models"
)

const recordingColumns = `id, event_id, storage_key, duration_minutes, available_from, access_level, created_at, updated_at`

// Repository handles recording persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a recordings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRecording(row pgx.Row) (*models.Recording, error) {
	var rec models.Recording
	err := row.Scan(&rec.ID, &rec.EventID, &rec.StorageKey, &rec.DurationMinutes,
		&rec.AvailableFrom, &rec.AccessLevel, &rec.CreatedAt, &rec.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create inserts a recording.
func (r *Repository) Create(ctx context.Context, rec *models.Recording) error {
	const q = `INSERT INTO recordings (id, event_id, storage_key, duration_minutes, available_from, access_level)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, rec.EventID, rec.StorageKey, rec.DurationMinutes,
		rec.AvailableFrom, rec.AccessLevel).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

// GetByID returns a recording by ID, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Recording, error) {
	const q = `SELECT ` + recordingColumns + ` FROM recordings WHERE id = $1`
	return scanRecording(r.pool.QueryRow(ctx, q, id))
}

// GetByEvent returns the most recent recording for an event, or nil.
func (r *Repository) GetByEvent(ctx context.Context, eventID uuid.UUID) (*models.Recording, error) {
	const q = `SELECT ` + recordingColumns + ` FROM recordings
		WHERE event_id = $1 ORDER BY created_at DESC LIMIT 1`
	return scanRecording(r.pool.QueryRow(ctx, q, eventID))
}

// SetStorageKey updates the storage key once the media object is in place.
func (r *Repository) SetStorageKey(ctx context.Context, id uuid.UUID, key string) error {
	const q = `UPDATE recordings SET storage_key = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, key, id)
	return err
}
