package registrations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/global-academic-forum/backend/internal/models"
)

// Repository handles registration and join token persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a registration. One exists per (event, user); registering
// again returns the existing record.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO registrations (id, event_id, user_id)
		VALUES (gen_random_uuid(), $1, $2)
		ON CONFLICT (event_id, user_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, attended_at, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, reg.EventID, reg.UserID).
		Scan(&reg.ID, &reg.AttendedAt, &reg.CreatedAt, &reg.UpdatedAt)
}

// GetByID returns a registration by ID, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	const q = `SELECT id, event_id, user_id, attended_at, created_at, updated_at
		FROM registrations WHERE id = $1`
	var reg models.Registration
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.AttendedAt, &reg.CreatedAt, &reg.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// GetByEventAndUser returns the registration for an (event, user) pair, or nil.
func (r *Repository) GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*models.Registration, error) {
	const q = `SELECT id, event_id, user_id, attended_at, created_at, updated_at
		FROM registrations WHERE event_id = $1 AND user_id = $2`
	var reg models.Registration
	err := r.pool.QueryRow(ctx, q, eventID, userID).
		Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.AttendedAt, &reg.CreatedAt, &reg.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// ListByEvent returns all registrations for an event, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error) {
	const q = `SELECT id, event_id, user_id, attended_at, created_at, updated_at
		FROM registrations WHERE event_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListByUser returns a user's registrations, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	const q = `SELECT id, event_id, user_id, attended_at, created_at, updated_at
		FROM registrations WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]models.Registration, error) {
	var list []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.AttendedAt,
			&reg.CreatedAt, &reg.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}

// CountByEvent returns total registrations and attended count for an event.
func (r *Repository) CountByEvent(ctx context.Context, eventID uuid.UUID) (total, attended int, err error) {
	const q = `SELECT COUNT(*), COUNT(attended_at) FROM registrations WHERE event_id = $1`
	err = r.pool.QueryRow(ctx, q, eventID).Scan(&total, &attended)
	return total, attended, err
}

// MarkAttended sets attended_at for a registration. Idempotent.
func (r *Repository) MarkAttended(ctx context.Context, registrationID uuid.UUID) error {
	const q = `UPDATE registrations SET attended_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND attended_at IS NULL`
	_, err := r.pool.Exec(ctx, q, registrationID)
	return err
}

// CreateToken inserts a join token.
func (r *Repository) CreateToken(ctx context.Context, t *models.RegistrationToken) error {
	const q = `INSERT INTO registration_tokens (id, registration_id, token, expires_at)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, used_at, created_at`
	return r.pool.QueryRow(ctx, q, t.RegistrationID, t.Token, t.ExpiresAt).
		Scan(&t.ID, &t.UsedAt, &t.CreatedAt)
}

// GetToken returns a join token by its string, or nil when not found.
func (r *Repository) GetToken(ctx context.Context, tokenStr string) (*models.RegistrationToken, error) {
	const q = `SELECT id, registration_id, token, expires_at, used_at, created_at
		FROM registration_tokens WHERE token = $1`
	var t models.RegistrationToken
	err := r.pool.QueryRow(ctx, q, tokenStr).
		Scan(&t.ID, &t.RegistrationID, &t.Token, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkTokenUsed sets used_at for a token. Idempotent.
func (r *Repository) MarkTokenUsed(ctx context.Context, tokenID uuid.UUID) error {
	const q = `UPDATE registration_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL`
	_, err := r.pool.Exec(ctx, q, tokenID)
	return err
}
