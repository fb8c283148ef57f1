package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/global-academic-forum/backend/internal/models"
)

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, password_hash, full_name, role, institution_id,
	COALESCE(title,''), COALESCE(bio,''), created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Role, &u.InstitutionID,
		&u.Title, &u.Bio, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID, or nil if absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email, or nil if absent.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string, role models.Role, institutionID *uuid.UUID, title, bio string) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, full_name, role, institution_id, title, bio)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), NULLIF($7,''))
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, email, passwordHash, fullName, role, institutionID, title, bio))
}

// List returns all users for platform admin views.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, full_name, role, institution_id,
		COALESCE(title,''), COALESCE(bio,''), created_at FROM users ORDER BY full_name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.InstitutionID,
			&u.Title, &u.Bio, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// UpdateRoleAndAffiliation changes a user's role and institution affiliation.
// The id and creation timestamp never change.
func (r *Repository) UpdateRoleAndAffiliation(ctx context.Context, id uuid.UUID, role models.Role, institutionID *uuid.UUID) (*models.User, error) {
	const q = `UPDATE users SET role = $1, institution_id = $2, updated_at = NOW()
		WHERE id = $3 RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, role, institutionID, id))
}
