package institutions

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/global-academic-forum/backend/internal/models"
)

const institutionColumns = `id, name, slug, type, country, description,
	COALESCE(focus, ''), COALESCE(website_url, ''), created_at, updated_at`

// Repository handles institution and series persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an institutions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanInstitution(row pgx.Row) (*models.Institution, error) {
	var inst models.Institution
	err := row.Scan(&inst.ID, &inst.Name, &inst.Slug, &inst.Type, &inst.Country,
		&inst.Description, &inst.Focus, &inst.WebsiteURL, &inst.CreatedAt, &inst.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// Create inserts a new institution.
func (r *Repository) Create(ctx context.Context, inst *models.Institution) error {
	const q = `INSERT INTO institutions (id, name, slug, type, country, description, focus, website_url)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, inst.Name, inst.Slug, inst.Type, inst.Country,
		inst.Description, inst.Focus, inst.WebsiteURL).
		Scan(&inst.ID, &inst.CreatedAt, &inst.UpdatedAt)
}

// GetByID returns an institution by ID, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Institution, error) {
	const q = `SELECT ` + institutionColumns + ` FROM institutions WHERE id = $1`
	return scanInstitution(r.pool.QueryRow(ctx, q, id))
}

// GetBySlug returns an institution by slug, or nil when not found.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Institution, error) {
	const q = `SELECT ` + institutionColumns + ` FROM institutions WHERE slug = $1`
	return scanInstitution(r.pool.QueryRow(ctx, q, slug))
}

// List returns all institutions, optionally filtered by type and country.
func (r *Repository) List(ctx context.Context, instType, country string) ([]models.Institution, error) {
	base := `SELECT ` + institutionColumns + ` FROM institutions`
	var args []interface{}
	var cond string
	if instType != "" {
		args = append(args, instType)
		cond = " WHERE type = $1"
	}
	if country != "" {
		args = append(args, country)
		if cond == "" {
			cond = " WHERE country = $1"
		} else {
			cond += " AND country = $2"
		}
	}
	rows, err := r.pool.Query(ctx, base+cond+" ORDER BY name", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Institution
	for rows.Next() {
		var inst models.Institution
		if err := rows.Scan(&inst.ID, &inst.Name, &inst.Slug, &inst.Type, &inst.Country,
			&inst.Description, &inst.Focus, &inst.WebsiteURL, &inst.CreatedAt, &inst.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, inst)
	}
	return list, rows.Err()
}

// ListMembers returns users affiliated with an institution.
func (r *Repository) ListMembers(ctx context.Context, instID uuid.UUID) ([]models.UserPublic, error) {
	const q = `SELECT id, email, full_name, role, institution_id, COALESCE(title, ''), COALESCE(bio, ''), created_at
		FROM users WHERE institution_id = $1 ORDER BY full_name`
	rows, err := r.pool.Query(ctx, q, instID)
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

// MemberCount returns the number of users affiliated with an institution.
func (r *Repository) MemberCount(ctx context.Context, instID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE institution_id = $1`, instID).Scan(&n)
	return n, err
}

// CreateSeries inserts a new event series for an institution.
func (r *Repository) CreateSeries(ctx context.Context, s *models.Series) error {
	const q = `INSERT INTO series (id, title, description, institution_id, theme)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.Title, s.Description, s.InstitutionID, s.Theme).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// ListSeries returns the series run by an institution.
func (r *Repository) ListSeries(ctx context.Context, instID uuid.UUID) ([]models.Series, error) {
	const q = `SELECT id, title, description, institution_id, theme, created_at, updated_at
		FROM series WHERE institution_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, instID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Series
	for rows.Next() {
		var s models.Series
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.InstitutionID,
			&s.Theme, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
