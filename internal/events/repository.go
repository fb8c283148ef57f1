package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/global-academic-forum/backend/internal/models"
)

const eventColumns = `id, title, slug, short_description, long_description, category, topic_tags,
	series_id, host_user_id, institution_id, scheduled_at, duration_minutes,
	status, access_level, has_recording, language, is_flagship, created_at, updated_at`

// Filter narrows event listings. Zero values mean no constraint.
type Filter struct {
	Search      string
	Category    string
	Status      string
	AccessLevel string
	Topic       string
	Institution *uuid.UUID
	Series      *uuid.UUID
	Flagship    bool
}

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Title, &e.Slug, &e.ShortDescription, &e.LongDescription,
		&e.Category, &e.TopicTags, &e.SeriesID, &e.HostUserID, &e.InstitutionID,
		&e.ScheduledAt, &e.DurationMinutes, &e.Status, &e.AccessLevel,
		&e.HasRecording, &e.Language, &e.IsFlagship, &e.CreatedAt, &e.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (id, title, slug, short_description, long_description, category,
			topic_tags, series_id, host_user_id, institution_id, scheduled_at,
			duration_minutes, status, access_level, language, is_flagship)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.Title, e.Slug, e.ShortDescription, e.LongDescription,
		e.Category, e.TopicTags, e.SeriesID, e.HostUserID, e.InstitutionID,
		e.ScheduledAt, e.DurationMinutes, e.Status, e.AccessLevel, e.Language, e.IsFlagship).
		Scan(&e.ID, &e.Status, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID returns an event by ID, or nil when not found.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.pool.QueryRow(ctx, q, id))
}

// GetBySlug returns an event by slug, or nil when not found.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE slug = $1`
	return scanEvent(r.pool.QueryRow(ctx, q, slug))
}

// List returns events matching the filter, soonest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Event, error) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR short_description ILIKE $%d)", n, n))
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.AccessLevel != "" {
		add("access_level = $%d", f.AccessLevel)
	}
	if f.Topic != "" {
		add("$%d = ANY(topic_tags)", f.Topic)
	}
	if f.Institution != nil {
		add("institution_id = $%d", *f.Institution)
	}
	if f.Series != nil {
		add("series_id = $%d", *f.Series)
	}
	if f.Flagship {
		conds = append(conds, "is_flagship")
	}
	q := `SELECT ` + eventColumns + ` FROM events`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY scheduled_at ASC"
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListForHost returns events hosted by a user, most recent first.
func (r *Repository) ListForHost(ctx context.Context, hostID uuid.UUID) ([]models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE host_user_id = $1 ORDER BY scheduled_at DESC`
	rows, err := r.pool.Query(ctx, q, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// Related returns up to limit other events in the same category, soonest first.
func (r *Repository) Related(ctx context.Context, e *models.Event, limit int) ([]models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events
		WHERE category = $1 AND id <> $2 AND status <> 'completed'
		ORDER BY scheduled_at ASC LIMIT $3`
	rows, err := r.pool.Query(ctx, q, e.Category, e.ID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]models.Event, error) {
	var list []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Slug, &e.ShortDescription, &e.LongDescription,
			&e.Category, &e.TopicTags, &e.SeriesID, &e.HostUserID, &e.InstitutionID,
			&e.ScheduledAt, &e.DurationMinutes, &e.Status, &e.AccessLevel,
			&e.HasRecording, &e.Language, &e.IsFlagship, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Update updates mutable event fields. Nil pointers leave the column as-is.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title, shortDesc, longDesc *string, scheduledAt *time.Time, duration *int) error {
	const q = `UPDATE events SET
			title = COALESCE($1, title),
			short_description = COALESCE($2, short_description),
			long_description = COALESCE($3, long_description),
			scheduled_at = COALESCE($4, scheduled_at),
			duration_minutes = COALESCE($5, duration_minutes),
			updated_at = NOW()
		WHERE id = $6`
	_, err := r.pool.Exec(ctx, q, title, shortDesc, longDesc, scheduledAt, duration, id)
	return err
}

// UpdateStatus moves an event to a new lifecycle status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.EventStatus) error {
	const q = `UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, status, id)
	return err
}

// MarkHasRecording flags an event as having a published recording.
func (r *Repository) MarkHasRecording(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE events SET has_recording = TRUE, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// Delete removes an event by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	return err
}

// AddSpeaker adds a speaker to an event. Idempotent.
func (r *Repository) AddSpeaker(ctx context.Context, eventID, userID uuid.UUID) error {
	const q = `INSERT INTO event_speakers (event_id, user_id) VALUES ($1, $2)
		ON CONFLICT (event_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, eventID, userID)
	return err
}

// ListSpeakers returns the speaker users for an event.
func (r *Repository) ListSpeakers(ctx context.Context, eventID uuid.UUID) ([]models.UserPublic, error) {
	const q = `SELECT u.id, u.email, u.full_name, u.role, u.institution_id,
			COALESCE(u.title, ''), COALESCE(u.bio, ''), u.created_at
		FROM event_speakers es
		INNER JOIN users u ON u.id = es.user_id
		WHERE es.event_id = $1
		ORDER BY es.added_at ASC`
	rows, err := r.pool.Query(ctx, q, eventID)
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

// IsHostOrSpeaker reports whether the user hosts the event or speaks at it.
func (r *Repository) IsHostOrSpeaker(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	e, err := r.GetByID(ctx, eventID)
	if err != nil || e == nil {
		return false, err
	}
	if e.HostUserID == userID {
		return true, nil
	}
	var exists int
	err = r.pool.QueryRow(ctx, `SELECT 1 FROM event_speakers WHERE event_id = $1 AND user_id = $2`,
		eventID, userID).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
