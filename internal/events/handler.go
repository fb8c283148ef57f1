package events

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/global-academic-forum/backend/internal/entitlements"
	"github.com/global-academic-forum/backend/internal/middleware"
	"github.com/global-academic-forum/backend/internal/models"
	"github.com/global-academic-forum/backend/internal/realtime"
	"github.com/global-academic-forum/backend/pkg/response"
)

// relatedLimit caps the related-events list on the event detail payload.
const relatedLimit = 3

// Handler handles event HTTP endpoints.
type Handler struct {
	repo     *Repository
	resolver *entitlements.Resolver
}

// NewHandler creates an events handler.
func NewHandler(repo *Repository, resolver *entitlements.Resolver) *Handler {
	return &Handler{repo: repo, resolver: resolver}
}

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title            string   `json:"title" binding:"required"`
	Slug             string   `json:"slug" binding:"required"`
	ShortDescription string   `json:"short_description"`
	LongDescription  string   `json:"long_description"`
	Category         string   `json:"category"`
	TopicTags        []string `json:"topic_tags"`
	SeriesID         *string  `json:"series_id"`
	InstitutionID    *string  `json:"institution_id"`
	ScheduledAt      string   `json:"scheduled_at" binding:"required"`
	DurationMinutes  int      `json:"duration_minutes"`
	AccessLevel      string   `json:"access_level"`
	Language         string   `json:"language"`
	IsFlagship       bool     `json:"is_flagship"`
	SpeakerIDs       []string `json:"speaker_ids"`
}

// Create handles POST /events (host, institution admin, or platform admin).
func (h *Handler) Create(c *gin.Context) {
	id := middleware.IdentityFromContext(c)
	if id == nil || !entitlements.Can(models.Role(id.Role), entitlements.CapHostEvents) {
		response.Forbidden(c, "hosting privileges required")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		response.BadRequest(c, "invalid scheduled_at")
		return
	}
	if req.AccessLevel == "" {
		req.AccessLevel = string(models.AccessOpen)
	}
	if !models.ValidAccessLevel(req.AccessLevel) {
		response.BadRequest(c, "unknown access_level")
		return
	}
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = 60
	}
	if req.Language == "" {
		req.Language = "en"
	}

	e := &models.Event{
		Title:            strings.TrimSpace(req.Title),
		Slug:             strings.ToLower(strings.TrimSpace(req.Slug)),
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
		Category:         req.Category,
		TopicTags:        req.TopicTags,
		HostUserID:       id.UserID,
		InstitutionID:    id.InstitutionID,
		ScheduledAt:      scheduledAt,
		DurationMinutes:  req.DurationMinutes,
		Status:           models.EventUpcoming,
		AccessLevel:      models.AccessLevel(req.AccessLevel),
		Language:         req.Language,
		IsFlagship:       req.IsFlagship,
	}
	if req.SeriesID != nil {
		sid, err := uuid.Parse(*req.SeriesID)
		if err != nil {
			response.BadRequest(c, "invalid series_id")
			return
		}
		e.SeriesID = &sid
	}
	if req.InstitutionID != nil {
		iid, err := uuid.Parse(*req.InstitutionID)
		if err != nil {
			response.BadRequest(c, "invalid institution_id")
			return
		}
		e.InstitutionID = &iid
	}
	// Institution-only events must name a hosting institution up front.
	if e.AccessLevel == models.AccessInstitutionOnly && e.InstitutionID == nil {
		response.BadRequest(c, "institution_only events require an institution_id")
		return
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique") {
			response.Conflict(c, "an event with this slug already exists")
			return
		}
		response.Internal(c, "failed to create event")
		return
	}
	for _, idStr := range req.SpeakerIDs {
		speakerID, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		_ = h.repo.AddSpeaker(c.Request.Context(), e.ID, speakerID)
	}
	response.Created(c, e)
}

// List handles GET /events with optional filters:
// ?q= ?category= ?status= ?access_level= ?topic= ?institution_id= ?series_id= ?flagship=1 ?mine=1
func (h *Handler) List(c *gin.Context) {
	f := Filter{
		Search:      c.Query("q"),
		Category:    c.Query("category"),
		Status:      c.Query("status"),
		AccessLevel: c.Query("access_level"),
		Topic:       c.Query("topic"),
		Flagship:    c.Query("flagship") == "1",
	}
	if f.Status != "" && !models.ValidEventStatus(f.Status) {
		response.BadRequest(c, "unknown status")
		return
	}
	if f.AccessLevel != "" && !models.ValidAccessLevel(f.AccessLevel) {
		response.BadRequest(c, "unknown access_level")
		return
	}
	if s := c.Query("institution_id"); s != "" {
		instID, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid institution_id")
			return
		}
		f.Institution = &instID
	}
	if s := c.Query("series_id"); s != "" {
		seriesID, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid series_id")
			return
		}
		f.Series = &seriesID
	}
	if c.Query("mine") == "1" {
		id := middleware.IdentityFromContext(c)
		if id == nil {
			response.Unauthorized(c, "sign in to list your events")
			return
		}
		list, err := h.repo.ListForHost(c.Request.Context(), id.UserID)
		if err != nil {
			response.Internal(c, "failed to list events")
			return
		}
		response.OK(c, list)
		return
	}
	list, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// Get handles GET /events/:id. Accepts a UUID or a slug. The detail payload
// includes speakers and up to three related events from the same category.
func (h *Handler) Get(c *gin.Context) {
	e, err := h.lookup(c)
	if err != nil {
		response.Internal(c, "failed to load event")
		return
	}
	if e == nil {
		response.NotFound(c, "event not found")
		return
	}
	speakers, err := h.repo.ListSpeakers(c.Request.Context(), e.ID)
	if err != nil {
		response.Internal(c, "failed to load event")
		return
	}
	related, err := h.repo.Related(c.Request.Context(), e, relatedLimit)
	if err != nil {
		response.Internal(c, "failed to load event")
		return
	}
	response.OK(c, gin.H{"event": e, "speakers": speakers, "related": related})
}

// Update handles PATCH /events/:id (host or platform admin).
func (h *Handler) Update(c *gin.Context) {
	e, ok := h.requireManageable(c)
	if !ok {
		return
	}
	var req struct {
		Title            *string `json:"title"`
		ShortDescription *string `json:"short_description"`
		LongDescription  *string `json:"long_description"`
		ScheduledAt      *string `json:"scheduled_at"`
		DurationMinutes  *int    `json:"duration_minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	var scheduledAt *time.Time
	if req.ScheduledAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			response.BadRequest(c, "invalid scheduled_at")
			return
		}
		scheduledAt = &t
	}
	if err := h.repo.Update(c.Request.Context(), e.ID, req.Title, req.ShortDescription,
		req.LongDescription, scheduledAt, req.DurationMinutes); err != nil {
		response.Internal(c, "failed to update event")
		return
	}
	updated, _ := h.repo.GetByID(c.Request.Context(), e.ID)
	response.OK(c, updated)
}

// UpdateStatus handles PATCH /events/:id/status. Lifecycle moves are forward
// only: upcoming to live or completed, live to completed.
func (h *Handler) UpdateStatus(c *gin.Context) {
	e, ok := h.requireManageable(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "status required")
		return
	}
	if !models.ValidEventStatus(req.Status) {
		response.BadRequest(c, "unknown status")
		return
	}
	to := models.EventStatus(req.Status)
	if !models.CanTransitionStatus(e.Status, to) {
		response.Conflict(c, "cannot move event from "+string(e.Status)+" to "+string(to))
		return
	}
	if err := h.repo.UpdateStatus(c.Request.Context(), e.ID, to); err != nil {
		response.Internal(c, "failed to update status")
		return
	}
	e.Status = to
	response.OK(c, e)
}

// Delete handles DELETE /events/:id (host or platform admin).
func (h *Handler) Delete(c *gin.Context) {
	e, ok := h.requireManageable(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), e.ID); err != nil {
		response.Internal(c, "failed to delete event")
		return
	}
	response.NoContent(c)
}

// AddSpeaker handles POST /events/:id/speakers (host or platform admin).
func (h *Handler) AddSpeaker(c *gin.Context) {
	e, ok := h.requireManageable(c)
	if !ok {
		return
	}
	var req struct {
		UserID string `json:"user_id" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	speakerID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.BadRequest(c, "invalid user_id")
		return
	}
	if err := h.repo.AddSpeaker(c.Request.Context(), e.ID, speakerID); err != nil {
		response.Internal(c, "failed to add speaker")
		return
	}
	response.Created(c, gin.H{"event_id": e.ID, "user_id": speakerID})
}

// Access handles GET /events/:id/access. Returns the viewing decision for
// the caller (anonymous callers get the open-event answer) along with the
// resolved entitlement when signed in.
func (h *Handler) Access(c *gin.Context) {
	e, err := h.lookup(c)
	if err != nil {
		response.Internal(c, "failed to load event")
		return
	}
	if e == nil {
		response.NotFound(c, "event not found")
		return
	}
	id := middleware.IdentityFromContext(c)
	var viewer *entitlements.Viewer
	var ent entitlements.Entitlement
	if id != nil {
		viewer = &entitlements.Viewer{
			UserID:        id.UserID,
			Role:          models.Role(id.Role),
			InstitutionID: id.InstitutionID,
		}
		ent, err = h.resolver.Resolve(c.Request.Context(), id.UserID, id.InstitutionID)
		if err != nil {
			response.Internal(c, "failed to resolve entitlement")
			return
		}
	}
	body := gin.H{
		"event_id":     e.ID,
		"access_level": e.AccessLevel,
		"can_view":     entitlements.CanView(e, viewer, ent),
	}
	if viewer != nil {
		body["entitlement"] = ent
	}
	response.OK(c, body)
}

// AudienceCount returns a handler reporting the live audience for an event.
func (h *Handler) AudienceCount(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid event id")
			return
		}
		response.OK(c, gin.H{"event_id": eventID, "count": hub.AudienceCount(eventID)})
	}
}

// requireManageable loads the event and checks the caller may manage it:
// the hosting user, an admin of the hosting institution, or a platform admin.
func (h *Handler) requireManageable(c *gin.Context) (*models.Event, bool) {
	e, err := h.lookup(c)
	if err != nil {
		response.Internal(c, "failed to load event")
		return nil, false
	}
	if e == nil {
		response.NotFound(c, "event not found")
		return nil, false
	}
	id := middleware.IdentityFromContext(c)
	if id == nil {
		response.Unauthorized(c, "sign in required")
		return nil, false
	}
	if id.Role == string(models.RolePlatformAdmin) || e.HostUserID == id.UserID {
		return e, true
	}
	if id.Role == string(models.RoleInstitutionAdmin) && e.InstitutionID != nil &&
		id.InstitutionID != nil && *e.InstitutionID == *id.InstitutionID {
		return e, true
	}
	response.Forbidden(c, "not authorized for this event")
	return nil, false
}

func (h *Handler) lookup(c *gin.Context) (*models.Event, error) {
	param := c.Param("id")
	if eventID, err := uuid.Parse(param); err == nil {
		return h.repo.GetByID(c.Request.Context(), eventID)
	}
	return h.repo.GetBySlug(c.Request.Context(), param)
}
