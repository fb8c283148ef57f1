package recordings

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/global-academic-forum/backend/internal/entitlements"
	"github.com/global-academic-forum/backend/internal/events"
	"github.com/global-academic-forum/backend/internal/middleware"
	"github.com/global-academic-forum/backend/internal/models"
	"github.com/global-academic-forum/backend/pkg/response"
	"github.com/global-academic-forum/backend/pkg/storage"
)

// Handler handles recording HTTP endpoints.
type Handler struct {
	repo      *Repository
	eventRepo *events.Repository
	resolver  *entitlements.Resolver
	s3        *storage.S3
	logger    *zap.Logger
}

// NewHandler creates a recordings handler. s3 may be nil when media delivery
// is not configured; download URLs are then unavailable.
func NewHandler(repo *Repository, eventRepo *events.Repository, resolver *entitlements.Resolver, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, eventRepo: eventRepo, resolver: resolver, s3: s3, logger: logger}
}

// PublishRequest is the body for POST /events/:id/recording.
type PublishRequest struct {
	StorageKey      string `json:"storage_key"`
	DurationMinutes int    `json:"duration_minutes"`
	AvailableFrom   string `json:"available_from"`
}

// Publish handles POST /events/:id/recording. Host, hosting institution
// admin, or platform admin only. Creates the recording record and flags the
// event as recorded.
func (h *Handler) Publish(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.eventRepo.GetByID(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load event")
		return
	}
	if e == nil {
		response.NotFound(c, "event not found")
		return
	}
	id := middleware.IdentityFromContext(c)
	if !canManage(id, e) {
		response.Forbidden(c, "not authorized for this event")
		return
	}
	if e.Status != models.EventCompleted {
		response.Conflict(c, "recordings can only be published for completed events")
		return
	}

	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request")
		return
	}
	availableFrom := time.Now()
	if req.AvailableFrom != "" {
		t, err := time.Parse(time.RFC3339, req.AvailableFrom)
		if err != nil {
			response.BadRequest(c, "invalid available_from")
			return
		}
		availableFrom = t
	}

	rec := &models.Recording{
		EventID:         e.ID,
		StorageKey:      req.StorageKey,
		DurationMinutes: req.DurationMinutes,
		AvailableFrom:   availableFrom,
		AccessLevel:     e.AccessLevel,
	}
	if err := h.repo.Create(c.Request.Context(), rec); err != nil {
		h.logger.Error("create recording failed", zap.Error(err), zap.String("event_id", e.ID.String()))
		response.Internal(c, "failed to publish recording")
		return
	}
	if rec.StorageKey == "" {
		key := storage.RecordingKey(e.ID.String(), rec.ID.String())
		if err := h.repo.SetStorageKey(c.Request.Context(), rec.ID, key); err != nil {
			h.logger.Error("set storage key failed", zap.Error(err), zap.String("recording_id", rec.ID.String()))
			response.Internal(c, "failed to publish recording")
			return
		}
		rec.StorageKey = key
	}
	if err := h.eventRepo.MarkHasRecording(c.Request.Context(), e.ID); err != nil {
		h.logger.Error("mark has_recording failed", zap.Error(err), zap.String("event_id", e.ID.String()))
		response.Internal(c, "failed to publish recording")
		return
	}
	response.Created(c, rec)
}

// GetByEvent handles GET /events/:id/recording. Applies the recording view
// policy: no artifact means not found, and restricted archives require the
// caller's entitlement.
func (h *Handler) GetByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.eventRepo.GetByID(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load event")
		return
	}
	if e == nil {
		response.NotFound(c, "event not found")
		return
	}
	viewer, ent, err := h.resolveViewer(c)
	if err != nil {
		response.Internal(c, "failed to resolve entitlement")
		return
	}
	if !entitlements.CanViewRecording(e, viewer, ent) {
		if !e.HasRecording {
			response.NotFound(c, "no recording for this event")
			return
		}
		response.Forbidden(c, "your plan does not include access to this recording")
		return
	}
	rec, err := h.repo.GetByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load recording")
		return
	}
	if rec == nil {
		response.NotFound(c, "no recording for this event")
		return
	}
	response.OK(c, rec)
}

// GenerateDownloadURL handles GET /recordings/:id/download-url. Returns a
// presigned playback URL for callers the recording policy admits.
func (h *Handler) GenerateDownloadURL(c *gin.Context) {
	recordingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid recording id")
		return
	}
	rec, err := h.repo.GetByID(c.Request.Context(), recordingID)
	if err != nil {
		response.Internal(c, "failed to load recording")
		return
	}
	if rec == nil {
		response.NotFound(c, "recording not found")
		return
	}
	e, err := h.eventRepo.GetByID(c.Request.Context(), rec.EventID)
	if err != nil || e == nil {
		response.NotFound(c, "event not found")
		return
	}
	viewer, ent, err := h.resolveViewer(c)
	if err != nil {
		response.Internal(c, "failed to resolve entitlement")
		return
	}
	if !entitlements.CanViewRecording(e, viewer, ent) {
		response.Forbidden(c, "your plan does not include access to this recording")
		return
	}
	if time.Now().Before(rec.AvailableFrom) {
		response.Conflict(c, "recording is not yet available")
		return
	}
	if rec.StorageKey == "" {
		response.Conflict(c, "recording not ready for playback")
		return
	}
	if h.s3 == nil {
		response.ServiceUnavailable(c, "media delivery not configured")
		return
	}
	expire := h.s3.PresignExpiry()
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), h.s3.RecordingsBucket(), rec.StorageKey, expire)
	if err != nil {
		h.logger.Error("presign recording download failed", zap.Error(err), zap.String("recording_id", recordingID.String()))
		response.Internal(c, "failed to generate download URL")
		return
	}
	response.OK(c, gin.H{"download_url": url, "expires_in": int(expire.Seconds())})
}

func (h *Handler) resolveViewer(c *gin.Context) (*entitlements.Viewer, entitlements.Entitlement, error) {
	id := middleware.IdentityFromContext(c)
	if id == nil {
		return nil, entitlements.Entitlement{}, nil
	}
	viewer := &entitlements.Viewer{
		UserID:        id.UserID,
		Role:          models.Role(id.Role),
		InstitutionID: id.InstitutionID,
	}
	ent, err := h.resolver.Resolve(c.Request.Context(), id.UserID, id.InstitutionID)
	return viewer, ent, err
}

func canManage(id *middleware.Identity, e *models.Event) bool {
	if id == nil {
		return false
	}
	if id.Role == string(models.RolePlatformAdmin) || e.HostUserID == id.UserID {
		return true
	}
	return id.Role == string(models.RoleInstitutionAdmin) && e.InstitutionID != nil &&
		id.InstitutionID != nil && *e.InstitutionID == *id.InstitutionID
}
