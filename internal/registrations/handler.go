package registrations

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/global-academic-forum/backend/internal/entitlements"
	"github.com/global-academic-forum/backend/internal/events"
	"github.com/global-academic-forum/backend/internal/middleware"
	"github.com/global-academic-forum/backend/internal/models"
	"github.com/global-academic-forum/backend/pkg/response"
)

// tokenTTL is how long a join link stays valid after registration.
const tokenTTL = 30 * 24 * time.Hour

// Handler handles registration HTTP endpoints.
type Handler struct {
	repo      *Repository
	eventRepo *events.Repository
	resolver  *entitlements.Resolver
	logger    *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(repo *Repository, eventRepo *events.Repository, resolver *entitlements.Resolver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, eventRepo: eventRepo, resolver: resolver, logger: logger}
}

// Register handles POST /events/:id/register. Requires a signed-in identity
// but never a paid plan; access-restricted events apply their viewing policy
// before the registration is created. Registering twice returns the existing
// registration with a fresh join token.
func (h *Handler) Register(c *gin.Context) {
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
	if e.Status == models.EventCompleted {
		response.Conflict(c, "event has already completed")
		return
	}

	id := middleware.IdentityFromContext(c)
	viewer := &entitlements.Viewer{
		UserID:        id.UserID,
		Role:          models.Role(id.Role),
		InstitutionID: id.InstitutionID,
	}
	ent, err := h.resolver.Resolve(c.Request.Context(), id.UserID, id.InstitutionID)
	if err != nil {
		response.Internal(c, "failed to resolve entitlement")
		return
	}
	if !entitlements.CanView(e, viewer, ent) {
		response.Forbidden(c, "you do not have access to this event")
		return
	}

	reg := &models.Registration{EventID: e.ID, UserID: id.UserID}
	if err := h.repo.Create(c.Request.Context(), reg); err != nil {
		h.logger.Error("create registration failed", zap.Error(err), zap.String("event_id", e.ID.String()))
		response.Internal(c, "failed to register")
		return
	}

	tokenStr, err := generateToken()
	if err != nil {
		h.logger.Error("generate token failed", zap.Error(err))
		response.Internal(c, "failed to generate join link")
		return
	}
	tok := &models.RegistrationToken{
		RegistrationID: reg.ID,
		Token:          tokenStr,
		ExpiresAt:      time.Now().Add(tokenTTL),
	}
	if err := h.repo.CreateToken(c.Request.Context(), tok); err != nil {
		h.logger.Error("create token failed", zap.Error(err), zap.String("registration_id", reg.ID.String()))
		response.Internal(c, "failed to create join link")
		return
	}

	response.OK(c, gin.H{
		"registration": reg,
		"join_token":   tokenStr,
		"join_url":     "/live/" + e.Slug + "?token=" + tokenStr,
		"expires_at":   tok.ExpiresAt,
	})
}

// ListMine handles GET /me/registrations.
func (h *Handler) ListMine(c *gin.Context) {
	id := middleware.IdentityFromContext(c)
	list, err := h.repo.ListByUser(c.Request.Context(), id.UserID)
	if err != nil {
		response.Internal(c, "failed to load registrations")
		return
	}
	response.OK(c, list)
}

// ListByEvent handles GET /events/:id/registrations. Host, hosting
// institution admin, or platform admin only.
func (h *Handler) ListByEvent(c *gin.Context) {
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
	if !canViewRoster(id, e) {
		response.Forbidden(c, "not authorized for this event")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load registrations")
		return
	}
	total, attended, err := h.repo.CountByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load registrations")
		return
	}
	response.OK(c, gin.H{"registrations": list, "total": total, "attended": attended})
}

// ValidateToken handles GET /registrations/:token/validate. A valid token
// admits the holder to the live room and marks the registration attended.
func (h *Handler) ValidateToken(c *gin.Context) {
	tokenStr := c.Param("token")
	if tokenStr == "" {
		response.BadRequest(c, "token required")
		return
	}
	tok, err := h.repo.GetToken(c.Request.Context(), tokenStr)
	if err != nil {
		response.Internal(c, "failed to validate token")
		return
	}
	if tok == nil {
		response.NotFound(c, "invalid or expired token")
		return
	}
	if time.Now().After(tok.ExpiresAt) {
		response.BadRequest(c, "token expired")
		return
	}
	reg, err := h.repo.GetByID(c.Request.Context(), tok.RegistrationID)
	if err != nil || reg == nil {
		response.NotFound(c, "registration not found")
		return
	}
	e, err := h.eventRepo.GetByID(c.Request.Context(), reg.EventID)
	if err != nil || e == nil {
		response.NotFound(c, "event not found")
		return
	}
	if e.Status == models.EventLive {
		if err := h.repo.MarkAttended(c.Request.Context(), reg.ID); err != nil {
			h.logger.Warn("mark attended failed", zap.Error(err), zap.String("registration_id", reg.ID.String()))
		}
	}
	response.OK(c, gin.H{
		"valid":              true,
		"registration":       reg,
		"event_id":           e.ID,
		"event_title":        e.Title,
		"event_status":       e.Status,
		"event_scheduled_at": e.ScheduledAt,
	})
}

func canViewRoster(id *middleware.Identity, e *models.Event) bool {
	if id == nil {
		return false
	}
	if id.Role == string(models.RolePlatformAdmin) || e.HostUserID == id.UserID {
		return true
	}
	return id.Role == string(models.RoleInstitutionAdmin) && e.InstitutionID != nil &&
		id.InstitutionID != nil && *e.InstitutionID == *id.InstitutionID
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b)[:43], nil
}
