package institutions

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/global-academic-forum/backend/internal/middleware"
	"github.com/global-academic-forum/backend/internal/models"
	"github.com/global-academic-forum/backend/pkg/response"
)

// Slug must be lowercase alphanumeric and hyphens only, 2-64 chars.
var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,63}$`)

// Handler handles institution HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates an institutions handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// CreateRequest is the body for POST /institutions (platform admin only).
type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Type        string `json:"type"`
	Country     string `json:"country"`
	Description string `json:"description"`
	Focus       string `json:"focus"`
	WebsiteURL  string `json:"website_url"`
}

// CreateSeriesRequest is the body for POST /institutions/:id/series.
type CreateSeriesRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Theme       string `json:"theme"`
}

// Create handles POST /institutions.
func (h *Handler) Create(c *gin.Context) {
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "name and slug required")
		return
	}
	body.Slug = strings.ToLower(strings.TrimSpace(body.Slug))
	if !slugRegex.MatchString(body.Slug) {
		response.BadRequest(c, "slug must be 2-64 chars, lowercase letters, numbers, hyphens only")
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	if len(body.Name) < 1 || len(body.Name) > 255 {
		response.BadRequest(c, "name must be 1-255 characters")
		return
	}
	if body.Type == "" {
		body.Type = string(models.InstitutionOther)
	}
	inst := &models.Institution{
		Name:        body.Name,
		Slug:        body.Slug,
		Type:        models.InstitutionType(body.Type),
		Country:     body.Country,
		Description: body.Description,
		Focus:       body.Focus,
		WebsiteURL:  body.WebsiteURL,
	}
	if err := h.repo.Create(c.Request.Context(), inst); err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique") {
			response.Conflict(c, "an institution with this slug already exists")
			return
		}
		response.Internal(c, "failed to create institution")
		return
	}
	response.Created(c, inst)
}

// List handles GET /institutions. Supports ?type= and ?country= filters.
func (h *Handler) List(c *gin.Context) {
	instType := c.Query("type")
	if instType != "" {
		switch models.InstitutionType(instType) {
		case models.InstitutionUniversity, models.InstitutionResearchInstitute,
			models.InstitutionIntlOrganization, models.InstitutionThinkTank, models.InstitutionOther:
		default:
			response.BadRequest(c, "unknown institution type")
			return
		}
	}
	list, err := h.repo.List(c.Request.Context(), instType, c.Query("country"))
	if err != nil {
		response.Internal(c, "failed to load institutions")
		return
	}
	response.OK(c, list)
}

// Get handles GET /institutions/:id. Accepts a UUID or a slug.
func (h *Handler) Get(c *gin.Context) {
	inst, err := h.lookup(c)
	if err != nil {
		response.Internal(c, "failed to load institution")
		return
	}
	if inst == nil {
		response.NotFound(c, "institution not found")
		return
	}
	members, err := h.repo.MemberCount(c.Request.Context(), inst.ID)
	if err != nil {
		response.Internal(c, "failed to load institution")
		return
	}
	response.OK(c, gin.H{"institution": inst, "member_count": members})
}

// ListMembers handles GET /institutions/:id/members. Requires the caller to
// administer this institution, or platform admin.
func (h *Handler) ListMembers(c *gin.Context) {
	inst, err := h.lookup(c)
	if err != nil {
		response.Internal(c, "failed to load institution")
		return
	}
	if inst == nil {
		response.NotFound(c, "institution not found")
		return
	}
	id := middleware.IdentityFromContext(c)
	if id == nil || !canAdminister(id, inst.ID) {
		response.Forbidden(c, "not authorized for this institution")
		return
	}
	members, err := h.repo.ListMembers(c.Request.Context(), inst.ID)
	if err != nil {
		response.Internal(c, "failed to load members")
		return
	}
	response.OK(c, members)
}

// ListSeries handles GET /institutions/:id/series.
func (h *Handler) ListSeries(c *gin.Context) {
	inst, err := h.lookup(c)
	if err != nil {
		response.Internal(c, "failed to load institution")
		return
	}
	if inst == nil {
		response.NotFound(c, "institution not found")
		return
	}
	list, err := h.repo.ListSeries(c.Request.Context(), inst.ID)
	if err != nil {
		response.Internal(c, "failed to load series")
		return
	}
	response.OK(c, list)
}

// CreateSeries handles POST /institutions/:id/series. Requires the caller to
// administer this institution, or platform admin.
func (h *Handler) CreateSeries(c *gin.Context) {
	inst, err := h.lookup(c)
	if err != nil {
		response.Internal(c, "failed to load institution")
		return
	}
	if inst == nil {
		response.NotFound(c, "institution not found")
		return
	}
	id := middleware.IdentityFromContext(c)
	if id == nil || !canAdminister(id, inst.ID) {
		response.Forbidden(c, "not authorized for this institution")
		return
	}
	var body CreateSeriesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "title required")
		return
	}
	s := &models.Series{
		Title:         strings.TrimSpace(body.Title),
		Description:   body.Description,
		InstitutionID: inst.ID,
		Theme:         body.Theme,
	}
	if s.Title == "" {
		response.BadRequest(c, "title required")
		return
	}
	if err := h.repo.CreateSeries(c.Request.Context(), s); err != nil {
		response.Internal(c, "failed to create series")
		return
	}
	response.Created(c, s)
}

func canAdminister(id *middleware.Identity, instID uuid.UUID) bool {
	if id.Role == string(models.RolePlatformAdmin) {
		return true
	}
	return id.Role == string(models.RoleInstitutionAdmin) &&
		id.InstitutionID != nil && *id.InstitutionID == instID
}

// lookup resolves the :id path param as a UUID or, failing that, a slug.
func (h *Handler) lookup(c *gin.Context) (*models.Institution, error) {
	param := c.Param("id")
	if instID, err := uuid.Parse(param); err == nil {
		return h.repo.GetByID(c.Request.Context(), instID)
	}
	return h.repo.GetBySlug(c.Request.Context(), param)
}
