package plans

import (
	"github.com/gin-gonic/gin"

	"github.com/global-academic-forum/backend/pkg/response"
)

// Handler handles plan catalog HTTP endpoints.
type Handler struct {
	catalog *Catalog
}

// NewHandler creates a plans handler.
func NewHandler(catalog *Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// List handles GET /plans.
func (h *Handler) List(c *gin.Context) {
	response.OK(c, h.catalog.List())
}

// GetByID handles GET /plans/:id.
func (h *Handler) GetByID(c *gin.Context) {
	plan := h.catalog.Get(c.Param("id"))
	if plan == nil {
		response.NotFound(c, "plan not found")
		return
	}
	response.OK(c, plan)
}
