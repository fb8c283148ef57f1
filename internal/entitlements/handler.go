package entitlements

import (
	"github.com/gin-gonic/gin"

	"github.com/global-academic-forum/backend/internal/middleware"
	"github.com/global-academic-forum/backend/internal/models"
	"github.com/global-academic-forum/backend/pkg/response"
)

// Handler serves the caller's resolved subscription and entitlement.
type Handler struct {
	resolver *Resolver
}

// NewHandler creates an entitlements handler.
func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// MySubscription handles GET /me/subscription. Returns the effective record
// and its plan; the plan is null when the catalog no longer knows the id.
func (h *Handler) MySubscription(c *gin.Context) {
	id := middleware.IdentityFromContext(c)
	ent, err := h.resolver.Resolve(c.Request.Context(), id.UserID, id.InstitutionID)
	if err != nil {
		response.Internal(c, "failed to resolve subscription")
		return
	}
	response.OK(c, gin.H{"subscription": ent.Subscription, "plan": ent.Plan})
}

// MyEntitlement handles GET /me/entitlement. Returns the access decision
// inputs the client needs: the entitlement plus the role's capabilities.
func (h *Handler) MyEntitlement(c *gin.Context) {
	id := middleware.IdentityFromContext(c)
	ent, err := h.resolver.Resolve(c.Request.Context(), id.UserID, id.InstitutionID)
	if err != nil {
		response.Internal(c, "failed to resolve entitlement")
		return
	}
	role := models.Role(id.Role)
	caps := make([]Capability, 0, 4)
	for _, capability := range []Capability{CapHostEvents, CapManageInstitution, CapManagePlatform, CapModerateLiveRoom, CapViewMemberAnalytics} {
		if Can(role, capability) {
			caps = append(caps, capability)
		}
	}
	response.OK(c, gin.H{"entitlement": ent, "capabilities": caps})
}
