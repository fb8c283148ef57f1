package subscriptions

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/global-academic-forum/backend/internal/middleware"
	"github.com/global-academic-forum/backend/internal/models"
	"github.com/global-academic-forum/backend/internal/plans"
	"github.com/global-academic-forum/backend/pkg/response"
)

// Self-serve subscriptions renew monthly until the billing provider says
// otherwise.
const selfServeRenewalPeriod = 30 * 24 * time.Hour

// StartRequest is the body for POST /subscriptions and POST /institutions/:id/subscription.
type StartRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

// Handler handles subscription HTTP endpoints.
type Handler struct {
	store   Store
	catalog *plans.Catalog
	logger  *zap.Logger
}

// NewHandler creates a subscriptions handler.
func NewHandler(store Store, catalog *plans.Catalog, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, catalog: catalog, logger: logger}
}

// StartIndividual handles POST /subscriptions. Starts (or supersedes) the
// caller's individual subscription.
func (h *Handler) StartIndividual(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	plan := h.catalog.Get(req.PlanID)
	if plan == nil {
		response.NotFound(c, "plan not found")
		return
	}
	if plan.Institutional {
		response.BadRequest(c, "plan is institution-scoped")
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	record, err := models.NewSubscription(plan.ID, &userID, nil, time.Now().Add(selfServeRenewalPeriod))
	if err != nil {
		response.Internal(c, "failed to build subscription")
		return
	}
	if err := h.store.Put(c.Request.Context(), record); err != nil {
		h.logger.Error("store subscription failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to start subscription")
		return
	}
	response.Created(c, record)
}

// StartInstitutional handles POST /institutions/:id/subscription. Requires the
// caller to administer the institution (or the platform).
func (h *Handler) StartInstitutional(c *gin.Context) {
	instID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid institution id")
		return
	}

	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		response.Unauthorized(c, "missing user context")
		return
	}
	if identity.Role != string(models.RolePlatformAdmin) {
		if identity.Role != string(models.RoleInstitutionAdmin) ||
			identity.InstitutionID == nil || *identity.InstitutionID != instID {
			response.Forbidden(c, "not an administrator of this institution")
			return
		}
	}

	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	plan := h.catalog.Get(req.PlanID)
	if plan == nil {
		response.NotFound(c, "plan not found")
		return
	}
	if !plan.Institutional {
		response.BadRequest(c, "plan is not institution-scoped")
		return
	}

	record, err := models.NewSubscription(plan.ID, nil, &instID, time.Now().Add(selfServeRenewalPeriod))
	if err != nil {
		response.Internal(c, "failed to build subscription")
		return
	}
	if err := h.store.Put(c.Request.Context(), record); err != nil {
		h.logger.Error("store institutional subscription failed", zap.Error(err), zap.String("institution_id", instID.String()))
		response.Internal(c, "failed to start subscription")
		return
	}
	response.Created(c, record)
}

// Cancel handles DELETE /subscriptions. Retires the caller's individual
// record; canceled is terminal and the record is kept as history.
func (h *Handler) Cancel(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	record, err := h.store.Get(c.Request.Context(), models.OwnerUser, userID)
	if err != nil {
		h.logger.Error("load subscription failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to load subscription")
		return
	}
	if record == nil {
		response.NotFound(c, "no subscription to cancel")
		return
	}
	if record.Status == models.SubscriptionCanceled {
		response.OK(c, record)
		return
	}
	record.Status = models.SubscriptionCanceled
	record.UpdatedAt = time.Now().UTC()
	if err := h.store.Put(c.Request.Context(), record); err != nil {
		h.logger.Error("cancel subscription failed", zap.Error(err), zap.String("subscription_id", record.ID.String()))
		response.Internal(c, "failed to cancel subscription")
		return
	}
	response.OK(c, record)
}
