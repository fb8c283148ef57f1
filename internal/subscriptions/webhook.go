package subscriptions

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/global-academic-forum/backend/pkg/queue"
	"github.com/global-academic-forum/backend/pkg/response"
)

// BillingEventPayload is the expected body from the billing provider webhook.
type BillingEventPayload struct {
	Kind          string     `json:"kind" binding:"required"`
	PlanID        string     `json:"plan_id"`
	UserID        string     `json:"user_id"`
	InstitutionID string     `json:"institution_id"`
	RenewsAt      *time.Time `json:"renews_at"`
}

// WebhookHandler handles billing provider webhooks. Events are enqueued and
// applied by the worker so the provider gets a fast 200 and retries land in
// the DLQ rather than at the provider.
type WebhookHandler struct {
	queue  *queue.Queue
	secret string
	logger *zap.Logger
}

// NewWebhookHandler creates a billing webhook handler.
func NewWebhookHandler(q *queue.Queue, secret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{queue: q, secret: secret, logger: logger}
}

// BillingEvent handles POST /webhooks/billing.
func (h *WebhookHandler) BillingEvent(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "unreadable body")
		return
	}
	if h.secret != "" && !h.verifySignature(c.GetHeader("X-Billing-Signature"), raw) {
		response.Unauthorized(c, "invalid signature")
		return
	}

	var body BillingEventPayload
	if err := json.Unmarshal(raw, &body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	switch body.Kind {
	case queue.BillingSubscriptionActivated, queue.BillingSubscriptionRenewed,
		queue.BillingPaymentFailed, queue.BillingSubscriptionCanceled:
	default:
		response.BadRequest(c, "unknown event kind")
		return
	}

	payload := queue.BillingEventPayload{Kind: body.Kind, PlanID: body.PlanID, RenewsAt: body.RenewsAt}
	if body.UserID != "" {
		id, err := uuid.Parse(body.UserID)
		if err != nil {
			response.BadRequest(c, "invalid user_id")
			return
		}
		payload.UserID = &id
	}
	if body.InstitutionID != "" {
		id, err := uuid.Parse(body.InstitutionID)
		if err != nil {
			response.BadRequest(c, "invalid institution_id")
			return
		}
		payload.InstitutionID = &id
	}
	if (payload.UserID == nil) == (payload.InstitutionID == nil) {
		response.BadRequest(c, "exactly one of user_id or institution_id required")
		return
	}

	if err := h.queue.EnqueueBillingEvent(c.Request.Context(), payload); err != nil {
		h.logger.Error("enqueue billing event failed", zap.Error(err), zap.String("kind", body.Kind))
		response.Internal(c, "failed to accept event")
		return
	}
	response.OK(c, gin.H{"queued": true})
}

func (h *WebhookHandler) verifySignature(signature string, body []byte) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
