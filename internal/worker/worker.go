// Package worker processes background jobs from the Redis queue.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/global-academic-forum/backend/internal/models"
	"github.com/global-academic-forum/backend/internal/subscriptions"
	"github.com/global-academic-forum/backend/pkg/queue"
)

// defaultTerm is applied when the billing provider omits renews_at.
const defaultTerm = 30 * 24 * time.Hour

// BillingProcessor applies billing provider events to the subscription store.
type BillingProcessor struct {
	store  subscriptions.Store
	queue  *queue.Queue
	logger *zap.Logger
}

// NewBillingProcessor creates a billing event processor.
func NewBillingProcessor(store subscriptions.Store, q *queue.Queue, logger *zap.Logger) *BillingProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingProcessor{store: store, queue: q, logger: logger}
}

// Process handles one job.
func (p *BillingProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeBillingEvent {
		p.logger.Warn("unknown job type, skipping", zap.String("type", string(job.Type)))
		return nil
	}
	var payload queue.BillingEventPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return p.Apply(ctx, payload)
}

// Apply applies a single billing event to the store.
//
// Activation and renewal write an active record, superseding whatever the
// owner held before. Payment failure marks the current record past_due
// without touching its term. Cancellation marks the record canceled; the
// record stays in place as history and stops granting access.
func (p *BillingProcessor) Apply(ctx context.Context, payload queue.BillingEventPayload) error {
	kind, ownerID, err := ownerOf(payload)
	if err != nil {
		return err
	}

	switch payload.Kind {
	case queue.BillingSubscriptionActivated, queue.BillingSubscriptionRenewed:
		renewsAt := time.Now().Add(defaultTerm)
		if payload.RenewsAt != nil {
			renewsAt = *payload.RenewsAt
		}
		record, err := models.NewSubscription(payload.PlanID, payload.UserID, payload.InstitutionID, renewsAt)
		if err != nil {
			return fmt.Errorf("build subscription: %w", err)
		}
		if err := p.store.Put(ctx, record); err != nil {
			return fmt.Errorf("put subscription: %w", err)
		}
		p.logger.Info("subscription activated",
			zap.String("kind", payload.Kind),
			zap.String("plan_id", payload.PlanID),
			zap.String("owner", ownerID.String()))
		return nil

	case queue.BillingPaymentFailed:
		return p.setStatus(ctx, kind, ownerID, models.SubscriptionPastDue)

	case queue.BillingSubscriptionCanceled:
		return p.setStatus(ctx, kind, ownerID, models.SubscriptionCanceled)

	default:
		p.logger.Warn("unknown billing event kind, skipping", zap.String("kind", payload.Kind))
		return nil
	}
}

func (p *BillingProcessor) setStatus(ctx context.Context, kind models.OwnerKind, ownerID uuid.UUID, status models.SubscriptionStatus) error {
	record, err := p.store.Get(ctx, kind, ownerID)
	if err != nil {
		return fmt.Errorf("get subscription: %w", err)
	}
	if record == nil {
		// Nothing to update; the provider may deliver events out of order.
		p.logger.Warn("billing event for unknown subscription",
			zap.String("owner", ownerID.String()), zap.String("status", string(status)))
		return nil
	}
	if record.Status == models.SubscriptionCanceled {
		// Canceled is terminal.
		return nil
	}
	record.Status = status
	if err := p.store.Put(ctx, record); err != nil {
		return fmt.Errorf("put subscription: %w", err)
	}
	p.logger.Info("subscription status updated",
		zap.String("owner", ownerID.String()), zap.String("status", string(status)))
	return nil
}

func ownerOf(payload queue.BillingEventPayload) (models.OwnerKind, uuid.UUID, error) {
	switch {
	case payload.UserID != nil && payload.InstitutionID == nil:
		return models.OwnerUser, *payload.UserID, nil
	case payload.InstitutionID != nil && payload.UserID == nil:
		return models.OwnerInstitution, *payload.InstitutionID, nil
	}
	return "", uuid.Nil, models.ErrSubscriptionOwner
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *BillingProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("billing worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
