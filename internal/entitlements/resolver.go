// Package entitlements decides whether a viewer may access content, and which
// subscription record governs that access.
package entitlements

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/global-academic-forum/backend/internal/models"
	"github.com/global-academic-forum/backend/internal/plans"
	"github.com/global-academic-forum/backend/internal/subscriptions"
)

// Entitlement is the resolved answer to "does this user currently have paid
// access", plus the record and plan that grant it. Plan is nil when the
// record references a plan the catalog no longer knows; callers render
// degraded info rather than failing.
type Entitlement struct {
	HasActivePlan bool                 `json:"has_active_plan"`
	Subscription  *models.Subscription `json:"subscription,omitempty"`
	Plan          *models.Plan         `json:"plan,omitempty"`
}

// Resolver computes effective entitlements from the subscription store and
// the plan catalog.
type Resolver struct {
	store   subscriptions.Store
	catalog *plans.Catalog
	logger  *zap.Logger
}

// NewResolver creates an entitlement resolver.
func NewResolver(store subscriptions.Store, catalog *plans.Catalog, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, catalog: catalog, logger: logger}
}

// Resolve returns the effective entitlement for a user, optionally affiliated
// with an institution. Individual coverage takes priority over institutional
// coverage; when neither slot holds an active record, whichever record exists
// is still surfaced (preferring the individual one) so callers can show
// past-due or canceled state. An unknown user yields the zero entitlement,
// never an error.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID, institutionID *uuid.UUID) (Entitlement, error) {
	individual, err := r.store.Get(ctx, models.OwnerUser, userID)
	if err != nil {
		return Entitlement{}, err
	}
	if individual != nil && individual.IsActive() {
		return r.build(individual), nil
	}

	var institutional *models.Subscription
	if institutionID != nil {
		institutional, err = r.store.Get(ctx, models.OwnerInstitution, *institutionID)
		if err != nil {
			return Entitlement{}, err
		}
		if institutional != nil && institutional.IsActive() {
			return r.build(institutional), nil
		}
	}

	if individual != nil {
		return r.build(individual), nil
	}
	if institutional != nil {
		return r.build(institutional), nil
	}
	return Entitlement{}, nil
}

func (r *Resolver) build(record *models.Subscription) Entitlement {
	plan := r.catalog.Get(record.PlanID)
	if plan == nil {
		r.logger.Warn("subscription references unknown plan",
			zap.String("subscription_id", record.ID.String()),
			zap.String("plan_id", record.PlanID))
	}
	return Entitlement{
		HasActivePlan: record.IsActive(),
		Subscription:  record,
		Plan:          plan,
	}
}
