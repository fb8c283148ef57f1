package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/global-academic-forum/backend/internal/models"
	"github.com/global-academic-forum/backend/internal/subscriptions"
	"github.com/global-academic-forum/backend/pkg/queue"
)

func TestApplyActivation(t *testing.T) {
	store := subscriptions.NewMemoryStore()
	p := NewBillingProcessor(store, nil, nil)

	userID := uuid.New()
	renews := time.Now().Add(365 * 24 * time.Hour)
	err := p.Apply(context.Background(), queue.BillingEventPayload{
		Kind:     queue.BillingSubscriptionActivated,
		PlanID:   "plan-network",
		UserID:   &userID,
		RenewsAt: &renews,
	})
	require.NoError(t, err)

	rec, err := store.Get(context.Background(), models.OwnerUser, userID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "plan-network", rec.PlanID)
	assert.Equal(t, models.SubscriptionActive, rec.Status)
	assert.WithinDuration(t, renews, rec.RenewsAt, time.Second)
}

func TestApplyRenewalSupersedes(t *testing.T) {
	store := subscriptions.NewMemoryStore()
	p := NewBillingProcessor(store, nil, nil)
	ctx := context.Background()

	userID := uuid.New()
	require.NoError(t, p.Apply(ctx, queue.BillingEventPayload{
		Kind:   queue.BillingSubscriptionActivated,
		PlanID: "plan-open",
		UserID: &userID,
	}))
	require.NoError(t, p.Apply(ctx, queue.BillingEventPayload{
		Kind:   queue.BillingSubscriptionRenewed,
		PlanID: "plan-network",
		UserID: &userID,
	}))

	rec, err := store.Get(ctx, models.OwnerUser, userID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "plan-network", rec.PlanID)
	assert.Equal(t, models.SubscriptionActive, rec.Status)
}

func TestApplyPaymentFailed(t *testing.T) {
	store := subscriptions.NewMemoryStore()
	p := NewBillingProcessor(store, nil, nil)
	ctx := context.Background()

	instID := uuid.New()
	require.NoError(t, p.Apply(ctx, queue.BillingEventPayload{
		Kind:          queue.BillingSubscriptionActivated,
		PlanID:        "plan-institution",
		InstitutionID: &instID,
	}))
	require.NoError(t, p.Apply(ctx, queue.BillingEventPayload{
		Kind:          queue.BillingPaymentFailed,
		InstitutionID: &instID,
	}))

	rec, err := store.Get(ctx, models.OwnerInstitution, instID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.SubscriptionPastDue, rec.Status)
	assert.False(t, rec.IsActive())
}

func TestApplyCancelIsTerminal(t *testing.T) {
	store := subscriptions.NewMemoryStore()
	p := NewBillingProcessor(store, nil, nil)
	ctx := context.Background()

	userID := uuid.New()
	require.NoError(t, p.Apply(ctx, queue.BillingEventPayload{
		Kind:   queue.BillingSubscriptionActivated,
		PlanID: "plan-network",
		UserID: &userID,
	}))
	require.NoError(t, p.Apply(ctx, queue.BillingEventPayload{
		Kind:   queue.BillingSubscriptionCanceled,
		UserID: &userID,
	}))

	rec, err := store.Get(ctx, models.OwnerUser, userID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.SubscriptionCanceled, rec.Status)

	// A late payment failure must not resurrect or alter the canceled record.
	require.NoError(t, p.Apply(ctx, queue.BillingEventPayload{
		Kind:   queue.BillingPaymentFailed,
		UserID: &userID,
	}))
	rec, err = store.Get(ctx, models.OwnerUser, userID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.SubscriptionCanceled, rec.Status)
}

func TestApplyUnknownOwnerIsNoop(t *testing.T) {
	store := subscriptions.NewMemoryStore()
	p := NewBillingProcessor(store, nil, nil)

	userID := uuid.New()
	err := p.Apply(context.Background(), queue.BillingEventPayload{
		Kind:   queue.BillingSubscriptionCanceled,
		UserID: &userID,
	})
	require.NoError(t, err)

	rec, err := store.Get(context.Background(), models.OwnerUser, userID)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestApplyRejectsAmbiguousOwner(t *testing.T) {
	store := subscriptions.NewMemoryStore()
	p := NewBillingProcessor(store, nil, nil)

	userID := uuid.New()
	instID := uuid.New()
	err := p.Apply(context.Background(), queue.BillingEventPayload{
		Kind:          queue.BillingSubscriptionActivated,
		PlanID:        "plan-network",
		UserID:        &userID,
		InstitutionID: &instID,
	})
	assert.ErrorIs(t, err, models.ErrSubscriptionOwner)
}
