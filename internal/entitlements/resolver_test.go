package entitlements

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/global-academic-forum/backend/internal/models"
	"github.com/global-academic-forum/backend/internal/plans"
	"github.com/global-academic-forum/backend/internal/subscriptions"
)

func newResolver(t *testing.T) (*Resolver, *subscriptions.MemoryStore) {
	t.Helper()
	catalog, err := plans.NewCatalog()
	require.NoError(t, err)
	store := subscriptions.NewMemoryStore()
	return NewResolver(store, catalog, nil), store
}

func putUserSub(t *testing.T, store subscriptions.Store, userID uuid.UUID, planID string, status models.SubscriptionStatus) *models.Subscription {
	t.Helper()
	rec, err := models.NewSubscription(planID, &userID, nil, time.Now().Add(30*24*time.Hour))
	require.NoError(t, err)
	rec.Status = status
	require.NoError(t, store.Put(context.Background(), rec))
	return rec
}

func putInstitutionSub(t *testing.T, store subscriptions.Store, instID uuid.UUID, planID string, status models.SubscriptionStatus) *models.Subscription {
	t.Helper()
	rec, err := models.NewSubscription(planID, nil, &instID, time.Now().Add(30*24*time.Hour))
	require.NoError(t, err)
	rec.Status = status
	require.NoError(t, store.Put(context.Background(), rec))
	return rec
}

func TestResolveNoSubscriptions(t *testing.T) {
	resolver, _ := newResolver(t)

	ent, err := resolver.Resolve(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.False(t, ent.HasActivePlan)
	assert.Nil(t, ent.Subscription)
	assert.Nil(t, ent.Plan)
}

func TestResolveIndividualPrecedence(t *testing.T) {
	resolver, store := newResolver(t)
	userID := uuid.New()
	instID := uuid.New()

	individual := putUserSub(t, store, userID, "plan-network", models.SubscriptionActive)
	putInstitutionSub(t, store, instID, "plan-institution", models.SubscriptionActive)

	ent, err := resolver.Resolve(context.Background(), userID, &instID)
	require.NoError(t, err)
	assert.True(t, ent.HasActivePlan)
	require.NotNil(t, ent.Subscription)
	assert.Equal(t, individual.ID, ent.Subscription.ID, "individual coverage wins over institutional")
	require.NotNil(t, ent.Plan)
	assert.Equal(t, "plan-network", ent.Plan.ID)
}

func TestResolveInstitutionalFallback(t *testing.T) {
	resolver, store := newResolver(t)
	userID := uuid.New()
	instID := uuid.New()

	institutional := putInstitutionSub(t, store, instID, "plan-institution", models.SubscriptionActive)

	ent, err := resolver.Resolve(context.Background(), userID, &instID)
	require.NoError(t, err)
	assert.True(t, ent.HasActivePlan)
	require.NotNil(t, ent.Subscription)
	assert.Equal(t, institutional.ID, ent.Subscription.ID)
}

func TestResolveInstitutionalIgnoredWithoutAffiliation(t *testing.T) {
	resolver, store := newResolver(t)
	userID := uuid.New()
	instID := uuid.New()

	putInstitutionSub(t, store, instID, "plan-institution", models.SubscriptionActive)

	ent, err := resolver.Resolve(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.False(t, ent.HasActivePlan)
	assert.Nil(t, ent.Subscription)
}

func TestResolveSurfacesInactiveRecords(t *testing.T) {
	resolver, store := newResolver(t)
	userID := uuid.New()
	instID := uuid.New()

	pastDue := putUserSub(t, store, userID, "plan-network", models.SubscriptionPastDue)
	putInstitutionSub(t, store, instID, "plan-institution", models.SubscriptionCanceled)

	ent, err := resolver.Resolve(context.Background(), userID, &instID)
	require.NoError(t, err)
	assert.False(t, ent.HasActivePlan)
	require.NotNil(t, ent.Subscription, "inactive record still surfaced for state display")
	assert.Equal(t, pastDue.ID, ent.Subscription.ID, "individual record preferred when both are inactive")
	assert.Equal(t, models.SubscriptionPastDue, ent.Subscription.Status)
}

func TestResolveInactiveIndividualActiveInstitutional(t *testing.T) {
	resolver, store := newResolver(t)
	userID := uuid.New()
	instID := uuid.New()

	putUserSub(t, store, userID, "plan-network", models.SubscriptionCanceled)
	institutional := putInstitutionSub(t, store, instID, "plan-institution", models.SubscriptionActive)

	ent, err := resolver.Resolve(context.Background(), userID, &instID)
	require.NoError(t, err)
	assert.True(t, ent.HasActivePlan)
	require.NotNil(t, ent.Subscription)
	assert.Equal(t, institutional.ID, ent.Subscription.ID, "active institutional coverage beats a canceled individual record")
}

func TestResolveUnknownPlanDegrades(t *testing.T) {
	resolver, store := newResolver(t)
	userID := uuid.New()

	putUserSub(t, store, userID, "plan-legacy-2019", models.SubscriptionActive)

	ent, err := resolver.Resolve(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.True(t, ent.HasActivePlan)
	require.NotNil(t, ent.Subscription)
	assert.Nil(t, ent.Plan, "unknown plan id degrades, it does not fail")
}

func TestResolveInstitutionalOnlyInactive(t *testing.T) {
	resolver, store := newResolver(t)
	userID := uuid.New()
	instID := uuid.New()

	pastDue := putInstitutionSub(t, store, instID, "plan-institution", models.SubscriptionPastDue)

	ent, err := resolver.Resolve(context.Background(), userID, &instID)
	require.NoError(t, err)
	assert.False(t, ent.HasActivePlan)
	require.NotNil(t, ent.Subscription)
	assert.Equal(t, pastDue.ID, ent.Subscription.ID)
}
