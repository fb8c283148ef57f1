package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/global-academic-forum/backend/internal/models"
)

func newUserRecord(t *testing.T, userID uuid.UUID, planID string) *models.Subscription {
	t.Helper()
	rec, err := models.NewSubscription(planID, &userID, nil, time.Now().Add(30*24*time.Hour))
	require.NoError(t, err)
	return rec
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := uuid.New()
	rec := newUserRecord(t, userID, "plan-network")

	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, models.OwnerUser, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.PlanID, got.PlanID)
	assert.Equal(t, rec.Status, got.Status)
}

func TestMemoryStorePutIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := uuid.New()
	rec := newUserRecord(t, userID, "plan-network")

	require.NoError(t, store.Put(ctx, rec))
	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, models.OwnerUser, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.ID, got.ID)
}

func TestMemoryStorePutSupersedes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := uuid.New()

	first := newUserRecord(t, userID, "plan-open")
	second := newUserRecord(t, userID, "plan-network")

	require.NoError(t, store.Put(ctx, first))
	require.NoError(t, store.Put(ctx, second))

	got, err := store.Get(ctx, models.OwnerUser, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID, "later put replaces, never merges")
	assert.Equal(t, "plan-network", got.PlanID)
}

func TestMemoryStoreSlotsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := uuid.New()
	instID := uuid.New()

	userRec := newUserRecord(t, userID, "plan-network")
	instRec, err := models.NewSubscription("plan-institution", nil, &instID, time.Now())
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, userRec))
	require.NoError(t, store.Put(ctx, instRec))

	// Same UUID under the other kind is a different slot.
	got, err := store.Get(ctx, models.OwnerInstitution, userID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.Get(ctx, models.OwnerInstitution, instID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, instRec.ID, got.ID)
}

func TestMemoryStoreRemove(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := uuid.New()

	require.NoError(t, store.Put(ctx, newUserRecord(t, userID, "plan-network")))
	require.NoError(t, store.Remove(ctx, models.OwnerUser, userID))

	got, err := store.Get(ctx, models.OwnerUser, userID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Removing an empty slot is a no-op.
	require.NoError(t, store.Remove(ctx, models.OwnerUser, userID))
}

func TestMemoryStoreGetAbsent(t *testing.T) {
	got, err := NewMemoryStore().Get(context.Background(), models.OwnerUser, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreRejectsInvalidOwner(t *testing.T) {
	store := NewMemoryStore()
	bad := &models.Subscription{ID: uuid.New(), PlanID: "plan-network", Status: models.SubscriptionActive}
	err := store.Put(context.Background(), bad)
	assert.ErrorIs(t, err, models.ErrSubscriptionOwner)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := uuid.New()
	require.NoError(t, store.Put(ctx, newUserRecord(t, userID, "plan-network")))

	first, err := store.Get(ctx, models.OwnerUser, userID)
	require.NoError(t, err)
	first.Status = models.SubscriptionCanceled

	second, err := store.Get(ctx, models.OwnerUser, userID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, second.Status, "mutating a read result must not affect the slot")
}
