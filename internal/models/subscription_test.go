package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubscriptionOwnerInvariant(t *testing.T) {
	userID := uuid.New()
	instID := uuid.New()
	renews := time.Now().Add(30 * 24 * time.Hour)

	tests := []struct {
		name    string
		userID  *uuid.UUID
		instID  *uuid.UUID
		wantErr error
	}{
		{name: "user owned", userID: &userID},
		{name: "institution owned", instID: &instID},
		{name: "both owners", userID: &userID, instID: &instID, wantErr: ErrSubscriptionOwner},
		{name: "no owner", wantErr: ErrSubscriptionOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := NewSubscription("plan-network", tt.userID, tt.instID, renews)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, sub)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, SubscriptionActive, sub.Status)
			assert.Equal(t, "plan-network", sub.PlanID)
			assert.NotEqual(t, uuid.Nil, sub.ID)
			assert.NoError(t, sub.Validate())
		})
	}
}

func TestSubscriptionOwner(t *testing.T) {
	userID := uuid.New()
	instID := uuid.New()

	individual, err := NewSubscription("plan-network", &userID, nil, time.Now())
	require.NoError(t, err)
	kind, id := individual.Owner()
	assert.Equal(t, OwnerUser, kind)
	assert.Equal(t, userID, id)

	institutional, err := NewSubscription("plan-institution", nil, &instID, time.Now())
	require.NoError(t, err)
	kind, id = institutional.Owner()
	assert.Equal(t, OwnerInstitution, kind)
	assert.Equal(t, instID, id)
}

func TestSubscriptionIsActive(t *testing.T) {
	userID := uuid.New()
	sub, err := NewSubscription("plan-network", &userID, nil, time.Now())
	require.NoError(t, err)
	assert.True(t, sub.IsActive())

	sub.Status = SubscriptionPastDue
	assert.False(t, sub.IsActive())

	sub.Status = SubscriptionCanceled
	assert.False(t, sub.IsActive())
}
