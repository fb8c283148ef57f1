// Package subscriptions owns keyed storage of subscription records: one slot
// per user id and one per institution id.
package subscriptions

import (
	"context"

	"github.com/google/uuid"

	"github.com/global-academic-forum/backend/internal/models"
)

// Store is keyed storage of subscription records. A Put supersedes whatever
// record occupies the owner's slot; a read immediately after a write by the
// same caller observes that write. Absence is returned as (nil, nil).
type Store interface {
	Put(ctx context.Context, record *models.Subscription) error
	Get(ctx context.Context, kind models.OwnerKind, ownerID uuid.UUID) (*models.Subscription, error)
	Remove(ctx context.Context, kind models.OwnerKind, ownerID uuid.UUID) error
}
