package subscriptions

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/global-academic-forum/backend/internal/models"
)

type ownerKey struct {
	kind models.OwnerKind
	id   uuid.UUID
}

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[ownerKey]models.Subscription
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[ownerKey]models.Subscription)}
}

// Put stores the record in its owner's slot, superseding any prior record.
func (s *MemoryStore) Put(_ context.Context, record *models.Subscription) error {
	if err := record.Validate(); err != nil {
		return err
	}
	kind, id := record.Owner()
	s.mu.Lock()
	s.slots[ownerKey{kind, id}] = *record
	s.mu.Unlock()
	return nil
}

// Get returns the record in the owner's slot, or (nil, nil) when absent.
func (s *MemoryStore) Get(_ context.Context, kind models.OwnerKind, ownerID uuid.UUID) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.slots[ownerKey{kind, ownerID}]
	if !ok {
		return nil, nil
	}
	copied := rec
	return &copied, nil
}

// Remove clears the owner's slot. Removing an empty slot is a no-op.
func (s *MemoryStore) Remove(_ context.Context, kind models.OwnerKind, ownerID uuid.UUID) error {
	s.mu.Lock()
	delete(s.slots, ownerKey{kind, ownerID})
	s.mu.Unlock()
	return nil
}
