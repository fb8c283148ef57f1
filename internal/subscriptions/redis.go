package subscriptions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/global-academic-forum/backend/internal/models"
)

const redisKeyPrefix = "subscription"

// RedisStore is a session-durable Store keeping one JSON blob per owner key.
// It mirrors the slot layout of the Postgres store without the canceled-record
// history, and suits demo and edge deployments that run without Postgres.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed subscription store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(kind models.OwnerKind, ownerID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", redisKeyPrefix, kind, ownerID)
}

// Put stores the record in its owner's slot, superseding any prior record.
func (s *RedisStore) Put(ctx context.Context, record *models.Subscription) error {
	if err := record.Validate(); err != nil {
		return err
	}
	kind, ownerID := record.Owner()
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}
	return s.client.Set(ctx, redisKey(kind, ownerID), raw, 0).Err()
}

// Get returns the record in the owner's slot, or (nil, nil) when absent.
func (s *RedisStore) Get(ctx context.Context, kind models.OwnerKind, ownerID uuid.UUID) (*models.Subscription, error) {
	raw, err := s.client.Get(ctx, redisKey(kind, ownerID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var rec models.Subscription
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal subscription: %w", err)
	}
	return &rec, nil
}

// Remove clears the owner's slot.
func (s *RedisStore) Remove(ctx context.Context, kind models.OwnerKind, ownerID uuid.UUID) error {
	return s.client.Del(ctx, redisKey(kind, ownerID)).Err()
}
