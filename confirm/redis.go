package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storekit/adminagent/types"
)

// RedisStore provides a Redis-backed implementation of the Store interface.
// Pending actions are stored as JSON with the TTL applied natively by
// Redis, making it suitable for multi-instance deployments where a
// confirmation may be approved from a different process than the one that
// paused the workflow.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets the time-to-live for pending confirmations.
// Zero disables expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// WithPrefix sets the key prefix for Redis keys. Default is "adminagent".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// NewRedisStore creates a new Redis-backed confirmation store.
//
// Example:
//
//	store := NewRedisStore(
//	    redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
//	    WithTTL(15*time.Minute),
//	)
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "adminagent",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(workflowID string) string {
	return s.prefix + ":pending:" + workflowID
}

// Save persists the pending action as JSON under the workflow id.
func (s *RedisStore) Save(ctx context.Context, workflowID string, action *types.PendingAction) error {
	if workflowID == "" {
		return ErrInvalidID
	}
	if action == nil {
		return ErrInvalidAction
	}

	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("marshal pending action: %w", err)
	}
	if err := s.client.Set(ctx, s.key(workflowID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Load retrieves a pending action by workflow id.
func (s *RedisStore) Load(ctx context.Context, workflowID string) (*types.PendingAction, error) {
	if workflowID == "" {
		return nil, ErrInvalidID
	}

	data, err := s.client.Get(ctx, s.key(workflowID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var action types.PendingAction
	if err := json.Unmarshal(data, &action); err != nil {
		return nil, fmt.Errorf("unmarshal pending action: %w", err)
	}
	return &action, nil
}

// Delete removes a pending action. Absent ids are ignored.
func (s *RedisStore) Delete(ctx context.Context, workflowID string) error {
	if workflowID == "" {
		return ErrInvalidID
	}
	if err := s.client.Del(ctx, s.key(workflowID)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
