package confirm

import (
	"context"
	"sync"
	"time"

	"github.com/storekit/adminagent/types"
)

// MemoryStore provides an in-memory implementation of the Store interface.
// It is thread-safe and suitable for development, testing, and
// single-instance deployments. Expired entries are reaped lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	action    types.PendingAction
	expiresAt time.Time // zero means no expiry
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryTTL sets the time-to-live for pending confirmations.
// Zero (the default) disables expiry.
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.ttl = ttl }
}

// withClock overrides the time source for deterministic tests.
func withClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates a new in-memory confirmation store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save persists a copy of the pending action under the workflow id.
func (s *MemoryStore) Save(ctx context.Context, workflowID string, action *types.PendingAction) error {
	if workflowID == "" {
		return ErrInvalidID
	}
	if action == nil {
		return ErrInvalidAction
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{action: *action}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.entries[workflowID] = entry
	return nil
}

// Load retrieves a pending action by workflow id, reaping it if expired.
// Returns a copy to prevent external mutation of stored state.
func (s *MemoryStore) Load(ctx context.Context, workflowID string) (*types.PendingAction, error) {
	if workflowID == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[workflowID]
	if !exists {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.entries, workflowID)
		return nil, ErrNotFound
	}

	action := entry.action
	return &action, nil
}

// Delete removes a pending action. Absent ids are ignored.
func (s *MemoryStore) Delete(ctx context.Context, workflowID string) error {
	if workflowID == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, workflowID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
