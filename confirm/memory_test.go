package confirm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storekit/adminagent/types"
)

func samplePending() *types.PendingAction {
	return &types.PendingAction{
		Pending:        true,
		Intent:         types.IntentUpdateProductPrice,
		Entities:       map[string]any{"sku": "HP-BLK-001", "newPrice": 49.99},
		RiskFlag:       types.RiskPriceOutlier,
		OriginalValue:  29.99,
		RequestedValue: 49.99,
		CreatedAt:      time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStoreSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, "wf-1", samplePending()))

	loaded, err := store.Load(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, samplePending(), loaded)

	require.NoError(t, store.Delete(ctx, "wf-1"))
	_, err = store.Load(ctx, "wf-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, "wf-1", samplePending()))

	first, err := store.Load(ctx, "wf-1")
	require.NoError(t, err)
	first.RequestedValue = 0.01

	second, err := store.Load(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, 49.99, second.RequestedValue)
}

func TestMemoryStoreValidation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	assert.ErrorIs(t, store.Save(ctx, "", samplePending()), ErrInvalidID)
	assert.ErrorIs(t, store.Save(ctx, "wf-1", nil), ErrInvalidAction)
	_, err := store.Load(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.ErrorIs(t, store.Delete(ctx, ""), ErrInvalidID)

	// Deleting an absent id is fine.
	assert.NoError(t, store.Delete(ctx, "missing"))
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore(
		WithMemoryTTL(15*time.Minute),
		withClock(func() time.Time { return current }),
	)

	require.NoError(t, store.Save(ctx, "wf-1", samplePending()))

	current = current.Add(14 * time.Minute)
	_, err := store.Load(ctx, "wf-1")
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, err = store.Load(ctx, "wf-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	store := NewMemoryStore(withClock(func() time.Time { return current }))

	require.NoError(t, store.Save(ctx, "wf-1", samplePending()))

	current = current.Add(1000 * time.Hour)
	_, err := store.Load(ctx, "wf-1")
	assert.NoError(t, err)
}
