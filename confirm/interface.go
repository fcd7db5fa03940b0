// Package confirm persists pending human-in-the-loop confirmations.
//
// A PendingAction is saved under its workflow id when the policy engine
// demands confirmation, and loaded back when the human responds so the
// workflow can resume exactly once. Stores support a per-entry TTL because
// an abandoned confirmation would otherwise live forever; a TTL of 0
// disables expiry and leaves freshness to the caller.
package confirm

import (
	"context"
	"errors"

	"github.com/storekit/adminagent/types"
)

// Store is the interface for pending-confirmation persistence.
type Store interface {
	// Save persists the pending action under the workflow id.
	Save(ctx context.Context, workflowID string, action *types.PendingAction) error

	// Load retrieves a pending action by workflow id.
	// Returns ErrNotFound for unknown or expired ids.
	Load(ctx context.Context, workflowID string) (*types.PendingAction, error)

	// Delete removes a pending action. Deleting an absent id is not an error.
	Delete(ctx context.Context, workflowID string) error
}

// ErrNotFound is returned when no pending action exists for a workflow id,
// including actions that have expired.
var ErrNotFound = errors.New("pending confirmation not found")

// ErrInvalidID is returned for an empty workflow id.
var ErrInvalidID = errors.New("workflow id must not be empty")

// ErrInvalidAction is returned when saving a nil pending action.
var ErrInvalidAction = errors.New("pending action must not be nil")
