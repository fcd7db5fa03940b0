package workflow

import (
	"strings"

	"github.com/storekit/adminagent/types"
)

// IsConfirmation decides whether a human reply approves a pending action.
// Approval requires the word "confirm" (any casing) plus the action's
// identifier, so "confirm HP-BLK-001" approves a reprice of that SKU but
// a bare "confirm" against the wrong record does not. Actions without an
// identifying entity accept a bare "confirm".
func IsConfirmation(reply string, action *types.PendingAction) bool {
	if action == nil {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(reply))
	if !strings.Contains(lower, "confirm") {
		return false
	}

	identifier := actionIdentifier(action)
	if identifier == "" {
		return true
	}
	return strings.Contains(lower, strings.ToLower(identifier))
}

// actionIdentifier picks the entity that names the action's target.
func actionIdentifier(action *types.PendingAction) string {
	if sku, ok := types.EntityString(action.Entities, "sku"); ok {
		return sku
	}
	if number, ok := types.EntityString(action.Entities, "orderNumber"); ok {
		return number
	}
	return ""
}
