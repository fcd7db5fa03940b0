// Package collab defines the contracts for the two language-model
// collaborators the orchestrator depends on and the guardrails around
// their output: the intent extractor that turns a free-form admin
// message into a structured plan, and the explainer that phrases a
// completed workflow for the operator.
//
// Everything the collaborators produce is treated as untrusted input.
// Extracted plans pass JSON Schema validation before they reach the
// validation stage, and explanation generation is bounded by a timeout
// with a deterministic fallback, so a misbehaving model can degrade
// phrasing but never correctness.
package collab

import (
	"context"
	"errors"

	"github.com/storekit/adminagent/types"
)

// ErrNoPlan is returned when the extractor finished without producing a
// parseable plan.
var ErrNoPlan = errors.New("extractor produced no plan")

// Extractor turns a natural-language admin message into a structured plan.
type Extractor interface {
	Extract(ctx context.Context, message string) (*types.Plan, error)
}

// Explainer phrases a workflow outcome for the operator. The prompt is
// built deterministically by the caller; implementations only reword it.
type Explainer interface {
	Explain(ctx context.Context, prompt string) (string, error)
}
