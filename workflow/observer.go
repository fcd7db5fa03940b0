package workflow

import (
	"time"

	"github.com/storekit/adminagent/types"
)

// Observer receives workflow lifecycle events. The metrics exporter
// implements this; tests use it to assert outcomes without scraping.
type Observer interface {
	// WorkflowCompleted fires once per workflow reaching a terminal status.
	WorkflowCompleted(state *types.WorkflowState)
	// StageObserved fires after each pipeline stage with its duration.
	StageObserved(stage string, d time.Duration)
	// ConfirmationRequested fires when a turn parks at PENDING_CONFIRMATION.
	ConfirmationRequested(intent types.Intent)
	// ConfirmationResolved fires when a parked turn is approved or declined.
	ConfirmationResolved(approved bool)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) WorkflowCompleted(*types.WorkflowState) {}
func (NopObserver) StageObserved(string, time.Duration) {}
func (NopObserver) ConfirmationRequested(types.Intent) {}
func (NopObserver) ConfirmationResolved(bool) {}
