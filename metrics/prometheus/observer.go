package prometheus

import (
	"time"

	"github.com/storekit/adminagent/types"
)

// Observer records workflow lifecycle events as Prometheus metrics. It
// implements the workflow package's Observer interface.
type Observer struct{}

// NewObserver creates a new Observer.
func NewObserver() *Observer {
	return &Observer{}
}

// WorkflowCompleted records the terminal status, intent, and latency.
func (o *Observer) WorkflowCompleted(state *types.WorkflowState) {
	intent := "UNKNOWN"
	if state.Plan != nil {
		intent = string(state.Plan.Intent)
	}
	RecordWorkflow(string(state.Status), intent, state.TotalLatency().Seconds())
}

// StageObserved records a stage duration.
func (o *Observer) StageObserved(stage string, d time.Duration) {
	RecordStage(stage, d.Seconds())
}

// ConfirmationRequested records a turn parked for approval.
func (o *Observer) ConfirmationRequested(intent types.Intent) {
	RecordConfirmationRequested(string(intent))
}

// ConfirmationResolved records an approval or decline.
func (o *Observer) ConfirmationResolved(approved bool) {
	RecordConfirmationResolved(approved)
}
