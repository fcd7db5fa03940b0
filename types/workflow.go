// Package types defines the shared domain types for the admin agent:
// plans, validation verdicts, policy decisions, pending confirmations,
// workflow state, and the store record entities.
package types

import "time"

// Plan is the structured intent extracted from one user message.
// It is immutable once validated: exactly one Plan exists per workflow.
type Plan struct {
	Intent     Intent         `json:"intent"`
	Entities   map[string]any `json:"entities"`
	Confidence float64        `json:"confidence"`
}

// ValidationResult is the deterministic verdict of the validation stage
// over a Plan and the current store state.
type ValidationResult struct {
	Valid                bool     `json:"valid"`
	RiskFlag             RiskFlag `json:"risk_flag,omitempty"`
	Errors               []string `json:"errors,omitempty"`
	Warnings             []string `json:"warnings,omitempty"`
	OldValue             any      `json:"old_value,omitempty"`
	NewValue             any      `json:"new_value,omitempty"`
	RequiresConfirmation bool     `json:"requires_confirmation"`
}

// FirstError returns the first validation error, or "" if none.
func (r *ValidationResult) FirstError() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}

// PolicyOutcome is the verdict of the policy engine.
type PolicyOutcome string

// Policy outcomes.
const (
	OutcomeProceed PolicyOutcome = "PROCEED"
	OutcomeConfirm PolicyOutcome = "CONFIRM"
)

// PolicyDecision maps a validation verdict plus intent classification and
// confidence to PROCEED or CONFIRM. Exactly one reason is ever surfaced.
type PolicyDecision struct {
	Outcome PolicyOutcome `json:"outcome"`
	Reason  string        `json:"reason,omitempty"`

	// Set only for price-change confirmations.
	OldValue           any    `json:"old_value,omitempty"`
	NewValue           any    `json:"new_value,omitempty"`
	ConfirmationPhrase string `json:"confirmation_phrase,omitempty"`
}

// PendingAction is a serializable snapshot of a paused mutation, keyed by
// workflow id in the confirmation store. It exists exactly while the
// workflow status is StatusPendingConfirmation.
type PendingAction struct {
	Pending        bool           `json:"pending"`
	Intent         Intent         `json:"intent"`
	Entities       map[string]any `json:"entities"`
	RiskFlag       RiskFlag       `json:"risk_flag,omitempty"`
	OriginalValue  any            `json:"original_value,omitempty"`
	RequestedValue any            `json:"requested_value,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ExecutionResult is the outcome of an intent executor.
type ExecutionResult struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// WorkflowStatus is the orchestrator's state machine position.
type WorkflowStatus string

// Workflow statuses. Completed and Failed are terminal.
const (
	StatusPlanning            WorkflowStatus = "PLANNING"
	StatusValidating          WorkflowStatus = "VALIDATING"
	StatusPendingConfirmation WorkflowStatus = "PENDING_CONFIRMATION"
	StatusExecuting           WorkflowStatus = "EXECUTING"
	StatusResponding          WorkflowStatus = "RESPONDING"
	StatusCompleted           WorkflowStatus = "COMPLETED"
	StatusFailed              WorkflowStatus = "FAILED"
)

// IsTerminal reports whether no further transitions are possible.
func (s WorkflowStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StatusTransition records one orchestrator state change.
type StatusTransition struct {
	From      WorkflowStatus `json:"from"`
	To        WorkflowStatus `json:"to"`
	Timestamp time.Time      `json:"timestamp"`
}

// StageTiming records how long one pipeline stage took.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// WorkflowState aggregates everything about one user turn. It is created
// once per turn and mutated in place by the orchestrator as stages complete.
type WorkflowState struct {
	WorkflowID string `json:"workflow_id"`
	SessionID  string `json:"session_id,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`
	Message    string `json:"message"`

	Status      WorkflowStatus     `json:"status"`
	Plan        *Plan              `json:"plan,omitempty"`
	Validation  *ValidationResult  `json:"validation,omitempty"`
	Pending     *PendingAction     `json:"pending,omitempty"`
	Execution   *ExecutionResult   `json:"execution,omitempty"`
	Response    string             `json:"response,omitempty"`
	Transitions []StatusTransition `json:"transitions,omitempty"`
	Timings     []StageTiming      `json:"timings,omitempty"`

	// Declined marks a COMPLETED workflow whose pending action the
	// operator rejected, so callers can tell "did it" from "declined
	// it" without parsing the response text.
	Declined bool `json:"declined,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// Transition moves the workflow to a new status and records the edge.
func (w *WorkflowState) Transition(to WorkflowStatus, now time.Time) {
	w.Transitions = append(w.Transitions, StatusTransition{
		From:      w.Status,
		To:        to,
		Timestamp: now,
	})
	w.Status = to
}

// RecordTiming appends a stage duration measurement.
func (w *WorkflowState) RecordTiming(stage string, d time.Duration) {
	w.Timings = append(w.Timings, StageTiming{Stage: stage, Duration: d})
}

// TotalLatency is the wall-clock duration from workflow start to completion.
// Zero until the workflow reaches a terminal status.
func (w *WorkflowState) TotalLatency() time.Duration {
	if w.CompletedAt.IsZero() {
		return 0
	}
	return w.CompletedAt.Sub(w.StartedAt)
}
