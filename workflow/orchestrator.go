// Package workflow drives a single admin turn through the pipeline:
// extract a plan, validate it against the store, ask the policy engine
// whether a human must approve, execute, and phrase the response.
//
// The orchestrator never returns a Go error for business failures. A
// guard rejection, a failed execution, or a panic in any stage lands the
// workflow in the FAILED status with a response the operator can read;
// errors are reserved for misuse (empty input) and confirmation-store
// I/O. A turn that stops at PENDING_CONFIRMATION is resumed later by id
// with the human's reply, and its pending action is consumed exactly
// once regardless of the answer.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/storekit/adminagent/collab"
	"github.com/storekit/adminagent/confirm"
	"github.com/storekit/adminagent/executors"
	"github.com/storekit/adminagent/logger"
	"github.com/storekit/adminagent/policy"
	"github.com/storekit/adminagent/types"
	"github.com/storekit/adminagent/validation"
)

// Pipeline stage names, as recorded in timings and metrics.
const (
	StagePlanning   = "planning"
	StageValidating = "validating"
	StagePolicy     = "policy"
	StageExecuting  = "executing"
	StageResponding = "responding"
)

// DefaultExplainTimeout bounds explanation generation before the
// deterministic fallback takes over.
const DefaultExplainTimeout = 10 * time.Second

// ErrEmptyMessage is returned when Run is called without input.
var ErrEmptyMessage = errors.New("message must not be empty")

// ErrNoPendingConfirmation is returned when Resume finds nothing to
// resume, either because the id is unknown or the confirmation expired.
var ErrNoPendingConfirmation = errors.New("no pending confirmation for workflow")

// TimeFunc returns the current time. Override for deterministic tests.
type TimeFunc func() time.Time

// Deps are the orchestrator's collaborators and stages.
type Deps struct {
	Extractor collab.Extractor
	// Explainer is optional; without one responses use the deterministic
	// fallback phrasing.
	Explainer collab.Explainer
	Validator *validation.Stage
	Policy    *policy.Engine
	Executors *executors.Registry
	Pending   confirm.Store
}

// Orchestrator runs admin turns. Safe for concurrent use; per-turn state
// lives in the WorkflowState it returns.
type Orchestrator struct {
	deps           Deps
	observer       Observer
	explainTimeout time.Duration
	now            TimeFunc
	newID          func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithExplainTimeout overrides the explanation budget.
func WithExplainTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.explainTimeout = d
		}
	}
}

// WithObserver wires an outcome observer, typically the metrics exporter.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithTimeFunc sets a custom time function for deterministic tests.
func WithTimeFunc(fn TimeFunc) Option {
	return func(o *Orchestrator) { o.now = fn }
}

// New creates an orchestrator.
func New(deps Deps, opts ...Option) (*Orchestrator, error) {
	if deps.Extractor == nil {
		return nil, fmt.Errorf("workflow: extractor is required")
	}
	if deps.Validator == nil || deps.Policy == nil || deps.Executors == nil {
		return nil, fmt.Errorf("workflow: validator, policy, and executors are required")
	}
	if deps.Pending == nil {
		return nil, fmt.Errorf("workflow: pending confirmation store is required")
	}

	o := &Orchestrator{
		deps:           deps,
		observer:       NopObserver{},
		explainTimeout: DefaultExplainTimeout,
		now:            time.Now,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run processes one admin message from scratch. The returned state is
// terminal unless the policy engine parked the turn at
// PENDING_CONFIRMATION, in which case the caller relays the question in
// state.Response and later calls Resume with the human's answer.
func (o *Orchestrator) Run(ctx context.Context, sessionID, message string) (state *types.WorkflowState, err error) {
	if message == "" {
		return nil, ErrEmptyMessage
	}

	state = &types.WorkflowState{
		WorkflowID: o.newID(),
		SessionID:  sessionID,
		TraceID:    o.newID(),
		Message:    message,
		Status:     types.StatusPlanning,
		StartedAt:  o.now(),
	}
	ctx = logger.WithWorkflowID(ctx, state.WorkflowID)
	ctx = logger.WithSessionID(ctx, sessionID)
	ctx = logger.WithTraceID(ctx, state.TraceID)
	defer o.recoverToFailed(ctx, state)

	// Planning.
	plan, planErr := timedStage(ctx, o, state, StagePlanning, func(ctx context.Context) (*types.Plan, error) {
		return o.deps.Extractor.Extract(ctx, message)
	})
	if planErr != nil {
		o.fail(ctx, state, fmt.Sprintf("I couldn't understand that request: %v", planErr))
		return state, nil
	}
	state.Plan = plan
	ctx = logger.WithIntent(ctx, string(plan.Intent))
	logger.InfoContext(ctx, "plan extracted", "confidence", plan.Confidence)

	if plan.Intent == types.IntentUnknown {
		o.fail(ctx, state, "I couldn't map that message to a store admin action. Try rephrasing, for example: \"change the price of HP-BLK-001 to 49.99\".")
		return state, nil
	}

	// Read-only intents skip validation and policy entirely.
	if !plan.Intent.IsReadOnly() {
		done, err := o.validateAndDecide(ctx, state)
		if err != nil {
			return state, err
		}
		if done {
			return state, nil
		}
	}

	o.executeAndRespond(ctx, state)
	return state, nil
}

// validateAndDecide runs the validation and policy stages. It returns
// done=true when the turn should not proceed to execution, either
// because validation rejected it or because it is parked for
// confirmation.
func (o *Orchestrator) validateAndDecide(ctx context.Context, state *types.WorkflowState) (done bool, err error) {
	state.Transition(types.StatusValidating, o.now())

	result, vErr := timedStage(ctx, o, state, StageValidating, func(ctx context.Context) (*types.ValidationResult, error) {
		return o.deps.Validator.Validate(state.Plan)
	})
	if vErr != nil {
		o.fail(ctx, state, fmt.Sprintf("I couldn't validate that request: %v", vErr))
		return true, nil
	}
	state.Validation = result
	if !result.Valid {
		o.fail(ctx, state, fmt.Sprintf("That can't be done: %s", result.FirstError()))
		return true, nil
	}

	start := o.now()
	decision := o.deps.Policy.Decide(policy.Input{Plan: state.Plan, Validation: result})
	state.RecordTiming(StagePolicy, o.now().Sub(start))
	o.observer.StageObserved(StagePolicy, o.now().Sub(start))
	logger.InfoContext(ctx, "policy decided",
		"outcome", string(decision.Outcome),
		"reason", decision.Reason)

	if decision.Outcome != types.OutcomeConfirm {
		return false, nil
	}

	action := &types.PendingAction{
		Pending:        true,
		Intent:         state.Plan.Intent,
		Entities:       state.Plan.Entities,
		RiskFlag:       result.RiskFlag,
		OriginalValue:  decision.OldValue,
		RequestedValue: decision.NewValue,
		Reason:         decision.Reason,
		CreatedAt:      o.now(),
	}
	if err := o.deps.Pending.Save(ctx, state.WorkflowID, action); err != nil {
		return true, fmt.Errorf("saving pending confirmation: %w", err)
	}
	state.Pending = action
	state.Transition(types.StatusPendingConfirmation, o.now())
	state.Response = confirmationQuestion(decision)
	o.observer.ConfirmationRequested(state.Plan.Intent)
	logger.InfoContext(ctx, "workflow parked for confirmation")
	return true, nil
}

// Resume continues a parked workflow with the human's reply. The pending
// action is consumed whether the human approves or declines; a second
// Resume for the same id returns ErrNoPendingConfirmation.
func (o *Orchestrator) Resume(ctx context.Context, workflowID, reply string) (state *types.WorkflowState, err error) {
	if workflowID == "" {
		return nil, confirm.ErrInvalidID
	}

	action, loadErr := o.deps.Pending.Load(ctx, workflowID)
	if errors.Is(loadErr, confirm.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoPendingConfirmation, workflowID)
	}
	if loadErr != nil {
		return nil, fmt.Errorf("loading pending confirmation: %w", loadErr)
	}
	if err := o.deps.Pending.Delete(ctx, workflowID); err != nil {
		return nil, fmt.Errorf("consuming pending confirmation: %w", err)
	}

	state = &types.WorkflowState{
		WorkflowID: workflowID,
		TraceID:    o.newID(),
		Message:    reply,
		Status:     types.StatusPendingConfirmation,
		Plan:       &types.Plan{Intent: action.Intent, Entities: action.Entities},
		Pending:    action,
		StartedAt:  o.now(),
	}
	ctx = logger.WithWorkflowID(ctx, workflowID)
	ctx = logger.WithTraceID(ctx, state.TraceID)
	ctx = logger.WithIntent(ctx, string(action.Intent))
	defer o.recoverToFailed(ctx, state)

	approved := IsConfirmation(reply, action)
	o.observer.ConfirmationResolved(approved)
	if !approved {
		logger.InfoContext(ctx, "confirmation declined")
		state.Declined = true
		o.complete(ctx, state, fmt.Sprintf("Okay, I won't %s. No changes were made.", describeAction(action)))
		return state, nil
	}

	logger.InfoContext(ctx, "confirmation approved")
	o.executeAndRespond(ctx, state)
	return state, nil
}

// executeAndRespond runs the execution and responding stages and lands
// the workflow in a terminal status.
func (o *Orchestrator) executeAndRespond(ctx context.Context, state *types.WorkflowState) {
	state.Transition(types.StatusExecuting, o.now())

	start := o.now()
	result := o.deps.Executors.Execute(ctx, state.Plan.Intent, state.Plan.Entities)
	state.RecordTiming(StageExecuting, o.now().Sub(start))
	o.observer.StageObserved(StageExecuting, o.now().Sub(start))
	state.Execution = result

	if !result.Success {
		o.fail(ctx, state, fmt.Sprintf("That didn't work: %s", result.Error))
		return
	}

	state.Transition(types.StatusResponding, o.now())
	start = o.now()
	state.Response = o.explain(ctx, state)
	state.RecordTiming(StageResponding, o.now().Sub(start))
	o.observer.StageObserved(StageResponding, o.now().Sub(start))

	o.complete(ctx, state, state.Response)
}

// explain asks the explainer for phrasing within the timeout and falls
// back to the deterministic template when it is absent, slow, or failing.
func (o *Orchestrator) explain(ctx context.Context, state *types.WorkflowState) string {
	fallback := collab.FallbackExplanation(state.Plan.Intent, state.Execution)
	if o.deps.Explainer == nil {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, o.explainTimeout)
	defer cancel()

	prompt := collab.BuildPrompt(state.Plan.Intent, state.Validation, state.Execution)
	out, err := o.deps.Explainer.Explain(ctx, prompt)
	if err != nil {
		logger.WarnContext(ctx, "explainer unavailable, using fallback", "error", err)
		return fallback
	}
	return out
}

// timedStage runs fn, recording its duration under the stage name.
func timedStage[T any](ctx context.Context, o *Orchestrator, state *types.WorkflowState, stage string, fn func(context.Context) (T, error)) (T, error) {
	start := o.now()
	out, err := fn(logger.WithStage(ctx, stage))
	d := o.now().Sub(start)
	state.RecordTiming(stage, d)
	o.observer.StageObserved(stage, d)
	return out, err
}

func (o *Orchestrator) fail(ctx context.Context, state *types.WorkflowState, response string) {
	state.Response = response
	state.Transition(types.StatusFailed, o.now())
	state.CompletedAt = o.now()
	o.observer.WorkflowCompleted(state)
	logger.WarnContext(ctx, "workflow failed", "response", response)
}

func (o *Orchestrator) complete(ctx context.Context, state *types.WorkflowState, response string) {
	state.Response = response
	state.Transition(types.StatusCompleted, o.now())
	state.CompletedAt = o.now()
	o.observer.WorkflowCompleted(state)
	logger.InfoContext(ctx, "workflow completed", "latency_ms", state.TotalLatency().Milliseconds())
}

// recoverToFailed is the single panic boundary: a panic anywhere in the
// pipeline becomes a FAILED workflow, never a crashed process.
func (o *Orchestrator) recoverToFailed(ctx context.Context, state *types.WorkflowState) {
	r := recover()
	if r == nil {
		return
	}
	logger.ErrorContext(ctx, "workflow panicked", "panic", fmt.Sprint(r))
	if state.Status.IsTerminal() {
		return
	}
	o.fail(ctx, state, "Something went wrong while processing that request. No further changes were made.")
}

func confirmationQuestion(decision types.PolicyDecision) string {
	q := decision.Reason
	if decision.OldValue != nil && decision.NewValue != nil {
		q = fmt.Sprintf("%s This would change %v to %v.", q, decision.OldValue, decision.NewValue)
	}
	if decision.ConfirmationPhrase != "" {
		q = fmt.Sprintf("%s Reply \"%s\" to proceed, or anything else to cancel.", q, decision.ConfirmationPhrase)
	}
	return q
}

func describeAction(action *types.PendingAction) string {
	verb := actionVerb(action.Intent)
	if sku, ok := types.EntityString(action.Entities, "sku"); ok {
		return fmt.Sprintf("%s %s", verb, sku)
	}
	if number, ok := types.EntityString(action.Entities, "orderNumber"); ok {
		return fmt.Sprintf("%s order %s", verb, number)
	}
	return verb
}

func actionVerb(intent types.Intent) string {
	switch intent {
	case types.IntentUpdateProductPrice:
		return "change the price of"
	case types.IntentUpdateProductDescription:
		return "update the description of"
	case types.IntentArchiveProduct:
		return "archive"
	case types.IntentCancelOrder:
		return "cancel"
	case types.IntentUpdateOrderStatus:
		return "change the status of"
	case types.IntentRefundOrder:
		return "refund"
	case types.IntentResetInventory:
		return "reset the inventory"
	default:
		return "apply that change to"
	}
}
