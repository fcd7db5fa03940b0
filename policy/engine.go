// Package policy maps a validation verdict, intent classification, and
// extraction confidence to a PROCEED or CONFIRM decision.
//
// Rules are evaluated in a fixed priority order and the first positive
// match wins, so exactly one confirmation reason is ever surfaced per turn:
//
//  1. confidence below threshold
//  2. required entities missing or marked ambiguous
//  3. price deviation above threshold (with before/after values and a
//     canonical confirmation phrase)
//  4. high-risk intent, or an externally supplied risk score above threshold
//  5. operator-supplied CEL rules
//  6. PROCEED
//
// The ordering is a policy decision, not incidental: a low-confidence price
// outlier surfaces the low-confidence reason.
package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/storekit/adminagent/guards"
	"github.com/storekit/adminagent/types"
)

// Default thresholds.
const (
	DefaultConfidenceThreshold = 0.75
	DefaultRiskScoreThreshold  = 0.6
)

// highRiskIntents always require confirmation regardless of guard output.
var highRiskIntents = map[types.Intent]bool{
	types.IntentUpdateProductPrice: true,
	types.IntentArchiveProduct:     true,
	types.IntentRefundOrder:        true,
	types.IntentResetInventory:     true,
}

// requiredEntities lists the entity keys each mutating intent needs.
var requiredEntities = map[types.Intent][]string{
	types.IntentUpdateProductPrice:       {"sku", "newPrice"},
	types.IntentUpdateProductDescription: {"sku", "description"},
	types.IntentArchiveProduct:           {"sku"},
	types.IntentCancelOrder:              {"orderNumber"},
	types.IntentUpdateOrderStatus:        {"orderNumber", "status"},
	types.IntentRefundOrder:              {"orderNumber"},
	types.IntentResetInventory:           {"sku"},
}

// CustomRule is an operator-supplied CEL expression that forces
// confirmation when it evaluates to true.
type CustomRule struct {
	Name   string
	Expr   string
	Reason string
}

// Options configures an Engine. Zero values fall back to the defaults.
type Options struct {
	ConfidenceThreshold     float64
	PriceDeviationThreshold float64
	RiskScoreThreshold      float64
	CustomRules             []CustomRule
}

// Engine is the policy decision point. It is immutable after construction
// and safe for concurrent use.
type Engine struct {
	confidenceThreshold float64
	deviationThreshold  float64
	riskScoreThreshold  float64
	customRules         []compiledRule
}

// NewEngine creates a policy engine, compiling any custom CEL rules once.
func NewEngine(opts Options) (*Engine, error) {
	e := &Engine{
		confidenceThreshold: opts.ConfidenceThreshold,
		deviationThreshold:  opts.PriceDeviationThreshold,
		riskScoreThreshold:  opts.RiskScoreThreshold,
	}
	if e.confidenceThreshold == 0 {
		e.confidenceThreshold = DefaultConfidenceThreshold
	}
	if e.deviationThreshold == 0 {
		e.deviationThreshold = guards.DefaultPriceDeviationThreshold
	}
	if e.riskScoreThreshold == 0 {
		e.riskScoreThreshold = DefaultRiskScoreThreshold
	}

	compiled, err := compileRules(opts.CustomRules)
	if err != nil {
		return nil, err
	}
	e.customRules = compiled
	return e, nil
}

// Input carries everything the engine evaluates for one turn.
type Input struct {
	Plan       *types.Plan
	Validation *types.ValidationResult
	// RiskScore is an externally supplied risk signal in [0,1]. Zero when
	// no external scorer is wired.
	RiskScore float64
}

// Decide returns the policy verdict for a validated, non-read-only plan.
func (e *Engine) Decide(in Input) types.PolicyDecision {
	plan := in.Plan

	// Rule 1: extraction confidence.
	if plan.Confidence < e.confidenceThreshold {
		return types.PolicyDecision{
			Outcome: types.OutcomeConfirm,
			Reason: fmt.Sprintf("extraction confidence %.2f is below the %.2f threshold",
				plan.Confidence, e.confidenceThreshold),
		}
	}

	// Rule 2: entity completeness.
	if missing := e.missingEntities(plan); len(missing) > 0 {
		return types.PolicyDecision{
			Outcome: types.OutcomeConfirm,
			Reason:  "missing required entities: " + strings.Join(missing, ", "),
		}
	}
	if ambiguous := ambiguousEntities(plan); len(ambiguous) > 0 {
		return types.PolicyDecision{
			Outcome: types.OutcomeConfirm,
			Reason:  "ambiguous entities: " + strings.Join(ambiguous, ", "),
		}
	}

	// Rule 3: price deviation, with the values and phrase the human must echo.
	if plan.Intent == types.IntentUpdateProductPrice && in.Validation != nil &&
		in.Validation.RiskFlag == types.RiskPriceOutlier {
		outlier := deviationOf(in.Validation)
		return types.PolicyDecision{
			Outcome: types.OutcomeConfirm,
			Reason: fmt.Sprintf("price change from %v to %v deviates %.1f%%, above the %.0f%% threshold",
				in.Validation.OldValue, in.Validation.NewValue, outlier.DeviationPct, e.deviationThreshold),
			OldValue:           in.Validation.OldValue,
			NewValue:           in.Validation.NewValue,
			ConfirmationPhrase: confirmationPhrase(plan),
		}
	}

	// Rule 4: high-risk intent class or external risk score.
	if highRiskIntents[plan.Intent] {
		return types.PolicyDecision{
			Outcome:            types.OutcomeConfirm,
			Reason:             fmt.Sprintf("%s is a high-risk operation", plan.Intent),
			ConfirmationPhrase: confirmationPhrase(plan),
		}
	}
	if in.RiskScore > e.riskScoreThreshold {
		return types.PolicyDecision{
			Outcome: types.OutcomeConfirm,
			Reason: fmt.Sprintf("risk score %.2f exceeds the %.2f threshold",
				in.RiskScore, e.riskScoreThreshold),
			ConfirmationPhrase: confirmationPhrase(plan),
		}
	}

	// Rule 5: operator CEL rules.
	if decision, matched := e.evaluateCustomRules(in); matched {
		return decision
	}

	return types.PolicyDecision{Outcome: types.OutcomeProceed}
}

// missingEntities returns the required entity keys absent from the plan,
// sorted for stable messages.
func (e *Engine) missingEntities(plan *types.Plan) []string {
	required, known := requiredEntities[plan.Intent]
	if !known {
		return nil
	}
	var missing []string
	for _, key := range required {
		v, ok := plan.Entities[key]
		if !ok || v == nil || v == "" {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// ambiguousEntities returns entity keys the extractor marked as unresolved,
// sorted for stable messages.
func ambiguousEntities(plan *types.Plan) []string {
	var ambiguous []string
	for key, v := range plan.Entities {
		if s, ok := v.(string); ok {
			if s == "?" || strings.HasPrefix(strings.ToLower(s), "ambiguous") {
				ambiguous = append(ambiguous, key)
			}
		}
	}
	sort.Strings(ambiguous)
	return ambiguous
}

// confirmationPhrase builds the canonical phrase the human must echo:
// the literal token "confirm" plus the pending entity's key identifier.
func confirmationPhrase(plan *types.Plan) string {
	for _, key := range []string{"sku", "orderNumber"} {
		if v, ok := plan.Entities[key]; ok {
			return fmt.Sprintf("confirm %v", v)
		}
	}
	return "confirm"
}

// deviationOf recomputes the deviation from the validation's before/after
// values so the reason can state the exact percentage.
func deviationOf(v *types.ValidationResult) guards.PriceOutlierResult {
	oldPrice, _ := v.OldValue.(float64)
	newPrice, _ := v.NewValue.(float64)
	return guards.CheckPriceOutlier(oldPrice, newPrice)
}
