package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storekit/adminagent/types"
)

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := NewEngine(opts)
	require.NoError(t, err)
	return e
}

func pricePlan(confidence float64) *types.Plan {
	return &types.Plan{
		Intent:     types.IntentUpdateProductPrice,
		Entities:   map[string]any{"sku": "HP-BLK-001", "newPrice": 49.99},
		Confidence: confidence,
	}
}

func outlierValidation() *types.ValidationResult {
	return &types.ValidationResult{
		Valid:                true,
		RiskFlag:             types.RiskPriceOutlier,
		RequiresConfirmation: true,
		OldValue:             29.99,
		NewValue:             49.99,
	}
}

func TestLowConfidenceWinsOverPriceOutlier(t *testing.T) {
	e := newEngine(t, Options{})

	// Confidence 0.5 AND a large price deviation: the low-confidence
	// reason must be the one surfaced.
	decision := e.Decide(Input{Plan: pricePlan(0.5), Validation: outlierValidation()})

	assert.Equal(t, types.OutcomeConfirm, decision.Outcome)
	assert.Contains(t, decision.Reason, "confidence")
	assert.NotContains(t, decision.Reason, "deviates")
}

func TestConfidenceBoundaryIsExclusive(t *testing.T) {
	e := newEngine(t, Options{})

	// Exactly at the threshold does not trigger rule 1; the plan falls
	// through to the price-outlier rule instead.
	decision := e.Decide(Input{Plan: pricePlan(0.75), Validation: outlierValidation()})
	assert.Contains(t, decision.Reason, "deviates")
}

func TestMissingEntities(t *testing.T) {
	e := newEngine(t, Options{})

	plan := &types.Plan{
		Intent:     types.IntentUpdateOrderStatus,
		Entities:   map[string]any{"orderNumber": "1001"},
		Confidence: 0.95,
	}
	decision := e.Decide(Input{Plan: plan})

	assert.Equal(t, types.OutcomeConfirm, decision.Outcome)
	assert.Contains(t, decision.Reason, "missing required entities: status")
}

func TestAmbiguousEntities(t *testing.T) {
	e := newEngine(t, Options{})

	plan := &types.Plan{
		Intent:     types.IntentCancelOrder,
		Entities:   map[string]any{"orderNumber": "?"},
		Confidence: 0.95,
	}
	decision := e.Decide(Input{Plan: plan})

	assert.Equal(t, types.OutcomeConfirm, decision.Outcome)
	assert.Contains(t, decision.Reason, "ambiguous")
}

func TestPriceOutlierEmbedsValuesAndPhrase(t *testing.T) {
	e := newEngine(t, Options{})

	decision := e.Decide(Input{Plan: pricePlan(0.9), Validation: outlierValidation()})

	assert.Equal(t, types.OutcomeConfirm, decision.Outcome)
	assert.Equal(t, 29.99, decision.OldValue)
	assert.Equal(t, 49.99, decision.NewValue)
	assert.Equal(t, "confirm HP-BLK-001", decision.ConfirmationPhrase)
	assert.Contains(t, decision.Reason, "66.7%")
}

func TestHighRiskIntentConfirmsEvenWithoutRiskFlag(t *testing.T) {
	e := newEngine(t, Options{})

	// A modest price change carries no risk flag but the intent class is
	// still high-risk.
	decision := e.Decide(Input{
		Plan:       pricePlan(0.9),
		Validation: &types.ValidationResult{Valid: true},
	})
	assert.Equal(t, types.OutcomeConfirm, decision.Outcome)
	assert.Contains(t, decision.Reason, "high-risk")

	archive := &types.Plan{
		Intent:     types.IntentArchiveProduct,
		Entities:   map[string]any{"sku": "HP-BLK-001"},
		Confidence: 0.95,
	}
	decision = e.Decide(Input{Plan: archive, Validation: &types.ValidationResult{Valid: true}})
	assert.Equal(t, types.OutcomeConfirm, decision.Outcome)
}

func TestRiskScoreThreshold(t *testing.T) {
	e := newEngine(t, Options{})

	plan := &types.Plan{
		Intent:     types.IntentUpdateProductDescription,
		Entities:   map[string]any{"sku": "HP-BLK-001", "description": "new copy"},
		Confidence: 0.95,
	}

	decision := e.Decide(Input{Plan: plan, Validation: &types.ValidationResult{Valid: true}, RiskScore: 0.7})
	assert.Equal(t, types.OutcomeConfirm, decision.Outcome)
	assert.Contains(t, decision.Reason, "risk score")

	decision = e.Decide(Input{Plan: plan, Validation: &types.ValidationResult{Valid: true}, RiskScore: 0.6})
	assert.Equal(t, types.OutcomeProceed, decision.Outcome)
}

func TestProceedForBenignMutation(t *testing.T) {
	e := newEngine(t, Options{})

	plan := &types.Plan{
		Intent:     types.IntentUpdateProductDescription,
		Entities:   map[string]any{"sku": "HP-BLK-001", "description": "new copy"},
		Confidence: 0.95,
	}
	decision := e.Decide(Input{Plan: plan, Validation: &types.ValidationResult{Valid: true}})

	assert.Equal(t, types.OutcomeProceed, decision.Outcome)
	assert.Empty(t, decision.Reason)
}

func TestCustomCELRule(t *testing.T) {
	e := newEngine(t, Options{
		CustomRules: []CustomRule{{
			Name:   "status-changes-need-signoff",
			Expr:   `intent == "UPDATE_ORDER_STATUS" && confidence < 0.99`,
			Reason: "order status changes need sign-off",
		}},
	})

	plan := &types.Plan{
		Intent:     types.IntentUpdateOrderStatus,
		Entities:   map[string]any{"orderNumber": "1001", "status": "confirmed"},
		Confidence: 0.9,
	}
	decision := e.Decide(Input{Plan: plan, Validation: &types.ValidationResult{Valid: true}})

	assert.Equal(t, types.OutcomeConfirm, decision.Outcome)
	assert.Equal(t, "order status changes need sign-off", decision.Reason)
}

func TestCustomRuleCompileErrors(t *testing.T) {
	_, err := NewEngine(Options{
		CustomRules: []CustomRule{{Name: "broken", Expr: "intent +"}},
	})
	assert.Error(t, err)

	_, err = NewEngine(Options{
		CustomRules: []CustomRule{{Name: "not-bool", Expr: "confidence + 1.0"}},
	})
	assert.Error(t, err)
}

func TestBuiltInRulesWinOverCustomRules(t *testing.T) {
	e := newEngine(t, Options{
		CustomRules: []CustomRule{{
			Name:   "always",
			Expr:   "true",
			Reason: "custom",
		}},
	})

	decision := e.Decide(Input{Plan: pricePlan(0.5), Validation: outlierValidation()})
	assert.Contains(t, decision.Reason, "confidence")
}
