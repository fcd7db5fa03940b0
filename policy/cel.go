package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/storekit/adminagent/logger"
	"github.com/storekit/adminagent/types"
)

// compiledRule pairs a custom rule with its compiled CEL program.
type compiledRule struct {
	rule    CustomRule
	program cel.Program
}

// newRuleEnv builds the CEL environment custom rules evaluate in.
func newRuleEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("intent", cel.StringType),
		cel.Variable("confidence", cel.DoubleType),
		cel.Variable("risk_flag", cel.StringType),
		cel.Variable("deviation", cel.DoubleType),
		cel.Variable("risk_score", cel.DoubleType),
	)
}

// compileRules compiles every custom rule once at engine construction.
// A rule that fails to compile is a configuration error, not a runtime one.
func compileRules(rules []CustomRule) ([]compiledRule, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	env, err := newRuleEnv()
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		ast, issues := env.Compile(rule.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compile policy rule %q: %w", rule.Name, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("policy rule %q must evaluate to bool, got %s", rule.Name, ast.OutputType())
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program policy rule %q: %w", rule.Name, err)
		}
		compiled = append(compiled, compiledRule{rule: rule, program: program})
	}
	return compiled, nil
}

// evaluateCustomRules runs the compiled rules in declaration order and
// returns on the first match. A rule that errors at evaluation time is
// logged and skipped rather than failing the turn.
func (e *Engine) evaluateCustomRules(in Input) (types.PolicyDecision, bool) {
	if len(e.customRules) == 0 {
		return types.PolicyDecision{}, false
	}

	vars := map[string]any{
		"intent":     string(in.Plan.Intent),
		"confidence": in.Plan.Confidence,
		"risk_flag":  "",
		"deviation":  0.0,
		"risk_score": in.RiskScore,
	}
	if in.Validation != nil {
		vars["risk_flag"] = string(in.Validation.RiskFlag)
		if in.Validation.RiskFlag == types.RiskPriceOutlier {
			vars["deviation"] = deviationOf(in.Validation).DeviationPct
		}
	}

	for _, cr := range e.customRules {
		out, _, err := cr.program.Eval(vars)
		if err != nil {
			logger.Warn("custom policy rule evaluation failed", "rule", cr.rule.Name, "error", err)
			continue
		}
		matched, ok := out.Value().(bool)
		if !ok || !matched {
			continue
		}
		reason := cr.rule.Reason
		if reason == "" {
			reason = fmt.Sprintf("custom policy rule %q matched", cr.rule.Name)
		}
		return types.PolicyDecision{
			Outcome:            types.OutcomeConfirm,
			Reason:             reason,
			ConfirmationPhrase: confirmationPhrase(in.Plan),
		}, true
	}
	return types.PolicyDecision{}, false
}
