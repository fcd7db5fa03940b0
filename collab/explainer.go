package collab

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"

	"github.com/storekit/adminagent/logger"
	"github.com/storekit/adminagent/types"
)

// maxPromptRecords caps how many affected records the explanation prompt
// lists before switching to a truncation note.
const maxPromptRecords = 50

const explainerSystemPrompt = `You are the response writer for a store
administration assistant. You will be given a factual summary of what the
system just did. Rephrase it as one or two short, friendly sentences for
the store admin. Do not add facts, do not speculate, do not apologize.`

// LLMExplainer rewords workflow outcomes using a language model.
type LLMExplainer struct {
	model   llms.Model
	limiter *rate.Limiter
}

// ExplainerOption configures an LLMExplainer.
type ExplainerOption func(*LLMExplainer)

// WithExplainerRateLimit caps collaborator calls per minute. 0 disables.
func WithExplainerRateLimit(perMinute int) ExplainerOption {
	return func(e *LLMExplainer) {
		if perMinute > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
		}
	}
}

// NewLLMExplainer creates an explainer over the given model.
func NewLLMExplainer(model llms.Model, opts ...ExplainerOption) *LLMExplainer {
	e := &LLMExplainer{model: model}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Explain sends the prompt to the model and returns its phrasing. The
// caller owns the timeout; context cancellation surfaces as an error.
func (e *LLMExplainer) Explain(ctx context.Context, prompt string) (string, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	logger.CollaboratorCall(ctx, "explainer")
	resp, err := e.model.GenerateContent(ctx, []llms.MessageContent{
		{Role: llms.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextPart(explainerSystemPrompt)}},
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextPart(prompt)}},
	})
	if err != nil {
		logger.CollaboratorError(ctx, "explainer", err)
		return "", fmt.Errorf("explainer model call: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", fmt.Errorf("explainer returned no content")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// BuildPrompt renders a workflow outcome into a deterministic factual
// summary for the explainer. The same inputs always produce the same
// string, so prompts are reproducible in logs and tests.
func BuildPrompt(intent types.Intent, validation *types.ValidationResult, execution *types.ExecutionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action: %s\n", intent)

	if validation != nil {
		if validation.OldValue != nil && validation.NewValue != nil {
			fmt.Fprintf(&b, "Changed from %v to %v.\n", validation.OldValue, validation.NewValue)
		}
		for _, w := range validation.Warnings {
			fmt.Fprintf(&b, "Warning: %s\n", w)
		}
	}

	if execution == nil {
		return b.String()
	}
	if !execution.Success {
		fmt.Fprintf(&b, "Outcome: failed. Reason: %s\n", execution.Error)
		return b.String()
	}

	b.WriteString("Outcome: succeeded.\n")
	for _, key := range sortedKeys(execution.Data) {
		switch v := execution.Data[key].(type) {
		case []map[string]any:
			writeRecordList(&b, key, v)
		default:
			fmt.Fprintf(&b, "%s: %v\n", key, v)
		}
	}
	return b.String()
}

// FallbackExplanation is the deterministic phrasing used when the
// explainer is unavailable or over budget.
func FallbackExplanation(intent types.Intent, execution *types.ExecutionResult) string {
	action := strings.ToLower(strings.ReplaceAll(string(intent), "_", " "))
	if execution == nil {
		return fmt.Sprintf("The %s request was processed.", action)
	}
	if !execution.Success {
		return fmt.Sprintf("The %s request failed: %s", action, execution.Error)
	}

	var details []string
	for _, key := range sortedKeys(execution.Data) {
		switch v := execution.Data[key].(type) {
		case []map[string]any:
			details = append(details, fmt.Sprintf("%d %s", len(v), key))
		case string, float64, int, bool:
			details = append(details, fmt.Sprintf("%s %v", key, v))
		}
	}
	if len(details) == 0 {
		return fmt.Sprintf("Done: %s completed successfully.", action)
	}
	return fmt.Sprintf("Done: %s completed successfully (%s).", action, strings.Join(details, ", "))
}

func writeRecordList(b *strings.Builder, key string, records []map[string]any) {
	fmt.Fprintf(b, "%s (%d):\n", key, len(records))
	limit := len(records)
	if limit > maxPromptRecords {
		limit = maxPromptRecords
	}
	for _, record := range records[:limit] {
		parts := make([]string, 0, len(record))
		for _, field := range sortedKeys(record) {
			if field == "found" {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s=%v", field, record[field]))
		}
		fmt.Fprintf(b, "  - %s\n", strings.Join(parts, " "))
	}
	if len(records) > maxPromptRecords {
		fmt.Fprintf(b, "  (and %d more not shown)\n", len(records)-maxPromptRecords)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
