package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"

	"github.com/storekit/adminagent/logger"
	"github.com/storekit/adminagent/tools"
	"github.com/storekit/adminagent/types"
)

const extractorSystemPrompt = `You are the intent extractor for a store
administration assistant. Read the admin's message and produce a plan as a
single JSON object, with no surrounding prose:

{"intent": "<INTENT>", "entities": {...}, "confidence": <0.0-1.0>}

Intents and their entities:
- UPDATE_PRODUCT_PRICE: sku, newPrice
- UPDATE_PRODUCT_DESCRIPTION: sku, description
- ARCHIVE_PRODUCT: sku
- CANCEL_ORDER: orderNumber
- UPDATE_ORDER_STATUS: orderNumber, status
- REFUND_ORDER: orderNumber
- RESET_INVENTORY: sku
- LIST_PRODUCTS, LIST_ORDERS, LIST_PROMOTIONS: (no entities)
- SHOW_PRODUCT: sku
- SHOW_ORDER: orderNumber
- UNKNOWN: the message is not an admin command you recognize

Use the lookup tools to resolve vague references ("the headphones", "that
order from yesterday") into exact SKUs and order numbers before answering.
If a reference stays ambiguous after looking, set the entity value to "?"
and lower your confidence. Never invent SKUs or order numbers.`

// DefaultMaxToolRounds bounds the extractor's tool-calling loop.
const DefaultMaxToolRounds = 6

// LLMExtractor extracts plans with a tool-calling model. The model may
// query the read-only catalog tools to ground entity values before
// committing to a plan.
type LLMExtractor struct {
	model     llms.Model
	registry  *tools.Registry
	validator *PlanValidator
	limiter   *rate.Limiter
	maxRounds int
}

// ExtractorOption configures an LLMExtractor.
type ExtractorOption func(*LLMExtractor)

// WithMaxToolRounds overrides the tool loop bound.
func WithMaxToolRounds(n int) ExtractorOption {
	return func(e *LLMExtractor) {
		if n > 0 {
			e.maxRounds = n
		}
	}
}

// WithExtractorRateLimit caps collaborator calls per minute. 0 disables.
func WithExtractorRateLimit(perMinute int) ExtractorOption {
	return func(e *LLMExtractor) {
		if perMinute > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
		}
	}
}

// NewLLMExtractor creates an extractor over the given model and tool set.
func NewLLMExtractor(model llms.Model, registry *tools.Registry, opts ...ExtractorOption) (*LLMExtractor, error) {
	validator, err := NewPlanValidator()
	if err != nil {
		return nil, err
	}
	e := &LLMExtractor{
		model:     model,
		registry:  registry,
		validator: validator,
		maxRounds: DefaultMaxToolRounds,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract runs the tool-calling loop until the model commits to a plan or
// the round budget runs out.
func (e *LLMExtractor) Extract(ctx context.Context, message string) (*types.Plan, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	llmTools, err := e.registry.LLMTools()
	if err != nil {
		return nil, err
	}

	messages := []llms.MessageContent{
		{Role: llms.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextPart(extractorSystemPrompt)}},
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextPart(message)}},
	}

	for round := 0; round < e.maxRounds; round++ {
		logger.CollaboratorCall(ctx, "extractor", "round", round+1)
		resp, err := e.model.GenerateContent(ctx, messages, llms.WithTools(llmTools))
		if err != nil {
			logger.CollaboratorError(ctx, "extractor", err)
			return nil, fmt.Errorf("extractor model call: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, ErrNoPlan
		}
		choice := resp.Choices[0]

		var assistantParts []llms.ContentPart
		if choice.Content != "" {
			assistantParts = append(assistantParts, llms.TextContent{Text: choice.Content})
		}
		for _, tc := range choice.ToolCalls {
			assistantParts = append(assistantParts, tc)
		}
		messages = append(messages, llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: assistantParts})

		if len(choice.ToolCalls) == 0 {
			return e.parsePlan(choice.Content)
		}

		for _, tc := range choice.ToolCalls {
			result, err := e.registry.Execute(ctx, tc.FunctionCall.Name, json.RawMessage(tc.FunctionCall.Arguments))
			if err != nil {
				// Relay tool failures to the model; it can retry or give up.
				result = fmt.Sprintf(`{"error": %q}`, err.Error())
			}
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       tc.FunctionCall.Name,
					Content:    result,
				}},
			})
		}
	}

	return nil, fmt.Errorf("%w: tool round budget of %d exhausted", ErrNoPlan, e.maxRounds)
}

func (e *LLMExtractor) parsePlan(content string) (*types.Plan, error) {
	raw := strings.TrimSpace(stripCodeFence(content))
	if raw == "" {
		return nil, ErrNoPlan
	}
	plan, err := e.validator.Parse([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPlan, err)
	}
	return plan, nil
}

// stripCodeFence unwraps ```json ... ``` fences models sometimes add.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
