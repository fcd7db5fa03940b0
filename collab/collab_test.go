package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/storekit/adminagent/store"
	"github.com/storekit/adminagent/tools"
	"github.com/storekit/adminagent/types"
)

// scriptedModel replays canned responses in order, recording the messages
// it was called with.
type scriptedModel struct {
	responses []*llms.ContentResponse
	calls     [][]llms.MessageContent
	err       error
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls = append(m.calls, messages)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: ""}}}, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func textResponse(content string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}
}

func toolCallResponse(id, name, args string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		ToolCalls: []llms.ToolCall{{
			ID:           id,
			Type:         "function",
			FunctionCall: &llms.FunctionCall{Name: name, Arguments: args},
		}},
	}}}
}

func testToolRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	dir := t.TempDir()
	seedDir := filepath.Join(dir, "seed")

	write := func(name string, records any) {
		doc := map[string]any{"version": 1, "lastModified": time.Now().UTC(), "data": records}
		data, err := json.Marshal(doc)
		require.NoError(t, err)
		require.NoError(t, os.MkdirAll(seedDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(seedDir, name), data, 0o644))
	}
	write("products.json", []types.Product{
		{ID: "p1", SKU: "HP-BLK-001", Title: "Wireless Headphones", Price: 29.99, Status: types.ProductActive},
	})
	write("orders.json", []types.Order{})
	write("promotions.json", []types.Promotion{})

	catalog := store.OpenCatalog(store.CatalogSettings{
		SeedDir:    seedDir,
		WorkingDir: filepath.Join(dir, "working"),
		Dynamic:    true,
		CacheTTL:   time.Second,
	})
	registry, err := tools.CatalogRegistry(catalog)
	require.NoError(t, err)
	return registry
}

func TestPlanValidatorAcceptsWellFormedPlan(t *testing.T) {
	v, err := NewPlanValidator()
	require.NoError(t, err)

	plan, err := v.Parse([]byte(`{
		"intent": "UPDATE_PRODUCT_PRICE",
		"entities": {"sku": "HP-BLK-001", "newPrice": 49.99},
		"confidence": 0.92
	}`))
	require.NoError(t, err)
	assert.Equal(t, types.IntentUpdateProductPrice, plan.Intent)
	assert.Equal(t, 0.92, plan.Confidence)

	price, ok := types.EntityFloat(plan.Entities, "newPrice")
	require.True(t, ok)
	assert.Equal(t, 49.99, price)
}

func TestPlanValidatorRejections(t *testing.T) {
	v, err := NewPlanValidator()
	require.NoError(t, err)

	cases := map[string]string{
		"unknown intent":     `{"intent": "DELETE_EVERYTHING", "confidence": 0.9}`,
		"missing confidence": `{"intent": "LIST_PRODUCTS"}`,
		"confidence too big": `{"intent": "LIST_PRODUCTS", "confidence": 1.5}`,
		"bad entity type":    `{"intent": "UPDATE_PRODUCT_PRICE", "entities": {"sku": 42}, "confidence": 0.9}`,
		"not json":           `update the price please`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestPlanValidatorQuotedPriceAllowed(t *testing.T) {
	v, err := NewPlanValidator()
	require.NoError(t, err)

	plan, err := v.Parse([]byte(`{
		"intent": "UPDATE_PRODUCT_PRICE",
		"entities": {"sku": "HP-BLK-001", "newPrice": "$49.99"},
		"confidence": 0.8
	}`))
	require.NoError(t, err)

	price, ok := types.EntityFloat(plan.Entities, "newPrice")
	require.True(t, ok)
	assert.Equal(t, 49.99, price)
}

func TestStripCodeFence(t *testing.T) {
	plain := `{"intent": "LIST_PRODUCTS", "confidence": 0.9}`
	assert.Equal(t, plain, stripCodeFence(plain))
	assert.Equal(t, plain, stripCodeFence("```json\n"+plain+"\n```"))
	assert.Equal(t, plain, stripCodeFence("```\n"+plain+"\n```"))
}

func TestExtractorDirectAnswer(t *testing.T) {
	model := &scriptedModel{responses: []*llms.ContentResponse{
		textResponse(`{"intent": "LIST_PRODUCTS", "entities": {}, "confidence": 0.95}`),
	}}
	extractor, err := NewLLMExtractor(model, testToolRegistry(t))
	require.NoError(t, err)

	plan, err := extractor.Extract(context.Background(), "show me all products")
	require.NoError(t, err)
	assert.Equal(t, types.IntentListProducts, plan.Intent)
	require.Len(t, model.calls, 1)
}

func TestExtractorToolLoop(t *testing.T) {
	model := &scriptedModel{responses: []*llms.ContentResponse{
		toolCallResponse("call-1", "search_products", `{"query": "headphones"}`),
		textResponse("```json\n{\"intent\": \"UPDATE_PRODUCT_PRICE\", \"entities\": {\"sku\": \"HP-BLK-001\", \"newPrice\": 34.99}, \"confidence\": 0.9}\n```"),
	}}
	extractor, err := NewLLMExtractor(model, testToolRegistry(t))
	require.NoError(t, err)

	plan, err := extractor.Extract(context.Background(), "raise the headphones to 34.99")
	require.NoError(t, err)
	assert.Equal(t, types.IntentUpdateProductPrice, plan.Intent)

	sku, ok := types.EntityString(plan.Entities, "sku")
	require.True(t, ok)
	assert.Equal(t, "HP-BLK-001", sku)

	// The second call must carry the tool result back to the model.
	require.Len(t, model.calls, 2)
	last := model.calls[1][len(model.calls[1])-1]
	assert.Equal(t, llms.ChatMessageTypeTool, last.Role)
}

func TestExtractorRelaysToolErrors(t *testing.T) {
	model := &scriptedModel{responses: []*llms.ContentResponse{
		toolCallResponse("call-1", "lookup_product", `{}`),
		textResponse(`{"intent": "UNKNOWN", "entities": {}, "confidence": 0.2}`),
	}}
	extractor, err := NewLLMExtractor(model, testToolRegistry(t))
	require.NoError(t, err)

	plan, err := extractor.Extract(context.Background(), "do something")
	require.NoError(t, err)
	assert.Equal(t, types.IntentUnknown, plan.Intent)

	last := model.calls[1][len(model.calls[1])-1]
	require.Equal(t, llms.ChatMessageTypeTool, last.Role)
	response, ok := last.Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Contains(t, response.Content, "error")
}

func TestExtractorRoundBudget(t *testing.T) {
	loop := toolCallResponse("call-x", "list_products", `{}`)
	model := &scriptedModel{responses: []*llms.ContentResponse{loop, loop, loop}}
	extractor, err := NewLLMExtractor(model, testToolRegistry(t), WithMaxToolRounds(2))
	require.NoError(t, err)

	_, err = extractor.Extract(context.Background(), "loop forever")
	require.ErrorIs(t, err, ErrNoPlan)
	assert.Len(t, model.calls, 2)
}

func TestExtractorRejectsMalformedPlan(t *testing.T) {
	model := &scriptedModel{responses: []*llms.ContentResponse{
		textResponse(`{"intent": "MAKE_COFFEE", "confidence": 0.9}`),
	}}
	extractor, err := NewLLMExtractor(model, testToolRegistry(t))
	require.NoError(t, err)

	_, err = extractor.Extract(context.Background(), "make coffee")
	assert.ErrorIs(t, err, ErrNoPlan)
}

func TestBuildPromptDeterministic(t *testing.T) {
	validation := &types.ValidationResult{
		Valid:    true,
		OldValue: 29.99,
		NewValue: 49.99,
		Warnings: []string{"new price 49.99 is below cost price 55.00"},
	}
	execution := &types.ExecutionResult{
		Success: true,
		Data:    map[string]any{"sku": "HP-BLK-001", "new_price": 49.99},
	}

	first := BuildPrompt(types.IntentUpdateProductPrice, validation, execution)
	second := BuildPrompt(types.IntentUpdateProductPrice, validation, execution)
	assert.Equal(t, first, second)
	assert.Contains(t, first, "UPDATE_PRODUCT_PRICE")
	assert.Contains(t, first, "Changed from 29.99 to 49.99.")
	assert.Contains(t, first, "below cost price")
	assert.Contains(t, first, "Outcome: succeeded.")
}

func TestBuildPromptTruncatesRecordLists(t *testing.T) {
	records := make([]map[string]any, 60)
	for i := range records {
		records[i] = map[string]any{"sku": fmt.Sprintf("SKU-%03d", i)}
	}
	execution := &types.ExecutionResult{Success: true, Data: map[string]any{"products": records}}

	prompt := BuildPrompt(types.IntentListProducts, nil, execution)
	assert.Contains(t, prompt, "products (60):")
	assert.Contains(t, prompt, "SKU-049")
	assert.NotContains(t, prompt, "SKU-050")
	assert.Contains(t, prompt, "(and 10 more not shown)")
}

func TestBuildPromptFailure(t *testing.T) {
	execution := &types.ExecutionResult{Success: false, Error: "order 1002 already shipped"}
	prompt := BuildPrompt(types.IntentCancelOrder, nil, execution)
	assert.Contains(t, prompt, "Outcome: failed.")
	assert.Contains(t, prompt, "already shipped")
}

func TestFallbackExplanation(t *testing.T) {
	ok := &types.ExecutionResult{Success: true, Data: map[string]any{"sku": "HP-BLK-001"}}
	msg := FallbackExplanation(types.IntentUpdateProductPrice, ok)
	assert.Contains(t, msg, "update product price")
	assert.Contains(t, msg, "HP-BLK-001")

	failed := &types.ExecutionResult{Success: false, Error: "not found"}
	msg = FallbackExplanation(types.IntentArchiveProduct, failed)
	assert.Contains(t, msg, "failed")
	assert.Contains(t, msg, "not found")

	same := FallbackExplanation(types.IntentArchiveProduct, failed)
	assert.Equal(t, msg, same)
}

func TestLLMExplainer(t *testing.T) {
	model := &scriptedModel{responses: []*llms.ContentResponse{
		textResponse("Done! The headphones are now $49.99."),
	}}
	explainer := NewLLMExplainer(model)

	out, err := explainer.Explain(context.Background(), "Action: UPDATE_PRODUCT_PRICE\nOutcome: succeeded.")
	require.NoError(t, err)
	assert.Equal(t, "Done! The headphones are now $49.99.", out)
}

func TestLLMExplainerEmptyResponse(t *testing.T) {
	model := &scriptedModel{responses: []*llms.ContentResponse{textResponse("   ")}}
	explainer := NewLLMExplainer(model)

	_, err := explainer.Explain(context.Background(), "Action: LIST_PRODUCTS")
	assert.Error(t, err)
}
