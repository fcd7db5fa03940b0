// Package tools exposes read-only store queries as function-calling tools
// for the intent extractor. Every tool runs in-process against the catalog;
// none of them mutate records, so the extractor can ground its plans in
// live data without bypassing the validation and policy stages.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// Handler executes a tool against already-validated, decoded arguments.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Descriptor describes a tool to the model: its name, what it does, and
// the JSON Schema (Draft-07) its arguments must satisfy.
type Descriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Tool pairs a descriptor with its in-process handler.
type Tool struct {
	Descriptor
	Handler Handler
}

// LLMTool converts the descriptor into the wire shape the model expects.
func (t *Tool) LLMTool() (llms.Tool, error) {
	var params map[string]any
	if err := json.Unmarshal(t.InputSchema, &params); err != nil {
		return llms.Tool{}, fmt.Errorf("tool %s: input schema is not valid JSON: %w", t.Name, err)
	}
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  params,
		},
	}, nil
}

// ValidationError reports tool arguments rejected by the input schema.
type ValidationError struct {
	Tool   string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tool %s: invalid arguments: %s", e.Tool, e.Detail)
}
