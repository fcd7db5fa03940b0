package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/storekit/adminagent/logger"
	"github.com/tmc/langchaingo/llms"
	"github.com/xeipuuv/gojsonschema"
)

// Registry holds tools by name, validates their arguments against the
// declared input schema, and dispatches calls to the handlers.
type Registry struct {
	tools   map[string]*Tool
	schemas map[string]*gojsonschema.Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]*Tool),
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// Register adds a tool, compiling its input schema up front so malformed
// schemas fail at startup rather than mid-conversation.
func (r *Registry) Register(tool *Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool has no name")
	}
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %s already registered", tool.Name)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(tool.InputSchema))
	if err != nil {
		return fmt.Errorf("tool %s: compiling input schema: %w", tool.Name, err)
	}
	r.tools[tool.Name] = tool
	r.schemas[tool.Name] = schema
	return nil
}

// Get returns the tool by name, or nil when unknown.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// List returns the registered tool names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LLMTools renders every registered tool into the model's tool format,
// in sorted name order so prompts stay deterministic.
func (r *Registry) LLMTools() ([]llms.Tool, error) {
	out := make([]llms.Tool, 0, len(r.tools))
	for _, name := range r.List() {
		lt, err := r.tools[name].LLMTool()
		if err != nil {
			return nil, err
		}
		out = append(out, lt)
	}
	return out, nil
}

// Execute validates rawArgs against the tool's schema, runs the handler,
// and returns the JSON-encoded result. Schema rejections come back as
// *ValidationError so callers can relay them to the model verbatim.
func (r *Registry) Execute(ctx context.Context, name string, rawArgs json.RawMessage) (string, error) {
	tool := r.tools[name]
	if tool == nil {
		return "", fmt.Errorf("unknown tool %s", name)
	}
	if len(rawArgs) == 0 {
		rawArgs = json.RawMessage("{}")
	}

	result, err := r.schemas[name].Validate(gojsonschema.NewBytesLoader(rawArgs))
	if err != nil {
		return "", &ValidationError{Tool: name, Detail: err.Error()}
	}
	if !result.Valid() {
		detail := ""
		for i, desc := range result.Errors() {
			if i > 0 {
				detail += "; "
			}
			detail += desc.String()
		}
		return "", &ValidationError{Tool: name, Detail: detail}
	}

	var args map[string]any
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return "", &ValidationError{Tool: name, Detail: err.Error()}
	}

	start := time.Now()
	out, err := tool.Handler(ctx, args)
	logger.DebugContext(ctx, "tool executed",
		"tool", name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil)
	if err != nil {
		return "", fmt.Errorf("tool %s: %w", name, err)
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("tool %s: encoding result: %w", name, err)
	}
	return string(encoded), nil
}
