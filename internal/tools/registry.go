// Package tools exposes insurance record lookups as model-invocable tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/soyeahso/supportdesk/internal/llm"
)

// Tool is a capability a support agent can invoke during a conversation.
type Tool interface {
	// Name returns the tool's identifier.
	Name() string

	// Description returns a human-readable description for the LLM.
	Description() string

	// InputSchema returns the JSON Schema for the tool's input.
	InputSchema() string

	// Execute runs the tool with the given JSON input and returns JSON output.
	// A lookup that matches no record is not an error: the result payload
	// carries an "error" field instead so the model can react to it.
	Execute(ctx context.Context, input string) (string, error)
}

// Registry holds available tools.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Subset returns a registry containing only the named tools. Unknown names
// are an error so an agent cannot silently lose a capability.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	sub := NewRegistry()
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", name)
		}
		sub.Register(t)
	}
	return sub, nil
}

// Definitions returns LLM-ready tool definitions, sorted by name so prompts
// are deterministic.
func (r *Registry) Definitions() []llm.ToolDefinition {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]llm.ToolDefinition, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  json.RawMessage(t.InputSchema()),
		})
	}
	return defs
}

// errorPayload renders a tool miss as a JSON result the model can read.
func errorPayload(msg string) string {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return string(data)
}

// jsonPayload marshals a tool result.
func jsonPayload(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding tool result: %w", err)
	}
	return string(data), nil
}
