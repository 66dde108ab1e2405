// Package tools declares the gateway's tool catalogue and routes tool
// calls to their handlers behind strict argument validation.
package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handler executes one tool call with schema-validated arguments.
type Handler func(ctx context.Context, args map[string]any) (*Envelope, error)

type entry struct {
	tool    mcp.Tool
	handler Handler
}

// Registry holds the tool catalogue. Registration order is preserved so
// tools/list output is stable.
type Registry struct {
	order   []string
	entries map[string]entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a tool. Registering a duplicate name replaces the handler
// but keeps the original position.
func (r *Registry) Register(tool mcp.Tool, h Handler) {
	if _, exists := r.entries[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.entries[tool.Name] = entry{tool: tool, handler: h}
}

// Tools returns the catalogue in registration order.
func (r *Registry) Tools() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].tool)
	}
	return out
}

// Call routes a tool call by exact name, validates the arguments against
// the tool's schema, and runs the handler. A nil args map is treated as
// empty.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (*Envelope, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := validateArgs(e.tool, args); err != nil {
		return nil, err
	}
	return e.handler(ctx, args)
}
