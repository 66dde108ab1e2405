package tools

import (
	"fmt"
	"strings"
)

// UnknownToolError means the requested tool name matched nothing in the
// registry. Matching is exact; there is no fuzzy routing.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// InvalidArgsError collects every schema violation found in a tool call's
// arguments.
type InvalidArgsError struct {
	Tool    string
	Reasons []string
}

func (e *InvalidArgsError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(e.Reasons, "; "))
}
