package tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// validateArgs checks a call's arguments against the tool's input schema.
// Every schema is strict: unknown keys are rejected along with missing
// required keys and type mismatches. All violations are reported at once.
func validateArgs(tool mcp.Tool, args map[string]any) error {
	var reasons []string

	props := tool.InputSchema.Properties
	for key := range args {
		if _, ok := props[key]; !ok {
			reasons = append(reasons, fmt.Sprintf("unexpected argument %q", key))
		}
	}

	for _, key := range tool.InputSchema.Required {
		if _, ok := args[key]; !ok {
			reasons = append(reasons, fmt.Sprintf("missing required argument %q", key))
		}
	}

	for key, value := range args {
		spec, ok := props[key].(map[string]any)
		if !ok {
			continue
		}
		wantType, _ := spec["type"].(string)
		if wantType == "" {
			continue
		}
		if reason := checkType(key, wantType, value); reason != "" {
			reasons = append(reasons, reason)
		}
	}

	if len(reasons) > 0 {
		return &InvalidArgsError{Tool: tool.Name, Reasons: reasons}
	}
	return nil
}

// checkType validates one decoded JSON value against a schema type name.
// JSON numbers always decode as float64.
func checkType(key, wantType string, value any) string {
	switch wantType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("argument %q must be a string", key)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("argument %q must be a boolean", key)
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return fmt.Sprintf("argument %q must be a number", key)
		}
	case "integer":
		f, ok := value.(float64)
		if !ok || f != float64(int64(f)) {
			return fmt.Sprintf("argument %q must be an integer", key)
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return fmt.Sprintf("argument %q must be an object", key)
		}
	case "array":
		if _, ok := value.([]any); !ok {
			return fmt.Sprintf("argument %q must be an array", key)
		}
	}
	return ""
}
