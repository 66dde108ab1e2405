package tools

import (
	"encoding/json"
	"fmt"
)

// ContentPart is one piece of tool output.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Envelope is the uniform result shape every tool returns.
type Envelope struct {
	Content  []ContentPart  `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

// Text builds an envelope with a single text part.
func Text(s string) *Envelope {
	return &Envelope{Content: []ContentPart{{Type: "text", Text: s}}}
}

// Textf builds an envelope with a single formatted text part.
func Textf(format string, args ...any) *Envelope {
	return Text(fmt.Sprintf(format, args...))
}

// JSON builds an envelope whose text part is the indented JSON encoding
// of v.
func JSON(v any) (*Envelope, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %v", err)
	}
	return Text(string(data)), nil
}

// WithMeta attaches one metadata entry, allocating the map on first use.
func (e *Envelope) WithMeta(key string, value any) *Envelope {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

// WithWarning appends an advisory warning.
func (e *Envelope) WithWarning(w string) *Envelope {
	e.Warnings = append(e.Warnings, w)
	return e
}
