package template

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Field is one frontmatter key/value pair. Order matters: serializing a
// parsed block must reproduce the original key order.
type Field struct {
	Key   string
	Value any
}

// Frontmatter is an ordered frontmatter block.
type Frontmatter struct {
	Fields []Field
}

// Get returns the value for key, if present.
func (f *Frontmatter) Get(key string) (any, bool) {
	for _, fld := range f.Fields {
		if fld.Key == key {
			return fld.Value, true
		}
	}
	return nil, false
}

// GetString returns the value for key as a string, if present.
func (f *Frontmatter) GetString(key string) (string, bool) {
	v, ok := f.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set replaces the value for key in place, or appends the key if absent.
func (f *Frontmatter) Set(key string, value any) {
	for i, fld := range f.Fields {
		if fld.Key == key {
			f.Fields[i].Value = value
			return
		}
	}
	f.Fields = append(f.Fields, Field{Key: key, Value: value})
}

// Map flattens the block into a plain map, losing order.
func (f *Frontmatter) Map() map[string]any {
	m := make(map[string]any, len(f.Fields))
	for _, fld := range f.Fields {
		m[fld.Key] = fld.Value
	}
	return m
}

// ParseFrontmatter splits note content into its frontmatter block and body.
// Returns found=false when the content has no well-formed block: no opening
// delimiter on the first line, no closing delimiter, or a non-mapping
// payload. Malformed blocks are treated as absent, never as an error.
func ParseFrontmatter(content string) (fm *Frontmatter, body string, found bool) {
	if !strings.HasPrefix(content, "---\n") && content != "---" {
		return nil, content, false
	}

	rest := content[4:]
	var yamlText string
	if idx := strings.Index(rest, "\n---\n"); idx >= 0 {
		yamlText = rest[:idx+1]
		body = rest[idx+5:]
	} else if strings.HasSuffix(rest, "\n---") {
		yamlText = rest[:len(rest)-3]
		body = ""
	} else {
		return nil, content, false
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(yamlText), &doc); err != nil {
		return nil, content, false
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, content, false
	}

	mapping := doc.Content[0]
	fm = &Frontmatter{}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode := mapping.Content[i]
		valNode := mapping.Content[i+1]

		var value any
		if err := valNode.Decode(&value); err != nil {
			continue
		}
		// Bare dates like 2025-01-01 decode as time.Time; keep the
		// literal text so round trips and comparisons stay stable.
		if _, isTime := value.(time.Time); isTime {
			value = valNode.Value
		}
		fm.Fields = append(fm.Fields, Field{Key: keyNode.Value, Value: value})
	}
	return fm, body, true
}

// Marshal serializes the block back to YAML text, preserving field order.
func (f *Frontmatter) Marshal() (string, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, fld := range f.Fields {
		keyNode := &yaml.Node{}
		keyNode.SetString(fld.Key)

		valNode := &yaml.Node{}
		if err := valNode.Encode(fld.Value); err != nil {
			return "", fmt.Errorf("failed to encode frontmatter key %q: %v", fld.Key, err)
		}
		mapping.Content = append(mapping.Content, keyNode, valNode)
	}

	out, err := yaml.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("failed to marshal frontmatter: %v", err)
	}
	return string(out), nil
}

// Render assembles a complete note from a frontmatter block and a body.
func Render(fm *Frontmatter, body string) (string, error) {
	if fm == nil || len(fm.Fields) == 0 {
		return body, nil
	}
	yamlText, err := fm.Marshal()
	if err != nil {
		return "", err
	}
	return "---\n" + yamlText + "---\n\n" + strings.TrimLeft(body, "\n"), nil
}

// MergeFrontmatter combines an existing block with caller-supplied fields.
// Existing keys keep their positions but take the incoming value; keys only
// in the incoming block are appended in the caller's order. Incoming values
// that still contain unresolved template tokens are skipped so broken
// placeholders never land in stored notes.
func MergeFrontmatter(existing, incoming *Frontmatter) *Frontmatter {
	merged := &Frontmatter{}
	if existing != nil {
		merged.Fields = append(merged.Fields, existing.Fields...)
	}
	if incoming == nil {
		return merged
	}

	for _, fld := range incoming.Fields {
		if s, ok := fld.Value.(string); ok && containsToken(s) {
			continue
		}
		merged.Set(fld.Key, fld.Value)
	}
	return merged
}
