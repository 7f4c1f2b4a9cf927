// Package resume holds the applicant's résumé for the duration of a session:
// a structured map for direct lookups and a plain-text rendering for LLM prompts.
package resume

import (
	"fmt"
	"strings"
)

type Context struct {
	structured map[string]any
	text       string
}

// New builds a context from structured data. When text is empty the
// canonical rendering is used. A nil map yields a text-only context.
func New(structured map[string]any, text string) *Context {
	if structured == nil {
		return FromText(text)
	}
	data := normalizeMap(structured)
	if strings.TrimSpace(text) == "" {
		text = Render(data)
	}
	return &Context{structured: data, text: text}
}

// FromText builds a context with structured lookups disabled.
func FromText(text string) *Context {
	return &Context{text: strings.TrimSpace(text)}
}

func (c *Context) HasStructured() bool {
	return c != nil && c.structured != nil
}

// Structured returns a copy so callers cannot mutate the session's résumé.
func (c *Context) Structured() map[string]any {
	if !c.HasStructured() {
		return nil
	}
	return normalizeMap(c.structured)
}

func (c *Context) Text() string {
	if c == nil {
		return ""
	}
	return c.text
}

// normalizeMap deep-copies decoded JSON/YAML into map[string]any / []any trees.
func normalizeMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeMap(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[fmt.Sprint(k)] = normalizeValue(inner)
		}
		return m
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = normalizeValue(item)
		}
		return items
	case []map[string]any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = normalizeMap(item)
		}
		return items
	case []string:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = item
		}
		return items
	default:
		return val
	}
}
