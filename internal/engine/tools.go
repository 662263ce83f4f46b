package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

type Tool struct {
	Name        string
	Description string
	SchemaJSON  string
	Fn          ToolFunc
	Retryable   bool
	// Plugin groups related tools so they can be enabled together.
	Plugin string
}

// ValidateArgs validates the provided arguments against the tool's JSON schema.
func (t Tool) ValidateArgs(args map[string]any) error {
	if t.SchemaJSON == "" {
		return nil
	}
	schemaLoader := gojsonschema.NewStringLoader(t.SchemaJSON)
	documentLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var errorMsgs []string
		for _, err := range result.Errors() {
			errorMsgs = append(errorMsgs, err.String())
		}
		return &ToolValidationError{
			ToolName: t.Name,
			Errors:   errorMsgs,
		}
	}

	return nil
}

type ToolRegistry map[string]Tool

// Register adds a tool, rejecting duplicate names.
func (r ToolRegistry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if t.Fn == nil {
		return fmt.Errorf("tool %s has no function", t.Name)
	}
	if _, exists := r[t.Name]; exists {
		return fmt.Errorf("tool %s already registered", t.Name)
	}
	r[t.Name] = t
	return nil
}

// Schemas returns the tool schemas sorted by name so requests are stable.
func (r ToolRegistry) Schemas() []ToolSchema {
	s := make([]ToolSchema, 0, len(r))
	for _, t := range r {
		s = append(s, ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			JSONSchema:  t.SchemaJSON,
			Retryable:   t.Retryable,
		})
	}
	sort.Slice(s, func(i, j int) bool { return s[i].Name < s[j].Name })
	return s
}

// Names returns the sorted tool names.
func (r ToolRegistry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Plugins returns the sorted, de-duplicated plugin names.
func (r ToolRegistry) Plugins() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range r {
		if t.Plugin == "" || seen[t.Plugin] {
			continue
		}
		seen[t.Plugin] = true
		out = append(out, t.Plugin)
	}
	sort.Strings(out)
	return out
}

// FilterByPlugins returns a new registry holding only tools of the named
// plugins. An empty list keeps every tool.
func (r ToolRegistry) FilterByPlugins(plugins []string) ToolRegistry {
	filtered := make(ToolRegistry, len(r))
	if len(plugins) == 0 {
		for name, tool := range r {
			filtered[name] = tool
		}
		return filtered
	}
	keep := make(map[string]bool, len(plugins))
	for _, p := range plugins {
		keep[p] = true
	}
	for name, tool := range r {
		if keep[tool.Plugin] {
			filtered[name] = tool
		}
	}
	return filtered
}
