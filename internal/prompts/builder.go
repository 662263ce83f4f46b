package prompts

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*\$?([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// PromptBuilder composes a prompt from a registered base, extra fragments
// and {{name}} variables.
type PromptBuilder struct {
	basePrompt *Prompt
	fragments  []string
	variables  map[string]string
}

// NewPromptBuilder creates a builder from the latest version of a registered prompt.
func NewPromptBuilder(registry *PromptRegistry, id string) (*PromptBuilder, error) {
	basePrompt, err := registry.GetLatest(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get base prompt: %w", err)
	}
	return &PromptBuilder{
		basePrompt: basePrompt,
		fragments:  []string{basePrompt.Content},
		variables:  make(map[string]string),
	}, nil
}

// AddFragment appends a fragment to the prompt.
func (b *PromptBuilder) AddFragment(text string) *PromptBuilder {
	if strings.TrimSpace(text) != "" {
		b.fragments = append(b.fragments, text)
	}
	return b
}

// SetVariable sets a variable for template substitution.
func (b *PromptBuilder) SetVariable(key, value string) *PromptBuilder {
	b.variables[key] = value
	return b
}

// Build joins the fragments and substitutes variables. Placeholders may be
// written {{name}} or {{$name}}; a placeholder with no value is an error.
func (b *PromptBuilder) Build() (string, error) {
	result := strings.Join(b.fragments, "\n\n")

	var missing []string
	result = placeholderRe.ReplaceAllStringFunc(result, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		value, ok := b.variables[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %s: missing variables: %s", b.basePrompt.ID, strings.Join(missing, ", "))
	}
	return result, nil
}

// Render is shorthand for building the latest version of a prompt with variables.
func Render(registry *PromptRegistry, id string, vars map[string]string) (string, error) {
	b, err := NewPromptBuilder(registry, id)
	if err != nil {
		return "", err
	}
	for k, v := range vars {
		b.SetVariable(k, v)
	}
	return b.Build()
}
