package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ChamsBouzaiene/ytchat/internal/engine"
)

// styles are bound to the output's renderer, so a non-terminal writer
// gets plain text.
type styles struct {
	prompt  lipgloss.Style
	aiLabel lipgloss.Style
	usage   lipgloss.Style
	err     lipgloss.Style
	pending lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		prompt:  r.NewStyle().Foreground(lipgloss.Color("62")).Bold(true),
		aiLabel: r.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		usage:   r.NewStyle().Foreground(lipgloss.Color("243")).Faint(true),
		err:     r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		pending: r.NewStyle().Foreground(lipgloss.Color("135")),
	}
}

// PromptStyle is the style used for input prompts written to out.
func PromptStyle(out io.Writer) lipgloss.Style {
	return newStyles(out).prompt
}

func formatUsage(u engine.Usage) string {
	fields := u.Fields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %d", f.Name, f.Value))
	}
	return "usage: " + strings.Join(parts, ", ")
}

func formatToolCall(c engine.ToolCall) string {
	args := make([]string, 0, len(c.Args))
	for _, k := range sortedKeys(c.Args) {
		args = append(args, fmt.Sprintf("%s=%v", k, c.Args[k]))
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}
