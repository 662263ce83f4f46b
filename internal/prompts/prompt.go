// Package prompts keeps the versioned prompt texts the assistant sends.
package prompts

import (
	"strconv"
	"strings"
)

// PromptVersion is a dotted version identifier such as "1.0.0".
type PromptVersion string

const (
	PromptV1 PromptVersion = "1.0.0"
)

// Less orders versions numerically, segment by segment.
func (v PromptVersion) Less(o PromptVersion) bool {
	a, b := strings.Split(string(v), "."), strings.Split(string(o), ".")
	for i := 0; i < max(len(a), len(b)); i++ {
		x, y := segment(a, i), segment(b, i)
		if x != y {
			return x < y
		}
	}
	return false
}

func segment(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	n, err := strconv.Atoi(parts[i])
	if err != nil {
		return 0
	}
	return n
}

// Prompt represents a versioned prompt with metadata.
type Prompt struct {
	ID          string
	Version     PromptVersion
	Content     string
	Description string
	// Variables lists the {{name}} placeholders the content expects.
	Variables  []string
	Deprecated bool
}
