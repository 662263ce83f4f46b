package ytdlp

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOptions is returned for download options that cannot be turned
// into a yt-dlp command line.
var ErrInvalidOptions = errors.New("invalid yt-dlp options")

func invalidOptions(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOptions, fmt.Sprintf(format, args...))
}

const stderrTailLines = 15

// CommandError reports a yt-dlp run that exited with a non-zero status.
type CommandError struct {
	Op     string
	Code   int
	Stderr string
}

func (e *CommandError) Error() string {
	tail := tailLines(e.Stderr, stderrTailLines)
	if tail == "" {
		return fmt.Sprintf("yt-dlp %s exited with code %d", e.Op, e.Code)
	}
	return fmt.Sprintf("yt-dlp %s exited with code %d: %s", e.Op, e.Code, tail)
}

func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
