// Package sandbox runs external programs either directly on the host or
// inside a throwaway Docker container.
package sandbox

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// Result captures output of a command.
type Result struct {
	Stdout   string
	Stderr   string
	Code     int
	TimedOut bool
}

// Runner runs a single command to completion.
//
// A command that starts and exits with a non-zero status is reported through
// Result.Code with a nil error. The error is reserved for commands that could
// not be started, were cancelled, or ran past their timeout.
type Runner interface {
	// RunCmd runs name with args in dir. A timeout <= 0 uses the runner default.
	RunCmd(ctx context.Context, dir, name string, args []string, timeout time.Duration) (Result, error)
}

// PathMapper is implemented by runners whose commands see a different
// filesystem layout than the caller.
type PathMapper interface {
	// HostPath translates a path printed by a command run in dir into a host path.
	HostPath(dir, p string) string
}

// HostPath resolves a path printed by a command that r ran in dir.
// Relative paths are taken relative to dir.
func HostPath(r Runner, dir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if m, ok := r.(PathMapper); ok {
		return m.HostPath(dir, p)
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
