//go:build !windows
// +build !windows

package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"
)

// HostRunner runs commands directly on the host machine without isolation.
type HostRunner struct {
	config Config
}

// NewHostRunner returns a host runner using cfg for its default timeout.
func NewHostRunner(cfg Config) *HostRunner {
	return &HostRunner{config: cfg}
}

// RunCmd runs name in its own process group and kills the whole group when
// ctx is cancelled or the timeout elapses.
func (r *HostRunner) RunCmd(ctx context.Context, dir, name string, args []string, timeout time.Duration) (Result, error) {
	cctx, cancel := context.WithTimeout(ctx, r.config.timeout(timeout))
	defer cancel()

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		return Result{Code: -1}, fmt.Errorf("start %s: %w", name, err)
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-cctx.Done():
			if cmd.Process != nil {
				_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			}
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)

	res := Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if err := cctx.Err(); err != nil {
		res.Code = -1
		res.TimedOut = errors.Is(err, context.DeadlineExceeded)
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, fmt.Errorf("%s timed out: %w", name, err)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.Code = exitErr.ExitCode()
			return res, nil
		}
		res.Code = -1
		return res, waitErr
	}
	return res, nil
}
