package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-units"
)

const (
	containerWorkdir = "/workspace"
	defaultMemory    = 1 << 30
	defaultCPUs      = 2
)

// DockerRunner runs commands in throwaway Docker containers.
type DockerRunner struct {
	client *client.Client
	config Config
}

// NewDockerRunner creates a Docker runner and checks that the daemon answers.
func NewDockerRunner(ctx context.Context, config Config) (*DockerRunner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(pingCtx); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("docker daemon not accessible: %w", err)
	}

	if config.Image == "" {
		config.Image = DefaultImage
	}
	return &DockerRunner{client: cli, config: config}, nil
}

// HostPath maps a path under the container workdir back to dir on the host.
func (r *DockerRunner) HostPath(dir, p string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	if !path.IsAbs(p) {
		return filepath.Join(abs, filepath.FromSlash(p))
	}
	rel, ok := strings.CutPrefix(path.Clean(p), containerWorkdir)
	if !ok || (rel != "" && !strings.HasPrefix(rel, "/")) {
		return p
	}
	return filepath.Join(abs, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
}

// RunCmd runs name as the container entrypoint with dir mounted at /workspace.
func (r *DockerRunner) RunCmd(ctx context.Context, dir, name string, args []string, timeout time.Duration) (Result, error) {
	if err := r.ensureImage(ctx, r.config.Image); err != nil {
		return Result{Code: -1}, fmt.Errorf("failed to ensure image %s: %w", r.config.Image, err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return Result{Code: -1}, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return Result{Code: -1}, fmt.Errorf("create %s: %w", absDir, err)
	}

	containerConfig, hostConfig := containerSpec(r.config, absDir, name, args)

	createResp, err := r.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return Result{Code: -1}, fmt.Errorf("failed to create container: %w", err)
	}
	containerID := createResp.ID

	defer func() {
		removeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.client.ContainerRemove(removeCtx, containerID, container.RemoveOptions{Force: true})
	}()

	execCtx, cancel := context.WithTimeout(ctx, r.config.timeout(timeout))
	defer cancel()

	if err := r.client.ContainerStart(execCtx, containerID, container.StartOptions{}); err != nil {
		return Result{Code: -1}, fmt.Errorf("failed to start container: %w", err)
	}

	statusCh, errCh := r.client.ContainerWait(execCtx, containerID, container.WaitConditionNotRunning)

	var exitCode int64
	select {
	case <-execCtx.Done():
		killCtx, killCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer killCancel()
		_ = r.client.ContainerKill(killCtx, containerID, "SIGKILL")
		res := Result{Code: -1, TimedOut: ctx.Err() == nil}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, fmt.Errorf("%s timed out: %w", name, execCtx.Err())
	case err := <-errCh:
		if err != nil {
			return Result{Code: -1}, fmt.Errorf("container wait error: %w", err)
		}
	case status := <-statusCh:
		exitCode = status.StatusCode
	}

	logs, err := r.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return Result{Code: -1}, fmt.Errorf("failed to read container logs: %w", err)
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		return Result{Code: -1}, fmt.Errorf("failed to demultiplex container logs: %w", err)
	}

	return Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Code:   int(exitCode),
	}, nil
}

// containerSpec builds the container and host configuration for one command.
// The root filesystem is read-only; only the mounted dir and /tmp are writable.
func containerSpec(cfg Config, absDir, name string, args []string) (*container.Config, *container.HostConfig) {
	image := cfg.Image
	if image == "" {
		image = DefaultImage
	}

	containerConfig := &container.Config{
		Image:      image,
		Entrypoint: []string{name},
		Cmd:        args,
		WorkingDir: containerWorkdir,
		User:       fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
		Env:        []string{"HOME=/tmp", "XDG_CACHE_HOME=/tmp/.cache"},
	}

	hostConfig := &container.HostConfig{
		Mounts: []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: absDir,
				Target: containerWorkdir,
			},
		},
		Resources: container.Resources{
			Memory:   parseMemory(cfg.Memory),
			NanoCPUs: int64(parseCPU(cfg.CPU) * 1e9),
			Ulimits: []*units.Ulimit{
				{Name: "nofile", Soft: 1024, Hard: 1024},
			},
		},
		SecurityOpt:    []string{"no-new-privileges"},
		CapDrop:        []string{"ALL"},
		ReadonlyRootfs: true,
		Tmpfs: map[string]string{
			"/tmp": "rw,noexec,nosuid,size=256m",
		},
	}
	return containerConfig, hostConfig
}

// ensureImage pulls imageName unless it already exists locally.
func (r *DockerRunner) ensureImage(ctx context.Context, imageName string) error {
	if _, _, err := r.client.ImageInspectWithRaw(ctx, imageName); err == nil {
		return nil
	}

	reader, err := r.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	// the pull only completes once the progress stream is drained
	_, err = io.Copy(io.Discard, reader)
	return err
}

// parseMemory parses sizes such as "1g" or "512m" into bytes.
func parseMemory(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultMemory
	}
	n, err := units.RAMInBytes(s)
	if err != nil || n <= 0 {
		return defaultMemory
	}
	return n
}

// parseCPU parses a CPU count such as "2" or "1.5".
func parseCPU(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return defaultCPUs
	}
	return v
}
