package sandbox

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeAuto, false},
		{"host", ModeHost, false},
		{" Docker ", ModeDocker, false},
		{"AUTO", ModeAuto, false},
		{"podman", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseMemoryAndCPU(t *testing.T) {
	assert.Equal(t, int64(512*1024*1024), parseMemory("512m"))
	assert.Equal(t, int64(1<<30), parseMemory("1g"))
	assert.Equal(t, int64(defaultMemory), parseMemory(""))
	assert.Equal(t, int64(defaultMemory), parseMemory("lots"))

	assert.Equal(t, 1.5, parseCPU("1.5"))
	assert.Equal(t, float64(defaultCPUs), parseCPU(""))
	assert.Equal(t, float64(defaultCPUs), parseCPU("-1"))
}

func TestContainerSpec(t *testing.T) {
	cfg := Config{CPU: "1", Memory: "256m"}
	cc, hc := containerSpec(cfg, "/data/downloads", "yt-dlp", []string{"--version"})

	assert.Equal(t, DefaultImage, cc.Image)
	assert.Equal(t, []string{"yt-dlp"}, []string(cc.Entrypoint))
	assert.Equal(t, []string{"--version"}, []string(cc.Cmd))
	assert.Equal(t, containerWorkdir, cc.WorkingDir)
	assert.False(t, cc.NetworkDisabled)

	require.Len(t, hc.Mounts, 1)
	assert.Equal(t, "/data/downloads", hc.Mounts[0].Source)
	assert.Equal(t, containerWorkdir, hc.Mounts[0].Target)
	assert.Equal(t, int64(256*1024*1024), hc.Resources.Memory)
	assert.Equal(t, int64(1e9), hc.Resources.NanoCPUs)
	require.Len(t, hc.Resources.Ulimits, 1)
	assert.Equal(t, "nofile", hc.Resources.Ulimits[0].Name)
	assert.True(t, hc.ReadonlyRootfs)
	assert.Equal(t, []string{"ALL"}, []string(hc.CapDrop))
}

func TestDockerHostPath(t *testing.T) {
	r := &DockerRunner{}
	dir := t.TempDir()

	assert.Equal(t, filepath.Join(dir, "a", "b.mp4"), r.HostPath(dir, "/workspace/a/b.mp4"))
	assert.Equal(t, filepath.Join(dir, "b.mp4"), r.HostPath(dir, "b.mp4"))
	assert.Equal(t, "/workspaces/x.mp4", r.HostPath(dir, "/workspaces/x.mp4"))
	assert.Equal(t, "/other/x.mp4", r.HostPath(dir, "/other/x.mp4"))
}

func TestHostPathHelper(t *testing.T) {
	h := NewHostRunner(DefaultConfig())
	assert.Equal(t, filepath.Join("dl", "v.mp4"), HostPath(h, "dl", " v.mp4\n"))
	assert.Equal(t, "/abs/v.mp4", HostPath(h, "dl", "/abs/v.mp4"))
	assert.Equal(t, "", HostPath(h, "dl", "  "))

	d := &DockerRunner{}
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "v.mp4"), HostPath(d, dir, "/workspace/v.mp4"))
}

func TestNewRunner(t *testing.T) {
	origLook, origProbe := lookPath, dockerProbe
	t.Cleanup(func() { lookPath, dockerProbe = origLook, origProbe })

	fake := &HostRunner{}
	probed := 0
	dockerProbe = func(context.Context, Config) (Runner, error) {
		probed++
		return nil, errors.New("no daemon")
	}
	lookPath = func(string) (string, error) { return "", errors.New("not found") }

	ctx := context.Background()
	log := zerolog.Nop()

	r, err := NewRunner(ctx, Config{Mode: ModeHost}, log)
	require.NoError(t, err)
	assert.IsType(t, &HostRunner{}, r)

	_, err = NewRunner(ctx, Config{Mode: ModeDocker}, log)
	assert.ErrorContains(t, err, "no daemon")

	r, err = NewRunner(ctx, Config{Mode: ModeAuto, Binary: "yt-dlp"}, log)
	require.NoError(t, err)
	assert.IsType(t, &HostRunner{}, r)
	assert.Equal(t, 2, probed)

	dockerProbe = func(context.Context, Config) (Runner, error) { return fake, nil }
	r, err = NewRunner(ctx, Config{Mode: ModeAuto, Binary: "yt-dlp"}, log)
	require.NoError(t, err)
	assert.Same(t, fake, r)

	lookPath = func(string) (string, error) { return "/usr/bin/yt-dlp", nil }
	dockerProbe = func(context.Context, Config) (Runner, error) {
		t.Fatal("docker must not be probed when the binary is on PATH")
		return nil, nil
	}
	r, err = NewRunner(ctx, Config{Mode: ModeAuto, Binary: "yt-dlp"}, log)
	require.NoError(t, err)
	assert.NotSame(t, fake, r)

	_, err = NewRunner(ctx, Config{Mode: "podman"}, log)
	assert.Error(t, err)
}

func TestConfigTimeout(t *testing.T) {
	assert.Equal(t, time.Second, Config{}.timeout(time.Second))
	assert.Equal(t, time.Minute, Config{CmdTimeout: time.Minute}.timeout(0))
	assert.Equal(t, defaultCmdTimeout, Config{}.timeout(-1))
}
