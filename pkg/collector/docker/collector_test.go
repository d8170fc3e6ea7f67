// Copyright (c) 2026, Anomalo, Inc.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anomalo/diagnostics/pkg/collector/step"
	"github.com/anomalo/diagnostics/pkg/config"
	apperrors "github.com/anomalo/diagnostics/pkg/errors"
	"github.com/anomalo/diagnostics/pkg/executor"
	"github.com/anomalo/diagnostics/pkg/guard"
	"github.com/anomalo/diagnostics/pkg/progress"
	"github.com/anomalo/diagnostics/pkg/prompt"
	"github.com/anomalo/diagnostics/pkg/report"
)

type fakeAPI struct {
	pingErr    error
	containers []Container
	stderr     map[string]string
	logErr     map[string]error
	inspectErr map[string]error
	logCalls   int
	closed     bool
}

func (f *fakeAPI) Ping(context.Context) error { return f.pingErr }

func (f *fakeAPI) Info(context.Context) (*Info, error) {
	return &Info{
		Name: "docker-host", ServerVersion: "27.5.1", OperatingSystem: "Ubuntu 22.04",
		NCPU: 8, MemTotal: 16 << 30, Driver: "overlay2", Containers: len(f.containers),
		Warnings: []string{"No swap limit support"},
	}, nil
}

func (f *fakeAPI) Version(context.Context) (*Version, error) {
	return &Version{Version: "27.5.1", APIVersion: "1.47", MinAPIVersion: "1.24", OS: "linux", Arch: "amd64",
		Components: []Component{{Name: "containerd", Version: "1.7.25"}}}, nil
}

func (f *fakeAPI) Containers(context.Context) ([]Container, error) { return f.containers, nil }

func (f *fakeAPI) Images(context.Context) ([]Image, error) {
	return []Image{
		{ID: "sha256:0123456789abcdef0123", RepoTags: []string{"anomalo/web:1.2.3", "registry:5000/anomalo/web"}, Created: now().Add(-48 * time.Hour), Size: 250 << 20},
		{ID: "sha256:fedcba9876543210fedc"},
	}, nil
}

func (f *fakeAPI) Volumes(context.Context) ([]Volume, error) {
	return []Volume{{Name: "anomalo_pgdata", Driver: "local", Scope: "local", Mountpoint: "/var/lib/docker/volumes/anomalo_pgdata/_data"}}, nil
}

func (f *fakeAPI) Networks(context.Context) ([]Network, error) {
	return []Network{{ID: "a1b2c3d4e5f6a7b8", Name: "anomalo_default", Driver: "bridge", Scope: "local"}}, nil
}

func (f *fakeAPI) DiskUsage(context.Context) (*DiskUsage, error) {
	return &DiskUsage{Images: UsageLine{Total: 2, Active: 1, Size: 1 << 30, Reclaimable: 100 << 20}}, nil
}

func (f *fakeAPI) Logs(_ context.Context, id string, tail int, stdout, stderr io.Writer) error {
	f.logCalls++
	if err := f.logErr[id]; err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: last %d lines\n", id, tail)
	if msg := f.stderr[id]; msg != "" {
		fmt.Fprintln(stderr, msg)
	}
	return nil
}

func (f *fakeAPI) Inspect(_ context.Context, id string) ([]byte, error) {
	if err := f.inspectErr[id]; err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("[\n  {\n    \"Id\": %q\n  }\n]\n", id)), nil
}

func (f *fakeAPI) Close() error {
	f.closed = true
	return nil
}

func containers(n int) []Container {
	out := make([]Container, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Container{
			ID:     fmt.Sprintf("c%02d", i),
			Name:   fmt.Sprintf("anomalo-web-%d", i),
			Image:  "anomalo/web:1.2.3",
			State:  "running",
			Status: "Up 2 hours",
			Labels: map[string]string{composeProjectLabel: "anomalo", composeServiceLabel: "web"},
		})
	}
	return out
}

func testConfig() *config.RunConfig {
	return &config.RunConfig{Type: config.Docker, Domain: "acme.anomalo.com", LogLines: 250, MaxPods: 50, MaxContainers: 50}
}

type testEnv struct {
	*step.Env
	report *report.Report
}

func newTestEnv(t *testing.T, p prompt.Prompter) *testEnv {
	t.Helper()
	if p == nil {
		p = prompt.NonInteractive{}
	}
	r := report.New(report.Meta{DeploymentType: "docker"})
	return &testEnv{
		Env: &step.Env{
			Dir:      t.TempDir(),
			Executor: executor.New(r, executor.WithConsole(io.Discard)),
			Progress: progress.New(io.Discard, false),
			Guard:    guard.New(p, guard.WithOutput(io.Discard)),
		},
		report: r,
	}
}

func glob(t *testing.T, dir, pattern string) []string {
	t.Helper()
	m, err := filepath.Glob(filepath.Join(dir, pattern))
	require.NoError(t, err)
	return m
}

func TestPreflight(t *testing.T) {
	assert.NoError(t, New(testConfig(), &fakeAPI{}, nil).Preflight(context.Background()))

	err := New(testConfig(), &fakeAPI{pingErr: errors.New("dial unix /var/run/docker.sock: connect: no such file or directory")}, nil).
		Preflight(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUnavailable, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "docker daemon is not reachable")
}

func TestCollect_SmallHost(t *testing.T) {
	api := &fakeAPI{
		containers: containers(2),
		stderr:     map[string]string{"c01": "WARN slow query"},
	}
	env := newTestEnv(t, nil)

	require.NoError(t, New(testConfig(), api, nil).Collect(context.Background(), env.Env))

	cur, total := env.Progress.Position()
	assert.Equal(t, DaemonSteps+2*2+1, total)
	assert.Equal(t, total, cur)

	for _, name := range []string{
		"docker_info.txt", "docker_containers.txt", "docker_compose.txt", "docker_images.txt",
		"docker_volumes.txt", "docker_networks.txt", "docker_disk_usage.txt", "docker_version.txt",
		"logs_anomalo-web-0_stdout.txt", "logs_anomalo-web-1_stdout.txt", "logs_anomalo-web-1_stderr.txt",
		"inspect_anomalo-web-0.txt", "inspect_anomalo-web-1.txt",
	} {
		assert.FileExists(t, filepath.Join(env.Dir, name))
	}
	assert.NoFileExists(t, filepath.Join(env.Dir, "logs_anomalo-web-0_stderr.txt"), "empty stderr is removed")
	assert.Equal(t, 2, api.logCalls, "each log stream is read once")

	images, err := os.ReadFile(filepath.Join(env.Dir, "docker_images.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(images), "anomalo/web")
	assert.Contains(t, string(images), "1.2.3")
	assert.Contains(t, string(images), "0123456789ab")
	assert.Contains(t, string(images), "<none>")

	info, err := os.ReadFile(filepath.Join(env.Dir, "docker_info.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "Server Version:")
	assert.Contains(t, string(info), "WARNING: No swap limit support")

	compose, err := os.ReadFile(filepath.Join(env.Dir, "docker_compose.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(compose), "anomalo-web-0")

	summary, err := env.report.WriteSummary(env.Dir)
	require.NoError(t, err)
	raw, err := os.ReadFile(summary)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "logs_anomalo-web-0_stderr.txt")
	assert.Zero(t, env.report.Counts()[report.StatusFailure])
}

// 60 containers with the default ceiling and Truncate chosen twice.
func TestCollect_InteractiveTruncate(t *testing.T) {
	api := &fakeAPI{containers: containers(60)}
	env := newTestEnv(t, prompt.NewConsole(strings.NewReader("2\n\n"), io.Discard, true))

	require.NoError(t, New(testConfig(), api, nil).Collect(context.Background(), env.Env))

	assert.Len(t, glob(t, env.Dir, "logs_*_stdout.txt"), 50)
	assert.Len(t, glob(t, env.Dir, "inspect_*.txt"), 50)
	assert.Empty(t, glob(t, env.Dir, "logs_*_stderr.txt"))
	assert.FileExists(t, filepath.Join(env.Dir, "inspect_anomalo-web-49.txt"))
	assert.NoFileExists(t, filepath.Join(env.Dir, "inspect_anomalo-web-50.txt"))

	cur, total := env.Progress.Position()
	assert.Equal(t, DaemonSteps+2*60+1, total)
	assert.Equal(t, total, cur)
}

func TestCollect_IndependentDecisions(t *testing.T) {
	cfg := testConfig()
	cfg.MaxContainers = 1
	api := &fakeAPI{containers: containers(3)}
	// Skip logs, collect every inspection.
	env := newTestEnv(t, prompt.NewConsole(strings.NewReader("3\n1\n"), io.Discard, true))

	require.NoError(t, New(cfg, api, nil).Collect(context.Background(), env.Env))

	assert.Empty(t, glob(t, env.Dir, "logs_*"))
	assert.Len(t, glob(t, env.Dir, "inspect_*.txt"), 3)
	assert.Zero(t, api.logCalls)
	cur, total := env.Progress.Position()
	assert.Equal(t, total, cur)
}

func TestCollect_AbortStopsRun(t *testing.T) {
	cfg := testConfig()
	cfg.MaxContainers = 1
	api := &fakeAPI{containers: containers(2)}
	env := newTestEnv(t, prompt.NewConsole(strings.NewReader("4\n"), io.Discard, true))

	err := New(cfg, api, nil).Collect(context.Background(), env.Env)
	require.ErrorIs(t, err, guard.ErrAborted)
	assert.Empty(t, glob(t, env.Dir, "inspect_*"))
}

func TestCollect_LogAndInspectFailuresAreRecorded(t *testing.T) {
	api := &fakeAPI{
		containers: containers(2),
		logErr:     map[string]error{"c00": errors.New("container is restarting")},
		inspectErr: map[string]error{"c01": errors.New("no such container")},
	}
	env := newTestEnv(t, nil)

	require.NoError(t, New(testConfig(), api, nil).Collect(context.Background(), env.Env))

	// one failure for the broken stream, one for the inspect
	assert.Equal(t, 2, env.report.Counts()[report.StatusFailure])
	assert.NoFileExists(t, filepath.Join(env.Dir, "logs_anomalo-web-0_stderr.txt"))
	stdout, err := os.ReadFile(filepath.Join(env.Dir, "logs_anomalo-web-0_stdout.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(stdout), "ERROR: container is restarting")
	assert.FileExists(t, filepath.Join(env.Dir, "inspect_anomalo-web-0.txt"))
}

type recordingHost struct {
	called bool
}

func (h *recordingHost) Collect(_ context.Context, env *step.Env) error {
	h.called = true
	env.Progress.Init(1)
	env.Progress.Step("host")
	return nil
}

func TestCollect_RunsHostPhaseFirst(t *testing.T) {
	h := &recordingHost{}
	env := newTestEnv(t, nil)

	require.NoError(t, New(testConfig(), &fakeAPI{}, h).Collect(context.Background(), env.Env))
	assert.True(t, h.called)
	cur, total := env.Progress.Position()
	assert.Equal(t, DaemonSteps+1, total, "the daemon phase resets progress")
	assert.Equal(t, total, cur)
}

func TestRemoveEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "full.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), nil, 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "empty.txt"), nil, 0o600))

	removed, err := RemoveEmptyFiles(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "empty.txt"), filepath.Join(dir, "sub", "empty.txt")}, removed)
	assert.FileExists(t, filepath.Join(dir, "full.txt"))
	assert.DirExists(t, filepath.Join(dir, "sub"))
}

func TestSplitTag(t *testing.T) {
	tests := []struct {
		in, repo, tag string
	}{
		{"anomalo/web:1.2.3", "anomalo/web", "1.2.3"},
		{"registry:5000/anomalo/web", "registry:5000/anomalo/web", "<none>"},
		{"registry:5000/anomalo/web:2", "registry:5000/anomalo/web", "2"},
		{"<none>:<none>", "<none>", "<none>"},
	}
	for _, tt := range tests {
		repo, tag := splitTag(tt.in)
		assert.Equal(t, tt.repo, repo, tt.in)
		assert.Equal(t, tt.tag, tag, tt.in)
	}
}

func TestFormatPort(t *testing.T) {
	assert.Equal(t, "80/tcp", formatPort("", 0, 80, "tcp"))
	assert.Equal(t, "0.0.0.0:8080->80/tcp", formatPort("", 8080, 80, "tcp"))
	assert.Equal(t, "127.0.0.1:5432->5432/tcp", formatPort("127.0.0.1", 5432, 5432, "tcp"))
}

func TestContainerName(t *testing.T) {
	assert.Equal(t, "web", containerName([]string{"/web"}, "abc"))
	assert.Equal(t, "0123456789ab", containerName(nil, "0123456789abcdef"))
}
