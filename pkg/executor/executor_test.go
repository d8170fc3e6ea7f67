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

package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/anomalo/diagnostics/pkg/report"
)

func newTestExecutor() (*Executor, *report.Report, *bytes.Buffer) {
	var console bytes.Buffer
	r := report.New(report.Meta{DeploymentType: "kubernetes"})
	return New(r, WithConsole(&console)), r, &console
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(raw)
}

func TestExecute_Success(t *testing.T) {
	e, r, console := newTestExecutor()
	path := filepath.Join(t.TempDir(), "sub", "dir", "events.txt")

	entry := e.Execute(context.Background(), Task{
		Description: "namespace events",
		OutputPath:  path,
		Op: func(_ context.Context, w io.Writer) error {
			_, err := io.WriteString(w, "event line\n")
			return err
		},
	})

	assert.Equal(t, report.StatusSuccess, entry.Status)
	assert.Empty(t, entry.Error)
	assert.Equal(t, "event line\n", readFile(t, path))
	assert.Contains(t, console.String(), "namespace events")
	require.Len(t, r.Entries(), 1)
	assert.Equal(t, path, r.Entries()[0].Path)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.Metrics().tasksTotal.WithLabelValues("success")))
}

func TestExecute_FailureKeepsPartialOutput(t *testing.T) {
	e, r, console := newTestExecutor()
	path := filepath.Join(t.TempDir(), "logs.txt")

	entry := e.Execute(context.Background(), Task{
		Description: "pod logs",
		OutputPath:  path,
		Op: func(_ context.Context, w io.Writer) error {
			fmt.Fprint(w, "partial")
			return errors.New("stream reset")
		},
	})

	assert.Equal(t, report.StatusFailure, entry.Status)
	assert.Equal(t, "stream reset", entry.Error)
	assert.Equal(t, "partial\nERROR: stream reset\n", readFile(t, path))
	assert.Contains(t, console.String(), "pod logs: stream reset")
	assert.Equal(t, report.StatusFailure, r.Entries()[0].Status)
}

func TestExecute_AdvisoryIsWarning(t *testing.T) {
	e, _, _ := newTestExecutor()
	path := filepath.Join(t.TempDir(), "node_metrics.txt")

	entry := e.Execute(context.Background(), Task{
		Description: "node metrics",
		OutputPath:  path,
		Op: func(context.Context, io.Writer) error {
			return Advisory(errors.New("metrics API not available"))
		},
	})

	assert.Equal(t, report.StatusWarning, entry.Status)
	assert.Equal(t, "ERROR: metrics API not available\n", readFile(t, path))
}

func TestExecute_PlaceholderReplacesOutput(t *testing.T) {
	e, _, _ := newTestExecutor()
	path := filepath.Join(t.TempDir(), "metrics.json")

	entry := e.Execute(context.Background(), Task{
		Description: "health check metrics",
		OutputPath:  path,
		Placeholder: []byte("{}"),
		Op: func(_ context.Context, w io.Writer) error {
			fmt.Fprint(w, "<html>")
			return Advisory(errors.New("context deadline exceeded"))
		},
	})

	assert.Equal(t, report.StatusWarning, entry.Status)
	assert.Equal(t, "{}", readFile(t, path))
}

func TestExecute_StructuredOutputHasNoTrailer(t *testing.T) {
	e, _, _ := newTestExecutor()
	path := filepath.Join(t.TempDir(), "host_summary.json")

	entry := e.Execute(context.Background(), Task{
		Description: "host summary",
		OutputPath:  path,
		Structured:  true,
		Op: func(_ context.Context, w io.Writer) error {
			fmt.Fprintln(w, `{"errors":["cpu: not supported"]}`)
			return Advisory(errors.New("cpu: not supported"))
		},
	})

	assert.Equal(t, report.StatusWarning, entry.Status)
	assert.Equal(t, "cpu: not supported", entry.Error)
	assert.Equal(t, "{\"errors\":[\"cpu: not supported\"]}\n", readFile(t, path))
}

func TestExecute_WriteFailureIsRecorded(t *testing.T) {
	e, r, _ := newTestExecutor()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	entry := e.Execute(context.Background(), Task{
		Description: "nodes",
		OutputPath:  filepath.Join(blocker, "nodes.txt"),
		Op:          func(context.Context, io.Writer) error { return nil },
	})

	assert.Equal(t, report.StatusFailure, entry.Status)
	assert.Contains(t, entry.Error, "failed to create directory")
	assert.Len(t, r.Entries(), 1)
}

func TestExecute_PanicAndNilOp(t *testing.T) {
	e, _, _ := newTestExecutor()
	dir := t.TempDir()

	entry := e.Execute(context.Background(), Task{
		Description: "explodes",
		OutputPath:  filepath.Join(dir, "a.txt"),
		Op:          func(context.Context, io.Writer) error { panic("boom") },
	})
	assert.Equal(t, report.StatusFailure, entry.Status)
	assert.Contains(t, entry.Error, "panic: boom")

	entry = e.Execute(context.Background(), Task{Description: "empty", OutputPath: filepath.Join(dir, "b.txt")})
	assert.Equal(t, report.StatusFailure, entry.Status)
}

func TestExecute_CanceledPacer(t *testing.T) {
	var console bytes.Buffer
	r := report.New(report.Meta{})
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	limiter.Allow()
	e := New(r, WithConsole(&console), WithLimiter(limiter))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	path := filepath.Join(t.TempDir(), "x.txt")
	entry := e.Execute(ctx, Task{
		Description: "paced",
		OutputPath:  path,
		Op: func(context.Context, io.Writer) error {
			called = true
			return nil
		},
	})

	assert.False(t, called)
	assert.Equal(t, report.StatusFailure, entry.Status)
	assert.FileExists(t, path)
}

func TestExecute_TaskTimeout(t *testing.T) {
	r := report.New(report.Meta{})
	e := New(r, WithConsole(io.Discard), WithTaskTimeout(time.Millisecond))

	entry := e.Execute(context.Background(), Task{
		Description: "hung command",
		OutputPath:  filepath.Join(t.TempDir(), "hung.txt"),
		Op: func(ctx context.Context, _ io.Writer) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})
	assert.Equal(t, report.StatusFailure, entry.Status)
	assert.Contains(t, entry.Error, "deadline exceeded")
}

func TestExecute_NoOutputPath(t *testing.T) {
	e, r, _ := newTestExecutor()
	entry := e.Execute(context.Background(), Task{
		Description: "cleanup",
		Op:          func(context.Context, io.Writer) error { return nil },
	})
	assert.Equal(t, report.StatusSuccess, entry.Status)
	assert.Empty(t, r.Entries()[0].Path)
}

func TestAdvisory(t *testing.T) {
	assert.NoError(t, Advisory(nil))
	base := errors.New("absent")
	err := Advisory(fmt.Errorf("secret: %w", base))
	assert.True(t, IsAdvisory(err))
	assert.True(t, IsAdvisory(fmt.Errorf("wrapped: %w", err)))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsAdvisory(base))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	e, _, _ := newTestExecutor()
	e.Execute(context.Background(), Task{Description: "x", Op: func(context.Context, io.Writer) error { return nil }})

	path := filepath.Join(t.TempDir(), "collection_metrics.prom")
	require.NoError(t, e.Metrics().WriteTextfile(path))
	assert.Contains(t, readFile(t, path), `anomalo_diag_tasks_total{status="success"} 1`)
}
