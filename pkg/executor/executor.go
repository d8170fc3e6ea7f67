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

// Package executor runs artifact tasks so that no single failure stops a
// collection run.
//
// Every task writes into an in-memory sink. Whatever the task produced is
// persisted to its output path even when the task fails, followed by the
// error text, so the bundle always shows what was attempted. The outcome is
// echoed to the console and appended to the run report.
package executor

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"golang.org/x/time/rate"

	"github.com/anomalo/diagnostics/pkg/report"
)

// Op produces the content of one artifact.
type Op func(ctx context.Context, w io.Writer) error

// Task is one unit of collection work.
type Task struct {
	Description string
	OutputPath  string
	Op          Op
	// Placeholder, when set, replaces the artifact content if Op fails so
	// the file stays machine-readable.
	Placeholder []byte
	// Structured output is kept as the op wrote it; errors go to the report
	// only and no ERROR trailer is appended.
	Structured bool
}

type advisory struct {
	err error
}

func (a *advisory) Error() string { return a.err.Error() }
func (a *advisory) Unwrap() error { return a.err }

// Advisory marks err as a warning rather than a failure, for expected gaps
// such as an API that is not installed.
func Advisory(err error) error {
	if err == nil {
		return nil
	}
	return &advisory{err: err}
}

// IsAdvisory reports whether err was marked with Advisory.
func IsAdvisory(err error) bool {
	var a *advisory
	return stderrors.As(err, &a)
}

// Option configures an Executor.
type Option func(*Executor)

// WithConsole sets where outcome lines are echoed.
func WithConsole(w io.Writer) Option {
	return func(e *Executor) {
		e.console = w
	}
}

// WithLimiter paces tasks with l. A nil limiter disables pacing.
func WithLimiter(l *rate.Limiter) Option {
	return func(e *Executor) {
		e.limiter = l
	}
}

// WithTaskTimeout bounds each task op by d. Zero leaves tasks unbounded.
func WithTaskTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.timeout = d
	}
}

// WithMetrics records outcomes into m.
func WithMetrics(m *Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// Executor runs tasks and records their outcomes.
type Executor struct {
	report  *report.Report
	console io.Writer
	limiter *rate.Limiter
	metrics *Metrics
	timeout time.Duration

	ok   *color.Color
	fail *color.Color
	warn *color.Color
}

// New returns an Executor appending to r.
func New(r *report.Report, opts ...Option) *Executor {
	e := &Executor{
		report:  r,
		console: os.Stdout,
		ok:      color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics()
	}
	return e
}

// Metrics returns the run metrics.
func (e *Executor) Metrics() *Metrics {
	return e.metrics
}

// Report returns the run report the executor appends to.
func (e *Executor) Report() *report.Report {
	return e.report
}

// Execute runs task and returns its outcome. It never returns an error:
// op failures, pacing failures and write failures all end up in the entry.
func (e *Executor) Execute(ctx context.Context, task Task) report.Entry {
	start := time.Now()
	var sink bytes.Buffer

	err := e.pace(ctx)
	if err == nil {
		err = e.run(ctx, task, &sink)
	}
	switch {
	case err != nil && task.Placeholder != nil:
		sink.Reset()
		sink.Write(task.Placeholder)
	case err != nil && !task.Structured:
		if sink.Len() > 0 && !bytes.HasSuffix(sink.Bytes(), []byte("\n")) {
			sink.WriteByte('\n')
		}
		fmt.Fprintf(&sink, "ERROR: %v\n", err)
	}

	entry := report.Entry{
		Description: task.Description,
		Path:        task.OutputPath,
		Status:      report.StatusSuccess,
	}

	switch {
	case err == nil:
	case IsAdvisory(err):
		entry.Status = report.StatusWarning
		entry.Error = err.Error()
	default:
		entry.Status = report.StatusFailure
		entry.Error = err.Error()
	}

	if task.OutputPath != "" {
		if werr := persist(task.OutputPath, sink.Bytes()); werr != nil {
			entry.Status = report.StatusFailure
			if entry.Error != "" {
				entry.Error += "; "
			}
			entry.Error += werr.Error()
		} else {
			e.metrics.bytesWritten.Add(float64(sink.Len()))
		}
	}

	entry.Duration = time.Since(start)
	e.record(entry)
	return entry
}

func (e *Executor) pace(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	if e.limiter.Tokens() < 1 {
		e.metrics.throttleWaits.Inc()
	}
	return e.limiter.Wait(ctx)
}

func (e *Executor) run(ctx context.Context, task Task, w io.Writer) (err error) {
	if task.Op == nil {
		return fmt.Errorf("no operation for %q", task.Description)
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task.Op(ctx, w)
}

func persist(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (e *Executor) record(entry report.Entry) {
	status := string(entry.Status)
	e.metrics.tasksTotal.WithLabelValues(status).Inc()
	e.metrics.taskDuration.WithLabelValues(status).Observe(entry.Duration.Seconds())

	if e.report != nil {
		e.report.Append(entry)
	}

	switch entry.Status {
	case report.StatusSuccess:
		e.ok.Fprint(e.console, "✓ ")
		fmt.Fprintln(e.console, entry.Description)
		slog.Debug("task succeeded", "task", entry.Description, "path", entry.Path, "duration", entry.Duration)
	case report.StatusWarning:
		e.warn.Fprint(e.console, "! ")
		fmt.Fprintf(e.console, "%s: %s\n", entry.Description, entry.Error)
		slog.Warn("task completed with warning", "task", entry.Description, "error", entry.Error)
	default:
		e.fail.Fprint(e.console, "✗ ")
		fmt.Fprintf(e.console, "%s: %s\n", entry.Description, entry.Error)
		slog.Error("task failed", "task", entry.Description, "path", entry.Path, "error", entry.Error)
	}
}
