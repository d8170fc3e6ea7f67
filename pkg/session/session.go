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

package session

import (
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

	"github.com/anomalo/diagnostics/pkg/archive"
	"github.com/anomalo/diagnostics/pkg/collector"
	"github.com/anomalo/diagnostics/pkg/collector/step"
	"github.com/anomalo/diagnostics/pkg/config"
	"github.com/anomalo/diagnostics/pkg/defaults"
	"github.com/anomalo/diagnostics/pkg/errors"
	"github.com/anomalo/diagnostics/pkg/executor"
	"github.com/anomalo/diagnostics/pkg/guard"
	"github.com/anomalo/diagnostics/pkg/health"
	"github.com/anomalo/diagnostics/pkg/oci"
	"github.com/anomalo/diagnostics/pkg/progress"
	"github.com/anomalo/diagnostics/pkg/prompt"
	"github.com/anomalo/diagnostics/pkg/report"
)

// Pusher uploads a finished archive.
type Pusher func(ctx context.Context, opts oci.PushOptions) (*oci.PushResult, error)

// Result describes a finished run.
type Result struct {
	RunID       string
	ArchivePath string
	Files       int
	Counts      map[report.Status]int
	Duration    time.Duration
	// Pushed is set when the archive was uploaded to a registry.
	Pushed *oci.PushResult
}

// Session holds the collaborators of a run. Zero fields get production
// defaults.
type Session struct {
	// Version is recorded in the report and the client user agents.
	Version string

	// Factory creates the platform collector. Defaults to collector.NewDefaultFactory.
	Factory collector.Factory

	// Prompter answers the large-collection guard. Defaults to prompt.NonInteractive.
	Prompter prompt.Prompter

	// Console receives task echoes and the final instructions. Defaults to os.Stdout.
	Console io.Writer

	// Progress renders the run progress. Defaults to a line-per-step tracker on Console.
	Progress *progress.Tracker

	// Fetcher fetches the health-check metrics. Defaults to health.NewFetcher.
	Fetcher *health.Fetcher

	// Push uploads the archive when the run has a push target. Defaults to oci.Push.
	Push Pusher
}

func (s *Session) setDefaults() {
	if s.Factory == nil {
		s.Factory = collector.NewDefaultFactory(collector.WithVersion(s.Version))
	}
	if s.Prompter == nil {
		s.Prompter = prompt.NonInteractive{}
	}
	if s.Console == nil {
		s.Console = os.Stdout
	}
	if s.Progress == nil {
		s.Progress = progress.New(s.Console, false)
	}
	if s.Fetcher == nil {
		s.Fetcher = health.NewFetcher(health.WithUserAgent(userAgent(s.Version)))
	}
	if s.Push == nil {
		s.Push = oci.Push
	}
}

func userAgent(version string) string {
	if version == "" {
		return health.UserAgent
	}
	return "anomalo-diag/" + version
}

// Run executes the whole collection for cfg. The returned error carries
// an errors.ErrorCode; guard.ErrAborted is returned when the operator
// stopped the run.
func (s *Session) Run(ctx context.Context, cfg *config.RunConfig) (*Result, error) {
	s.setDefaults()
	start := time.Now()

	var target *oci.Reference
	if cfg.Push != "" {
		ref, err := oci.ParseReference(cfg.Push)
		if err != nil {
			return nil, err
		}
		target = ref
	}

	col, err := collector.New(s.Factory, cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := col.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil {
				slog.Debug("failed to close collector", "collector", col.Name(), "error", cerr)
			}
		}()
	}

	slog.Info("running preflight checks", "type", cfg.Type, "namespace", cfg.Namespace)
	if err := col.Preflight(ctx); err != nil {
		return nil, err
	}

	hook, err := createOutputDir(cfg)
	if err != nil {
		return nil, err
	}
	defer hook.run()

	console := s.Progress.Writer(s.Console)
	rep := report.New(report.Meta{
		Version:        s.Version,
		DeploymentType: string(cfg.Type),
		Namespace:      cfg.Namespace,
		Domain:         cfg.Domain,
	})
	exec := executor.New(rep,
		executor.WithConsole(console),
		executor.WithLimiter(newLimiter(cfg.RequestsPerSecond)),
		executor.WithTaskTimeout(cfg.TaskTimeout),
	)
	env := &step.Env{
		Dir:      cfg.OutputDir,
		Executor: exec,
		Progress: s.Progress,
		Guard: guard.New(s.Prompter,
			guard.WithNonInteractive(cfg.NonInteractive),
			guard.WithOutput(console),
			guard.WithPauser(s.Progress),
		),
	}

	slog.Info("collecting diagnostics", "collector", col.Name(), "run", rep.RunID(), "dir", cfg.OutputDir)
	if err := col.Collect(ctx, env); err != nil {
		if stderrors.Is(err, guard.ErrAborted) {
			fmt.Fprintln(s.Console, "Collection aborted, partial output removed.")
			return nil, err
		}
		return nil, fmt.Errorf("collection interrupted: %w", err)
	}
	s.Progress.Complete()

	exec.Execute(ctx, s.Fetcher.Task(cfg.Domain, env.Path(defaults.MetricsFileName)))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collection interrupted: %w", err)
	}

	rep.Finish()
	s.writeBookkeeping(ctx, cfg.OutputDir, rep, exec.Metrics())

	files, err := archive.Zip(ctx, cfg.OutputDir, cfg.ArchivePath())
	if err != nil {
		if ctx.Err() == nil {
			// The collected data is still useful without the zip.
			hook.disarm()
		}
		return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to create archive", err,
			map[string]any{"archive": cfg.ArchivePath(), "dir": cfg.OutputDir})
	}
	hook.disarm()

	if err := os.RemoveAll(cfg.OutputDir); err != nil {
		slog.Warn("failed to remove uncompressed output", "dir", cfg.OutputDir, "error", err)
	}

	res := &Result{
		RunID:       rep.RunID(),
		ArchivePath: cfg.ArchivePath(),
		Files:       files,
		Counts:      rep.Counts(),
	}

	if target != nil {
		res.Pushed = s.push(ctx, cfg, target)
	}

	res.Duration = time.Since(start)
	s.printFinal(res)
	return res, nil
}

// writeBookkeeping writes the report, the summary, the run metrics and
// the checksums. None of them is fatal: the archive is still produced.
func (s *Session) writeBookkeeping(ctx context.Context, dir string, rep *report.Report, m *executor.Metrics) {
	if _, err := rep.WriteStructured(ctx, dir); err != nil {
		slog.Warn("failed to write run report", "error", err)
	}
	if _, err := rep.WriteSummary(dir); err != nil {
		slog.Warn("failed to write summary", "error", err)
	}
	if err := m.WriteTextfile(filepath.Join(dir, defaults.RunStatsFileName)); err != nil {
		slog.Warn("failed to write run metrics", "error", err)
	}
	if _, err := archive.Checksums(ctx, dir); err != nil {
		slog.Warn("failed to write checksums", "error", err)
	}
}

func (s *Session) push(ctx context.Context, cfg *config.RunConfig, target *oci.Reference) *oci.PushResult {
	if target.Tag == "" {
		tag := filepath.Base(cfg.OutputDir)
		if !oci.ValidTag(tag) {
			tag = config.DefaultOutputName(time.Now())
		}
		target = target.WithTag(tag)
	}

	res, err := s.Push(ctx, oci.PushOptions{
		FilePath:    cfg.ArchivePath(),
		Reference:   target,
		PlainHTTP:   cfg.PlainHTTP,
		InsecureTLS: cfg.InsecureTLS,
		Timeout:     defaults.OCIPushTimeout,
		Annotations: map[string]string{
			"org.opencontainers.image.version": s.Version,
			"com.anomalo.diagnostics.type":     string(cfg.Type),
			"com.anomalo.diagnostics.domain":   cfg.Domain,
		},
	})
	if err != nil {
		slog.Warn("failed to push archive", "reference", target.ImageReference(), "error", err)
		color.New(color.FgYellow).Fprint(s.Console, "! ")
		fmt.Fprintf(s.Console, "push to %s failed, the local archive is kept: %v\n", target.String(), err)
		return nil
	}
	return res
}

func (s *Session) printFinal(res *Result) {
	bold := color.New(color.Bold)

	fmt.Fprintln(s.Console)
	bold.Fprint(s.Console, "Diagnostics archive: ")
	fmt.Fprintln(s.Console, res.ArchivePath)
	fmt.Fprintf(s.Console, "Tasks: %d succeeded, %d failed, %d warnings\n",
		res.Counts[report.StatusSuccess], res.Counts[report.StatusFailure], res.Counts[report.StatusWarning])
	if res.Pushed != nil {
		fmt.Fprintf(s.Console, "Pushed: %s@%s\n", res.Pushed.Reference, res.Pushed.Digest)
	}
	fmt.Fprintf(s.Console, "Please send this archive to %s together with a short description of the issue.\n",
		defaults.SupportContact)
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
}

// cleanupHook removes the output directory unless disarmed.
type cleanupHook struct {
	dir   string
	armed bool
}

func createOutputDir(cfg *config.RunConfig) (*cleanupHook, error) {
	if cfg.Overwrite {
		if err := os.RemoveAll(cfg.OutputDir); err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to replace output directory", err,
				map[string]any{"dir": cfg.OutputDir})
		}
	}
	if err := os.Mkdir(cfg.OutputDir, 0o755); err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to create output directory", err,
			map[string]any{"dir": cfg.OutputDir})
	}
	return &cleanupHook{dir: cfg.OutputDir, armed: true}, nil
}

func (h *cleanupHook) disarm() {
	h.armed = false
}

func (h *cleanupHook) run() {
	if !h.armed {
		return
	}
	if err := os.RemoveAll(h.dir); err != nil {
		slog.Warn("failed to remove partial output", "dir", h.dir, "error", err)
		return
	}
	slog.Debug("removed partial output", "dir", h.dir)
}
