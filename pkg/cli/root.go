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

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/anomalo/diagnostics/pkg/collector"
	"github.com/anomalo/diagnostics/pkg/config"
	"github.com/anomalo/diagnostics/pkg/errors"
	"github.com/anomalo/diagnostics/pkg/logging"
	"github.com/anomalo/diagnostics/pkg/progress"
	"github.com/anomalo/diagnostics/pkg/prompt"
	"github.com/anomalo/diagnostics/pkg/session"
)

const (
	name           = "anomalo-diag"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// runFunc runs a validated collection.
type runFunc func(ctx context.Context, s *session.Session, cfg *config.RunConfig) (*session.Result, error)

// app binds the command to its terminal.
type app struct {
	in          io.Reader
	out         io.Writer
	errOut      io.Writer
	interactive bool
	run         runFunc
}

func newApp() *app {
	return &app{
		in:          os.Stdin,
		out:         os.Stdout,
		errOut:      os.Stderr,
		interactive: prompt.IsTerminal(os.Stdin),
		run: func(ctx context.Context, s *session.Session, cfg *config.RunConfig) (*session.Result, error) {
			return s.Run(ctx, cfg)
		},
	}
}

// Execute runs the command line and exits with the run's exit code.
// This is called by main.main().
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, removing partial output...")
		cancel()
	}()

	a := newApp()
	err := a.command().Run(ctx, os.Args)
	code := errors.ExitCode(err)
	if err != nil && code != errors.ExitOK {
		color.New(color.FgRed).Fprint(os.Stderr, "Error: ")
		fmt.Fprintln(os.Stderr, err)
	}
	cancel()
	os.Exit(code)
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Collect a diagnostics archive from an Anomalo deployment",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Description: `Collects cluster or host state, pod or container logs, configuration
objects and the application health-check metrics into a single zip archive
that can be sent to Anomalo support.

Kubernetes:
  anomalo-diag --domain acme.anomalo.com --namespace anomalo

Docker:
  anomalo-diag --type docker --domain acme.anomalo.com

Large namespaces or hosts trigger a prompt above --max-pods or
--max-containers. Without a terminal, or when the ceiling is given on the
command line, the collection is truncated to the ceiling.`,
		Flags:  rootFlags(),
		Writer: a.out,
		Action: a.action,
	}
}

func (a *app) action(ctx context.Context, cmd *cli.Command) error {
	in := parseInput(cmd)

	interactive := a.interactive && !in.NonInteractive
	console := prompt.NewConsole(a.in, a.out, interactive)

	if interactive {
		if err := runWizard(console, cmd, &in); err != nil {
			return err
		}
	}

	tracker := progress.New(a.out, interactive && prompt.IsTerminal(os.Stdout))
	logging.SetDefaultLogger(tracker.Writer(a.errOut), cmd.String("log-format"), name, version, cmd.String("log-level"))
	slog.Debug("starting", "name", name, "version", version, "commit", commit, "date", date)

	cfg, advisories, err := config.Validate(in, config.ValidateOptions{Prompter: console})
	for _, msg := range advisories {
		color.New(color.FgYellow).Fprint(a.out, "! ")
		fmt.Fprintln(a.out, msg)
	}
	if err != nil {
		return err
	}

	s := &session.Session{
		Version: version,
		Factory: collector.NewDefaultFactory(
			collector.WithVersion(version),
			collector.WithKubeThrottle(float32(cmd.Float("kube-qps")), int(cmd.Int("kube-burst"))),
		),
		Prompter: console,
		Console:  a.out,
		Progress: tracker,
	}

	_, err = a.run(ctx, s, cfg)
	return err
}

// parseInput reads the raw operator values from flags and environment.
func parseInput(cmd *cli.Command) config.Input {
	return config.Input{
		Type:                cmd.String("type"),
		Namespace:           cmd.String("namespace"),
		Domain:              cmd.String("domain"),
		Output:              cmd.String("output"),
		LogLines:            int(cmd.Int("logs")),
		MaxPods:             int(cmd.Int("max-pods")),
		MaxContainers:       int(cmd.Int("max-containers")),
		MaxPodsPreset:       cmd.IsSet("max-pods"),
		MaxContainersPreset: cmd.IsSet("max-containers"),
		Kubeconfig:          cmd.String("kubeconfig"),
		KubeContext:         cmd.String("context"),
		IncludeSecret:       cmd.String("include-secret"),
		NonInteractive:      cmd.Bool("non-interactive"),
		Force:               cmd.Bool("force"),
		RequestsPerSecond:   float64(cmd.Float("qps")),
		TaskTimeout:         cmd.Duration("task-timeout"),
		Push:                cmd.String("push"),
		PlainHTTP:           cmd.Bool("plain-http"),
		InsecureTLS:         cmd.Bool("insecure-tls"),
	}
}
