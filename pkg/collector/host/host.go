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

package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/anomalo/diagnostics/pkg/collector/step"
	"github.com/anomalo/diagnostics/pkg/executor"
)

// Collector gathers host-level facts.
type Collector struct {
	runner       Runner
	probe        Probe
	readUnits    UnitReader
	units        []string
	releasePaths []string
}

// Option configures a Collector.
type Option func(*Collector)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(c *Collector) {
		c.runner = r
	}
}

// WithProbe replaces the gopsutil probe.
func WithProbe(p Probe) Option {
	return func(c *Collector) {
		c.probe = p
	}
}

// WithUnits sets which systemd units are reported and how they are read.
func WithUnits(read UnitReader, units ...string) Option {
	return func(c *Collector) {
		c.readUnits = read
		if len(units) > 0 {
			c.units = units
		}
	}
}

// New returns a Collector that uses the local machine.
func New(opts ...Option) *Collector {
	c := &Collector{
		runner:       ExecRunner{},
		probe:        PsutilProbe{},
		readUnits:    SystemdUnits,
		units:        DefaultUnits,
		releasePaths: releasePaths,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tasks returns the host tasks in collection order.
func (c *Collector) Tasks(env *step.Env) []executor.Task {
	return []executor.Task{
		{Description: "host operating system", OutputPath: env.Path("os_info.txt"), Op: c.writeOS},
		{Description: "host cpu", OutputPath: env.Path("cpu_info.txt"), Op: c.writeCPU},
		{Description: "host memory", OutputPath: env.Path("memory_info.txt"), Op: c.writeMemory},
		{Description: "host disk", OutputPath: env.Path("disk_info.txt"), Op: c.writeDisk},
		{Description: "host network", OutputPath: env.Path("network_info.txt"), Op: c.writeNetwork},
		{Description: "host summary", OutputPath: env.Path("host_summary.json"), Op: c.writeSummary, Structured: true},
		{Description: "container runtime units", OutputPath: env.Path("runtime_units.txt"), Op: c.writeUnits},
	}
}

// Collect runs the host phase as its own progress phase.
func (c *Collector) Collect(ctx context.Context, env *step.Env) error {
	tasks := c.Tasks(env)
	env.Progress.Init(len(tasks))
	for _, task := range tasks {
		if _, err := env.Run(ctx, task); err != nil {
			return err
		}
	}
	env.Progress.Complete()
	return nil
}

// source is one way of producing a section: a command, or a file when
// path is set.
type source struct {
	name string
	args []string
	path string
}

func cmd(name string, args ...string) source {
	return source{name: name, args: args}
}

func file(path string) source {
	return source{path: path}
}

func (s source) String() string {
	if s.path != "" {
		return s.path
	}
	return commandLine(s.name, s.args)
}

// section is a titled part of an artifact. Sources are tried in order and
// fallback runs when none of them produced output.
type section struct {
	title    string
	sources  []source
	fallback func(ctx context.Context, w io.Writer) error
}

func (c *Collector) writeSections(ctx context.Context, w io.Writer, sections ...section) error {
	var missing []error
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := c.writeSection(ctx, w, s); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			missing = append(missing, err)
		}
	}
	if len(missing) > 0 {
		return executor.Advisory(errors.Join(missing...))
	}
	return nil
}

func (c *Collector) writeSection(ctx context.Context, w io.Writer, s section) error {
	fmt.Fprintf(w, "==> %s <==\n", s.title)

	var tried []string
	for _, src := range s.sources {
		out, err := c.read(ctx, src)
		if err != nil {
			slog.Debug("host source unavailable", "section", s.title, "source", src.String(), "error", err)
			tried = append(tried, err.Error())
			continue
		}
		fmt.Fprintf(w, "$ %s\n", src)
		writeBlock(w, out)
		return nil
	}

	if s.fallback != nil {
		err := s.fallback(ctx, w)
		if err == nil {
			return nil
		}
		tried = append(tried, "gopsutil: "+err.Error())
	}

	fmt.Fprintf(w, "unavailable: %s\n", strings.Join(tried, "; "))
	return fmt.Errorf("no source for %s", s.title)
}

func (c *Collector) read(ctx context.Context, src source) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.path != "" {
		return c.runner.ReadFile(src.path)
	}
	if _, err := c.runner.LookPath(src.name); err != nil {
		return nil, fmt.Errorf("%s not installed", src.name)
	}
	return c.runner.Run(ctx, src.name, src.args...)
}

func writeBlock(w io.Writer, out []byte) {
	_, _ = w.Write(out)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		fmt.Fprintln(w)
	}
}
