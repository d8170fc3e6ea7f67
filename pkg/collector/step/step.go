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

// Package step carries the shared run environment of a platform collector
// and the helpers that keep progress in line with executed tasks.
package step

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/anomalo/diagnostics/pkg/executor"
	"github.com/anomalo/diagnostics/pkg/guard"
	"github.com/anomalo/diagnostics/pkg/progress"
	"github.com/anomalo/diagnostics/pkg/report"
)

// Env is what a collector needs to produce artifacts.
type Env struct {
	// Dir is the output directory of the run.
	Dir      string
	Executor *executor.Executor
	Progress *progress.Tracker
	Guard    *guard.Guard
}

// Run executes task, advances progress by one and returns the context
// error when the run was interrupted.
func (e *Env) Run(ctx context.Context, task executor.Task) (report.Entry, error) {
	entry := e.Executor.Execute(ctx, task)
	e.Progress.Step(task.Description)
	return entry, ctx.Err()
}

// RunGroup executes tasks that together make up one unit of progress,
// such as the stdout and stderr halves of a container's logs.
func (e *Env) RunGroup(ctx context.Context, label string, tasks ...executor.Task) ([]report.Entry, error) {
	entries := make([]report.Entry, 0, len(tasks))
	for _, task := range tasks {
		entries = append(entries, e.Executor.Execute(ctx, task))
		if ctx.Err() != nil {
			break
		}
	}
	e.Progress.Step(label)
	return entries, ctx.Err()
}

// Skip advances progress by n without doing any work.
func (e *Env) Skip(n int, label string) {
	e.Progress.Advance(n, label)
}

// Path returns the path of an artifact named name inside the output directory.
func (e *Env) Path(name string) string {
	return filepath.Join(e.Dir, SafeName(name))
}

var unsafe = strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_", "\x00", "")

// SafeName makes name usable as a single path element.
func SafeName(name string) string {
	name = unsafe.Replace(strings.TrimSpace(name))
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "unnamed"
	}
	return name
}
