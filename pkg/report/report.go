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

// Package report records the outcome of every artifact task in a run and
// renders the human summary and the structured run report.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anomalo/diagnostics/pkg/defaults"
	"github.com/anomalo/diagnostics/pkg/serializer"
)

// Status is the result class of one task.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusWarning Status = "warning"
)

// Entry is the outcome of one artifact task.
type Entry struct {
	Description string        `yaml:"description"`
	Path        string        `yaml:"path"`
	Status      Status        `yaml:"status"`
	Error       string        `yaml:"error,omitempty"`
	Duration    time.Duration `yaml:"duration"`
}

// Meta describes the run.
type Meta struct {
	Version        string `yaml:"version"`
	DeploymentType string `yaml:"type"`
	Namespace      string `yaml:"namespace,omitempty"`
	Domain         string `yaml:"domain"`
}

// Report is an append-only, ordered record of task outcomes.
type Report struct {
	mu       sync.Mutex
	runID    string
	meta     Meta
	started  time.Time
	finished time.Time
	entries  []Entry
	dropped  map[string]bool
}

// New starts a report for a run.
func New(meta Meta) *Report {
	return &Report{
		runID:   uuid.NewString(),
		meta:    meta,
		started: time.Now().UTC(),
	}
}

// RunID returns the unique id of this run.
func (r *Report) RunID() string {
	return r.runID
}

// Append records an outcome. Entries are never modified once appended.
func (r *Report) Append(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// Entries returns a copy of the recorded outcomes in order.
func (r *Report) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Discard records that the artifacts at paths were removed after
// collection, so the summary no longer lists them.
func (r *Report) Discard(paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dropped == nil {
		r.dropped = map[string]bool{}
	}
	for _, p := range paths {
		r.dropped[p] = true
	}
}

func (r *Report) discarded() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool, len(r.dropped))
	for k := range r.dropped {
		out[k] = true
	}
	return out
}

// Counts returns the number of entries per status.
func (r *Report) Counts() map[Status]int {
	counts := map[Status]int{}
	for _, e := range r.Entries() {
		counts[e.Status]++
	}
	return counts
}

// Finish stamps the end time of the run.
func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = time.Now().UTC()
}

// WriteSummary writes the plain-text summary into dir and returns its path.
// Artifact paths are listed relative to dir.
func (r *Report) WriteSummary(dir string) (string, error) {
	path := filepath.Join(dir, defaults.SummaryFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create summary: %w", err)
	}
	defer f.Close()

	if err := r.render(f, dir); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}

func (r *Report) render(w io.Writer, dir string) error {
	entries := r.Entries()
	counts := r.Counts()

	r.mu.Lock()
	started, finished := r.started, r.finished
	r.mu.Unlock()
	if finished.IsZero() {
		finished = time.Now().UTC()
	}

	var b strings.Builder
	b.WriteString("Anomalo Diagnostic Summary\n")
	b.WriteString("==========================\n\n")
	fmt.Fprintf(&b, "Run ID:          %s\n", r.runID)
	fmt.Fprintf(&b, "Tool version:    %s\n", r.meta.Version)
	fmt.Fprintf(&b, "Deployment type: %s\n", r.meta.DeploymentType)
	if r.meta.Namespace != "" {
		fmt.Fprintf(&b, "Namespace:       %s\n", r.meta.Namespace)
	}
	fmt.Fprintf(&b, "Domain:          %s\n", r.meta.Domain)
	fmt.Fprintf(&b, "Started:         %s\n", started.Format(time.RFC3339))
	fmt.Fprintf(&b, "Finished:        %s\n", finished.Format(time.RFC3339))
	fmt.Fprintf(&b, "Tasks:           %d (%d succeeded, %d failed, %d warnings)\n\n",
		len(entries), counts[StatusSuccess], counts[StatusFailure], counts[StatusWarning])

	b.WriteString("Collected Files\n")
	b.WriteString("---------------\n")
	for _, p := range collectedPaths(entries, dir, r.discarded()) {
		fmt.Fprintf(&b, "  %s\n", p)
	}

	var problems []Entry
	for _, e := range entries {
		if e.Status != StatusSuccess {
			problems = append(problems, e)
		}
	}
	if len(problems) > 0 {
		b.WriteString("\nFailures and Warnings\n")
		b.WriteString("---------------------\n")
		for _, e := range problems {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", e.Status, e.Description, e.Error)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// collectedPaths returns the unique artifact paths relative to dir, in
// the order they were first recorded.
func collectedPaths(entries []Entry, dir string, dropped map[string]bool) []string {
	seen := map[string]bool{}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Path == "" || dropped[e.Path] {
			continue
		}
		p := e.Path
		if rel, err := filepath.Rel(dir, p); err == nil {
			p = rel
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	return paths
}

type structured struct {
	RunID     string         `yaml:"runId"`
	Meta      Meta           `yaml:"meta"`
	Started   time.Time      `yaml:"started"`
	Finished  time.Time      `yaml:"finished"`
	Counts    map[Status]int `yaml:"counts"`
	Entries   []Entry        `yaml:"entries"`
	Discarded []string       `yaml:"discarded,omitempty"`
}

// WriteStructured writes the machine-readable report into dir and returns its path.
func (r *Report) WriteStructured(ctx context.Context, dir string) (string, error) {
	entries := r.Entries()
	for i := range entries {
		if rel, err := filepath.Rel(dir, entries[i].Path); err == nil && entries[i].Path != "" {
			entries[i].Path = rel
		}
	}

	r.mu.Lock()
	doc := structured{
		RunID:    r.runID,
		Meta:     r.meta,
		Started:  r.started,
		Finished: r.finished,
		Entries:  entries,
	}
	r.mu.Unlock()
	doc.Counts = r.Counts()
	for p := range r.discarded() {
		if rel, err := filepath.Rel(dir, p); err == nil {
			p = rel
		}
		doc.Discarded = append(doc.Discarded, p)
	}
	sort.Strings(doc.Discarded)

	path := filepath.Join(dir, defaults.ReportFileName)
	if err := serializer.WriteToFile(ctx, path, doc); err != nil {
		return "", err
	}
	return path, nil
}
