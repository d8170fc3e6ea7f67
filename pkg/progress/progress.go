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

// Package progress renders a single evolving status line for a collection run.
//
// The tracker owns the bar line on its output. Anything else that writes to
// the same terminal (slog, executor echoes) should go through Writer so the
// bar is cleared before the line and redrawn after it.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Segments is the fixed width of the bar.
const Segments = 20

const clearLine = "\r\033[K"

// Tracker tracks the number of completed steps against a discovered total.
type Tracker struct {
	mu        sync.Mutex
	out       io.Writer
	overwrite bool
	total     int
	current   int
	label     string
	drawn     bool
}

// New returns a Tracker writing to out. With overwrite set each render
// replaces the previous one in place; otherwise every render is its own line.
func New(out io.Writer, overwrite bool) *Tracker {
	return &Tracker{
		out:       out,
		overwrite: overwrite,
		total:     1,
	}
}

// Init resets the tracker for a run of total steps. A total below one is
// treated as one.
func (t *Tracker) Init(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total = max(1, total)
	t.current = 0
	t.label = ""
	t.render()
}

// Step marks one step as done.
func (t *Tracker) Step(label string) {
	t.Advance(1, label)
}

// Advance marks n steps as done at once, used when a batch of items is
// skipped or truncated.
func (t *Tracker) Advance(n int, label string) {
	if n <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.current += n
	if t.current > t.total {
		slog.Debug("progress overstepped", "current", t.current, "total", t.total, "label", label)
		t.current = t.total
	}
	t.label = label
	t.render()
}

// Complete forces a final 100% render and releases the line.
func (t *Tracker) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current = t.total
	t.label = "done"
	t.render()
	if t.overwrite && t.drawn {
		fmt.Fprintln(t.out)
	}
	t.drawn = false
}

// Pause clears a drawn bar so the next output starts on a clean line. The
// bar returns with the next step.
func (t *Tracker) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.overwrite && t.drawn {
		fmt.Fprint(t.out, clearLine)
		t.drawn = false
	}
}

// Position returns the current and total step counts.
func (t *Tracker) Position() (current, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.total
}

// Writer wraps w so each write clears the bar first and redraws it after.
func (t *Tracker) Writer(w io.Writer) io.Writer {
	return &interleaved{tracker: t, dst: w}
}

func (t *Tracker) render() {
	line := Render(t.current, t.total, t.label)
	if t.overwrite {
		fmt.Fprint(t.out, clearLine+line)
		t.drawn = true
		return
	}
	fmt.Fprintln(t.out, line)
}

// Render formats a bar for current of total steps.
func Render(current, total int, label string) string {
	total = max(1, total)
	current = min(max(0, current), total)

	filled := current * Segments / total
	pct := current * 100 / total

	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(strings.Repeat("#", filled))
	b.WriteString(strings.Repeat("-", Segments-filled))
	fmt.Fprintf(&b, "] %3d%% (%d/%d)", pct, current, total)
	if label != "" {
		b.WriteByte(' ')
		b.WriteString(label)
	}
	return b.String()
}

type interleaved struct {
	tracker *Tracker
	dst     io.Writer
}

func (i *interleaved) Write(p []byte) (int, error) {
	t := i.tracker
	t.mu.Lock()
	defer t.mu.Unlock()

	redraw := t.overwrite && t.drawn
	if redraw {
		fmt.Fprint(t.out, clearLine)
	}
	n, err := i.dst.Write(p)
	if redraw {
		fmt.Fprint(t.out, clearLine+Render(t.current, t.total, t.label))
	}
	return n, err
}
