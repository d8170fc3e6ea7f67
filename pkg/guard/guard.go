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

// Package guard decides how much of a large resource set to collect.
//
// When the number of discovered items (pods, containers) exceeds a ceiling
// the operator picks one of four outcomes. Without an operator the guard
// truncates to the ceiling so automation never blocks.
package guard

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/anomalo/diagnostics/pkg/errors"
	"github.com/anomalo/diagnostics/pkg/prompt"
)

// Decision is the outcome for one resource kind.
type Decision int

const (
	ProceedAll Decision = iota + 1
	TruncateToLimit
	Skip
	Abort
)

func (d Decision) String() string {
	switch d {
	case ProceedAll:
		return "proceed-all"
	case TruncateToLimit:
		return "truncate"
	case Skip:
		return "skip"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// ErrAborted is returned when the operator stops the run.
var ErrAborted = errors.New(errors.ErrCodeCanceled, "collection aborted by operator")

// Limit is a ceiling for one resource kind. Preset marks a ceiling that was
// given explicitly on the command line, which makes the decision
// non-interactive for that kind.
type Limit struct {
	Max    int
	Preset bool
}

// Selector picks which items survive truncation. It returns indices into
// the enumerated list.
type Selector interface {
	Select(n, limit int) []int
}

// FirstN keeps the first limit items in enumeration order.
type FirstN struct{}

// Select implements Selector.
func (FirstN) Select(n, limit int) []int {
	limit = min(n, limit)
	idx := make([]int, limit)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// Option configures a Guard.
type Option func(*Guard)

// WithNonInteractive forces the non-interactive path for every kind.
func WithNonInteractive(v bool) Option {
	return func(g *Guard) {
		g.nonInteractive = v
	}
}

// WithSelector overrides the truncation selector.
func WithSelector(s Selector) Option {
	return func(g *Guard) {
		g.selector = s
	}
}

// WithOutput sets where the option menu is printed.
func WithOutput(w io.Writer) Option {
	return func(g *Guard) {
		g.out = w
	}
}

// Pauser releases the terminal line before a question is asked.
type Pauser interface {
	Pause()
}

// WithPauser sets what is paused before the option menu is printed,
// normally the progress tracker.
func WithPauser(p Pauser) Option {
	return func(g *Guard) {
		g.pauser = p
	}
}

// Guard holds the prompting collaborators.
type Guard struct {
	prompter       prompt.Prompter
	selector       Selector
	out            io.Writer
	pauser         Pauser
	nonInteractive bool
	title          cases.Caser
}

// New returns a Guard asking questions through p.
func New(p prompt.Prompter, opts ...Option) *Guard {
	if p == nil {
		p = prompt.NonInteractive{}
	}
	g := &Guard{
		prompter: p,
		selector: FirstN{},
		out:      os.Stdout,
		title:    cases.Title(language.English),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decide returns the decision for kind given the observed count. Abort is
// always returned together with ErrAborted.
func (g *Guard) Decide(kind string, observed int, limit Limit) (Decision, error) {
	if observed <= limit.Max {
		return ProceedAll, nil
	}

	if limit.Preset || g.nonInteractive || !g.prompter.Interactive() {
		slog.Info("collection ceiling exceeded, truncating",
			"kind", kind, "observed", observed, "limit", limit.Max)
		return TruncateToLimit, nil
	}

	if g.pauser != nil {
		g.pauser.Pause()
	}
	fmt.Fprintf(g.out, "\nFound %d %s, above the limit of %d.\n", observed, kind, limit.Max)
	fmt.Fprintf(g.out, "  1) Collect all %d %s\n", observed, kind)
	fmt.Fprintf(g.out, "  2) Collect the first %d (recommended)\n", limit.Max)
	fmt.Fprintf(g.out, "  3) Skip %s\n", kind)
	fmt.Fprintln(g.out, "  4) Abort the run")

	for {
		answer, err := g.prompter.Ask(fmt.Sprintf("%s: choose [1-4] (default 2): ", g.title.String(kind)))
		if err != nil {
			slog.Warn("no answer from operator, truncating", "kind", kind, "error", err)
			return TruncateToLimit, nil
		}

		switch strings.TrimSpace(answer) {
		case "1":
			return ProceedAll, nil
		case "", "2":
			return TruncateToLimit, nil
		case "3":
			return Skip, nil
		case "4":
			return Abort, ErrAborted
		default:
			fmt.Fprintf(g.out, "Invalid choice %q, enter a number from 1 to 4.\n", answer)
		}
	}
}

// Plan applies d to items. It returns the items to collect and the number
// of items left out, so len(selected)+skipped always equals len(items).
func Plan[T any](g *Guard, d Decision, items []T, limit Limit) (selected []T, skipped int) {
	switch d {
	case ProceedAll:
		return items, 0
	case TruncateToLimit:
		sel := FirstN{}.Select(len(items), limit.Max)
		if g != nil && g.selector != nil {
			sel = g.selector.Select(len(items), limit.Max)
		}
		selected = make([]T, 0, len(sel))
		for _, i := range sel {
			if i >= 0 && i < len(items) {
				selected = append(selected, items[i])
			}
		}
		return selected, len(items) - len(selected)
	default:
		return nil, len(items)
	}
}
