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

// Package prompt reads operator answers from the terminal.
//
// All interactive input in the collector (wizard values, overwrite
// confirmation, large-collection decisions) goes through the Prompter
// interface so tests can script the answers.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Prompter asks the operator questions.
type Prompter interface {
	// Interactive reports whether a human can answer.
	Interactive() bool
	// Ask prints question and returns the trimmed answer line.
	// io.EOF is returned when input is closed before a line is read.
	Ask(question string) (string, error)
	// Confirm asks a yes/no question; only "y" and "yes" count as yes.
	Confirm(question string) (bool, error)
}

// Console is a Prompter over a reader/writer pair.
type Console struct {
	mu          sync.Mutex
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// NewConsole returns a Console reading from in and writing prompts to out.
func NewConsole(in io.Reader, out io.Writer, interactive bool) *Console {
	return &Console{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
	}
}

// NewStdConsole returns a Console bound to stdin/stdout. It is interactive
// only when stdin is a terminal.
func NewStdConsole() *Console {
	return NewConsole(os.Stdin, os.Stdout, IsTerminal(os.Stdin))
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Interactive implements Prompter.
func (c *Console) Interactive() bool {
	return c.interactive
}

// Ask implements Prompter.
func (c *Console) Ask(question string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprint(c.out, question)
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm implements Prompter.
func (c *Console) Confirm(question string) (bool, error) {
	answer, err := c.Ask(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// AskDefault asks question showing def and returns def when the answer is empty.
func AskDefault(p Prompter, question, def string) (string, error) {
	label := question + ": "
	if def != "" {
		label = fmt.Sprintf("%s [%s]: ", question, def)
	}
	answer, err := p.Ask(label)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// NonInteractive is a Prompter that refuses every question.
type NonInteractive struct{}

// Interactive implements Prompter.
func (NonInteractive) Interactive() bool { return false }

// Ask implements Prompter.
func (NonInteractive) Ask(string) (string, error) { return "", io.EOF }

// Confirm implements Prompter.
func (NonInteractive) Confirm(string) (bool, error) { return false, nil }
