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

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// EnvVarLogLevel is the environment variable consulted when no explicit level is given.
	EnvVarLogLevel = "LOG_LEVEL"

	// FormatJSON and FormatText select the handler used by the CLI.
	FormatJSON = "json"
	FormatText = "text"
)

// ParseLogLevel converts a level name to slog.Level. Unknown or empty
// values map to INFO.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func levelFromEnv() string {
	return os.Getenv(EnvVarLogLevel)
}

// NewTextLogger returns a text logger writing to w.
func NewTextLogger(w io.Writer, module, version, level string) *slog.Logger {
	return newLogger(w, FormatText, module, version, level)
}

func newLogger(w io.Writer, format, module, version, level string) *slog.Logger {
	lvl := ParseLogLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	}

	var h slog.Handler
	if format == FormatText {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	return slog.New(h).With(
		slog.String("module", module),
		slog.String("version", version),
	)
}

// SetDefaultLogger installs a logger of the given format on w. An empty
// level falls back to LOG_LEVEL.
func SetDefaultLogger(w io.Writer, format, module, version, level string) {
	if level == "" {
		level = levelFromEnv()
	}
	slog.SetDefault(newLogger(w, format, module, version, level))
}
