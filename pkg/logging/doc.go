// Package logging configures log/slog for the diagnostics collector.
//
// Loggers carry module and version attributes on every record. Levels are
// debug, info, warn (or warning) and error, case-insensitive; anything else
// maps to info. Debug records include the source location.
//
// The CLI installs the default logger once, on a writer handed out by the
// progress tracker so records never land in the middle of a bar render:
//
//	logging.SetDefaultLogger(tracker.Writer(os.Stderr), logging.FormatText,
//		"anomalo-diag", version, level)
//
// An empty level falls back to the LOG_LEVEL environment variable. Pass
// --log-format json to get the JSON handler on the same writer.
package logging
