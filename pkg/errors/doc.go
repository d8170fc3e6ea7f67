// Package errors provides structured error types for the diagnostics
// collector and maps them onto process exit codes.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeUnavailable,
//	    "kubernetes API server is not reachable",
//	    err,
//	    map[string]any{
//	        "namespace": ns,
//	    },
//	)
//
// Fatal conditions (invalid input, unreachable control plane, missing
// tooling) are reported through StructuredError. Per-artifact failures never
// surface here; the executor records them in the run report instead.
package errors
