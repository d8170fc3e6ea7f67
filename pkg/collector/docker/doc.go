// Package docker collects diagnostics from a Docker Engine host.
//
// A run first gathers host facts (see package host) as its own progress
// phase, then talks to the daemon through the Engine API: daemon info,
// container, compose project, image, volume and network listings, disk
// usage and version, followed by per-container logs and inspect output.
// Each per-container pass is gated by the large-collection guard on its
// own, and files that end up empty are removed at the end.
//
// The collector depends on the API interface rather than the SDK client
// so it can run against a fake in tests; NewEngine adapts the SDK.
package docker
