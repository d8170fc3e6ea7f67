// Package session drives one diagnostic collection run from a validated
// configuration to a finished archive.
//
// The sequence is fixed: build the platform collector, run its preflight
// checks, create the output directory, collect, fetch the health-check
// metrics, write the run report and summary, checksum, zip, remove the
// uncompressed directory and optionally push the archive to an OCI
// registry.
//
// Nothing is written before preflight succeeds. Once the output directory
// exists, any exit other than a finished archive (interrupt, operator
// abort, fatal error) removes it, so half-collected secrets never stay on
// disk uncompressed. A failed zip keeps the directory so nothing is lost.
package session
