// Package oci uploads a finished diagnostics archive to an OCI registry.
//
// The zip is pushed with ORAS as a single layer of media type
// ArchiveMediaType under a manifest of ArtifactType, so support can pull
// it with any OCI client:
//
//	oras pull ghcr.io/acme/diagnostics:<tag>
//
// Targets use the oci:// scheme (oci://registry/repository[:tag]).
// Credentials are read from the Docker configuration (~/.docker/config.json)
// through the ORAS credentials package. PlainHTTP and InsecureTLS cover
// local and self-signed registries.
package oci
