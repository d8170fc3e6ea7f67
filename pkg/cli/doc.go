// Package cli implements the anomalo-diag command line.
//
// # Usage
//
//	anomalo-diag --domain acme.anomalo.com [--type kubernetes|docker] [--namespace anomalo]
//	             [--output DIR] [--logs 250] [--max-pods 50] [--max-containers 50]
//
// Every flag can also be set through an ANOMALO_DIAG_* environment
// variable (ANOMALO_DIAG_DOMAIN, ANOMALO_DIAG_TYPE, ...). When the domain
// is missing and stdin is a terminal, a short wizard asks for the
// deployment type, the namespace and the domain, offering the same defaults
// as the flags.
//
// # Exit Codes
//
//	0  success, or the operator chose to abort a large collection
//	1  invalid input, missing client, unreachable cluster or daemon,
//	   inaccessible namespace, output or archive failure
//	2  interrupted by a signal
//
// # Registry Upload
//
// --push oci://registry/repository[:tag] uploads the finished archive with
// ORAS. A failed upload is reported but does not fail the run; the local
// archive is kept either way.
package cli
