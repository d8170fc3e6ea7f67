// Package archive seals an output directory for transfer: a SHA-256
// manifest of its files and a zip archive that contains the directory
// itself, so extracting it recreates the original tree.
package archive
