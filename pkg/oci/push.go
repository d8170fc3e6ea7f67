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

package oci

import (
	"context"
	"crypto/tls"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"path/filepath"
	"time"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	apperrors "github.com/anomalo/diagnostics/pkg/errors"
)

const (
	// ArtifactType identifies a diagnostics bundle manifest.
	ArtifactType = "application/vnd.anomalo.diagnostics.v1"

	// ArchiveMediaType is the media type of the single zip layer.
	ArchiveMediaType = "application/vnd.anomalo.diagnostics.archive.v1+zip"
)

// PushOptions configures the upload of one archive.
type PushOptions struct {
	// FilePath is the zip archive to upload.
	FilePath string
	// Reference is the destination; its tag must be set.
	Reference *Reference
	// PlainHTTP uses HTTP instead of HTTPS for the registry connection.
	PlainHTTP bool
	// InsecureTLS skips TLS certificate verification.
	InsecureTLS bool
	// Timeout bounds the whole upload. Zero means no bound.
	Timeout time.Duration
	// Annotations are added to the manifest.
	Annotations map[string]string
}

// PushResult describes a successful upload.
type PushResult struct {
	// Digest is the digest of the pushed manifest.
	Digest string
	// Reference is the full image reference (registry/repository:tag).
	Reference string
}

// Push uploads the archive at opts.FilePath as a single-layer OCI artifact
// using ORAS. Registry credentials come from the Docker configuration.
func Push(ctx context.Context, opts PushOptions) (*PushResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	repo, err := remote.NewRepository(opts.Reference.Registry + "/" + opts.Reference.Repository)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = createAuthClient(opts.PlainHTTP, opts.InsecureTLS)

	return push(ctx, opts, repo)
}

func (o PushOptions) validate() error {
	if o.Reference == nil {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "push reference is required")
	}
	if o.Reference.Tag == "" {
		return apperrors.New(apperrors.ErrCodeInvalidRequest, "tag is required to push OCI artifact")
	}
	if !ValidTag(o.Reference.Tag) {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest, "invalid tag",
			map[string]any{"tag": o.Reference.Tag})
	}
	if err := ValidateRegistryReference(o.Reference.Registry, o.Reference.Repository); err != nil {
		return err
	}
	info, err := os.Stat(o.FilePath)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeNotFound, "archive to push is not readable", err)
	}
	if info.IsDir() {
		return apperrors.NewWithContext(apperrors.ErrCodeInvalidRequest, "archive to push is a directory",
			map[string]any{"path": o.FilePath})
	}
	return nil
}

// push packs the archive in a file store and copies it to dst.
func push(ctx context.Context, opts PushOptions, dst oras.Target) (*PushResult, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	absPath, err := filepath.Abs(opts.FilePath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to resolve archive path", err)
	}

	fs, err := file.New(filepath.Dir(absPath))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to create file store", err)
	}
	defer func() { _ = fs.Close() }()

	layer, err := fs.Add(ctx, filepath.Base(absPath), ArchiveMediaType, absPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to add archive to store", err)
	}

	// The title stays on the layer only; the file store rejects a second
	// descriptor carrying the same name.
	annotations := map[string]string{
		ociv1.AnnotationCreated: time.Now().UTC().Format(time.RFC3339),
		ociv1.AnnotationVendor:  "Anomalo",
	}
	maps.Copy(annotations, opts.Annotations)

	manifest, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType, oras.PackManifestOptions{
		Layers:              []ociv1.Descriptor{layer},
		ManifestAnnotations: annotations,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to pack manifest", err)
	}

	tag := opts.Reference.Tag
	if err := fs.Tag(ctx, manifest, tag); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "failed to tag manifest in local store", err)
	}

	slog.Info("pushing diagnostics archive",
		"reference", opts.Reference.ImageReference(),
		"size", layer.Size,
	)

	desc, err := oras.Copy(ctx, fs, tag, dst, tag, oras.DefaultCopyOptions)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeUnavailable, "failed to push archive to registry", err,
			map[string]any{"reference": opts.Reference.ImageReference()})
	}

	return &PushResult{
		Digest:    desc.Digest.String(),
		Reference: opts.Reference.ImageReference(),
	}, nil
}

// createAuthClient creates an HTTP client with optional TLS configuration
// and Docker credential support.
func createAuthClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		slog.Debug("docker credential store unavailable, pushing anonymously", "error", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
		}
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}
