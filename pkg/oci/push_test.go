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
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/memory"

	apperrors "github.com/anomalo/diagnostics/pkg/errors"
)

func writeArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anomalo_diagnostics_20261014_101500.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04 not really a zip"), 0o600))
	return path
}

func TestPush_Validation(t *testing.T) {
	archive := writeArchive(t)
	ref := &Reference{Registry: "localhost:5000", Repository: "support/bundle", Tag: "v1"}

	tests := []struct {
		name string
		opts PushOptions
		code apperrors.ErrorCode
	}{
		{"no reference", PushOptions{FilePath: archive}, apperrors.ErrCodeInvalidRequest},
		{"no tag", PushOptions{FilePath: archive, Reference: ref.WithTag("")}, apperrors.ErrCodeInvalidRequest},
		{"bad tag", PushOptions{FilePath: archive, Reference: ref.WithTag("-x")}, apperrors.ErrCodeInvalidRequest},
		{"missing file", PushOptions{FilePath: archive + ".missing", Reference: ref}, apperrors.ErrCodeNotFound},
		{"directory", PushOptions{FilePath: filepath.Dir(archive), Reference: ref}, apperrors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Push(context.Background(), tt.opts)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
		})
	}
}

func TestPush_SingleZipLayer(t *testing.T) {
	ctx := context.Background()
	archive := writeArchive(t)
	dst := memory.New()

	res, err := push(ctx, PushOptions{
		FilePath:    archive,
		Reference:   &Reference{Registry: "localhost:5000", Repository: "support/bundle", Tag: "run-1"},
		Annotations: map[string]string{"com.anomalo.domain": "acme.anomalo.com"},
	}, dst)
	require.NoError(t, err)
	assert.Equal(t, "localhost:5000/support/bundle:run-1", res.Reference)
	assert.NotEmpty(t, res.Digest)

	desc, err := dst.Resolve(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, res.Digest, desc.Digest.String())

	raw, err := content.FetchAll(ctx, dst, desc)
	require.NoError(t, err)

	var manifest ociv1.Manifest
	require.NoError(t, json.Unmarshal(raw, &manifest))
	assert.Equal(t, ArtifactType, manifest.ArtifactType)
	assert.Equal(t, "acme.anomalo.com", manifest.Annotations["com.anomalo.domain"])
	assert.Equal(t, "Anomalo", manifest.Annotations[ociv1.AnnotationVendor])
	assert.NotContains(t, manifest.Annotations, ociv1.AnnotationTitle)

	require.Len(t, manifest.Layers, 1)
	layer := manifest.Layers[0]
	assert.Equal(t, ArchiveMediaType, layer.MediaType)
	assert.Equal(t, filepath.Base(archive), layer.Annotations[ociv1.AnnotationTitle])

	body, err := content.FetchAll(ctx, dst, layer)
	require.NoError(t, err)
	want, err := os.ReadFile(archive)
	require.NoError(t, err)
	assert.Equal(t, want, body)
}

func TestCreateAuthClient_InsecureTLS(t *testing.T) {
	c := createAuthClient(false, true)
	require.NotNil(t, c.Client)
	assert.NotNil(t, c.Cache)
}
