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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/anomalo/diagnostics/pkg/errors"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantReg  string
		wantRepo string
		wantTag  string
		wantErr  bool
	}{
		{
			name:     "with tag",
			input:    "oci://ghcr.io/acme/diagnostics:2026-10-14",
			wantReg:  "ghcr.io",
			wantRepo: "acme/diagnostics",
			wantTag:  "2026-10-14",
		},
		{
			name:     "without tag",
			input:    "oci://ghcr.io/acme/diagnostics",
			wantReg:  "ghcr.io",
			wantRepo: "acme/diagnostics",
		},
		{
			name:     "with port",
			input:    "oci://localhost:5000/support/bundle:v1",
			wantReg:  "localhost:5000",
			wantRepo: "support/bundle",
			wantTag:  "v1",
		},
		{
			name:    "missing scheme",
			input:   "ghcr.io/acme/diagnostics:v1",
			wantErr: true,
		},
		{
			name:    "uppercase repository",
			input:   "oci://ghcr.io/Acme/Diagnostics:v1",
			wantErr: true,
		},
		{
			name:    "digest",
			input:   "oci://ghcr.io/acme/diagnostics@sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "oci://",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseReference(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantReg, ref.Registry)
			assert.Equal(t, tt.wantRepo, ref.Repository)
			assert.Equal(t, tt.wantTag, ref.Tag)
		})
	}
}

func TestReference_Strings(t *testing.T) {
	ref := &Reference{Registry: "ghcr.io", Repository: "acme/diagnostics"}
	assert.Equal(t, "ghcr.io/acme/diagnostics", ref.ImageReference())
	assert.Equal(t, "oci://ghcr.io/acme/diagnostics", ref.String())

	tagged := ref.WithTag("v1")
	assert.Equal(t, "ghcr.io/acme/diagnostics:v1", tagged.ImageReference())
	assert.Equal(t, "oci://ghcr.io/acme/diagnostics:v1", tagged.String())
	assert.Empty(t, ref.Tag, "WithTag must not modify the receiver")
}

func TestValidateRegistryReference(t *testing.T) {
	assert.NoError(t, ValidateRegistryReference("ghcr.io", "acme/diagnostics"))
	assert.NoError(t, ValidateRegistryReference("https://registry.example.com:8443", "a/b/c"))
	assert.Error(t, ValidateRegistryReference("bad host", "acme/diagnostics"))
	assert.Error(t, ValidateRegistryReference("ghcr.io", "acme//diagnostics"))
	assert.Error(t, ValidateRegistryReference("ghcr.io", ""))
}

func TestValidTag(t *testing.T) {
	assert.True(t, ValidTag("anomalo_diagnostics_20261014_101500"))
	assert.True(t, ValidTag("v1.2.3"))
	assert.False(t, ValidTag(""))
	assert.False(t, ValidTag(".hidden"))
	assert.False(t, ValidTag("has space"))
}

func TestStripProtocol(t *testing.T) {
	assert.Equal(t, "ghcr.io", stripProtocol("https://ghcr.io"))
	assert.Equal(t, "localhost:5000", stripProtocol("http://localhost:5000"))
	assert.Equal(t, "registry.example.com", stripProtocol("registry.example.com"))
}
