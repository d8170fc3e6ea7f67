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

package collector

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/anomalo/diagnostics/pkg/collector/docker"
	"github.com/anomalo/diagnostics/pkg/config"
	apperrors "github.com/anomalo/diagnostics/pkg/errors"
	"github.com/anomalo/diagnostics/pkg/k8s/client"
)

type nopDocker struct {
	docker.API
}

func (nopDocker) Close() error { return nil }

func (nopDocker) Ping(context.Context) error { return nil }

func TestNew_Kubernetes(t *testing.T) {
	var got client.Options
	f := NewDefaultFactory(
		WithVersion("v1.2.3"),
		WithKubeThrottle(10, 20),
		WithKubeClientBuilder(func(opts client.Options) (kubernetes.Interface, error) {
			got = opts
			return fake.NewClientset(), nil
		}),
	)
	cfg := &config.RunConfig{Type: config.Kubernetes, Namespace: "anomalo", Kubeconfig: "/tmp/kc", KubeContext: "prod"}

	c, err := New(f, cfg)
	require.NoError(t, err)
	assert.Equal(t, "kubernetes", c.Name())
	assert.Equal(t, "/tmp/kc", got.Kubeconfig)
	assert.Equal(t, "prod", got.Context)
	assert.Equal(t, float32(10), got.QPS)
	assert.Equal(t, 20, got.Burst)
	assert.Equal(t, "anomalo-diag/v1.2.3", got.UserAgent)
}

func TestNew_KubernetesClientMissing(t *testing.T) {
	f := NewDefaultFactory(WithKubeClientBuilder(func(client.Options) (kubernetes.Interface, error) {
		return nil, errors.New("no configuration has been provided")
	}))

	_, err := New(f, &config.RunConfig{Type: config.Kubernetes, Namespace: "anomalo"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeMissingDependency, apperrors.CodeOf(err))
	assert.Equal(t, apperrors.ExitFailure, apperrors.ExitCode(err))
}

func TestNew_Docker(t *testing.T) {
	f := NewDefaultFactory(WithDockerAPIBuilder(func() (docker.API, error) {
		return nopDocker{}, nil
	}))

	c, err := New(f, &config.RunConfig{Type: config.Docker})
	require.NoError(t, err)
	assert.Equal(t, "docker", c.Name())
	assert.NoError(t, c.Preflight(context.Background()))
	_, ok := c.(io.Closer)
	assert.True(t, ok, "docker collector releases its client")
}

func TestNew_DockerClientMissing(t *testing.T) {
	f := NewDefaultFactory(WithDockerAPIBuilder(func() (docker.API, error) {
		return nil, errors.New("unable to parse docker host")
	}))

	_, err := New(f, &config.RunConfig{Type: config.Docker})
	assert.Equal(t, apperrors.ErrCodeMissingDependency, apperrors.CodeOf(err))
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(NewDefaultFactory(), &config.RunConfig{Type: "podman"})
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.CodeOf(err))
}

func TestDefaultFactory_UserAgent(t *testing.T) {
	assert.Equal(t, "anomalo-diag", NewDefaultFactory().userAgent())
}
