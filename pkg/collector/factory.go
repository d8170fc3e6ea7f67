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
	"fmt"

	"k8s.io/client-go/kubernetes"

	"github.com/anomalo/diagnostics/pkg/collector/docker"
	"github.com/anomalo/diagnostics/pkg/collector/host"
	"github.com/anomalo/diagnostics/pkg/collector/k8s"
	"github.com/anomalo/diagnostics/pkg/collector/step"
	"github.com/anomalo/diagnostics/pkg/config"
	"github.com/anomalo/diagnostics/pkg/defaults"
	"github.com/anomalo/diagnostics/pkg/errors"
	"github.com/anomalo/diagnostics/pkg/k8s/client"
)

// Collector gathers the diagnostics of one deployment type.
type Collector interface {
	// Name identifies the deployment type.
	Name() string
	// Preflight runs the fatal reachability checks. It is called before
	// the output directory exists, so a failure leaves nothing behind.
	Preflight(ctx context.Context) error
	// Collect produces every artifact into env.Dir. It returns an error
	// only on interrupt or operator abort; task failures are recorded in
	// the run report instead.
	Collect(ctx context.Context, env *step.Env) error
}

// Factory creates platform collectors.
type Factory interface {
	CreateKubernetesCollector(cfg *config.RunConfig) (Collector, error)
	CreateDockerCollector(cfg *config.RunConfig) (Collector, error)
}

// KubeClientBuilder builds the Kubernetes client for a run.
type KubeClientBuilder func(opts client.Options) (kubernetes.Interface, error)

// DockerAPIBuilder connects to the Docker Engine API.
type DockerAPIBuilder func() (docker.API, error)

// DefaultFactory creates collectors with production dependencies.
type DefaultFactory struct {
	Version   string
	QPS       float32
	Burst     int
	HostUnits []string

	kubeClient KubeClientBuilder
	dockerAPI  DockerAPIBuilder
	hostOpts   []host.Option
}

// Option is a functional option for configuring DefaultFactory.
type Option func(*DefaultFactory)

// WithVersion sets the version reported in the client user agent.
func WithVersion(version string) Option {
	return func(f *DefaultFactory) {
		f.Version = version
	}
}

// WithKubeThrottle sets the client-go QPS and burst. Non-positive values
// keep the defaults.
func WithKubeThrottle(qps float32, burst int) Option {
	return func(f *DefaultFactory) {
		if qps > 0 {
			f.QPS = qps
		}
		if burst > 0 {
			f.Burst = burst
		}
	}
}

// WithKubeClientBuilder replaces how the Kubernetes client is built.
func WithKubeClientBuilder(b KubeClientBuilder) Option {
	return func(f *DefaultFactory) {
		f.kubeClient = b
	}
}

// WithDockerAPIBuilder replaces how the Docker API client is built.
func WithDockerAPIBuilder(b DockerAPIBuilder) Option {
	return func(f *DefaultFactory) {
		f.dockerAPI = b
	}
}

// WithHostOptions configures the host facts collector of Docker runs.
func WithHostOptions(opts ...host.Option) Option {
	return func(f *DefaultFactory) {
		f.hostOpts = append(f.hostOpts, opts...)
	}
}

// NewDefaultFactory creates a factory with default settings.
func NewDefaultFactory(opts ...Option) *DefaultFactory {
	f := &DefaultFactory{
		QPS:       defaults.KubeQPS,
		Burst:     defaults.KubeBurst,
		HostUnits: host.DefaultUnits,
		kubeClient: func(opts client.Options) (kubernetes.Interface, error) {
			cs, _, err := client.BuildKubeClient(opts)
			if err != nil {
				return nil, err
			}
			return cs, nil
		},
		dockerAPI: func() (docker.API, error) {
			return docker.NewEngine()
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateKubernetesCollector builds the Kubernetes client and returns its collector.
func (f *DefaultFactory) CreateKubernetesCollector(cfg *config.RunConfig) (Collector, error) {
	cs, err := f.kubeClient(client.Options{
		Kubeconfig: cfg.Kubeconfig,
		Context:    cfg.KubeContext,
		QPS:        f.QPS,
		Burst:      f.Burst,
		UserAgent:  f.userAgent(),
	})
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeMissingDependency,
			"kubernetes client configuration is not available", err,
			map[string]any{"kubeconfig": client.ResolveKubeconfig(cfg.Kubeconfig)})
	}
	return k8s.New(cfg, cs), nil
}

// CreateDockerCollector connects to the Docker Engine API and returns its collector.
func (f *DefaultFactory) CreateDockerCollector(cfg *config.RunConfig) (Collector, error) {
	api, err := f.dockerAPI()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMissingDependency, "docker client is not available", err)
	}
	hostOpts := append([]host.Option{host.WithUnits(host.SystemdUnits, f.HostUnits...)}, f.hostOpts...)
	return docker.New(cfg, api, host.New(hostOpts...)), nil
}

func (f *DefaultFactory) userAgent() string {
	if f.Version == "" {
		return "anomalo-diag"
	}
	return "anomalo-diag/" + f.Version
}

// New returns the collector for the deployment type of cfg.
func New(f Factory, cfg *config.RunConfig) (Collector, error) {
	switch cfg.Type {
	case config.Kubernetes:
		return f.CreateKubernetesCollector(cfg)
	case config.Docker:
		return f.CreateDockerCollector(cfg)
	default:
		return nil, errors.New(errors.ErrCodeInvalidRequest, fmt.Sprintf("unsupported deployment type %q", cfg.Type))
	}
}
