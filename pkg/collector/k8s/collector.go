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

package k8s

import (
	"context"
	"fmt"
	"log/slog"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/anomalo/diagnostics/pkg/collector/step"
	"github.com/anomalo/diagnostics/pkg/config"
	"github.com/anomalo/diagnostics/pkg/defaults"
	"github.com/anomalo/diagnostics/pkg/errors"
	"github.com/anomalo/diagnostics/pkg/executor"
	"github.com/anomalo/diagnostics/pkg/guard"
)

// BaselineSteps is the number of progress steps that do not depend on
// how many pods and config maps the namespace holds.
const BaselineSteps = 13

// MetricsFetcher returns the raw node metrics list from metrics.k8s.io.
type MetricsFetcher func(ctx context.Context) ([]byte, error)

// Collector gathers namespace diagnostics through the Kubernetes API.
type Collector struct {
	cfg          *config.RunConfig
	clientset    kubernetes.Interface
	fetchMetrics MetricsFetcher
}

// Option configures a Collector.
type Option func(*Collector)

// WithMetricsFetcher overrides how node metrics are read.
func WithMetricsFetcher(f MetricsFetcher) Option {
	return func(c *Collector) {
		c.fetchMetrics = f
	}
}

// New returns a Collector for cfg using clientset.
func New(cfg *config.RunConfig, clientset kubernetes.Interface, opts ...Option) *Collector {
	c := &Collector{
		cfg:       cfg,
		clientset: clientset,
	}
	c.fetchMetrics = c.restNodeMetrics
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements collector.Collector.
func (c *Collector) Name() string {
	return string(config.Kubernetes)
}

// Preflight verifies that the cluster is reachable and the namespace is
// accessible.
func (c *Collector) Preflight(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaults.K8sPreflightTimeout)
	defer cancel()

	v, err := c.clientset.Discovery().ServerVersion()
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, "kubernetes API server is not reachable", err)
	}
	slog.Debug("connected to cluster", "version", v.GitVersion)

	ns := c.cfg.Namespace
	if _, err := c.clientset.CoreV1().Namespaces().Get(ctx, ns, metav1.GetOptions{}); err != nil {
		ctxInfo := map[string]any{"namespace": ns}
		switch {
		case apierrors.IsNotFound(err):
			return errors.WrapWithContext(errors.ErrCodeNotFound, fmt.Sprintf("namespace %q does not exist", ns), err, ctxInfo)
		case apierrors.IsForbidden(err), apierrors.IsUnauthorized(err):
			return errors.WrapWithContext(errors.ErrCodeUnauthorized, fmt.Sprintf("namespace %q is not accessible", ns), err, ctxInfo)
		default:
			return errors.WrapWithContext(errors.ErrCodeUnavailable, fmt.Sprintf("failed to check namespace %q", ns), err, ctxInfo)
		}
	}
	return nil
}

// Collect runs every phase and returns only on interrupt or operator abort.
func (c *Collector) Collect(ctx context.Context, env *step.Env) error {
	ns := c.cfg.Namespace

	pods, err := c.clientset.CoreV1().Pods(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		slog.Warn("failed to discover pods", "namespace", ns, "error", err)
		pods = &corev1.PodList{}
	}
	cms, err := c.clientset.CoreV1().ConfigMaps(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		slog.Warn("failed to discover config maps", "namespace", ns, "error", err)
		cms = &corev1.ConfigMapList{}
	}

	env.Progress.Init(BaselineSteps + len(pods.Items) + len(cms.Items))

	phases := []func(context.Context, *step.Env) error{
		c.clusterPhase,
		func(ctx context.Context, env *step.Env) error { return c.podPhase(ctx, env, pods.Items) },
		c.configObjectsPhase,
		func(ctx context.Context, env *step.Env) error { return c.configMapPhase(ctx, env, cms.Items) },
		c.secretPhase,
	}
	for _, phase := range phases {
		if err := phase(ctx, env); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) clusterPhase(ctx context.Context, env *step.Env) error {
	ns := c.cfg.Namespace
	tasks := []executor.Task{
		{Description: "cluster version", OutputPath: env.Path("cluster_info.txt"), Op: c.writeClusterInfo},
		{Description: "access review in " + ns, OutputPath: env.Path(fmt.Sprintf("access_review_%s.txt", ns)), Op: c.writeAccessReview},
		{Description: "all resources in " + ns, OutputPath: env.Path(fmt.Sprintf("all_resources_%s.txt", ns)), Op: c.writeAllResources},
		{Description: "events in " + ns, OutputPath: env.Path(fmt.Sprintf("events_%s.txt", ns)), Op: c.writeEvents},
		{Description: "nodes", OutputPath: env.Path("nodes.txt"), Op: c.writeNodes},
		{Description: "node metrics", OutputPath: env.Path("node_metrics.txt"), Op: c.writeNodeMetrics},
	}
	return runAll(ctx, env, tasks)
}

func (c *Collector) podPhase(ctx context.Context, env *step.Env, pods []corev1.Pod) error {
	limit := guard.Limit{Max: c.cfg.MaxPods, Preset: c.cfg.MaxPodsPreset}
	decision, err := env.Guard.Decide("pods", len(pods), limit)
	if err != nil {
		return err
	}

	selected, skipped := guard.Plan(env.Guard, decision, pods, limit)
	slog.Info("collecting pods", "decision", decision.String(), "selected", len(selected), "skipped", skipped)

	for i := range selected {
		if _, err := env.Run(ctx, c.podTask(ctx, env, &selected[i])); err != nil {
			return err
		}
	}
	env.Skip(skipped, fmt.Sprintf("%d pods skipped", skipped))
	return nil
}

func (c *Collector) configObjectsPhase(ctx context.Context, env *step.Env) error {
	ns := c.cfg.Namespace
	tasks := []executor.Task{
		{Description: "deployments in " + ns, OutputPath: env.Path(fmt.Sprintf("deployments_%s.yaml", ns)), Op: c.writeDeployments},
		{Description: "services in " + ns, OutputPath: env.Path(fmt.Sprintf("services_%s.yaml", ns)), Op: c.writeServices},
		{Description: "ingress in " + ns, OutputPath: env.Path(fmt.Sprintf("ingress_%s.yaml", ns)), Op: c.writeIngress},
		{Description: "storage in " + ns, OutputPath: env.Path(fmt.Sprintf("storage_%s.txt", ns)), Op: c.writeStorage},
	}
	return runAll(ctx, env, tasks)
}

func (c *Collector) configMapPhase(ctx context.Context, env *step.Env, cms []corev1.ConfigMap) error {
	ns := c.cfg.Namespace
	if _, err := env.Run(ctx, executor.Task{
		Description: "config map names in " + ns,
		OutputPath:  env.Path(fmt.Sprintf("configmaps_%s.txt", ns)),
		Op:          c.writeConfigMapNames,
	}); err != nil {
		return err
	}

	for i := range cms {
		name := cms[i].Name
		if _, err := env.Run(ctx, executor.Task{
			Description: "config map " + name,
			OutputPath:  env.Path(name + "_configmap.yaml"),
			Op:          c.configMapBody(name),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) secretPhase(ctx context.Context, env *step.Env) error {
	ns := c.cfg.Namespace
	if _, err := env.Run(ctx, executor.Task{
		Description: "secret names in " + ns,
		OutputPath:  env.Path(fmt.Sprintf("secrets_%s.txt", ns)),
		Op:          c.writeSecretNames,
	}); err != nil {
		return err
	}

	name := c.cfg.IncludeSecret
	if name == "" {
		env.Skip(1, "secret body not requested")
		return nil
	}
	_, err := env.Run(ctx, executor.Task{
		Description: "secret " + name,
		OutputPath:  env.Path(name + "_secret.yaml"),
		Op:          c.secretBody(name),
	})
	return err
}

func runAll(ctx context.Context, env *step.Env, tasks []executor.Task) error {
	for _, task := range tasks {
		if _, err := env.Run(ctx, task); err != nil {
			return err
		}
	}
	return nil
}
