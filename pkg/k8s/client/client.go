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

package client

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// Interface is an alias for kubernetes.Interface to allow easier mocking in tests.
type Interface = kubernetes.Interface

// Options controls how the client is built.
type Options struct {
	// Kubeconfig is an explicit kubeconfig path. Empty means discovery.
	Kubeconfig string
	// Context overrides the kubeconfig current-context.
	Context string
	// QPS and Burst configure client-side throttling. Zero keeps client-go defaults.
	QPS   float32
	Burst int
	// UserAgent is sent with every request.
	UserAgent string
}

// ResolveKubeconfig returns the kubeconfig path to use, or "" when the
// in-cluster configuration should be used.
func ResolveKubeconfig(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	path := filepath.Join(homedir.HomeDir(), ".kube", "config")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// BuildConfig returns the rest configuration for opts.
func BuildConfig(opts Options) (*rest.Config, error) {
	kubeconfig := ResolveKubeconfig(opts.Kubeconfig)

	var (
		config *rest.Config
		err    error
	)

	// Use InClusterConfig directly when no kubeconfig is available
	// This avoids the warning: "Neither --kubeconfig nor --master was specified"
	if kubeconfig == "" {
		config, err = rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to get in-cluster config: %w", err)
		}
	} else {
		rules := &clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfig}
		overrides := &clientcmd.ConfigOverrides{CurrentContext: opts.Context}
		config, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to build kube config from %s: %w", kubeconfig, err)
		}
	}

	if opts.QPS > 0 {
		config.QPS = opts.QPS
	}
	if opts.Burst > 0 {
		config.Burst = opts.Burst
	}
	if opts.UserAgent != "" {
		config.UserAgent = opts.UserAgent
	}
	return config, nil
}

// BuildKubeClient creates a Kubernetes client for opts.
func BuildKubeClient(opts Options) (*kubernetes.Clientset, *rest.Config, error) {
	config, err := BuildConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return client, config, nil
}
