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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- name: test
  cluster:
    server: https://127.0.0.1:6443
- name: other
  cluster:
    server: https://10.0.0.1:6443
users:
- name: test
  user:
    token: abc
contexts:
- name: test
  context:
    cluster: test
    user: test
- name: other
  context:
    cluster: other
    user: test
current-context: test
`

func writeKubeconfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kubeconfig")
	if err := os.WriteFile(path, []byte(testKubeconfig), 0o600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

// TestBuildKubeClient_PathResolution tests the kubeconfig path resolution logic
// without attempting to connect to a cluster.
func TestBuildKubeClient_PathResolution(t *testing.T) {
	tests := []struct {
		name          string
		kubeconfigArg string
		kubeconfigEnv string
		errorContains string
	}{
		{
			name:          "explicit invalid path",
			kubeconfigArg: "/nonexistent/path/to/kubeconfig",
			errorContains: "failed to build kube config",
		},
		{
			name:          "env var with invalid path",
			kubeconfigEnv: "/nonexistent/env/kubeconfig",
			errorContains: "failed to build kube config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KUBECONFIG", tt.kubeconfigEnv)

			_, _, err := BuildKubeClient(Options{Kubeconfig: tt.kubeconfigArg})
			if err == nil {
				t.Fatal("BuildKubeClient() expected error")
			}
			if !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("BuildKubeClient() error = %v, want error containing %q", err, tt.errorContains)
			}
		})
	}
}

func TestBuildKubeClient_InvalidContent(t *testing.T) {
	invalidConfig := filepath.Join(t.TempDir(), "invalid-kubeconfig")
	if err := os.WriteFile(invalidConfig, []byte("invalid yaml content"), 0o600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, _, err := BuildKubeClient(Options{Kubeconfig: invalidConfig})
	if err == nil {
		t.Fatal("BuildKubeClient() with invalid config should return error")
	}
}

func TestBuildConfig_AppliesOptions(t *testing.T) {
	path := writeKubeconfig(t)

	config, err := BuildConfig(Options{Kubeconfig: path, QPS: 42, Burst: 84, UserAgent: "anomalo-diag/test"})
	if err != nil {
		t.Fatalf("BuildConfig() error = %v", err)
	}
	if config.Host != "https://127.0.0.1:6443" {
		t.Errorf("unexpected host %q", config.Host)
	}
	if config.QPS != 42 || config.Burst != 84 {
		t.Errorf("throttling not applied: qps=%v burst=%d", config.QPS, config.Burst)
	}
	if config.UserAgent != "anomalo-diag/test" {
		t.Errorf("unexpected user agent %q", config.UserAgent)
	}
}

func TestBuildConfig_ContextOverride(t *testing.T) {
	path := writeKubeconfig(t)

	config, err := BuildConfig(Options{Kubeconfig: path, Context: "other"})
	if err != nil {
		t.Fatalf("BuildConfig() error = %v", err)
	}
	if config.Host != "https://10.0.0.1:6443" {
		t.Errorf("context override ignored, host = %q", config.Host)
	}

	if _, err := BuildConfig(Options{Kubeconfig: path, Context: "missing"}); err == nil {
		t.Error("BuildConfig() with unknown context should return error")
	}
}

func TestBuildKubeClient_FromEnv(t *testing.T) {
	t.Setenv("KUBECONFIG", writeKubeconfig(t))

	cs, config, err := BuildKubeClient(Options{})
	if err != nil {
		t.Fatalf("BuildKubeClient() error = %v", err)
	}
	if cs == nil || config == nil {
		t.Fatal("expected client and config")
	}
}

func TestResolveKubeconfig(t *testing.T) {
	t.Setenv("KUBECONFIG", "/from/env")
	if got := ResolveKubeconfig("/explicit"); got != "/explicit" {
		t.Errorf("explicit path should win, got %q", got)
	}
	if got := ResolveKubeconfig(""); got != "/from/env" {
		t.Errorf("env path expected, got %q", got)
	}
}
