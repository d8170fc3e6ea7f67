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

package defaults

import (
	"testing"
	"time"
)

func TestTimeoutConstants(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		minValue time.Duration
		maxValue time.Duration
	}{
		// Health check timeouts
		{"HealthCheckConnectTimeout", HealthCheckConnectTimeout, 1 * time.Second, 15 * time.Second},
		{"HealthCheckTotalTimeout", HealthCheckTotalTimeout, 10 * time.Second, 60 * time.Second},
		{"HealthCheckResponseHeaderTimeout", HealthCheckResponseHeaderTimeout, 5 * time.Second, 30 * time.Second},

		// Preflight timeouts
		{"K8sPreflightTimeout", K8sPreflightTimeout, 5 * time.Second, 60 * time.Second},
		{"DockerPingTimeout", DockerPingTimeout, 1 * time.Second, 30 * time.Second},

		{"OCIPushTimeout", OCIPushTimeout, 1 * time.Minute, 30 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.timeout < tt.minValue {
				t.Errorf("%s (%v) is below minimum expected value (%v)", tt.name, tt.timeout, tt.minValue)
			}
			if tt.timeout > tt.maxValue {
				t.Errorf("%s (%v) exceeds maximum expected value (%v)", tt.name, tt.timeout, tt.maxValue)
			}
		})
	}
}

func TestHealthCheckTimeoutRelationships(t *testing.T) {
	if HealthCheckConnectTimeout >= HealthCheckTotalTimeout {
		t.Errorf("HealthCheckConnectTimeout (%v) should be less than HealthCheckTotalTimeout (%v)",
			HealthCheckConnectTimeout, HealthCheckTotalTimeout)
	}
	if HealthCheckResponseHeaderTimeout >= HealthCheckTotalTimeout {
		t.Errorf("HealthCheckResponseHeaderTimeout (%v) should be less than HealthCheckTotalTimeout (%v)",
			HealthCheckResponseHeaderTimeout, HealthCheckTotalTimeout)
	}
}

func TestTaskTimeoutDisabledByDefault(t *testing.T) {
	if TaskTimeout != 0 {
		t.Errorf("collection calls are unbounded by default, got TaskTimeout=%v", TaskTimeout)
	}
}

func TestCollectionLimits(t *testing.T) {
	if LogLines < 1 || MaxPods < 1 || MaxContainers < 1 {
		t.Fatal("collection defaults must be positive")
	}
	if LogLines >= LogLinesAdvisory {
		t.Errorf("default log lines (%d) should be below the advisory threshold (%d)", LogLines, LogLinesAdvisory)
	}
}
