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

import "time"

// Health check timeouts for the application metrics fetch.
const (
	// HealthCheckConnectTimeout bounds TCP connect and TLS handshake.
	HealthCheckConnectTimeout = 10 * time.Second

	// HealthCheckTotalTimeout bounds the whole request including the body read.
	HealthCheckTotalTimeout = 30 * time.Second

	// HealthCheckResponseHeaderTimeout is the time to wait for response headers.
	HealthCheckResponseHeaderTimeout = 20 * time.Second
)

// Preflight timeouts bound the reachability checks that run before any
// file is written. Collection calls are not bounded unless a task timeout
// is configured.
const (
	// K8sPreflightTimeout bounds the cluster and namespace checks.
	K8sPreflightTimeout = 15 * time.Second

	// DockerPingTimeout bounds the daemon reachability check.
	DockerPingTimeout = 10 * time.Second
)

// TaskTimeout is the default per-task timeout. Zero disables it.
const TaskTimeout time.Duration = 0

// OCIPushTimeout bounds the optional archive upload.
const OCIPushTimeout = 5 * time.Minute
