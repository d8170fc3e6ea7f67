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

// Package defaults provides centralized configuration constants for the
// diagnostics collector.
//
// This package defines timeout values, collection limits and artifact file
// names used across the codebase. Centralizing these values ensures
// consistency and makes tuning easier.
//
// # Timeout Categories
//
//   - Health check timeouts: for the application metrics fetch
//   - Preflight timeouts: for the cluster, namespace and daemon checks
//   - Task timeout: optional bound on each collection call, off by default
//
// # Usage
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.K8sPreflightTimeout)
//	defer cancel()
package defaults
