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

// Package k8s collects diagnostics for an application running in a
// Kubernetes namespace.
//
// # Phases
//
// Preflight checks that the API server answers and that the target
// namespace exists. Both are fatal and run before any file is written.
//
// Collect then walks a fixed phase sequence, one progress step per task:
//
//  1. cluster-wide: cluster version, a self access review of every read
//     the run needs, all namespace workloads, events, nodes and node
//     metrics (metrics.k8s.io is optional, a missing API is
//     a warning)
//  2. per pod, gated by the large-collection guard: a describe dump for
//     pods that are not Running, the last N log lines of every container
//     otherwise
//  3. deployments, services, ingress and storage
//  4. the config map name list, then the full body of every config map
//  5. the secret name list, and the body of one secret only when it was
//     named explicitly
//
// The total is known up front: a fixed baseline plus one step per
// discovered pod and config map.
//
// # Artifacts
//
//	cluster_info.txt
//	access_review_<ns>.txt
//	all_resources_<ns>.txt
//	events_<ns>.txt
//	nodes.txt
//	node_metrics.txt
//	describe_<pod>.txt | logs_<pod>_last<N>.txt
//	deployments_<ns>.yaml, services_<ns>.yaml, ingress_<ns>.yaml
//	storage_<ns>.txt
//	configmaps_<ns>.txt, <name>_configmap.yaml
//	secrets_<ns>.txt, <name>_secret.yaml
package k8s
