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

// Package client builds the Kubernetes client used by the collector.
//
// The kubeconfig is discovered in this order:
//   - the explicit path passed in Options (the --kubeconfig flag)
//   - the KUBECONFIG environment variable
//   - ~/.kube/config, when it exists
//   - the in-cluster service account
//
// The collector runs against one cluster per process, so the client is
// built once by the factory and injected; tests use the fake clientset:
//
//	clientset := fake.NewClientset(pods...)
//	c := k8s.New(cfg, clientset)
package client
