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
	"io"
	"strings"

	authv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/anomalo/diagnostics/pkg/executor"
)

// AccessCheck is one permission the collector relies on.
type AccessCheck struct {
	Group       string
	Resource    string
	Subresource string
	Verb        string
	// Namespaced checks are evaluated in the target namespace.
	Namespaced bool
}

func (a AccessCheck) String() string {
	r := a.Resource
	if a.Subresource != "" {
		r += "/" + a.Subresource
	}
	if a.Group != "" {
		r += "." + a.Group
	}
	return a.Verb + " " + r
}

// AccessChecks lists the reads performed by Collect.
var AccessChecks = []AccessCheck{
	{Resource: "pods", Verb: "list", Namespaced: true},
	{Resource: "pods", Subresource: "log", Verb: "get", Namespaced: true},
	{Resource: "events", Verb: "list", Namespaced: true},
	{Resource: "services", Verb: "list", Namespaced: true},
	{Resource: "configmaps", Verb: "list", Namespaced: true},
	{Resource: "secrets", Verb: "list", Namespaced: true},
	{Resource: "persistentvolumeclaims", Verb: "list", Namespaced: true},
	{Group: "apps", Resource: "deployments", Verb: "list", Namespaced: true},
	{Group: "apps", Resource: "statefulsets", Verb: "list", Namespaced: true},
	{Group: "batch", Resource: "jobs", Verb: "list", Namespaced: true},
	{Group: "networking.k8s.io", Resource: "ingresses", Verb: "list", Namespaced: true},
	{Resource: "nodes", Verb: "list"},
	{Group: "metrics.k8s.io", Resource: "nodes", Verb: "list"},
}

// writeAccessReview records which of AccessChecks the current identity is
// allowed. Denied permissions are a warning: the matching artifacts will
// hold the API error instead of data.
func (c *Collector) writeAccessReview(ctx context.Context, w io.Writer) error {
	ns := c.cfg.Namespace
	t := newTable(w, "VERB", "RESOURCE", "SCOPE", "ALLOWED", "REASON")

	var denied []string
	for _, check := range AccessChecks {
		scope := "cluster"
		review := &authv1.SelfSubjectAccessReview{
			Spec: authv1.SelfSubjectAccessReviewSpec{
				ResourceAttributes: &authv1.ResourceAttributes{
					Group:       check.Group,
					Resource:    check.Resource,
					Subresource: check.Subresource,
					Verb:        check.Verb,
				},
			},
		}
		if check.Namespaced {
			review.Spec.ResourceAttributes.Namespace = ns
			scope = "namespace " + ns
		}

		res, err := c.clientset.AuthorizationV1().SelfSubjectAccessReviews().Create(ctx, review, metav1.CreateOptions{})
		if err != nil {
			_ = t.flush()
			return fmt.Errorf("failed to check permission %s: %w", check, err)
		}

		resource := strings.TrimPrefix(check.String(), check.Verb+" ")
		t.row(check.Verb, resource, scope, fmt.Sprint(res.Status.Allowed), orNone(res.Status.Reason))
		if !res.Status.Allowed {
			denied = append(denied, check.String())
		}
	}
	if err := t.flush(); err != nil {
		return err
	}

	if len(denied) > 0 {
		return executor.Advisory(fmt.Errorf("missing permissions: %s", strings.Join(denied, ", ")))
	}
	return nil
}
