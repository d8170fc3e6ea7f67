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

package config

import (
	"regexp"
	"strings"
)

var (
	hostnamePattern  = regexp.MustCompile(`^([A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?\.)+[A-Za-z]{2,}$`)
	namespacePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
)

// NormalizeDomain strips an http(s) scheme, one trailing slash and a
// leading "www." from raw and checks that what remains is a hostname.
func NormalizeDomain(raw string) (string, error) {
	d := strings.TrimSpace(raw)
	lower := strings.ToLower(d)
	switch {
	case strings.HasPrefix(lower, "https://"):
		d = d[len("https://"):]
	case strings.HasPrefix(lower, "http://"):
		d = d[len("http://"):]
	}
	d = strings.TrimSuffix(d, "/")
	if strings.HasPrefix(strings.ToLower(d), "www.") {
		d = d[len("www."):]
	}

	if d == "" {
		return "", &ValidationError{Field: "domain", Value: raw, Reason: "is required"}
	}
	if !hostnamePattern.MatchString(d) {
		return "", &ValidationError{Field: "domain", Value: raw, Reason: "must be a hostname such as acme.anomalo.com"}
	}
	return d, nil
}

// ValidateNamespace checks ns against the deployment type. Docker runs
// carry no namespace.
func ValidateNamespace(t DeploymentType, ns string) (string, error) {
	ns = strings.TrimSpace(ns)
	if t == Docker {
		return "", nil
	}
	if ns == "" {
		return "", &ValidationError{Field: "namespace", Reason: "is required for kubernetes"}
	}
	if !namespacePattern.MatchString(ns) {
		return "", &ValidationError{Field: "namespace", Value: ns, Reason: "may only contain letters, digits and '-'"}
	}
	return ns, nil
}
