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

// Package config normalizes and validates operator input into an
// immutable RunConfig.
//
// Validation happens once, before any platform call or file write. A
// failure names the offending field through ValidationError.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/anomalo/diagnostics/pkg/errors"
)

// DeploymentType selects the platform collector.
type DeploymentType string

const (
	Kubernetes DeploymentType = "kubernetes"
	Docker     DeploymentType = "docker"
)

// SupportedTypes lists the accepted deployment types.
func SupportedTypes() []string {
	return []string{string(Kubernetes), string(Docker)}
}

// ParseDeploymentType parses a deployment type case-insensitively.
func ParseDeploymentType(raw string) (DeploymentType, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch DeploymentType(v) {
	case Kubernetes, Docker:
		return DeploymentType(v), nil
	}

	reason := fmt.Sprintf("must be one of %s", strings.Join(SupportedTypes(), ", "))
	if s := suggest(v, SupportedTypes()); s != "" {
		reason = fmt.Sprintf("%s (did you mean %q?)", reason, s)
	}
	return "", &ValidationError{Field: "type", Value: raw, Reason: reason}
}

func suggest(v string, candidates []string) string {
	best, bestDist := "", 4
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(v, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// ValidationError names the input field that failed validation.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Unwrap exposes the structured classification of every validation failure.
func (e *ValidationError) Unwrap() error {
	return errors.NewWithContext(errors.ErrCodeInvalidRequest, "validation failed", map[string]any{
		"field": e.Field,
	})
}

// Input holds raw operator values as received from flags, environment or
// the wizard.
type Input struct {
	Type          string
	Namespace     string
	Domain        string
	Output        string
	LogLines      int
	MaxPods       int
	MaxContainers int

	// MaxPodsPreset and MaxContainersPreset mark ceilings given explicitly
	// on the command line.
	MaxPodsPreset       bool
	MaxContainersPreset bool

	Kubeconfig    string
	KubeContext   string
	IncludeSecret string

	NonInteractive bool
	Force          bool

	RequestsPerSecond float64
	TaskTimeout       time.Duration

	Push        string
	PlainHTTP   bool
	InsecureTLS bool
}

// RunConfig is the validated, normalized configuration of one run. It is
// not modified after Validate returns.
type RunConfig struct {
	Type          DeploymentType
	Namespace     string
	Domain        string
	OutputDir     string
	LogLines      int
	MaxPods       int
	MaxContainers int

	MaxPodsPreset       bool
	MaxContainersPreset bool

	Kubeconfig    string
	KubeContext   string
	IncludeSecret string

	NonInteractive bool

	// Overwrite is set when OutputDir already existed and replacing it was
	// confirmed.
	Overwrite bool

	RequestsPerSecond float64
	TaskTimeout       time.Duration

	Push        string
	PlainHTTP   bool
	InsecureTLS bool
}

// ArchivePath returns the path of the zip produced from OutputDir.
func (c *RunConfig) ArchivePath() string {
	return c.OutputDir + ".zip"
}
