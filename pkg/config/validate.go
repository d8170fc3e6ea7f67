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
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anomalo/diagnostics/pkg/defaults"
	"github.com/anomalo/diagnostics/pkg/errors"
	"github.com/anomalo/diagnostics/pkg/prompt"
)

// ValidateOptions supplies the collaborators Validate needs.
type ValidateOptions struct {
	// Prompter confirms overwriting an existing output directory.
	Prompter prompt.Prompter
	// Getwd resolves relative output paths. Defaults to os.Getwd.
	Getwd func() (string, error)
	// Now names the default output directory. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOutputName returns the timestamped output directory name for t.
func DefaultOutputName(t time.Time) string {
	return defaults.OutputDirPrefix + t.Format(defaults.OutputDirTimeLayout)
}

// Validate turns raw input into a RunConfig. It returns advisories for
// accepted but unusual values. All field failures are reported together.
func Validate(in Input, opts ValidateOptions) (*RunConfig, []string, error) {
	if opts.Prompter == nil {
		opts.Prompter = prompt.NonInteractive{}
	}
	if opts.Getwd == nil {
		opts.Getwd = os.Getwd
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var (
		errs       []error
		advisories []string
	)

	cfg := &RunConfig{
		MaxPodsPreset:       in.MaxPodsPreset,
		MaxContainersPreset: in.MaxContainersPreset,
		Kubeconfig:          in.Kubeconfig,
		KubeContext:         in.KubeContext,
		IncludeSecret:       in.IncludeSecret,
		NonInteractive:      in.NonInteractive,
		RequestsPerSecond:   in.RequestsPerSecond,
		TaskTimeout:         in.TaskTimeout,
		Push:                in.Push,
		PlainHTTP:           in.PlainHTTP,
		InsecureTLS:         in.InsecureTLS,
	}

	t, err := ParseDeploymentType(in.Type)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Type = t

	if cfg.Domain, err = NormalizeDomain(in.Domain); err != nil {
		errs = append(errs, err)
	}

	if t != "" {
		if cfg.Namespace, err = ValidateNamespace(t, in.Namespace); err != nil {
			errs = append(errs, err)
		}
	}

	for _, f := range []struct {
		name  string
		value int
		dst   *int
	}{
		{"logs", in.LogLines, &cfg.LogLines},
		{"max-pods", in.MaxPods, &cfg.MaxPods},
		{"max-containers", in.MaxContainers, &cfg.MaxContainers},
	} {
		if f.value < 1 {
			errs = append(errs, &ValidationError{Field: f.name, Value: fmt.Sprint(f.value), Reason: "must be an integer of at least 1"})
			continue
		}
		*f.dst = f.value
	}
	if cfg.LogLines > defaults.LogLinesAdvisory {
		advisories = append(advisories, fmt.Sprintf(
			"collecting %d log lines per pod or container may produce a very large bundle", cfg.LogLines))
	}

	if cfg.RequestsPerSecond < 0 {
		errs = append(errs, &ValidationError{Field: "qps", Value: fmt.Sprint(in.RequestsPerSecond), Reason: "must not be negative"})
	}
	if cfg.TaskTimeout < 0 {
		errs = append(errs, &ValidationError{Field: "task-timeout", Value: in.TaskTimeout.String(), Reason: "must not be negative"})
	}

	if len(errs) > 0 {
		return nil, advisories, stderrors.Join(errs...)
	}

	// The output directory is checked last so the operator is only asked
	// to confirm an overwrite once everything else is valid.
	dir, overwrite, err := resolveOutput(in, opts)
	if err != nil {
		return nil, advisories, err
	}
	cfg.OutputDir = dir
	cfg.Overwrite = overwrite

	return cfg, advisories, nil
}

func resolveOutput(in Input, opts ValidateOptions) (string, bool, error) {
	out := in.Output
	if out == "" {
		out = DefaultOutputName(opts.Now())
	}

	if !filepath.IsAbs(out) {
		wd, err := opts.Getwd()
		if err != nil {
			return "", false, errors.Wrap(errors.ErrCodeInternal, "failed to determine working directory", err)
		}
		out = filepath.Join(wd, out)
	}
	out = filepath.Clean(out)

	parent := filepath.Dir(out)
	info, err := os.Stat(parent)
	if err != nil || !info.IsDir() {
		return "", false, &ValidationError{Field: "output", Value: in.Output, Reason: fmt.Sprintf("parent directory %s does not exist", parent)}
	}

	if _, err := os.Stat(out); err != nil {
		if os.IsNotExist(err) {
			return out, false, nil
		}
		return "", false, &ValidationError{Field: "output", Value: in.Output, Reason: err.Error()}
	}

	if in.Force {
		return out, true, nil
	}
	if in.NonInteractive || !opts.Prompter.Interactive() {
		return "", false, &ValidationError{Field: "output", Value: out, Reason: "already exists (use --force to replace it)"}
	}

	ok, err := opts.Prompter.Confirm(fmt.Sprintf("Output directory %s already exists. Overwrite?", out))
	if err != nil || !ok {
		return "", false, &ValidationError{Field: "output", Value: out, Reason: "already exists and overwrite was declined"}
	}
	return out, true, nil
}
