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

package cli

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/anomalo/diagnostics/pkg/config"
	"github.com/anomalo/diagnostics/pkg/prompt"
)

// runWizard asks for the values a run cannot start without. It only runs
// when the domain is missing; flags the operator did set are not asked
// again.
func runWizard(p prompt.Prompter, cmd *cli.Command, in *config.Input) error {
	if in.Domain != "" {
		return nil
	}

	var err error
	if !cmd.IsSet("type") {
		if in.Type, err = prompt.AskDefault(p, "Deployment type (kubernetes/docker)", in.Type); err != nil {
			return fmt.Errorf("failed to read deployment type: %w", err)
		}
	}

	t, err := config.ParseDeploymentType(in.Type)
	if err != nil {
		return err
	}
	if t == config.Kubernetes && !cmd.IsSet("namespace") {
		if in.Namespace, err = prompt.AskDefault(p, "Kubernetes namespace", in.Namespace); err != nil {
			return fmt.Errorf("failed to read namespace: %w", err)
		}
	}

	if in.Domain, err = prompt.AskDefault(p, "Anomalo domain (e.g. acme.anomalo.com)", ""); err != nil {
		return fmt.Errorf("failed to read domain: %w", err)
	}
	return nil
}
