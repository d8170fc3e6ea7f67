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
	"github.com/urfave/cli/v3"

	"github.com/anomalo/diagnostics/pkg/config"
	"github.com/anomalo/diagnostics/pkg/defaults"
	"github.com/anomalo/diagnostics/pkg/logging"
)

const envPrefix = "ANOMALO_DIAG_"

func env(key string) cli.ValueSourceChain {
	return cli.EnvVars(envPrefix + key)
}

func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Usage:   "Deployment type (kubernetes, docker)",
			Value:   string(config.Kubernetes),
			Sources: env("TYPE"),
		},
		&cli.StringFlag{
			Name:    "namespace",
			Aliases: []string{"n"},
			Usage:   "Kubernetes namespace of the deployment (kubernetes only)",
			Value:   defaults.Namespace,
			Sources: env("NAMESPACE"),
		},
		&cli.StringFlag{
			Name:    "domain",
			Aliases: []string{"d"},
			Usage:   "Domain the deployment is served on, e.g. acme.anomalo.com",
			Sources: env("DOMAIN"),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output directory; the archive is written next to it (default anomalo_diagnostics_<timestamp>)",
			Sources: env("OUTPUT"),
		},
		&cli.IntFlag{
			Name:    "logs",
			Usage:   "Number of trailing log lines per pod or container",
			Value:   defaults.LogLines,
			Sources: env("LOGS"),
		},
		&cli.IntFlag{
			Name:    "max-pods",
			Usage:   "Pod ceiling before asking how much to collect",
			Value:   defaults.MaxPods,
			Sources: env("MAX_PODS"),
		},
		&cli.IntFlag{
			Name:    "max-containers",
			Usage:   "Container ceiling before asking how much to collect",
			Value:   defaults.MaxContainers,
			Sources: env("MAX_CONTAINERS"),
		},
		&cli.StringFlag{
			Name:    "kubeconfig",
			Usage:   "Path to the kubeconfig file (default $KUBECONFIG or ~/.kube/config)",
			Sources: cli.EnvVars("KUBECONFIG"),
		},
		&cli.StringFlag{
			Name:  "context",
			Usage: "Kubeconfig context to use",
		},
		&cli.StringFlag{
			Name:    "include-secret",
			Usage:   "Also dump the body of this one secret",
			Sources: env("INCLUDE_SECRET"),
		},
		&cli.BoolFlag{
			Name:    "non-interactive",
			Aliases: []string{"y"},
			Usage:   "Never prompt; large collections are truncated to their ceiling",
			Sources: env("NON_INTERACTIVE"),
		},
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Replace an existing output directory without asking",
		},
		&cli.FloatFlag{
			Name:    "qps",
			Usage:   "Maximum artifact tasks per second (0 disables pacing)",
			Value:   defaults.RequestsPerSecond,
			Sources: env("QPS"),
		},
		&cli.FloatFlag{
			Name:  "kube-qps",
			Usage: "client-go request rate against the API server",
			Value: defaults.KubeQPS,
		},
		&cli.IntFlag{
			Name:  "kube-burst",
			Usage: "client-go request burst against the API server",
			Value: defaults.KubeBurst,
		},
		&cli.DurationFlag{
			Name:    "task-timeout",
			Usage:   "Bound for each collection task (0 leaves tasks unbounded)",
			Value:   defaults.TaskTimeout,
			Sources: env("TASK_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:    "push",
			Usage:   "Upload the archive to an OCI registry (oci://registry/repository[:tag])",
			Sources: env("PUSH"),
		},
		&cli.BoolFlag{
			Name:  "plain-http",
			Usage: "Use HTTP instead of HTTPS for the registry",
		},
		&cli.BoolFlag{
			Name:  "insecure-tls",
			Usage: "Skip TLS verification for the registry",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "warn",
			Sources: cli.EnvVars(logging.EnvVarLogLevel),
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format (text, json)",
			Value: logging.FormatText,
		},
	}
}
