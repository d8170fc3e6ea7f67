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

// Collection limits.
const (
	// LogLines is the default number of trailing log lines per pod or container.
	LogLines = 250

	// LogLinesAdvisory is the threshold above which a log request is flagged
	// as likely producing a very large bundle.
	LogLinesAdvisory = 10000

	// MaxPods is the default pod ceiling before the large-collection guard engages.
	MaxPods = 50

	// MaxContainers is the default container ceiling before the guard engages.
	MaxContainers = 50

	// Namespace is the default Kubernetes namespace.
	Namespace = "anomalo"

	// RequestsPerSecond paces artifact tasks against the control plane.
	RequestsPerSecond = 20

	// KubeQPS and KubeBurst configure the client-go rate limiter.
	KubeQPS   = 50
	KubeBurst = 100
)

// Artifact file names shared by both deployment variants.
const (
	OutputDirPrefix     = "anomalo_diagnostics_"
	OutputDirTimeLayout = "20060102_150405"
	ArchiveExtension    = ".zip"

	SummaryFileName  = "diagnostic_summary.txt"
	ReportFileName   = "run_report.yaml"
	MetricsFileName  = "metrics.json"
	RunStatsFileName = "collection_metrics.prom"
	ChecksumFileName = "checksums.txt"
)

// SupportContact is printed at the end of a successful run.
const SupportContact = "support@anomalo.com"
