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

package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/anomalo/diagnostics/pkg/defaults"
)

func sampleReport(dir string) *Report {
	r := New(Meta{Version: "v1.0.0", DeploymentType: "kubernetes", Namespace: "anomalo", Domain: "acme.anomalo.com"})
	r.Append(Entry{Description: "events", Path: filepath.Join(dir, "events_anomalo.txt"), Status: StatusSuccess})
	r.Append(Entry{Description: "node metrics", Path: filepath.Join(dir, "node_metrics.txt"), Status: StatusWarning, Error: "metrics API not available"})
	r.Append(Entry{Description: "logs for api-0", Path: filepath.Join(dir, "logs_api-0_last250.txt"), Status: StatusFailure, Error: "stream closed"})
	r.Append(Entry{Description: "logs retry", Path: filepath.Join(dir, "logs_api-0_last250.txt"), Status: StatusSuccess})
	return r
}

func TestReport_AppendOnlyOrder(t *testing.T) {
	r := sampleReport("/out")
	entries := r.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "events", entries[0].Description)
	assert.Equal(t, "logs retry", entries[3].Description)

	// mutating the returned copy does not change the report
	entries[0].Description = "changed"
	assert.Equal(t, "events", r.Entries()[0].Description)

	counts := r.Counts()
	assert.Equal(t, 2, counts[StatusSuccess])
	assert.Equal(t, 1, counts[StatusFailure])
	assert.Equal(t, 1, counts[StatusWarning])
	assert.NotEmpty(t, r.RunID())
}

func TestReport_WriteSummary(t *testing.T) {
	dir := t.TempDir()
	r := sampleReport(dir)
	r.Finish()

	path, err := r.WriteSummary(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, defaults.SummaryFileName), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)

	assert.Contains(t, out, "Namespace:       anomalo")
	assert.Contains(t, out, "Domain:          acme.anomalo.com")
	assert.Contains(t, out, "4 (2 succeeded, 1 failed, 1 warnings)")
	assert.Contains(t, out, "  events_anomalo.txt\n")
	assert.Contains(t, out, "  node_metrics.txt\n")
	assert.Equal(t, 1, strings.Count(out, "  logs_api-0_last250.txt\n"), "paths are listed once")
	assert.Contains(t, out, "[failure] logs for api-0: stream closed")
	assert.Contains(t, out, "[warning] node metrics: metrics API not available")
	assert.NotContains(t, out, dir, "paths are relative to the output directory")
}

func TestReport_WriteSummaryDockerOmitsNamespace(t *testing.T) {
	dir := t.TempDir()
	r := New(Meta{DeploymentType: "docker", Domain: "acme.anomalo.com"})
	path, err := r.WriteSummary(dir)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Namespace:")
	assert.NotContains(t, string(raw), "Failures and Warnings")
}

func TestReport_WriteStructured(t *testing.T) {
	dir := t.TempDir()
	r := sampleReport(dir)
	r.Finish()

	path, err := r.WriteStructured(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, defaults.ReportFileName, filepath.Base(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		RunID   string         `yaml:"runId"`
		Meta    Meta           `yaml:"meta"`
		Counts  map[string]int `yaml:"counts"`
		Entries []Entry        `yaml:"entries"`
	}
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	assert.Equal(t, r.RunID(), doc.RunID)
	assert.Equal(t, "kubernetes", doc.Meta.DeploymentType)
	assert.Equal(t, 2, doc.Counts["success"])
	require.Len(t, doc.Entries, 4)
	assert.Equal(t, "events_anomalo.txt", doc.Entries[0].Path)
	assert.Equal(t, StatusWarning, doc.Entries[1].Status)
}

func TestReport_DiscardedPathsAreNotListed(t *testing.T) {
	dir := t.TempDir()
	r := New(Meta{DeploymentType: "docker", Domain: "acme.anomalo.com"})
	r.Append(Entry{Description: "stdout", Path: filepath.Join(dir, "logs_web_stdout.txt"), Status: StatusSuccess})
	r.Append(Entry{Description: "stderr", Path: filepath.Join(dir, "logs_web_stderr.txt"), Status: StatusSuccess})
	r.Discard(filepath.Join(dir, "logs_web_stderr.txt"))

	path, err := r.WriteSummary(dir)
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "logs_web_stdout.txt")
	assert.NotContains(t, string(raw), "logs_web_stderr.txt")

	path, err = r.WriteStructured(context.Background(), dir)
	require.NoError(t, err)
	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "discarded:")
	assert.Contains(t, string(raw), "- logs_web_stderr.txt")
}
