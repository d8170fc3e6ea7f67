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

package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"
)

const (
	composeProjectLabel = "com.docker.compose.project"
	composeServiceLabel = "com.docker.compose.service"
)

var now = time.Now

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...string) {
	fmt.Fprintln(tw, strings.Join(cols, "\t"))
}

func ago(t time.Time) string {
	if t.IsZero() || t.Unix() <= 0 {
		return "<unknown>"
	}
	return units.HumanDuration(now().Sub(t)) + " ago"
}

func shortID(id string) string {
	id = strings.TrimPrefix(id, "sha256:")
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

func (c *Collector) writeInfo(ctx context.Context, w io.Writer) error {
	i, err := c.api.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get daemon info: %w", err)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, kv := range [][2]string{
		{"ID", i.ID},
		{"Name", i.Name},
		{"Server Version", i.ServerVersion},
		{"Operating System", i.OperatingSystem},
		{"OSType", i.OSType},
		{"Architecture", i.Architecture},
		{"Kernel Version", i.KernelVersion},
		{"CPUs", fmt.Sprint(i.NCPU)},
		{"Total Memory", units.BytesSize(float64(i.MemTotal))},
		{"Storage Driver", i.Driver},
		{"Logging Driver", i.LoggingDriver},
		{"Cgroup Driver", i.CgroupDriver},
		{"Cgroup Version", i.CgroupVersion},
		{"Docker Root Dir", i.DockerRootDir},
		{"Containers", fmt.Sprintf("%d (running %d, paused %d, stopped %d)", i.Containers, i.ContainersRunning, i.ContainersPaused, i.ContainersStopped)},
		{"Images", fmt.Sprint(i.Images)},
	} {
		fmt.Fprintf(tw, "%s:\t%s\n", kv[0], kv[1])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, warn := range i.Warnings {
		fmt.Fprintf(w, "WARNING: %s\n", warn)
	}
	return nil
}

func (c *Collector) writeContainers(ctx context.Context, w io.Writer) error {
	list, err := c.api.Containers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}
	tw := newTable(w, "CONTAINER ID", "IMAGE", "COMMAND", "CREATED", "STATUS", "PORTS", "NAMES")
	for _, ct := range list {
		row(tw, shortID(ct.ID), ct.Image, fmt.Sprintf("%q", ct.Command), ago(ct.Created), ct.Status, strings.Join(ct.Ports, ", "), ct.Name)
	}
	return tw.Flush()
}

// writeCompose groups containers by compose project and service.
func writeCompose(w io.Writer, containers []Container) error {
	projects := map[string][]Container{}
	for _, ct := range containers {
		if p := ct.Labels[composeProjectLabel]; p != "" {
			projects[p] = append(projects[p], ct)
		}
	}
	if len(projects) == 0 {
		_, err := io.WriteString(w, "No compose projects found.\n")
		return err
	}

	names := make([]string, 0, len(projects))
	for p := range projects {
		names = append(names, p)
	}
	sort.Strings(names)

	tw := newTable(w, "PROJECT", "SERVICE", "CONTAINER", "IMAGE", "STATE", "STATUS")
	for _, p := range names {
		members := projects[p]
		sort.Slice(members, func(i, j int) bool {
			return members[i].Labels[composeServiceLabel] < members[j].Labels[composeServiceLabel]
		})
		for _, ct := range members {
			row(tw, p, orNone(ct.Labels[composeServiceLabel]), ct.Name, ct.Image, ct.State, ct.Status)
		}
	}
	return tw.Flush()
}

func (c *Collector) writeImages(ctx context.Context, w io.Writer) error {
	list, err := c.api.Images(ctx)
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}
	tw := newTable(w, "REPOSITORY", "TAG", "IMAGE ID", "CREATED", "SIZE")
	for _, img := range list {
		tags := img.RepoTags
		if len(tags) == 0 {
			tags = []string{"<none>:<none>"}
		}
		for _, t := range tags {
			repo, tag := splitTag(t)
			row(tw, repo, tag, shortID(img.ID), ago(img.Created), units.HumanSize(float64(img.Size)))
		}
	}
	return tw.Flush()
}

// splitTag splits repo:tag at the last colon that is not part of a
// registry port.
func splitTag(ref string) (string, string) {
	i := strings.LastIndex(ref, ":")
	if i < 0 || strings.Contains(ref[i+1:], "/") {
		return ref, "<none>"
	}
	return ref[:i], ref[i+1:]
}

func (c *Collector) writeVolumes(ctx context.Context, w io.Writer) error {
	list, err := c.api.Volumes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list volumes: %w", err)
	}
	tw := newTable(w, "DRIVER", "VOLUME NAME", "SCOPE", "MOUNTPOINT")
	for _, v := range list {
		row(tw, v.Driver, v.Name, v.Scope, v.Mountpoint)
	}
	return tw.Flush()
}

func (c *Collector) writeNetworks(ctx context.Context, w io.Writer) error {
	list, err := c.api.Networks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list networks: %w", err)
	}
	tw := newTable(w, "NETWORK ID", "NAME", "DRIVER", "SCOPE")
	for _, n := range list {
		row(tw, shortID(n.ID), n.Name, n.Driver, n.Scope)
	}
	return tw.Flush()
}

func (c *Collector) writeDiskUsage(ctx context.Context, w io.Writer) error {
	du, err := c.api.DiskUsage(ctx)
	if err != nil {
		return fmt.Errorf("failed to get disk usage: %w", err)
	}
	tw := newTable(w, "TYPE", "TOTAL", "ACTIVE", "SIZE", "RECLAIMABLE")
	for _, line := range []struct {
		name string
		u    UsageLine
	}{
		{"Images", du.Images},
		{"Containers", du.Containers},
		{"Local Volumes", du.Volumes},
		{"Build Cache", du.BuildCache},
	} {
		row(tw, line.name, fmt.Sprint(line.u.Total), fmt.Sprint(line.u.Active),
			units.HumanSize(float64(line.u.Size)), units.HumanSize(float64(line.u.Reclaimable)))
	}
	return tw.Flush()
}

func (c *Collector) writeVersion(ctx context.Context, w io.Writer) error {
	v, err := c.api.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to get daemon version: %w", err)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintln(tw, "Server:")
	for _, kv := range [][2]string{
		{"Version", v.Version},
		{"API version", fmt.Sprintf("%s (minimum version %s)", v.APIVersion, v.MinAPIVersion)},
		{"Go version", v.GoVersion},
		{"Git commit", v.GitCommit},
		{"Built", v.BuildTime},
		{"OS/Arch", v.OS + "/" + v.Arch},
		{"Kernel", v.KernelVersion},
	} {
		fmt.Fprintf(tw, " %s:\t%s\n", kv[0], kv[1])
	}
	for _, comp := range v.Components {
		fmt.Fprintf(tw, " %s:\t%s\n", comp.Name, comp.Version)
	}
	return tw.Flush()
}

// logBuffer holds the stderr half of a log stream until its own task
// persists it. A stream error is recorded by the stdout task only.
type logBuffer struct {
	bytes.Buffer
}

func (b *logBuffer) flush(_ context.Context, w io.Writer) error {
	_, err := w.Write(b.Bytes())
	return err
}
