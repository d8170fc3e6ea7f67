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
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// Engine implements API with the Docker Engine SDK.
type Engine struct {
	cli *client.Client
}

// NewEngine connects using the standard DOCKER_HOST / DOCKER_* environment
// and negotiates the API version with the daemon. Building the client does
// not contact the daemon.
func NewEngine(opts ...client.Opt) (*Engine, error) {
	all := append([]client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}, opts...)
	cli, err := client.NewClientWithOpts(all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Engine{cli: cli}, nil
}

func (e *Engine) Ping(ctx context.Context) error {
	_, err := e.cli.Ping(ctx)
	return err
}

func (e *Engine) Info(ctx context.Context) (*Info, error) {
	i, err := e.cli.Info(ctx)
	if err != nil {
		return nil, err
	}
	return &Info{
		ID:                i.ID,
		Name:              i.Name,
		ServerVersion:     i.ServerVersion,
		OperatingSystem:   i.OperatingSystem,
		OSType:            i.OSType,
		Architecture:      i.Architecture,
		KernelVersion:     i.KernelVersion,
		NCPU:              i.NCPU,
		MemTotal:          i.MemTotal,
		Driver:            i.Driver,
		LoggingDriver:     i.LoggingDriver,
		CgroupDriver:      i.CgroupDriver,
		CgroupVersion:     i.CgroupVersion,
		DockerRootDir:     i.DockerRootDir,
		Containers:        i.Containers,
		ContainersRunning: i.ContainersRunning,
		ContainersPaused:  i.ContainersPaused,
		ContainersStopped: i.ContainersStopped,
		Images:            i.Images,
		Warnings:          i.Warnings,
	}, nil
}

func (e *Engine) Version(ctx context.Context) (*Version, error) {
	v, err := e.cli.ServerVersion(ctx)
	if err != nil {
		return nil, err
	}
	out := &Version{
		Version:       v.Version,
		APIVersion:    v.APIVersion,
		MinAPIVersion: v.MinAPIVersion,
		GitCommit:     v.GitCommit,
		GoVersion:     v.GoVersion,
		OS:            v.Os,
		Arch:          v.Arch,
		KernelVersion: v.KernelVersion,
		BuildTime:     v.BuildTime,
	}
	for _, c := range v.Components {
		out.Components = append(out.Components, Component{Name: c.Name, Version: c.Version})
	}
	return out, nil
}

// Containers lists every container, stopped ones included.
func (e *Engine) Containers(ctx context.Context) ([]Container, error) {
	list, err := e.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, err
	}
	out := make([]Container, 0, len(list))
	for _, c := range list {
		ct := Container{
			ID:      c.ID,
			Name:    containerName(c.Names, c.ID),
			Image:   c.Image,
			Command: c.Command,
			Created: time.Unix(c.Created, 0),
			State:   c.State,
			Status:  c.Status,
			Labels:  c.Labels,
		}
		for _, p := range c.Ports {
			ct.Ports = append(ct.Ports, formatPort(p.IP, p.PublicPort, p.PrivatePort, p.Type))
		}
		out = append(out, ct)
	}
	return out, nil
}

func (e *Engine) Images(ctx context.Context) ([]Image, error) {
	list, err := e.cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]Image, 0, len(list))
	for _, i := range list {
		out = append(out, Image{ID: i.ID, RepoTags: i.RepoTags, Created: time.Unix(i.Created, 0), Size: i.Size})
	}
	return out, nil
}

func (e *Engine) Volumes(ctx context.Context) ([]Volume, error) {
	resp, err := e.cli.VolumeList(ctx, volume.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]Volume, 0, len(resp.Volumes))
	for _, v := range resp.Volumes {
		if v == nil {
			continue
		}
		out = append(out, Volume{Name: v.Name, Driver: v.Driver, Scope: v.Scope, Mountpoint: v.Mountpoint})
	}
	return out, nil
}

func (e *Engine) Networks(ctx context.Context) ([]Network, error) {
	list, err := e.cli.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]Network, 0, len(list))
	for _, n := range list {
		out = append(out, Network{ID: n.ID, Name: n.Name, Driver: n.Driver, Scope: n.Scope})
	}
	return out, nil
}

// DiskUsage reduces the daemon's df report to the rows docker system df prints.
func (e *Engine) DiskUsage(ctx context.Context) (*DiskUsage, error) {
	du, err := e.cli.DiskUsage(ctx, types.DiskUsageOptions{})
	if err != nil {
		return nil, err
	}

	out := &DiskUsage{}
	out.Images.Size = du.LayersSize
	for _, i := range du.Images {
		if i == nil {
			continue
		}
		out.Images.Total++
		if i.Containers > 0 {
			out.Images.Active++
		} else {
			out.Images.Reclaimable += i.Size - i.SharedSize
		}
	}
	for _, c := range du.Containers {
		if c == nil {
			continue
		}
		out.Containers.Total++
		out.Containers.Size += c.SizeRw
		if c.State == "running" {
			out.Containers.Active++
		} else {
			out.Containers.Reclaimable += c.SizeRw
		}
	}
	for _, v := range du.Volumes {
		if v == nil {
			continue
		}
		out.Volumes.Total++
		if v.UsageData == nil {
			continue
		}
		if v.UsageData.Size > 0 {
			out.Volumes.Size += v.UsageData.Size
		}
		if v.UsageData.RefCount > 0 {
			out.Volumes.Active++
		} else if v.UsageData.Size > 0 {
			out.Volumes.Reclaimable += v.UsageData.Size
		}
	}
	for _, b := range du.BuildCache {
		if b == nil {
			continue
		}
		out.BuildCache.Total++
		out.BuildCache.Size += b.Size
		if b.InUse {
			out.BuildCache.Active++
		} else if !b.Shared {
			out.BuildCache.Reclaimable += b.Size
		}
	}
	return out, nil
}

// Logs de-multiplexes the log stream unless the container has a TTY, in
// which case everything is written to stdout.
func (e *Engine) Logs(ctx context.Context, id string, tail int, stdout, stderr io.Writer) error {
	info, err := e.cli.ContainerInspect(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to inspect container %s: %w", id, err)
	}

	rc, err := e.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       strconv.Itoa(tail),
	})
	if err != nil {
		return fmt.Errorf("failed to read logs of %s: %w", id, err)
	}
	defer rc.Close()

	if info.Config != nil && info.Config.Tty {
		_, err = io.Copy(stdout, rc)
	} else {
		_, err = stdcopy.StdCopy(stdout, stderr, rc)
	}
	if err != nil {
		return fmt.Errorf("failed to stream logs of %s: %w", id, err)
	}
	return nil
}

// Inspect returns the indented inspect document.
func (e *Engine) Inspect(ctx context.Context, id string) ([]byte, error) {
	_, raw, err := e.cli.ContainerInspectWithRaw(ctx, id, false)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return raw, nil
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (e *Engine) Close() error {
	return e.cli.Close()
}

func containerName(names []string, id string) string {
	for _, n := range names {
		if n = strings.TrimPrefix(n, "/"); n != "" {
			return n
		}
	}
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func formatPort(ip string, public, private uint16, proto string) string {
	if public == 0 {
		return fmt.Sprintf("%d/%s", private, proto)
	}
	if ip == "" {
		ip = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d->%d/%s", ip, public, private, proto)
}
