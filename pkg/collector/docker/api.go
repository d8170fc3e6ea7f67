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
	"context"
	"io"
	"time"
)

// API is the subset of the Docker Engine API the collector uses.
type API interface {
	Ping(ctx context.Context) error
	Info(ctx context.Context) (*Info, error)
	Version(ctx context.Context) (*Version, error)
	Containers(ctx context.Context) ([]Container, error)
	Images(ctx context.Context) ([]Image, error)
	Volumes(ctx context.Context) ([]Volume, error)
	Networks(ctx context.Context) ([]Network, error)
	DiskUsage(ctx context.Context) (*DiskUsage, error)
	// Logs writes the last tail lines of a container's output, split into
	// its stdout and stderr streams.
	Logs(ctx context.Context, id string, tail int, stdout, stderr io.Writer) error
	// Inspect returns the raw inspect document of a container.
	Inspect(ctx context.Context, id string) ([]byte, error)
	Close() error
}

// Info describes the daemon.
type Info struct {
	ID                string
	Name              string
	ServerVersion     string
	OperatingSystem   string
	OSType            string
	Architecture      string
	KernelVersion     string
	NCPU              int
	MemTotal          int64
	Driver            string
	LoggingDriver     string
	CgroupDriver      string
	CgroupVersion     string
	DockerRootDir     string
	Containers        int
	ContainersRunning int
	ContainersPaused  int
	ContainersStopped int
	Images            int
	Warnings          []string
}

// Version is the daemon and component version report.
type Version struct {
	Version       string
	APIVersion    string
	MinAPIVersion string
	GitCommit     string
	GoVersion     string
	OS            string
	Arch          string
	KernelVersion string
	BuildTime     string
	Components    []Component
}

// Component is one versioned engine component, such as containerd or runc.
type Component struct {
	Name    string
	Version string
}

// Container is one entry of the container listing.
type Container struct {
	ID      string
	Name    string
	Image   string
	Command string
	Created time.Time
	State   string
	Status  string
	Ports   []string
	Labels  map[string]string
}

// Image is one entry of the image listing.
type Image struct {
	ID       string
	RepoTags []string
	Created  time.Time
	Size     int64
}

// Volume is one entry of the volume listing.
type Volume struct {
	Name       string
	Driver     string
	Scope      string
	Mountpoint string
}

// Network is one entry of the network listing.
type Network struct {
	ID     string
	Name   string
	Driver string
	Scope  string
}

// DiskUsage is the daemon's space accounting.
type DiskUsage struct {
	Images     UsageLine
	Containers UsageLine
	Volumes    UsageLine
	BuildCache UsageLine
}

// UsageLine is one row of the disk usage report.
type UsageLine struct {
	Total       int
	Active      int
	Size        int64
	Reclaimable int64
}
