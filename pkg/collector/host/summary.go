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

package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/anomalo/diagnostics/pkg/executor"
	"github.com/anomalo/diagnostics/pkg/serializer"
)

// Summary is the machine-readable host snapshot written to host_summary.json.
type Summary struct {
	Hostname        string            `json:"hostname,omitempty"`
	OS              string            `json:"os,omitempty"`
	Platform        string            `json:"platform,omitempty"`
	PlatformVersion string            `json:"platformVersion,omitempty"`
	KernelVersion   string            `json:"kernelVersion,omitempty"`
	KernelArch      string            `json:"kernelArch,omitempty"`
	Virtualization  string            `json:"virtualization,omitempty"`
	BootTime        *time.Time        `json:"bootTime,omitempty"`
	CPUModel        string            `json:"cpuModel,omitempty"`
	LogicalCPUs     int               `json:"logicalCpus,omitempty"`
	Memory          *MemorySummary    `json:"memory,omitempty"`
	Filesystems     []DiskSummary     `json:"filesystems,omitempty"`
	Interfaces      []NetSummary      `json:"interfaces,omitempty"`
	Release         map[string]string `json:"release,omitempty"`
	Errors          []string          `json:"errors,omitempty"`
}

// MemorySummary holds memory figures in bytes.
type MemorySummary struct {
	Total       uint64  `json:"total"`
	Available   uint64  `json:"available"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"usedPercent"`
}

// DiskSummary describes one mounted filesystem.
type DiskSummary struct {
	Device      string  `json:"device"`
	Mountpoint  string  `json:"mountpoint"`
	Fstype      string  `json:"fstype"`
	Total       uint64  `json:"total"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"usedPercent"`
}

// NetSummary describes one network interface.
type NetSummary struct {
	Name         string   `json:"name"`
	MTU          int      `json:"mtu"`
	HardwareAddr string   `json:"hardwareAddr,omitempty"`
	Addrs        []string `json:"addrs,omitempty"`
}

// Snapshot gathers a Summary. Parts that cannot be read are listed in
// Summary.Errors and joined into the returned error.
func (c *Collector) Snapshot(ctx context.Context) (*Summary, error) {
	s := &Summary{}
	var errs []error
	fail := func(what string, err error) {
		errs = append(errs, fmt.Errorf("%s: %w", what, err))
		s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", what, err))
	}

	if info, err := c.probe.Host(ctx); err != nil {
		fail("host", err)
	} else {
		s.Hostname = info.Hostname
		s.OS = info.OS
		s.Platform = info.Platform
		s.PlatformVersion = info.PlatformVersion
		s.KernelVersion = info.KernelVersion
		s.KernelArch = info.KernelArch
		s.Virtualization = info.VirtualizationSystem
		if info.BootTime > 0 {
			bt := time.Unix(int64(info.BootTime), 0).UTC()
			s.BootTime = &bt
		}
	}

	if infos, err := c.probe.CPU(ctx); err != nil {
		fail("cpu", err)
	} else if len(infos) > 0 {
		s.CPUModel = infos[0].ModelName
	}
	if n, err := c.probe.LogicalCPUs(ctx); err == nil {
		s.LogicalCPUs = n
	}

	if vm, err := c.probe.Memory(ctx); err != nil {
		fail("memory", err)
	} else {
		s.Memory = &MemorySummary{Total: vm.Total, Available: vm.Available, Used: vm.Used, UsedPercent: vm.UsedPercent}
	}

	if parts, err := c.probe.Partitions(ctx); err != nil {
		fail("partitions", err)
	} else {
		for _, p := range parts {
			d := DiskSummary{Device: p.Device, Mountpoint: p.Mountpoint, Fstype: p.Fstype}
			if u, err := c.probe.Usage(ctx, p.Mountpoint); err == nil {
				d.Total, d.Free, d.UsedPercent = u.Total, u.Free, u.UsedPercent
			}
			s.Filesystems = append(s.Filesystems, d)
		}
	}

	if ifaces, err := c.probe.Interfaces(ctx); err != nil {
		fail("interfaces", err)
	} else {
		for _, i := range ifaces {
			n := NetSummary{Name: i.Name, MTU: i.MTU, HardwareAddr: i.HardwareAddr}
			for _, a := range i.Addrs {
				n.Addrs = append(n.Addrs, a.Addr)
			}
			s.Interfaces = append(s.Interfaces, n)
		}
	}

	if rel, err := c.readRelease(); err == nil {
		s.Release = rel
	}

	return s, errors.Join(errs...)
}

func (c *Collector) writeSummary(ctx context.Context, w io.Writer) error {
	s, err := c.Snapshot(ctx)
	if serr := serializer.NewWriter(serializer.FormatJSON, w).Serialize(ctx, s); serr != nil {
		return serr
	}
	if err != nil {
		return executor.Advisory(err)
	}
	return nil
}
