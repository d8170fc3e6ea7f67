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
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"

	"github.com/anomalo/diagnostics/pkg/executor"
)

func (c *Collector) writeOS(ctx context.Context, w io.Writer) error {
	return c.writeSections(ctx, w,
		section{title: "kernel", sources: []source{cmd("uname", "-a")}, fallback: c.psKernel},
		section{title: "release", sources: []source{file(c.releasePaths[0]), file(c.releasePaths[len(c.releasePaths)-1]), cmd("sw_vers")}, fallback: c.psPlatform},
	)
}

func (c *Collector) writeCPU(ctx context.Context, w io.Writer) error {
	return c.writeSections(ctx, w, section{
		title:    "cpu",
		sources:  []source{cmd("lscpu"), cmd("sysctl", "-n", "machdep.cpu.brand_string")},
		fallback: c.psCPU,
	})
}

func (c *Collector) writeMemory(ctx context.Context, w io.Writer) error {
	return c.writeSections(ctx, w, section{
		title:    "memory",
		sources:  []source{cmd("free", "-h"), cmd("vm_stat")},
		fallback: c.psMemory,
	})
}

func (c *Collector) writeDisk(ctx context.Context, w io.Writer) error {
	return c.writeSections(ctx, w, section{
		title:    "disk",
		sources:  []source{cmd("df", "-h")},
		fallback: c.psDisk,
	})
}

func (c *Collector) writeNetwork(ctx context.Context, w io.Writer) error {
	return c.writeSections(ctx, w,
		section{title: "interfaces", sources: []source{cmd("ip", "addr"), cmd("ifconfig")}, fallback: c.psInterfaces},
		section{title: "routes", sources: []source{cmd("ip", "route"), cmd("netstat", "-rn")}},
	)
}

func (c *Collector) writeUnits(ctx context.Context, w io.Writer) error {
	states, err := c.readUnits(ctx, c.units)
	if len(states) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
		fmt.Fprintln(tw, "UNIT\tLOAD\tACTIVE\tSUB\tFRAGMENT")
		for _, s := range states {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Name, s.LoadState, s.ActiveState, s.SubState, s.Fragment)
		}
		if ferr := tw.Flush(); ferr != nil {
			return ferr
		}
	}
	if err != nil {
		return executor.Advisory(fmt.Errorf("systemd unit state unavailable: %w", err))
	}
	return nil
}

func (c *Collector) psKernel(ctx context.Context, w io.Writer) error {
	info, err := c.probe.Host(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "kernel: %s %s\n", info.KernelVersion, info.KernelArch)
	fmt.Fprintf(w, "hostname: %s\n", info.Hostname)
	fmt.Fprintf(w, "uptime: %s\n", units.HumanDuration(time.Duration(info.Uptime)*time.Second))
	return nil
}

func (c *Collector) psPlatform(ctx context.Context, w io.Writer) error {
	info, err := c.probe.Host(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "os: %s\n", info.OS)
	fmt.Fprintf(w, "platform: %s %s (%s)\n", info.Platform, info.PlatformVersion, info.PlatformFamily)
	if info.VirtualizationSystem != "" {
		fmt.Fprintf(w, "virtualization: %s %s\n", info.VirtualizationSystem, info.VirtualizationRole)
	}
	return nil
}

func (c *Collector) psCPU(ctx context.Context, w io.Writer) error {
	infos, err := c.probe.CPU(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return fmt.Errorf("no cpu information reported")
	}
	logical, err := c.probe.LogicalCPUs(ctx)
	if err != nil {
		logical = len(infos)
	}
	first := infos[0]
	fmt.Fprintf(w, "model: %s\n", first.ModelName)
	fmt.Fprintf(w, "vendor: %s\n", first.VendorID)
	fmt.Fprintf(w, "logical cpus: %d\n", logical)
	fmt.Fprintf(w, "mhz: %.0f\n", first.Mhz)
	return nil
}

func (c *Collector) psMemory(ctx context.Context, w io.Writer) error {
	vm, err := c.probe.Memory(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "total: %s\n", units.BytesSize(float64(vm.Total)))
	fmt.Fprintf(w, "used: %s (%.1f%%)\n", units.BytesSize(float64(vm.Used)), vm.UsedPercent)
	fmt.Fprintf(w, "available: %s\n", units.BytesSize(float64(vm.Available)))
	fmt.Fprintf(w, "swap: %s total, %s free\n", units.BytesSize(float64(vm.SwapTotal)), units.BytesSize(float64(vm.SwapFree)))
	return nil
}

func (c *Collector) psDisk(ctx context.Context, w io.Writer) error {
	parts, err := c.probe.Partitions(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "FILESYSTEM\tTYPE\tSIZE\tUSED\tAVAIL\tUSE%\tMOUNTED ON")
	for _, p := range parts {
		u, err := c.probe.Usage(ctx, p.Mountpoint)
		if err != nil {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\t%s\n", p.Device, p.Fstype, p.Mountpoint)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.0f%%\t%s\n", p.Device, p.Fstype,
			units.HumanSize(float64(u.Total)), units.HumanSize(float64(u.Used)), units.HumanSize(float64(u.Free)),
			u.UsedPercent, p.Mountpoint)
	}
	return tw.Flush()
}

func (c *Collector) psInterfaces(ctx context.Context, w io.Writer) error {
	ifaces, err := c.probe.Interfaces(ctx)
	if err != nil {
		return err
	}
	for _, i := range ifaces {
		fmt.Fprintf(w, "%d: %s mtu %d <%s>\n", i.Index, i.Name, i.MTU, strings.Join(i.Flags, ","))
		if i.HardwareAddr != "" {
			fmt.Fprintf(w, "    ether %s\n", i.HardwareAddr)
		}
		for _, a := range i.Addrs {
			fmt.Fprintf(w, "    inet %s\n", a.Addr)
		}
	}
	return nil
}
