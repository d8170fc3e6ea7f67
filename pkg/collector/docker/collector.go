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
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/anomalo/diagnostics/pkg/collector/step"
	"github.com/anomalo/diagnostics/pkg/config"
	"github.com/anomalo/diagnostics/pkg/defaults"
	"github.com/anomalo/diagnostics/pkg/errors"
	"github.com/anomalo/diagnostics/pkg/executor"
	"github.com/anomalo/diagnostics/pkg/guard"
)

// DaemonSteps is the number of daemon-wide listing steps. A run's daemon
// phase totals DaemonSteps + 2 per container + 1 for the final cleanup.
const DaemonSteps = 8

// HostCollector gathers host facts ahead of the daemon phase.
type HostCollector interface {
	Collect(ctx context.Context, env *step.Env) error
}

// Collector gathers diagnostics from a Docker host.
type Collector struct {
	cfg  *config.RunConfig
	api  API
	host HostCollector
}

// New returns a Collector. host may be nil to skip the host phase.
func New(cfg *config.RunConfig, api API, host HostCollector) *Collector {
	return &Collector{cfg: cfg, api: api, host: host}
}

// Name implements collector.Collector.
func (c *Collector) Name() string {
	return string(config.Docker)
}

// Preflight checks that the daemon answers.
func (c *Collector) Preflight(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaults.DockerPingTimeout)
	defer cancel()

	if err := c.api.Ping(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, "docker daemon is not reachable", err)
	}
	return nil
}

// Close releases the daemon connection.
func (c *Collector) Close() error {
	return c.api.Close()
}

// Collect runs the host phase and then the daemon phase. It returns only
// on interrupt or operator abort.
func (c *Collector) Collect(ctx context.Context, env *step.Env) error {
	if c.host != nil {
		if err := c.host.Collect(ctx, env); err != nil {
			return err
		}
	}

	containers, err := c.api.Containers(ctx)
	if err != nil {
		slog.Warn("failed to discover containers", "error", err)
	}
	env.Progress.Init(DaemonSteps + 2*len(containers) + 1)

	phases := []func(context.Context, *step.Env) error{
		func(ctx context.Context, env *step.Env) error { return c.daemonPhase(ctx, env, containers) },
		func(ctx context.Context, env *step.Env) error { return c.logsPhase(ctx, env, containers) },
		func(ctx context.Context, env *step.Env) error { return c.inspectPhase(ctx, env, containers) },
		c.cleanupPhase,
	}
	for _, phase := range phases {
		if err := phase(ctx, env); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) daemonPhase(ctx context.Context, env *step.Env, containers []Container) error {
	tasks := []executor.Task{
		{Description: "docker info", OutputPath: env.Path("docker_info.txt"), Op: c.writeInfo},
		{Description: "docker containers", OutputPath: env.Path("docker_containers.txt"), Op: c.writeContainers},
		{Description: "docker compose projects", OutputPath: env.Path("docker_compose.txt"), Op: func(_ context.Context, w io.Writer) error {
			return writeCompose(w, containers)
		}},
		{Description: "docker images", OutputPath: env.Path("docker_images.txt"), Op: c.writeImages},
		{Description: "docker volumes", OutputPath: env.Path("docker_volumes.txt"), Op: c.writeVolumes},
		{Description: "docker networks", OutputPath: env.Path("docker_networks.txt"), Op: c.writeNetworks},
		{Description: "docker disk usage", OutputPath: env.Path("docker_disk_usage.txt"), Op: c.writeDiskUsage},
		{Description: "docker version", OutputPath: env.Path("docker_version.txt"), Op: c.writeVersion},
	}
	for _, task := range tasks {
		if _, err := env.Run(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) limit() guard.Limit {
	return guard.Limit{Max: c.cfg.MaxContainers, Preset: c.cfg.MaxContainersPreset}
}

func (c *Collector) logsPhase(ctx context.Context, env *step.Env, containers []Container) error {
	limit := c.limit()
	decision, err := env.Guard.Decide("container logs", len(containers), limit)
	if err != nil {
		return err
	}
	selected, skipped := guard.Plan(env.Guard, decision, containers, limit)
	slog.Info("collecting container logs", "decision", decision.String(), "selected", len(selected), "skipped", skipped)

	for _, ct := range selected {
		if _, err := env.RunGroup(ctx, "logs for "+ct.Name, c.logTasks(env, ct)...); err != nil {
			return err
		}
	}
	env.Skip(skipped, fmt.Sprintf("%d container logs skipped", skipped))
	return nil
}

// logTasks splits one log stream into the stdout and stderr artifacts.
// The stream is read once, by the stdout task; the stderr task persists
// what it captured.
func (c *Collector) logTasks(env *step.Env, ct Container) []executor.Task {
	var stderr logBuffer
	return []executor.Task{
		{
			Description: fmt.Sprintf("stdout logs for container %s (last %d lines)", ct.Name, c.cfg.LogLines),
			OutputPath:  env.Path(fmt.Sprintf("logs_%s_stdout.txt", ct.Name)),
			Op: func(ctx context.Context, w io.Writer) error {
				return c.api.Logs(ctx, ct.ID, c.cfg.LogLines, w, &stderr)
			},
		},
		{
			Description: fmt.Sprintf("stderr logs for container %s (last %d lines)", ct.Name, c.cfg.LogLines),
			OutputPath:  env.Path(fmt.Sprintf("logs_%s_stderr.txt", ct.Name)),
			Op:          stderr.flush,
		},
	}
}

func (c *Collector) inspectPhase(ctx context.Context, env *step.Env, containers []Container) error {
	limit := c.limit()
	decision, err := env.Guard.Decide("container inspections", len(containers), limit)
	if err != nil {
		return err
	}
	selected, skipped := guard.Plan(env.Guard, decision, containers, limit)
	slog.Info("inspecting containers", "decision", decision.String(), "selected", len(selected), "skipped", skipped)

	for _, ct := range selected {
		id := ct.ID
		if _, err := env.Run(ctx, executor.Task{
			Description: "inspect container " + ct.Name,
			OutputPath:  env.Path(fmt.Sprintf("inspect_%s.txt", ct.Name)),
			Op: func(ctx context.Context, w io.Writer) error {
				raw, err := c.api.Inspect(ctx, id)
				if err != nil {
					return fmt.Errorf("failed to inspect container: %w", err)
				}
				_, err = w.Write(raw)
				return err
			},
		}); err != nil {
			return err
		}
	}
	env.Skip(skipped, fmt.Sprintf("%d container inspections skipped", skipped))
	return nil
}

// cleanupPhase removes output files that ended up empty, such as the
// stderr half of a quiet container.
func (c *Collector) cleanupPhase(ctx context.Context, env *step.Env) error {
	_, err := env.Run(ctx, executor.Task{
		Description: "remove empty output files",
		Op: func(context.Context, io.Writer) error {
			removed, err := RemoveEmptyFiles(env.Dir)
			env.Executor.Report().Discard(removed...)
			if len(removed) > 0 {
				slog.Debug("removed empty output files", "count", len(removed))
			}
			return err
		},
	})
	return err
}

// RemoveEmptyFiles deletes every zero-length regular file under dir and
// returns their paths.
func RemoveEmptyFiles(dir string) ([]string, error) {
	var removed []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > 0 {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed = append(removed, path)
		return nil
	})
	return removed, err
}
