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

	"github.com/coreos/go-systemd/v22/dbus"
)

// DefaultUnits are the container runtime services reported in runtime_units.txt.
var DefaultUnits = []string{"docker.service", "containerd.service", "docker.socket"}

// UnitState is the systemd view of one unit.
type UnitState struct {
	Name        string
	LoadState   string
	ActiveState string
	SubState    string
	Fragment    string
}

// UnitReader returns the state of the named systemd units.
type UnitReader func(ctx context.Context, units []string) ([]UnitState, error)

// SystemdUnits reads unit properties over the systemd D-Bus API.
func SystemdUnits(ctx context.Context, units []string) ([]UnitState, error) {
	conn, err := dbus.NewSystemdConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to systemd: %w", err)
	}
	defer conn.Close()

	states := make([]UnitState, 0, len(units))
	for _, unit := range units {
		props, err := conn.GetUnitPropertiesContext(ctx, unit)
		if err != nil {
			return states, fmt.Errorf("failed to get properties of %s: %w", unit, err)
		}
		states = append(states, UnitState{
			Name:        unit,
			LoadState:   prop(props, "LoadState"),
			ActiveState: prop(props, "ActiveState"),
			SubState:    prop(props, "SubState"),
			Fragment:    prop(props, "FragmentPath"),
		})
	}
	return states, nil
}

func prop(props map[string]any, key string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
