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
	"strings"
)

// Release files in lookup order, per os-release(5).
var releasePaths = []string{"/etc/os-release", "/usr/lib/os-release"}

// parseRelease reads KEY=value pairs, dropping comments, blank lines and
// surrounding quotes.
func parseRelease(raw []byte) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		v = strings.Trim(strings.TrimSpace(v), `"'`)
		if v == "" {
			continue
		}
		out[strings.TrimSpace(k)] = v
	}
	return out
}

func (c *Collector) readRelease() (map[string]string, error) {
	var lastErr error
	for _, path := range c.releasePaths {
		raw, err := c.runner.ReadFile(path)
		if err != nil {
			lastErr = err
			continue
		}
		return parseRelease(raw), nil
	}
	return nil, lastErr
}
