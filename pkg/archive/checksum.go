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

package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/anomalo/diagnostics/pkg/defaults"
)

// Checksums writes checksums.txt into dir with the SHA-256 of every other
// regular file under it, one "<hex>  <relative path>" line per file, in
// walk order. It returns the path of the checksum file.
func Checksums(ctx context.Context, dir string) (string, error) {
	checksumPath := filepath.Join(dir, defaults.ChecksumFileName)

	var lines []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled: %w", err)
		}
		if !d.Type().IsRegular() || path == checksumPath {
			return nil
		}

		sum, err := fileSHA256(path)
		if err != nil {
			return fmt.Errorf("failed to read %s for checksum: %w", path, err)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		lines = append(lines, fmt.Sprintf("%s  %s", sum, filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return "", err
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(checksumPath, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("failed to write checksums: %w", err)
	}

	slog.Debug("checksums generated", "file_count", len(lines), "path", checksumPath)
	return checksumPath, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
