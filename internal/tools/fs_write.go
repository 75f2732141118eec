// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package tools

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteFile creates or replaces a file, or appends to it when appendMode
// is set. Missing parent directories are created.
func (f *FS) WriteFile(path, content string, appendMode bool) (string, error) {
	resolved, err := f.resolver.Resolve(path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(resolved.Path); err == nil && info.IsDir() {
		return "", conflict("Cannot write to %s: it is a directory", resolved.Path)
	}
	if err := os.MkdirAll(filepath.Dir(resolved.Path), 0o755); err != nil {
		return "", ioError("create parent directories for", resolved.Path, err)
	}

	if !appendMode {
		if err := os.WriteFile(resolved.Path, []byte(content), 0o644); err != nil {
			return "", ioError("write", resolved.Path, err)
		}
		f.logger.Debug().Str("path", resolved.Path).Int("bytes", len(content)).Msg("wrote file")
		return sprintf("Wrote to %s (%d bytes)", resolved.Path, len(content)), nil
	}

	file, err := os.OpenFile(resolved.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", ioError("open", resolved.Path, err)
	}
	if _, err := file.WriteString(content); err != nil {
		file.Close()
		return "", ioError("append to", resolved.Path, err)
	}
	if err := file.Close(); err != nil {
		return "", ioError("close", resolved.Path, err)
	}
	f.logger.Debug().Str("path", resolved.Path).Int("bytes", len(content)).Msg("appended to file")
	return sprintf("Appended to %s (%d bytes)", resolved.Path, len(content)), nil
}

// MakeDir ensures a directory and its parents exist.
func (f *FS) MakeDir(path string) (string, error) {
	resolved, err := f.resolver.Resolve(path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(resolved.Path); err == nil && !info.IsDir() {
		return "", conflict("Cannot create directory %s: a file with that name exists", resolved.Path)
	}
	if err := os.MkdirAll(resolved.Path, 0o755); err != nil {
		return "", ioError("create directory", resolved.Path, err)
	}
	return sprintf("Directory ensured: %s", resolved.Path), nil
}

// DeletePath removes a file, symlink or directory. A non-empty directory
// is only removed when recursive is set. The roots themselves are never
// deleted.
func (f *FS) DeletePath(path string, recursive bool) (string, error) {
	resolved, err := f.resolver.ResolveEntry(path)
	if err != nil {
		return "", err
	}
	if f.resolver.IsRoot(resolved.Path) {
		return "", refuse("Refusing to delete root directory: %s", resolved.Path)
	}
	if f.resolver.ContainsRoot(resolved.Path) {
		return "", refuse("Refusing to delete %s: it contains a root directory", resolved.Path)
	}
	info, err := os.Lstat(resolved.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notFound("Path not found: %s", resolved.Path)
		}
		return "", ioError("stat", resolved.Path, err)
	}

	if !info.IsDir() {
		if err := os.Remove(resolved.Path); err != nil {
			return "", ioError("delete", resolved.Path, err)
		}
		f.logger.Info().Str("path", resolved.Path).Msg("deleted file")
		return sprintf("Deleted file: %s", resolved.Path), nil
	}

	if !recursive {
		entries, err := os.ReadDir(resolved.Path)
		if err != nil {
			return "", ioError("list", resolved.Path, err)
		}
		if len(entries) > 0 {
			return "", conflict("Directory not empty: %s (set recursive=true to delete it)", resolved.Path)
		}
		if err := os.Remove(resolved.Path); err != nil {
			return "", ioError("delete", resolved.Path, err)
		}
	} else if err := os.RemoveAll(resolved.Path); err != nil {
		return "", ioError("delete", resolved.Path, err)
	}
	f.logger.Info().Str("path", resolved.Path).Msg("deleted directory")
	return sprintf("Deleted directory: %s", resolved.Path), nil
}
