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
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ReadFile returns the text of a file, truncated to maxBytes (or the
// configured default when maxBytes <= 0).
func (f *FS) ReadFile(path string, maxBytes int) (string, error) {
	resolved, err := f.resolver.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := statRegularFile(resolved.Path)
	if err != nil {
		return "", err
	}
	if maxBytes <= 0 {
		maxBytes = f.limits.MaxReadBytes
	}

	data, err := readHead(resolved.Path, maxBytes)
	if err != nil {
		return "", err
	}
	kept, truncated := truncateBytes(data, maxBytes)
	text := decodeText(kept)
	if truncated {
		total := info.Size()
		if total < int64(len(data)) {
			total = int64(len(data))
		}
		text += truncationMarker(int64(len(kept)), total)
	}
	return text, nil
}

// readHead reads at most limit+1 bytes so truncation can be detected even
// when the reported size is unreliable.
func readHead(path string, limit int) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, ioError("open", path, err)
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, int64(limit)+1))
	if err != nil {
		return nil, ioError("read", path, err)
	}
	return data, nil
}

// ListDir lists the immediate children of a directory, sorted by name.
func (f *FS) ListDir(path string, maxEntries int) (string, error) {
	resolved, err := f.resolver.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notFound("Directory not found: %s", resolved.Path)
		}
		return "", ioError("stat", resolved.Path, err)
	}
	if !info.IsDir() {
		return "", notFound("Not a directory: %s", resolved.Path)
	}
	if maxEntries <= 0 {
		maxEntries = f.limits.MaxListEntries
	}

	entries, err := os.ReadDir(resolved.Path)
	if err != nil {
		return "", ioError("list", resolved.Path, err)
	}
	if len(entries) == 0 {
		return fmt.Sprintf("Directory is empty: %s", resolved.Path), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Contents of %s:", resolved.Path)
	for i, entry := range entries {
		if i == maxEntries {
			fmt.Fprintf(&b, "\n... (%d more entries)", len(entries)-maxEntries)
			break
		}
		kind := "FILE"
		if isDirEntry(resolved.Path, entry) {
			kind = "DIR"
		}
		fmt.Fprintf(&b, "\n%s %s", kind, entry.Name())
	}
	return b.String(), nil
}

// isDirEntry follows symlinks so a link to a directory lists as DIR.
func isDirEntry(parent string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.IsDir()
}

// SummarizeFile reports a file's size and its first lines.
func (f *FS) SummarizeFile(path string, headLines, maxBytes int) (string, error) {
	resolved, err := f.resolver.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := statRegularFile(resolved.Path)
	if err != nil {
		return "", err
	}
	if headLines <= 0 {
		headLines = f.limits.SummaryHeadLines
	}
	if maxBytes <= 0 {
		maxBytes = f.limits.SummaryMaxBytes
	}

	data, err := readHead(resolved.Path, maxBytes)
	if err != nil {
		return "", err
	}
	kept, truncated := truncateBytes(data, maxBytes)
	lines := strings.SplitAfter(decodeText(kept), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	more := len(lines) > headLines
	if more {
		lines = lines[:headLines]
		truncated = false
	}
	head := strings.TrimRight(strings.Join(lines, ""), "\n")

	var b strings.Builder
	fmt.Fprintf(&b, "Path: %s\nSize: %d bytes\n", resolved.Path, info.Size())
	if len(lines) == 0 {
		b.WriteString("(empty file)")
		return b.String(), nil
	}
	fmt.Fprintf(&b, "First %d lines:\n%s", len(lines), head)
	switch {
	case more:
		b.WriteString("\n...")
	case truncated:
		b.WriteString(truncationMarker(int64(len(kept)), info.Size()))
	}
	return b.String(), nil
}
