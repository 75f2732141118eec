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
	"os"
	"strings"
)

// ReplaceText replaces exact occurrences of old with replacement. count <= 0
// replaces every occurrence, otherwise at most count, leftmost first.
func (f *FS) ReplaceText(path, old, replacement string, count int) (string, error) {
	if old == "" {
		return "", malformed("'old' must not be empty")
	}
	resolved, content, mode, err := f.loadForEdit(path)
	if err != nil {
		return "", err
	}

	found := strings.Count(content, old)
	if found == 0 {
		return "", notFound("Text not found in %s", resolved)
	}
	limit := -1
	replaced := found
	if count > 0 && count < found {
		limit = count
		replaced = count
	}
	updated := strings.Replace(content, old, replacement, limit)
	if err := os.WriteFile(resolved, []byte(updated), mode); err != nil {
		return "", ioError("write", resolved, err)
	}
	return sprintf("Replaced %d occurrence(s) in %s", replaced, resolved), nil
}

// InsertText inserts text right after the first occurrence of after, right
// before the first occurrence of before, or at the end of the file when
// neither anchor is given.
func (f *FS) InsertText(path, text, after, before string) (string, error) {
	if after != "" && before != "" {
		return "", malformed("use only one of 'after' or 'before'")
	}
	resolved, content, mode, err := f.loadForEdit(path)
	if err != nil {
		return "", err
	}

	offset := len(content)
	switch {
	case after != "":
		idx := strings.Index(content, after)
		if idx < 0 {
			return "", notFound("Anchor text not found in %s: %q", resolved, after)
		}
		offset = idx + len(after)
	case before != "":
		idx := strings.Index(content, before)
		if idx < 0 {
			return "", notFound("Anchor text not found in %s: %q", resolved, before)
		}
		offset = idx
	}

	updated := content[:offset] + text + content[offset:]
	if err := os.WriteFile(resolved, []byte(updated), mode); err != nil {
		return "", ioError("write", resolved, err)
	}
	return sprintf("Inserted text into %s at byte %d", resolved, offset), nil
}

// loadForEdit reads the whole file. Bytes are kept as they are so an edit
// never rewrites parts of the file it did not touch.
func (f *FS) loadForEdit(path string) (string, string, os.FileMode, error) {
	resolved, err := f.resolver.Resolve(path)
	if err != nil {
		return "", "", 0, err
	}
	info, err := statRegularFile(resolved.Path)
	if err != nil {
		return "", "", 0, err
	}
	data, err := os.ReadFile(resolved.Path)
	if err != nil {
		return "", "", 0, ioError("read", resolved.Path, err)
	}
	return resolved.Path, string(data), info.Mode().Perm(), nil
}
