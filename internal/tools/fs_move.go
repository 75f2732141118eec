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
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/u-root/u-root/pkg/cp"

	"jarvis/internal/paths"
)

func sprintf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

// transfer is one resolved move or copy.
type transfer struct {
	verb    string // "move", "copy" or "rename"
	src     string
	dst     string
	srcInfo os.FileInfo
}

// MovePath moves src to dst. An existing directory at dst receives src
// under its base name.
func (f *FS) MovePath(src, dst string, overwrite bool) (string, error) {
	source, err := f.resolver.ResolveEntry(src)
	if err != nil {
		return "", err
	}
	dest, err := f.resolver.Resolve(dst)
	if err != nil {
		return "", err
	}
	t, err := f.prepareTransfer("move", source, dest.Path, true, overwrite)
	if err != nil {
		return "", err
	}
	if err := f.rename(t); err != nil {
		return "", err
	}
	return sprintf("Moved: %s -> %s", t.src, t.dst), nil
}

// CopyPath copies a file or directory tree to dst with the same
// destination rules as MovePath.
func (f *FS) CopyPath(src, dst string, overwrite bool) (string, error) {
	source, err := f.resolver.Resolve(src)
	if err != nil {
		return "", err
	}
	dest, err := f.resolver.Resolve(dst)
	if err != nil {
		return "", err
	}
	t, err := f.prepareTransfer("copy", source, dest.Path, true, overwrite)
	if err != nil {
		return "", err
	}
	if err := copyEntry(t.src, t.dst, t.srcInfo); err != nil {
		return "", ioError("copy "+t.src+" to", t.dst, err)
	}
	f.logger.Info().Str("src", t.src).Str("dst", t.dst).Msg("copied")
	if t.srcInfo.IsDir() {
		return sprintf("Copied directory: %s -> %s", t.src, t.dst), nil
	}
	return sprintf("Copied file: %s -> %s", t.src, t.dst), nil
}

// RenamePath gives an entry a new base name in the same directory.
func (f *FS) RenamePath(path, newName string, overwrite bool) (string, error) {
	name := strings.TrimSpace(newName)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`+"\x00") {
		return "", malformed("invalid new_name %q: expected a bare name without path separators", newName)
	}
	source, err := f.resolver.ResolveEntry(path)
	if err != nil {
		return "", err
	}
	t, err := f.prepareTransfer("rename", source, filepath.Join(filepath.Dir(source.Path), name), false, overwrite)
	if err != nil {
		return "", err
	}
	if err := f.rename(t); err != nil {
		return "", err
	}
	return sprintf("Renamed: %s -> %s", t.src, t.dst), nil
}

// prepareTransfer applies the shared destination policy: roots are never
// moved or replaced, a directory never lands inside itself, and an existing
// destination is only replaced with overwrite.
func (f *FS) prepareTransfer(verb string, source paths.ResolvedPath, dst string, nest, overwrite bool) (transfer, error) {
	if verb != "copy" && f.resolver.IsRoot(source.Path) {
		return transfer{}, refuse("Refusing to %s root directory: %s", verb, source.Path)
	}
	if verb != "copy" && f.resolver.ContainsRoot(source.Path) {
		return transfer{}, refuse("Refusing to %s %s: it contains a root directory", verb, source.Path)
	}
	srcInfo, err := os.Lstat(source.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return transfer{}, notFound("Source not found: %s", source.Path)
		}
		return transfer{}, ioError("stat", source.Path, err)
	}

	if nest {
		if info, err := os.Stat(dst); err == nil && info.IsDir() && dst != source.Path {
			dst = filepath.Join(dst, filepath.Base(source.Path))
		}
	}
	if f.resolver.IsRoot(dst) {
		return transfer{}, refuse("Refusing to replace root directory: %s", dst)
	}
	if dst == source.Path {
		return transfer{}, conflict("Source and destination are the same: %s", dst)
	}
	if srcInfo.IsDir() && paths.HasPathPrefix(dst, source.Path) {
		return transfer{}, conflict("Refusing to %s a directory into itself: %s -> %s", verb, source.Path, dst)
	}

	if exists(dst) {
		if !overwrite {
			return transfer{}, conflict("Destination already exists: %s (set overwrite=true to replace it)", dst)
		}
		if f.resolver.ContainsRoot(dst) {
			return transfer{}, refuse("Refusing to replace %s: it contains a root directory", dst)
		}
		if paths.HasPathPrefix(source.Path, dst) {
			return transfer{}, conflict("Refusing to replace %s: it contains the source %s", dst, source.Path)
		}
		if err := os.RemoveAll(dst); err != nil {
			return transfer{}, ioError("replace", dst, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return transfer{}, ioError("create parent directories for", dst, err)
	}
	return transfer{verb: verb, src: source.Path, dst: dst, srcInfo: srcInfo}, nil
}

// rename moves within a filesystem and falls back to copy and delete
// across devices.
func (f *FS) rename(t transfer) error {
	err := os.Rename(t.src, t.dst)
	if err == nil {
		f.logger.Info().Str("src", t.src).Str("dst", t.dst).Msg(t.verb + "d")
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return ioError(t.verb+" "+t.src+" to", t.dst, err)
	}
	if err := copyEntry(t.src, t.dst, t.srcInfo); err != nil {
		return ioError(t.verb+" "+t.src+" to", t.dst, err)
	}
	if err := os.RemoveAll(t.src); err != nil {
		return ioError("remove", t.src, err)
	}
	f.logger.Info().Str("src", t.src).Str("dst", t.dst).Msg(t.verb + "d across devices")
	return nil
}

// copyEntry copies with u-root's cp. Symlinks inside a tree are copied as
// links and never followed out of the sandbox.
func copyEntry(src, dst string, info os.FileInfo) error {
	if info.IsDir() {
		return cp.NoFollowSymlinks.CopyTree(src, dst)
	}
	return cp.NoFollowSymlinks.Copy(src, dst)
}
