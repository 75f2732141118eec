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

	"github.com/rs/zerolog"

	apperrors "jarvis/internal/errors"
	"jarvis/internal/paths"
)

// FS implements the filesystem tools. Every path goes through the resolver,
// so nothing outside the allowed roots is ever touched.
type FS struct {
	resolver *paths.Resolver
	limits   Limits
	searcher Searcher
	logger   zerolog.Logger
}

// NewFS builds the filesystem operation set. A nil searcher selects one
// automatically.
func NewFS(resolver *paths.Resolver, limits Limits, searcher Searcher, logger zerolog.Logger) *FS {
	if searcher == nil {
		searcher = NewSearcher(true)
	}
	return &FS{
		resolver: resolver,
		limits:   NormalizeLimits(limits),
		searcher: searcher,
		logger:   logger,
	}
}

// Resolver exposes the sandbox the operations run in.
func (f *FS) Resolver() *paths.Resolver {
	return f.resolver
}

// Limits returns the limits in effect.
func (f *FS) Limits() Limits {
	return f.limits
}

// ioError turns an OS error into a descriptive failure. The path already
// in a *fs.PathError is dropped so it is not printed twice.
func ioError(action, path string, err error) *apperrors.Error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		err = linkErr.Err
	}
	return apperrors.Wrap(apperrors.CodeIO, fmt.Sprintf("Failed to %s %s", action, path), err)
}

func notFound(format string, args ...any) *apperrors.Error {
	return apperrors.Newf(apperrors.CodeNotFound, format, args...)
}

func conflict(format string, args ...any) *apperrors.Error {
	return apperrors.Newf(apperrors.CodeConflict, format, args...)
}

func refuse(format string, args ...any) *apperrors.Error {
	return apperrors.Newf(apperrors.CodeSandbox, format, args...)
}

// statRegularFile returns the file info for path, failing when the path is
// missing or is a directory.
func statRegularFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound("File not found: %s", path)
		}
		return nil, ioError("stat", path, err)
	}
	if info.IsDir() {
		return nil, notFound("Not a file: %s is a directory", path)
	}
	return info, nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
