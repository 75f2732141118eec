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
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	apperrors "jarvis/internal/errors"
	"jarvis/internal/paths"
)

type testEnv struct {
	fs        *FS
	project   string
	documents string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	return newTestEnvWithLimits(t, DefaultLimits())
}

func newTestEnvWithLimits(t *testing.T, limits Limits) testEnv {
	t.Helper()
	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}
	return newTestEnvAt(t, filepath.Join(base, "project"), filepath.Join(base, "Documents"), limits)
}

// newNestedTestEnv places the documents root at project/user/Documents, the
// layout a default config gets when started above the home directory.
func newNestedTestEnv(t *testing.T) testEnv {
	t.Helper()
	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}
	return newTestEnvAt(t, base, filepath.Join(base, "user", "Documents"), DefaultLimits())
}

func newTestEnvAt(t *testing.T, project, documents string, limits Limits) testEnv {
	t.Helper()
	for _, dir := range []string{project, documents} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create root: %v", err)
		}
	}
	aliases, err := paths.DefaultAliases()
	if err != nil {
		t.Fatalf("failed to load aliases: %v", err)
	}
	resolver, err := paths.NewResolver(paths.Roots{Project: project, Documents: documents}, aliases)
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}
	return testEnv{
		fs:        NewFS(resolver, limits, scanSearcher{}, zerolog.Nop()),
		project:   project,
		documents: documents,
	}
}

func (e testEnv) path(parts ...string) string {
	return filepath.Join(append([]string{e.project}, parts...)...)
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func expectCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := apperrors.CodeOf(err); got != code {
		t.Fatalf("expected %s error, got %q: %v", code, got, err)
	}
}

// mustOK wraps an operation result so a call reads mustOK(t)(env.fs.X(...)).
func mustOK(t *testing.T) func(string, error) string {
	t.Helper()
	return func(msg string, err error) string {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return msg
	}
}
