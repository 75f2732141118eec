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

package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	apperrors "jarvis/internal/errors"
)

// MaxPathLength bounds raw path input.
const MaxPathLength = 4096

// RootKind names one of the allowed roots.
type RootKind int

const (
	RootProject RootKind = iota
	RootDocuments
)

func (k RootKind) String() string {
	switch k {
	case RootProject:
		return "project"
	case RootDocuments:
		return "documents"
	default:
		return fmt.Sprintf("root(%d)", int(k))
	}
}

// Roots holds the two directories every operation is confined to.
type Roots struct {
	Project   string
	Documents string
}

// ResolvedPath is a canonical absolute path known to lie inside Root.
type ResolvedPath struct {
	Path string
	Root RootKind
}

// Resolver maps user-supplied path strings onto the allowed roots.
type Resolver struct {
	roots   Roots
	aliases AliasTable
}

// NewResolver canonicalizes both roots. A root that does not exist yet is
// accepted; it is created on first write.
func NewResolver(roots Roots, aliases AliasTable) (*Resolver, error) {
	project, err := canonicalRoot("project", roots.Project)
	if err != nil {
		return nil, err
	}
	documents, err := canonicalRoot("documents", roots.Documents)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		roots:   Roots{Project: project, Documents: documents},
		aliases: aliases.normalized(),
	}, nil
}

func canonicalRoot(name, dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", apperrors.Newf(apperrors.CodeConfig, "%s root is not configured", name)
	}
	expanded, err := ExpandHome(strings.TrimSpace(dir))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeConfig, name+" root", err)
	}
	canonical, err := Canonicalize(expanded)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeConfig, name+" root", err)
	}
	return canonical, nil
}

// Roots returns the canonical roots.
func (r *Resolver) Roots() Roots {
	return r.roots
}

// RootPath returns the directory of the given root.
func (r *Resolver) RootPath(kind RootKind) string {
	if kind == RootDocuments {
		return r.roots.Documents
	}
	return r.roots.Project
}

// IsRoot reports whether path is one of the allowed roots itself.
func (r *Resolver) IsRoot(path string) bool {
	clean := filepath.Clean(path)
	return clean == r.roots.Project || clean == r.roots.Documents
}

// ContainsRoot reports whether path is a root or an ancestor of one, so
// removing or moving it would take a root with it.
func (r *Resolver) ContainsRoot(path string) bool {
	clean := filepath.Clean(path)
	return HasPathPrefix(r.roots.Project, clean) || HasPathPrefix(r.roots.Documents, clean)
}

// Resolve turns raw into a canonical path inside one of the roots. The
// containment check runs after symlinks are resolved; anything outside
// fails with a sandbox error and is never clamped.
func (r *Resolver) Resolve(raw string) (ResolvedPath, error) {
	resolved, _, err := r.resolve(raw)
	return resolved, err
}

// ResolveEntry is Resolve for operations that act on a directory entry
// itself (delete, move, rename). When the final component is a symlink the
// link is returned instead of its target. The target must still lie inside
// the roots.
func (r *Resolver) ResolveEntry(raw string) (ResolvedPath, error) {
	resolved, candidate, err := r.resolve(raw)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeIO) {
			if entry, ok := r.danglingLink(candidate); ok {
				return entry, nil
			}
		}
		return ResolvedPath{}, err
	}
	info, err := os.Lstat(candidate)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return resolved, nil
	}
	parent, err := Canonicalize(filepath.Dir(candidate))
	if err != nil {
		return resolved, nil
	}
	entry := filepath.Join(parent, filepath.Base(candidate))
	kind, ok := r.containingRoot(entry)
	if !ok || r.IsRoot(entry) {
		return resolved, nil
	}
	return ResolvedPath{Path: entry, Root: kind}, nil
}

func (r *Resolver) resolve(raw string) (ResolvedPath, string, error) {
	text := norm.NFC.String(strings.TrimSpace(raw))
	if err := ValidatePathString(text, MaxPathLength); err != nil {
		return ResolvedPath{}, "", apperrors.Wrap(apperrors.CodeMalformed, fmt.Sprintf("Invalid path %q", raw), err)
	}

	candidate, err := r.candidate(text)
	if err != nil {
		return ResolvedPath{}, "", err
	}
	canonical, err := Canonicalize(candidate)
	if err != nil {
		return ResolvedPath{}, filepath.Clean(candidate), apperrors.Wrap(apperrors.CodeIO, fmt.Sprintf("Cannot resolve path %q", raw), err)
	}

	kind, ok := r.containingRoot(canonical)
	if !ok {
		return ResolvedPath{}, "", apperrors.Newf(apperrors.CodeSandbox,
			"Path %q is outside the allowed roots (%s, %s)", raw, r.roots.Project, r.roots.Documents)
	}
	return ResolvedPath{Path: canonical, Root: kind}, filepath.Clean(candidate), nil
}

func (r *Resolver) candidate(text string) (string, error) {
	if text == "" {
		return r.roots.Project, nil
	}
	if rest, ok := matchAlias(text, r.aliases.Project); ok {
		return filepath.Join(r.roots.Project, rest), nil
	}
	if rest, ok := matchAlias(text, r.aliases.Documents); ok {
		return filepath.Join(r.roots.Documents, rest), nil
	}
	expanded, err := ExpandHome(text)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeIO, fmt.Sprintf("Cannot resolve path %q", text), err)
	}
	if filepath.IsAbs(expanded) {
		return expanded, nil
	}
	return filepath.Join(r.roots.Project, expanded), nil
}

// danglingLink returns the link itself when only the final component of
// candidate fails to resolve because it is a broken symlink.
func (r *Resolver) danglingLink(candidate string) (ResolvedPath, bool) {
	if candidate == "" {
		return ResolvedPath{}, false
	}
	info, err := os.Lstat(candidate)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return ResolvedPath{}, false
	}
	if _, err := os.Stat(candidate); err == nil {
		return ResolvedPath{}, false
	}
	parent, err := Canonicalize(filepath.Dir(candidate))
	if err != nil {
		return ResolvedPath{}, false
	}
	entry := filepath.Join(parent, filepath.Base(candidate))
	kind, ok := r.containingRoot(entry)
	if !ok || r.IsRoot(entry) {
		return ResolvedPath{}, false
	}
	return ResolvedPath{Path: entry, Root: kind}, true
}

// containingRoot prefers the most specific root when they nest.
func (r *Resolver) containingRoot(path string) (RootKind, bool) {
	inProject := HasPathPrefix(path, r.roots.Project)
	inDocuments := HasPathPrefix(path, r.roots.Documents)
	switch {
	case inProject && inDocuments:
		if len(r.roots.Documents) > len(r.roots.Project) {
			return RootDocuments, true
		}
		return RootProject, true
	case inProject:
		return RootProject, true
	case inDocuments:
		return RootDocuments, true
	default:
		return 0, false
	}
}
