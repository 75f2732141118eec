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
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	searchTimeout   = 30 * time.Second
	binarySniffSize = 8000
)

// SearchRequest describes one literal text search.
type SearchRequest struct {
	Query        string
	Root         string
	MaxMatches   int
	MaxFileBytes int64
}

// Match is one matching line.
type Match struct {
	Path string
	Line int
	Text string
}

// Searcher finds lines containing a literal string below a file or
// directory. Implementations skip hidden entries, binary files and files
// larger than MaxFileBytes, and visit files in lexical order, so they
// return the same matches. truncated reports that more than MaxMatches
// lines matched.
type Searcher interface {
	Name() string
	Search(ctx context.Context, req SearchRequest) (matches []Match, truncated bool, err error)
}

// NewSearcher returns the ripgrep searcher when preferRipgrep is set and an
// rg binary is on PATH, and the built-in scanner otherwise.
func NewSearcher(preferRipgrep bool) Searcher {
	if preferRipgrep {
		if bin, err := exec.LookPath("rg"); err == nil {
			return &ripgrepSearcher{binary: bin}
		}
	}
	return scanSearcher{}
}

// SearchText searches for query below path (the project root by default).
func (f *FS) SearchText(ctx context.Context, query, path string, maxMatches int) (string, error) {
	if query == "" {
		return "", malformed("'query' must not be empty")
	}
	resolved, err := f.resolver.Resolve(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(resolved.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notFound("Path not found: %s", resolved.Path)
		}
		return "", ioError("stat", resolved.Path, err)
	}
	if maxMatches <= 0 {
		maxMatches = f.limits.MaxSearchMatches
	}

	ctx, cancel := context.WithTimeout(ensureContext(ctx), searchTimeout)
	defer cancel()
	matches, truncated, err := f.searcher.Search(ctx, SearchRequest{
		Query:        query,
		Root:         resolved.Path,
		MaxMatches:   maxMatches,
		MaxFileBytes: f.limits.MaxSearchFileBytes,
	})
	if err != nil {
		return "", ioError("search", resolved.Path, err)
	}
	f.logger.Debug().Str("searcher", f.searcher.Name()).Str("root", resolved.Path).Int("matches", len(matches)).Msg("search finished")
	if len(matches) == 0 {
		return sprintf("No matches for %q in %s", query, resolved.Path), nil
	}

	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteByte('\n')
		}
		text, _ := truncateString(stripControlChars(strings.TrimRight(m.Text, "\r")), f.limits.MaxSearchLineChars)
		fmt.Fprintf(&b, "%s:%d: %s", m.Path, m.Line, text)
	}
	if truncated {
		fmt.Fprintf(&b, "\n... (stopped after %d matches)", maxMatches)
	}
	return b.String(), nil
}

type ripgrepSearcher struct {
	binary string
}

func (s *ripgrepSearcher) Name() string { return "ripgrep" }

func (s *ripgrepSearcher) Search(ctx context.Context, req SearchRequest) ([]Match, bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := []string{
		"--fixed-strings", "--line-number", "--with-filename", "--no-heading",
		"--null", "--color=never", "--no-messages", "--no-ignore",
		"--sort=path", "--max-filesize", strconv.FormatInt(req.MaxFileBytes, 10),
		"--", req.Query, req.Root,
	}
	cmd := exec.CommandContext(ctx, s.binary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, false, err
	}
	if err := cmd.Start(); err != nil {
		return nil, false, err
	}

	var matches []Match
	truncated := false
	reader := bufio.NewReader(stdout)
	for {
		line, readErr := reader.ReadString('\n')
		if m, ok := parseRipgrepLine(strings.TrimSuffix(line, "\n")); ok {
			if len(matches) == req.MaxMatches {
				truncated = true
				break
			}
			matches = append(matches, m)
		}
		if readErr != nil {
			break
		}
	}
	if truncated {
		cancel()
	}
	// Drain so rg can exit after an early stop.
	_, _ = io.Copy(io.Discard, stdout)

	if err := cmd.Wait(); err != nil && !truncated {
		var exitErr *exec.ExitError
		// Exit status 1 means no match; 2 means some files could not be read.
		if errors.As(err, &exitErr) && exitErr.ExitCode() <= 2 && ctx.Err() == nil {
			return matches, false, nil
		}
		if ctx.Err() != nil {
			return matches, false, ctx.Err()
		}
		return matches, false, err
	}
	return matches, truncated, nil
}

// parseRipgrepLine parses "path\x00line:text" as printed with --null.
func parseRipgrepLine(line string) (Match, bool) {
	nul := strings.IndexByte(line, 0)
	if nul <= 0 {
		return Match{}, false
	}
	rest := line[nul+1:]
	colon := strings.IndexByte(rest, ':')
	if colon <= 0 {
		return Match{}, false
	}
	n, err := strconv.Atoi(rest[:colon])
	if err != nil {
		return Match{}, false
	}
	return Match{Path: line[:nul], Line: n, Text: decodeText([]byte(rest[colon+1:]))}, true
}

// scanSearcher is the pure Go fallback used when rg is unavailable.
type scanSearcher struct{}

func (scanSearcher) Name() string { return "scan" }

var errSearchDone = errors.New("search done")

func (scanSearcher) Search(ctx context.Context, req SearchRequest) ([]Match, bool, error) {
	needle := []byte(req.Query)
	var matches []Match
	truncated := false

	err := filepath.WalkDir(req.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == req.Root {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != req.Root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > req.MaxFileBytes {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil || isBinary(data) {
			return nil
		}
		lineNo := 0
		for len(data) > 0 {
			lineNo++
			line := data
			if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
				line, data = data[:idx], data[idx+1:]
			} else {
				data = nil
			}
			if !bytes.Contains(line, needle) {
				continue
			}
			if len(matches) == req.MaxMatches {
				truncated = true
				return errSearchDone
			}
			matches = append(matches, Match{Path: path, Line: lineNo, Text: decodeText(line)})
		}
		return nil
	})
	if err != nil && !errors.Is(err, errSearchDone) {
		return matches, truncated, err
	}
	return matches, truncated, nil
}

func isBinary(data []byte) bool {
	if len(data) > binarySniffSize {
		data = data[:binarySniffSize]
	}
	return bytes.IndexByte(data, 0) >= 0
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
