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
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var aliasesYAML []byte

// AliasTable lists the phrases that name each root.
type AliasTable struct {
	Project   []string `yaml:"project"`
	Documents []string `yaml:"documents"`
}

var (
	aliasesOnce    sync.Once
	builtinAliases AliasTable
	aliasesErr     error
)

// DefaultAliases returns the embedded English and Russian alias table.
func DefaultAliases() (AliasTable, error) {
	aliasesOnce.Do(func() {
		var table AliasTable
		if err := yaml.Unmarshal(aliasesYAML, &table); err != nil {
			aliasesErr = fmt.Errorf("parse aliases.yaml: %w", err)
			return
		}
		builtinAliases = table.normalized()
	})
	return builtinAliases, aliasesErr
}

// normalized returns a copy with NFC phrases, longest first.
func (t AliasTable) normalized() AliasTable {
	return AliasTable{
		Project:   normalizePhrases(t.Project),
		Documents: normalizePhrases(t.Documents),
	}
}

func normalizePhrases(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(norm.NFC.String(p))
		if p != "" {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i]) > utf8.RuneCountInString(out[j])
	})
	return out
}

// matchAlias reports whether text starts with one of the phrases, either
// alone or followed by a path separator. rest is what follows the
// separators and is empty for a bare alias.
func matchAlias(text string, phrases []string) (rest string, ok bool) {
	runes := []rune(text)
	for _, phrase := range phrases {
		n := utf8.RuneCountInString(phrase)
		if len(runes) < n || !strings.EqualFold(string(runes[:n]), phrase) {
			continue
		}
		tail := string(runes[n:])
		if tail == "" {
			return "", true
		}
		if tail[0] != '/' && tail[0] != '\\' {
			continue
		}
		return strings.TrimLeft(tail, `/\`), true
	}
	return "", false
}
