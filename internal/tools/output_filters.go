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
	"fmt"
	"strings"
	"unicode/utf8"
)

// decodeText decodes permissively: invalid UTF-8 becomes U+FFFD.
func decodeText(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}

// truncateBytes cuts data to at most max bytes without splitting a
// multi-byte sequence, and reports how many bytes were kept.
func truncateBytes(data []byte, max int) ([]byte, bool) {
	if max <= 0 || len(data) <= max {
		return data, false
	}
	cut := max
	// Back off at most one partial rune.
	for back := 0; back < utf8.UTFMax && cut > 0; back++ {
		if utf8.RuneStart(data[cut]) {
			break
		}
		cut--
	}
	return data[:cut], true
}

func truncationMarker(shown, total int64) string {
	return fmt.Sprintf("\n...[truncated: showing first %d of %d bytes]", shown, total)
}

func truncateString(input string, max int) (string, bool) {
	if max <= 0 {
		return input, false
	}
	if len(input) <= max {
		return input, false
	}
	runes := []rune(input)
	if len(runes) <= max {
		return input, false
	}
	return string(runes[:max]), true
}

func stripControlChars(input string) string {
	var builder strings.Builder
	builder.Grow(len(input))
	for _, r := range input {
		if r == '\t' {
			builder.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
