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

package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Extract pulls tool instructions out of free model text. It first tries
// the whole text as JSON, then every '{' or '[' as the start of a JSON
// value with anything around it ignored. The first value that yields at
// least one object with a "tool" field wins. An empty result means the
// text is a plain conversational reply.
func Extract(raw string) []Instruction {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}
	if value, ok := decodeWhole(text); ok {
		if found := instructionsFrom(value); len(found) > 0 {
			return found
		}
	}
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		value, ok := decodePrefix(text[i:])
		if !ok {
			continue
		}
		if found := instructionsFrom(value); len(found) > 0 {
			return found
		}
	}
	return nil
}

func decodeWhole(text string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return value, true
}

// decodePrefix decodes one JSON value from the start of text and ignores
// whatever follows it.
func decodePrefix(text string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, false
	}
	return value, true
}

func instructionsFrom(value any) []Instruction {
	var objects []map[string]any
	switch v := value.(type) {
	case map[string]any:
		objects = append(objects, v)
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				objects = append(objects, obj)
			}
		}
	}

	var out []Instruction
	for _, obj := range objects {
		rawTool, ok := obj["tool"]
		if !ok {
			continue
		}
		ins := Instruction{Index: len(out) + 1, Tool: toolName(rawTool)}
		rawArgs, present := obj["args"]
		if !present {
			rawArgs, present = obj["arguments"]
		}
		switch args := normalizeNumbers(rawArgs).(type) {
		case nil:
			ins.Args = map[string]any{}
		case map[string]any:
			ins.Args = args
		default:
			ins.RawArgs = args
		}
		out = append(out, ins)
	}
	return out
}

func toolName(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(encoded)
}

// normalizeNumbers turns json.Number into int64 when integral and float64
// otherwise, so integer arguments stay exact.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, item := range t {
			t[k] = normalizeNumbers(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = normalizeNumbers(item)
		}
		return t
	default:
		return v
	}
}
