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
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ValidationRule checks tool arguments and returns an error if invalid.
type ValidationRule func(args map[string]any) error

// ChainValidation runs rules in order until the first error.
func ChainValidation(rules ...ValidationRule) ValidationRule {
	return func(args map[string]any) error {
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			if err := rule(args); err != nil {
				return err
			}
		}
		return nil
	}
}

// RequireNonBlankArg ensures a string argument, when present, is not blank.
func RequireNonBlankArg(key string) ValidationRule {
	return func(args map[string]any) error {
		value, ok := args[key]
		if !ok || value == nil {
			return nil
		}
		if str, ok := value.(string); ok && strings.TrimSpace(str) == "" {
			return fmt.Errorf("'%s' must not be empty", key)
		}
		return nil
	}
}

// MutuallyExclusiveArgs rejects calls that set more than one of keys to a
// non-empty value.
func MutuallyExclusiveArgs(keys ...string) ValidationRule {
	return func(args map[string]any) error {
		var set []string
		for _, key := range keys {
			if str, ok := args[key].(string); ok && str != "" {
				set = append(set, "'"+key+"'")
			}
		}
		if len(set) > 1 {
			return fmt.Errorf("use only one of %s", strings.Join(set, " or "))
		}
		return nil
	}
}

// Args gives typed access to already validated tool arguments.
type Args map[string]any

// String returns the named argument or "" when absent.
func (a Args) String(key string) string {
	if value, ok := a[key].(string); ok {
		return value
	}
	return ""
}

// Bool returns the named argument or def when absent.
func (a Args) Bool(key string, def bool) bool {
	if value, ok := a[key].(bool); ok {
		return value
	}
	return def
}

// Int returns the named argument or def when absent or not integral.
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return def
}
