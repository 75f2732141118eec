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

package config

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SchemaJSON returns the JSON schema for the config file.
func SchemaJSON() string {
	return configSchemaJSON
}

// ExampleConfigJSON returns a minimal example config derived from the schema.
func ExampleConfigJSON() string {
	return exampleConfigJSON
}

func normalizeConfigJSON(data []byte) ([]byte, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if err := validateConfigMap(raw, ""); err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

func validateConfigMap(raw map[string]interface{}, prefix string) error {
	str := func(name string) func(interface{}) error {
		return func(v interface{}) error { return validateString(v, prefix+name) }
	}
	num := func(name string) func(interface{}) error {
		return func(v interface{}) error { return validateNumber(v, prefix+name) }
	}
	allowed := map[string]func(interface{}) error{
		"api_key":              str("api_key"),
		"api_url":              str("api_url"),
		"model":                str("model"),
		"temperature":          num("temperature"),
		"max_tokens":           num("max_tokens"),
		"project_root":         str("project_root"),
		"documents_root":       str("documents_root"),
		"default_city":         str("default_city"),
		"openweather_api_key":  str("openweather_api_key"),
		"history_file":         str("history_file"),
		"command_history_file": str("command_history_file"),
		"history_max_messages": num("history_max_messages"),
		"tools": func(v interface{}) error {
			return validateToolsConfig(v, prefix+"tools.")
		},
		"tool_limits": func(v interface{}) error {
			return validateToolLimits(v, prefix+"tool_limits.")
		},
		"search": func(v interface{}) error {
			return validateSearch(v, prefix+"search.")
		},
		"app_commands": func(v interface{}) error {
			return validateStringMap(v, prefix+"app_commands")
		},
	}
	return validateSection(raw, allowed, prefix)
}

func validateToolsConfig(value interface{}, prefix string) error {
	section, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%s must be an object", trimDot(prefix))
	}
	allowed := map[string]func(interface{}) error{
		"deny": func(v interface{}) error { return validateStringArray(v, prefix+"deny") },
	}
	return validateSection(section, allowed, prefix)
}

func validateToolLimits(value interface{}, prefix string) error {
	section, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%s must be an object", trimDot(prefix))
	}
	allowed := map[string]func(interface{}) error{}
	for _, key := range []string{
		"max_read_bytes", "summary_head_lines", "summary_max_bytes",
		"max_list_entries", "max_search_matches", "max_search_file_bytes",
	} {
		name := prefix + key
		allowed[key] = func(v interface{}) error { return validateNumber(v, name) }
	}
	return validateSection(section, allowed, prefix)
}

func validateSearch(value interface{}, prefix string) error {
	section, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%s must be an object", trimDot(prefix))
	}
	allowed := map[string]func(interface{}) error{
		"use_ripgrep": func(v interface{}) error { return validateBool(v, prefix+"use_ripgrep") },
	}
	return validateSection(section, allowed, prefix)
}

func validateSection(section map[string]interface{}, allowed map[string]func(interface{}) error, prefix string) error {
	keys := make([]string, 0, len(section))
	for key := range section {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		validator, ok := allowed[key]
		if !ok {
			return fmt.Errorf("unknown configuration field %q", prefix+key)
		}
		if err := validator(section[key]); err != nil {
			return err
		}
	}
	return nil
}

func trimDot(prefix string) string {
	if n := len(prefix); n > 0 && prefix[n-1] == '.' {
		return prefix[:n-1]
	}
	return prefix
}

func validateString(value interface{}, name string) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("%s must be a string", name)
	}
	return nil
}

func validateNumber(value interface{}, name string) error {
	if _, ok := value.(float64); !ok {
		return fmt.Errorf("%s must be a number", name)
	}
	return nil
}

func validateBool(value interface{}, name string) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("%s must be a boolean", name)
	}
	return nil
}

func validateStringArray(value interface{}, name string) error {
	list, ok := value.([]interface{})
	if !ok {
		return fmt.Errorf("%s must be an array of strings", name)
	}
	for _, item := range list {
		if _, ok := item.(string); !ok {
			return fmt.Errorf("%s must be an array of strings", name)
		}
	}
	return nil
}

func validateStringMap(value interface{}, name string) error {
	section, ok := value.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%s must be an object of string values", name)
	}
	for key, entry := range section {
		if _, ok := entry.(string); !ok {
			return fmt.Errorf("%s.%s must be a string", name, key)
		}
	}
	return nil
}

const configSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "Jarvis Config",
  "type": "object",
  "properties": {
    "api_key": { "type": "string" },
    "api_url": { "type": "string" },
    "model": { "type": "string" },
    "temperature": { "type": "number" },
    "max_tokens": { "type": "number" },
    "project_root": { "type": "string" },
    "documents_root": { "type": "string" },
    "default_city": { "type": "string" },
    "openweather_api_key": { "type": "string" },
    "history_file": { "type": "string" },
    "command_history_file": { "type": "string" },
    "history_max_messages": { "type": "number" },
    "tools": {
      "type": "object",
      "properties": {
        "deny": { "type": "array", "items": { "type": "string" } }
      }
    },
    "tool_limits": {
      "type": "object",
      "properties": {
        "max_read_bytes": { "type": "number" },
        "summary_head_lines": { "type": "number" },
        "summary_max_bytes": { "type": "number" },
        "max_list_entries": { "type": "number" },
        "max_search_matches": { "type": "number" },
        "max_search_file_bytes": { "type": "number" }
      }
    },
    "search": {
      "type": "object",
      "properties": {
        "use_ripgrep": { "type": "boolean" }
      }
    },
    "app_commands": { "type": "object", "additionalProperties": { "type": "string" } }
  }
}`

const exampleConfigJSON = `{
  "api_key": "sk-...",
  "model": "gpt-4o-mini",
  "project_root": "~/jarvis",
  "documents_root": "~/Documents",
  "default_city": "Warsaw",
  "app_commands": {
    "telegram": "telegram-desktop",
    "browser": "firefox"
  },
  "tools": {
    "deny": ["close_app"]
  }
}`
