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
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"jarvis/internal/paths"
	"jarvis/internal/tools"
)

// DefaultConfigFile is used when neither --config nor JARVIS_CONFIG is set.
const DefaultConfigFile = "jarvis.config.json"

// Config represents the application configuration
type Config struct {
	APIKey             string            `json:"api_key"`
	APIURL             string            `json:"api_url,omitempty"`
	Model              string            `json:"model"`
	Temperature        *float32          `json:"temperature,omitempty"`
	MaxTokens          *int              `json:"max_tokens,omitempty"`
	ProjectRoot        string            `json:"project_root,omitempty"`
	DocumentsRoot      string            `json:"documents_root,omitempty"`
	Tools              ToolSettings      `json:"tools,omitempty"`
	ToolLimits         ToolLimits        `json:"tool_limits,omitempty"`
	Search             SearchSettings    `json:"search,omitempty"`
	AppCommands        map[string]string `json:"app_commands,omitempty"`
	DefaultCity        string            `json:"default_city,omitempty"`
	WeatherAPIKey      string            `json:"openweather_api_key,omitempty"`
	HistoryFile        string            `json:"history_file,omitempty"`
	CommandHistoryFile string            `json:"command_history_file,omitempty"`
	HistoryMaxMessages int               `json:"history_max_messages,omitempty"`
}

// ToolSettings lists tools that must not be offered to the model.
type ToolSettings struct {
	Deny []string `json:"deny,omitempty"`
}

// ToolLimits configures how much data the filesystem tools return.
type ToolLimits struct {
	MaxReadBytes       int   `json:"max_read_bytes,omitempty"`
	SummaryHeadLines   int   `json:"summary_head_lines,omitempty"`
	SummaryMaxBytes    int   `json:"summary_max_bytes,omitempty"`
	MaxListEntries     int   `json:"max_list_entries,omitempty"`
	MaxSearchMatches   int   `json:"max_search_matches,omitempty"`
	MaxSearchFileBytes int64 `json:"max_search_file_bytes,omitempty"`
}

// SearchSettings selects the search backend.
type SearchSettings struct {
	UseRipgrep *bool `json:"use_ripgrep,omitempty"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	limits := tools.DefaultLimits()
	return &Config{
		Model:         "gpt-4o-mini",
		APIURL:        "https://api.openai.com/v1",
		DocumentsRoot: "~/Documents",
		ToolLimits: ToolLimits{
			MaxReadBytes:       limits.MaxReadBytes,
			SummaryHeadLines:   limits.SummaryHeadLines,
			SummaryMaxBytes:    limits.SummaryMaxBytes,
			MaxListEntries:     limits.MaxListEntries,
			MaxSearchMatches:   limits.MaxSearchMatches,
			MaxSearchFileBytes: limits.MaxSearchFileBytes,
		},
		DefaultCity:        "Warsaw",
		HistoryFile:        defaultStatePath("conversation_history.jsonl"),
		CommandHistoryFile: defaultStatePath("command_history"),
		HistoryMaxMessages: 100,
	}
}

// defaultStatePath keeps history out of the project tree: it lives under the
// user config dir, then the home dir, and only falls back to the working
// directory when neither is known.
func defaultStatePath(name string) string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "jarvis", name)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".jarvis", name)
	}
	return ".jarvis_" + name
}

// ResolvePath picks the config file: the explicit flag value, then
// JARVIS_CONFIG, then DefaultConfigFile.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("JARVIS_CONFIG"); env != "" {
		return env
	}
	return DefaultConfigFile
}

// LoadConfig loads configuration from a JSON or YAML file if it exists and
// applies env overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if isYAML(path) {
			if data, err = yamlToJSON(data); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
		normalized, err := normalizeConfigJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := json.Unmarshal(normalized, config); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.APIURL == "" {
		config.APIURL = "https://api.openai.com/v1"
	}
	if config.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot determine project root: %w", err)
		}
		config.ProjectRoot = wd
	}
	if config.DocumentsRoot == "" {
		config.DocumentsRoot = "~/Documents"
	}
	for _, file := range []*string{&config.HistoryFile, &config.CommandHistoryFile} {
		if *file == "" {
			continue
		}
		expanded, err := paths.ExpandHome(*file)
		if err != nil {
			return nil, fmt.Errorf("history file %s: %w", *file, err)
		}
		*file = expanded
	}
	return config, nil
}

func applyEnvOverrides(config *Config) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"OPENAI_API_KEY", &config.APIKey},
		{"OPENAI_API_URL", &config.APIURL},
		{"JARVIS_MODEL", &config.Model},
		{"JARVIS_ROOT", &config.ProjectRoot},
		{"JARVIS_DOCUMENTS", &config.DocumentsRoot},
		{"OPENWEATHER_API_KEY", &config.WeatherAPIKey},
	}
	for _, o := range overrides {
		if val := strings.TrimSpace(os.Getenv(o.env)); val != "" {
			*o.target = val
		}
	}
}

// RequireAPIKey reports a missing key for commands that talk to the model.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required (set api_key in the config file or OPENAI_API_KEY)")
	}
	return nil
}

// Roots returns the sandbox roots. "~" is expanded by the resolver.
func (c *Config) Roots() paths.Roots {
	return paths.Roots{Project: c.ProjectRoot, Documents: c.DocumentsRoot}
}

// ToolPolicy converts config settings into a tool policy.
func (c *Config) ToolPolicy() tools.Policy {
	return tools.Policy{Denied: append([]string{}, c.Tools.Deny...)}
}

// ToolLimitsConfig returns tool limits for runtime enforcement.
func (c *Config) ToolLimitsConfig() tools.Limits {
	return tools.NormalizeLimits(tools.Limits{
		MaxReadBytes:       c.ToolLimits.MaxReadBytes,
		SummaryHeadLines:   c.ToolLimits.SummaryHeadLines,
		SummaryMaxBytes:    c.ToolLimits.SummaryMaxBytes,
		MaxListEntries:     c.ToolLimits.MaxListEntries,
		MaxSearchMatches:   c.ToolLimits.MaxSearchMatches,
		MaxSearchFileBytes: c.ToolLimits.MaxSearchFileBytes,
	})
}

// PreferRipgrep reports whether an installed rg should be used for search.
func (c *Config) PreferRipgrep() bool {
	return c.Search.UseRipgrep == nil || *c.Search.UseRipgrep
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// yamlToJSON re-encodes a YAML document so the JSON validation applies
// to both formats.
func yamlToJSON(data []byte) ([]byte, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return json.Marshal(raw)
}

// ValidationWarning represents a non-fatal configuration issue
type ValidationWarning struct {
	Field   string
	Message string
}

// Validate checks the configuration for common issues and returns warnings
func (c *Config) Validate(registry *tools.Registry) []ValidationWarning {
	var warnings []ValidationWarning

	// OpenAI expects 0-2
	if c.Temperature != nil {
		temp := *c.Temperature
		if temp < 0 || temp > 2 {
			warnings = append(warnings, ValidationWarning{
				Field:   "temperature",
				Message: fmt.Sprintf("temperature %.2f is outside recommended range [0, 2]", temp),
			})
		}
	}

	if c.MaxTokens != nil && *c.MaxTokens <= 0 {
		warnings = append(warnings, ValidationWarning{
			Field:   "max_tokens",
			Message: fmt.Sprintf("max_tokens %d must be positive", *c.MaxTokens),
		})
	}

	if registry != nil {
		registered := make(map[string]bool)
		for _, name := range registry.GetToolNames() {
			registered[name] = true
		}
		for _, name := range c.Tools.Deny {
			if !registered[name] {
				warnings = append(warnings, ValidationWarning{
					Field:   "tools.deny",
					Message: fmt.Sprintf("tool %q in deny list is not registered", name),
				})
			}
		}
	}

	if filepath.Clean(c.ProjectRoot) == "/" {
		warnings = append(warnings, ValidationWarning{
			Field:   "project_root",
			Message: "project_root is the filesystem root; every file on the machine is reachable",
		})
	}

	if c.HistoryMaxMessages <= 0 {
		warnings = append(warnings, ValidationWarning{
			Field:   "history_max_messages",
			Message: fmt.Sprintf("history_max_messages %d should be positive, using default", c.HistoryMaxMessages),
		})
	}

	return warnings
}
