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
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"jarvis/internal/paths"
	"jarvis/internal/tools"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "OPENAI_API_URL", "JARVIS_MODEL", "JARVIS_ROOT",
		"JARVIS_DOCUMENTS", "OPENWEATHER_API_KEY", "JARVIS_CONFIG",
	} {
		t.Setenv(key, "")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "config.json", `{"api_key":"file-key","model":"gpt-file","api_url":"https://file.example"}`)
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("OPENAI_API_URL", "https://env.example")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIKey != "env-key" {
		t.Fatalf("expected env key to override file, got %s", cfg.APIKey)
	}
	if cfg.APIURL != "https://env.example" {
		t.Fatalf("expected env API URL to override file, got %s", cfg.APIURL)
	}
	if cfg.Model != "gpt-file" {
		t.Fatalf("expected model from file, got %s", cfg.Model)
	}
}

func TestRootEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "config.json", `{"project_root":"/file/project","documents_root":"/file/docs"}`)
	t.Setenv("JARVIS_ROOT", "/env/project")
	t.Setenv("JARVIS_DOCUMENTS", "/env/docs")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := paths.Roots{Project: "/env/project", Documents: "/env/docs"}
	if diff := cmp.Diff(want, cfg.Roots()); diff != "" {
		t.Fatalf("roots mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingAPIKeyIsReportedOnDemand(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "config.json", `{}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("loading without a key should succeed: %v", err)
	}
	if err := cfg.RequireAPIKey(); err == nil {
		t.Fatal("expected error for missing API key")
	}
	cfg.APIKey = "k"
	if err := cfg.RequireAPIKey(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfigValidationRejectsUnknownField(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "config.json", `{"api_key":"k","unknown_field":123}`)
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), `"unknown_field"`) {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestConfigValidationRejectsInvalidTypes(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"limit as string", `{"tool_limits":{"max_read_bytes":"oops"}}`, "tool_limits.max_read_bytes must be a number"},
		{"unknown limit", `{"tool_limits":{"max_file_size_bytes":1}}`, `"tool_limits.max_file_size_bytes"`},
		{"deny not array", `{"tools":{"deny":"read_file"}}`, "tools.deny must be an array of strings"},
		{"retired allow list", `{"tools":{"allow":["read_file"]}}`, `"tools.allow"`},
		{"ripgrep flag", `{"search":{"use_ripgrep":"yes"}}`, "search.use_ripgrep must be a boolean"},
		{"app command value", `{"app_commands":{"steam":1}}`, "app_commands.steam must be a string"},
		{"root as number", `{"project_root":5}`, "project_root must be a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempConfig(t, "config.json", tt.content)
			_, err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestYAMLConfig(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "jarvis.yaml", `
api_key: yaml-key
project_root: /srv/project
default_city: Kraków
app_commands:
  telegram: telegram-desktop
tool_limits:
  max_read_bytes: 512
search:
  use_ripgrep: false
tools:
  deny: [close_app]
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIKey != "yaml-key" || cfg.ProjectRoot != "/srv/project" || cfg.DefaultCity != "Kraków" {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if diff := cmp.Diff(map[string]string{"telegram": "telegram-desktop"}, cfg.AppCommands); diff != "" {
		t.Fatalf("app commands mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.ToolLimitsConfig().MaxReadBytes; got != 512 {
		t.Fatalf("expected max_read_bytes 512, got %d", got)
	}
	if cfg.PreferRipgrep() {
		t.Fatal("expected ripgrep to be disabled")
	}
	if diff := cmp.Diff([]string{"close_app"}, cfg.ToolPolicy().Denied); diff != "" {
		t.Fatalf("deny list mismatch (-want +got):\n%s", diff)
	}
}

func TestYAMLConfigRejectsUnknownField(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "jarvis.yml", "model: x\nsandbox:\n  enabled: true\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unknown YAML field")
	}
}

func TestLoadConfigMissingFileReturnsDefault(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wd, _ := os.Getwd()
	if cfg.ProjectRoot != wd {
		t.Fatalf("expected project root to default to %s, got %s", wd, cfg.ProjectRoot)
	}
	if cfg.DocumentsRoot != "~/Documents" {
		t.Fatalf("unexpected documents root %s", cfg.DocumentsRoot)
	}
	if cfg.Model != "gpt-4o-mini" || cfg.DefaultCity != "Warsaw" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.HistoryFile == "" || cfg.CommandHistoryFile == "" {
		t.Fatalf("history defaults not applied: %+v", cfg)
	}
	if !cfg.PreferRipgrep() {
		t.Fatal("ripgrep should be preferred by default")
	}
}

func TestHistoryDefaultsLiveOutsideProject(t *testing.T) {
	clearEnv(t)
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("HOME", t.TempDir())

	project := t.TempDir()
	path := writeTempConfig(t, "config.json", `{"project_root":`+strconv.Quote(project)+`}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, file := range []string{cfg.HistoryFile, cfg.CommandHistoryFile} {
		if !filepath.IsAbs(file) {
			t.Fatalf("history file %q should be absolute", file)
		}
		if paths.HasPathPrefix(file, project) {
			t.Fatalf("history file %q is inside the project root %s", file, project)
		}
	}
	if runtime.GOOS == "linux" {
		want := filepath.Join(configHome, "jarvis", "conversation_history.jsonl")
		if cfg.HistoryFile != want {
			t.Fatalf("expected %s, got %s", want, cfg.HistoryFile)
		}
	}
}

func TestHistoryFileExpandsHome(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeTempConfig(t, "config.json", `{"history_file":"~/state/chat.jsonl"}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(home, "state", "chat.jsonl"); cfg.HistoryFile != want {
		t.Fatalf("expected %s, got %s", want, cfg.HistoryFile)
	}
}

func TestToolLimitsDefaultsApplied(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "config.json", `{"tool_limits":{"max_list_entries":0}}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(tools.DefaultLimits(), cfg.ToolLimitsConfig()); diff != "" {
		t.Fatalf("limits mismatch (-want +got):\n%s", diff)
	}
}

func TestResolvePath(t *testing.T) {
	clearEnv(t)
	if got := ResolvePath(""); got != DefaultConfigFile {
		t.Fatalf("expected default config file, got %s", got)
	}
	t.Setenv("JARVIS_CONFIG", "/etc/jarvis.yaml")
	if got := ResolvePath(""); got != "/etc/jarvis.yaml" {
		t.Fatalf("expected env config file, got %s", got)
	}
	if got := ResolvePath("flag.json"); got != "flag.json" {
		t.Fatalf("expected flag to win, got %s", got)
	}
}

func TestValidateTemperatureRange(t *testing.T) {
	tests := []struct {
		name          string
		temperature   *float32
		expectWarning bool
	}{
		{
			name:          "valid temperature",
			temperature:   func() *float32 { v := float32(0.7); return &v }(),
			expectWarning: false,
		},
		{
			name:          "temperature too low",
			temperature:   func() *float32 { v := float32(-0.1); return &v }(),
			expectWarning: true,
		},
		{
			name:          "temperature too high",
			temperature:   func() *float32 { v := float32(2.5); return &v }(),
			expectWarning: true,
		},
		{
			name:          "nil temperature",
			temperature:   nil,
			expectWarning: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Temperature = tt.temperature

			if got := hasWarning(cfg.Validate(nil), "temperature"); got != tt.expectWarning {
				t.Errorf("expected warning=%v, got=%v", tt.expectWarning, got)
			}
		})
	}
}

func TestValidateMaxTokensAndHistory(t *testing.T) {
	cfg := DefaultConfig()
	zero := 0
	cfg.MaxTokens = &zero
	cfg.HistoryMaxMessages = -1
	cfg.ProjectRoot = "/"

	warnings := cfg.Validate(nil)
	for _, field := range []string{"max_tokens", "history_max_messages", "project_root"} {
		if !hasWarning(warnings, field) {
			t.Errorf("expected warning for %s, got %+v", field, warnings)
		}
	}
}

func TestValidateDenyListAgainstRegistry(t *testing.T) {
	registry := tools.NewRegistry(zerolog.Nop())
	err := registry.RegisterTool(&tools.ToolDefinition{
		NameValue:        "read_file",
		DescriptionValue: "Read a file",
		ExecuteFunc: func(context.Context, tools.Args) (string, error) {
			return "", nil
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Tools.Deny = []string{"read_file", "format_disk"}
	warnings := cfg.Validate(registry)
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "format_disk") {
		t.Fatalf("expected a single warning about format_disk, got %+v", warnings)
	}
}

func TestSchemaAndExampleAreValidJSON(t *testing.T) {
	if !strings.Contains(SchemaJSON(), `"Jarvis Config"`) {
		t.Fatal("schema title missing")
	}
	if _, err := normalizeConfigJSON([]byte(ExampleConfigJSON())); err != nil {
		t.Fatalf("example config should validate: %v", err)
	}
}

func hasWarning(warnings []ValidationWarning, field string) bool {
	for _, w := range warnings {
		if w.Field == field {
			return true
		}
	}
	return false
}
