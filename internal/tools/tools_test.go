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
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	apperrors "jarvis/internal/errors"
)

func echoTool(name, reply string) *ToolDefinition {
	return &ToolDefinition{
		NameValue:        name,
		DescriptionValue: "Echo a fixed reply",
		ParamsValue: []Param{
			{Name: "text", Type: ParamString, Required: true},
			{Name: "times", Type: ParamInteger, Default: 1},
			{Name: "loud", Type: ParamBoolean},
		},
		ExecuteFunc: func(context.Context, Args) (string, error) { return reply, nil },
	}
}

func TestRegisterToolLastRegistrationWins(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	if err := registry.RegisterTool(echoTool("echo", "first")); err != nil {
		t.Fatal(err)
	}
	if err := registry.RegisterTool(echoTool("echo", "second")); err != nil {
		t.Fatal(err)
	}
	tool, ok := registry.Lookup("echo")
	if !ok {
		t.Fatal("expected echo to be registered")
	}
	got, _ := tool.Execute(context.Background(), map[string]any{"text": "x"})
	if got != "second" {
		t.Fatalf("expected the later registration to win, got %q", got)
	}
	if names := registry.GetToolNames(); len(names) != 1 {
		t.Fatalf("expected one tool, got %v", names)
	}
}

func TestRegisterToolRejectsBadDefinitions(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	if err := registry.RegisterTool(&ToolDefinition{NameValue: "  "}); err == nil {
		t.Fatal("expected error for empty name")
	}
	bad := &ToolDefinition{NameValue: "bad", ParamsValue: []Param{{Name: "x", Type: "float"}}}
	if err := registry.RegisterTool(bad); err == nil {
		t.Fatal("expected error for unsupported parameter type")
	}
}

func TestLookupUnknownTool(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	if _, ok := registry.Lookup("does_not_exist"); ok {
		t.Fatal("expected lookup to fail")
	}
	err := registry.Validate("does_not_exist", nil)
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestValidateArguments(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	if err := registry.RegisterTool(echoTool("echo", "ok")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{"valid", map[string]any{"text": "hi", "times": int64(2), "loud": true}, ""},
		{"nil args missing required", nil, "text is required"},
		{"extra argument", map[string]any{"text": "hi", "colour": "red"}, "colour"},
		{"wrong type", map[string]any{"text": 5}, "text"},
		{"fractional integer", map[string]any{"text": "a", "times": 1.5}, "times"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.Validate("echo", tt.args)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			expectCode(t, err, apperrors.CodeMalformed)
			if !errors.Is(err, ErrInvalidArguments) {
				t.Fatalf("expected ErrInvalidArguments, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q in %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestDescribeAllSortedAndToolsSection(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := registry.RegisterTool(echoTool(name, name)); err != nil {
			t.Fatal(err)
		}
	}
	var names []string
	for _, d := range registry.DescribeAll() {
		names = append(names, d.Name)
	}
	if diff := cmp.Diff([]string{"alpha", "mid", "zeta"}, names); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}

	section := registry.ToolsSection()
	want := "1) alpha(text: string, times?: integer = 1, loud?: boolean)\n    Echo a fixed reply\n"
	if !strings.HasPrefix(section, "Tools:\n") || !strings.Contains(section, want) {
		t.Fatalf("unexpected tools section:\n%s", section)
	}
	if strings.Index(section, "alpha(") > strings.Index(section, "zeta(") {
		t.Fatal("tools section is not sorted")
	}
	if section != registry.ToolsSection() {
		t.Fatal("tools section must be deterministic")
	}
}

func TestApplyPolicy(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	_ = registry.RegisterTool(echoTool("keep", "k"))
	_ = registry.RegisterTool(echoTool("drop", "d"))
	unknown := registry.ApplyPolicy(Policy{Denied: []string{"drop", "ghost"}})
	if diff := cmp.Diff([]string{"ghost"}, unknown); diff != "" {
		t.Fatalf("unexpected unknown names (-want +got):\n%s", diff)
	}
	if _, ok := registry.Lookup("drop"); ok {
		t.Fatal("denied tool still registered")
	}
	if _, ok := registry.Lookup("keep"); !ok {
		t.Fatal("allowed tool was removed")
	}
}

func TestRegisterBuiltinTools(t *testing.T) {
	env := newTestEnv(t)
	registry := NewRegistry(zerolog.Nop())
	if err := RegisterBuiltinTools(registry, env.fs, SystemServices{}); err != nil {
		t.Fatalf("RegisterBuiltinTools: %v", err)
	}
	want := []string{
		"copy_path", "delete_path", "insert_text", "list_dir", "make_dir", "move_path",
		"read_file", "rename_path", "replace_text", "search_text", "summarize_file", "write_file",
	}
	if diff := cmp.Diff(want, registry.GetToolNames()); diff != "" {
		t.Fatalf("unexpected builtin tools (-want +got):\n%s", diff)
	}
	if !strings.Contains(registry.ToolsSection(), "read_file(path: string, max_bytes?: integer = 20000)") {
		t.Fatalf("read_file signature missing:\n%s", registry.ToolsSection())
	}
}

func TestToolDefinitionRunsValidateFunc(t *testing.T) {
	env := newTestEnv(t)
	registry := NewRegistry(zerolog.Nop())
	if err := RegisterBuiltinTools(registry, env.fs, SystemServices{}); err != nil {
		t.Fatal(err)
	}
	tool, _ := registry.Lookup("insert_text")
	_, err := tool.Execute(context.Background(), map[string]any{
		"path": "a.txt", "text": "x", "after": "a", "before": "b",
	})
	expectCode(t, err, apperrors.CodeMalformed)
	if !strings.Contains(err.Error(), "use only one of") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestArgsAccessors(t *testing.T) {
	args := Args{"s": "v", "b": true, "i": int64(7), "f": float64(3), "frac": 2.5}
	if args.String("s") != "v" || args.String("missing") != "" {
		t.Fatal("String accessor")
	}
	if !args.Bool("b", false) || !args.Bool("missing", true) {
		t.Fatal("Bool accessor")
	}
	if args.Int("i", 0) != 7 || args.Int("f", 0) != 3 || args.Int("frac", 9) != 9 || args.Int("missing", 4) != 4 {
		t.Fatal("Int accessor")
	}
}
