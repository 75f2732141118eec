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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"jarvis/internal/agent"
	"jarvis/internal/chat"
	"jarvis/internal/theme"
)

func plainColors(t *testing.T) *theme.ColorScheme {
	t.Helper()
	prev := color.NoColor
	t.Cleanup(func() { color.NoColor = prev })
	return theme.DisabledColorScheme()
}

func TestRunBatchOneTurnPerLine(t *testing.T) {
	env := newTestEnv(t)
	client := &scriptedClient{replies: map[string]string{
		"make notes": `{"tool":"make_dir","args":{"path":"notes"}}`,
		"hello":      "Hi!",
	}}
	session := env.session(t, client)

	var out, errOut bytes.Buffer
	input := "make notes\n\nunreachable\nhello\nexit\nhello\n"
	if err := runBatch(context.Background(), session, strings.NewReader(input), &out, &errOut); err != nil {
		t.Fatalf("runBatch: %v", err)
	}

	want := "Directory ensured: " + filepath.Join(env.project, "notes") + "\nHi!\n"
	if out.String() != want {
		t.Fatalf("stdout = %q, want %q", out.String(), want)
	}
	if !strings.Contains(errOut.String(), "connection refused") {
		t.Fatalf("expected the API error on stderr, got %q", errOut.String())
	}
	if client.calls != 3 {
		t.Fatalf("expected 3 model calls before exit, got %d", client.calls)
	}
}

func TestHandleCommand(t *testing.T) {
	env := newTestEnv(t)
	session := env.session(t, &scriptedClient{})
	colors := plainColors(t)

	var out bytes.Buffer
	if handleCommand("/history", session, colors, &out) {
		t.Fatal("/history should not quit")
	}
	if !strings.Contains(out.String(), "No conversation history") {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	handleCommand("/tools", session, colors, &out)
	if !strings.HasPrefix(out.String(), "Tools:\n") || !strings.Contains(out.String(), "search_text(") {
		t.Fatalf("unexpected tools output %q", out.String())
	}

	out.Reset()
	handleCommand("/nope", session, colors, &out)
	if !strings.Contains(out.String(), "Unknown command: /nope") {
		t.Fatalf("unexpected output %q", out.String())
	}

	session.AddMessage("user", "hi")
	out.Reset()
	handleCommand("/clear", session, colors, &out)
	if len(session.GetHistory()) != 0 {
		t.Fatal("/clear should empty the history")
	}

	for _, quit := range []string{"/quit", "/EXIT "} {
		if !handleCommand(quit, session, colors, &out) {
			t.Fatalf("%s should quit", quit)
		}
	}
}

func TestPrintTurnNumbersBatchLines(t *testing.T) {
	colors := plainColors(t)
	turn := chat.Turn{
		Reply: "1) Directory ensured: /p/a\n2) File not found: /p/b",
		Batch: agent.Batch{Results: []agent.ExecutionResult{{OK: true}, {OK: false}}},
	}
	var out bytes.Buffer
	printTurn(&out, colors, turn)
	if out.String() != turn.Reply+"\n" {
		t.Fatalf("got %q", out.String())
	}
}

func TestRunExec(t *testing.T) {
	env := newTestEnv(t)
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	text := `run these: [{"tool":"write_file","args":{"path":"a.txt","content":"hi"}},{"tool":"nuke","args":{}}]`
	err := runExec(cmd, env.rt.Registry, text)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 instructions failed") {
		t.Fatalf("expected a partial failure, got %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "1) Wrote to ") || lines[1] != "2) Unknown tool: nuke" {
		t.Fatalf("unexpected output %q", out.String())
	}
	data, err := os.ReadFile(filepath.Join(env.project, "a.txt"))
	if err != nil || string(data) != "hi" {
		t.Fatalf("file not written: %v %q", err, data)
	}

	if err := runExec(cmd, env.rt.Registry, "just prose"); err == nil {
		t.Fatal("expected an error when no instructions are present")
	}
}

func TestRunCompare(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		return path
	}
	cases := write("cases.json", `[{"id":"x","expected":1},{"id":"y","expected":{"tool":"list_dir","args":{}}}]`)
	runA := write("a.json", `{"x":0,"y":{"tool":"list_dir","args":{}}}`)
	runB := write("b.json", `{"x":1,"y":{"args":{},"tool":"list_dir"}}`)

	var out bytes.Buffer
	if err := runCompare(&out, cases, runA, runB); err != nil {
		t.Fatalf("runCompare: %v", err)
	}
	for _, want := range []string{`"delta_accuracy": 0.5`, `"accuracy": 1`, `"matched": 1`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %s:\n%s", want, out.String())
		}
	}
}

func TestInitLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jarvis.log")
	log, closer, err := initLogger(false, path, false)
	if err != nil {
		t.Fatalf("initLogger: %v", err)
	}
	log.Info().Str("k", "v").Msg("hello")
	log.Debug().Msg("hidden")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"message":"hello"`) || strings.Contains(string(data), "hidden") {
		t.Fatalf("unexpected log contents %q", data)
	}
}
