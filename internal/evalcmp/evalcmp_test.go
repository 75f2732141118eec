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

package evalcmp

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestCompareOneRun(t *testing.T) {
	cases := []Case{
		{ID: "a", Expected: map[string]any{"tool": "open_app", "args": map[string]any{"name": "code"}}},
		{ID: "b", Expected: map[string]any{"tool": "open_url", "args": map[string]any{"url": "https://example.com"}}},
	}
	run := Run{
		"a": map[string]any{"tool": "open_app", "args": map[string]any{"name": "code"}},
		"b": map[string]any{"tool": "open_url", "args": map[string]any{"url": "https://wrong.com"}},
	}
	m := CompareOneRun(cases, run)
	if m.Total != 2 || m.Matched != 1 || m.Accuracy != 0.5 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if len(m.Mismatches) != 1 || m.Mismatches[0].ID != "b" {
		t.Fatalf("unexpected mismatches %+v", m.Mismatches)
	}
}

func TestCompareTwoRuns(t *testing.T) {
	cases := []Case{{ID: "x", Expected: 1}, {ID: "y", Expected: 2}}
	runA := Run{"x": 0, "y": 2}
	runB := Run{"x": 1.0, "y": int64(2)}

	got := CompareTwoRuns(cases, runA, runB)
	if got.RunA.Accuracy != 0.5 || got.RunB.Accuracy != 1.0 || got.DeltaAccuracy != 0.5 {
		t.Fatalf("unexpected comparison %+v", got)
	}
}

func TestCompareEmptyAndMissing(t *testing.T) {
	if m := CompareOneRun(nil, Run{}); m.Accuracy != 0 || m.Total != 0 {
		t.Fatalf("unexpected metrics %+v", m)
	}
	m := CompareOneRun([]Case{{ID: "none", Expected: nil}, {ID: "gone", Expected: "x"}}, Run{})
	if m.Matched != 1 || m.Mismatches[0].ID != "gone" {
		t.Fatalf("missing case should compare as null: %+v", m)
	}
}

func TestRunCasesRecordsFirstInstruction(t *testing.T) {
	cases := []Case{
		{ID: "one", Transcript: "open code"},
		{ID: "none", Transcript: "hello"},
		{ID: "err", Transcript: "boom"},
		{Transcript: "no id"},
	}
	replies := map[string]string{
		"open code": `Sure: [{"tool":"open_app","args":{"name":"code"}},{"tool":"open_url","args":{"url":"x"}}]`,
		"hello":     "Hi there!",
	}
	calls := 0
	parse := func(_ context.Context, transcript string) (string, error) {
		calls++
		if transcript == "boom" {
			return "", errors.New("rate limited")
		}
		return replies[transcript], nil
	}

	got := RunCases(context.Background(), cases, parse, zerolog.Nop())
	want := Run{
		"one":  map[string]any{"tool": "open_app", "args": map[string]any{"name": "code"}},
		"none": nil,
		"err":  map[string]any{"error": "rate limited"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("run mismatch (-want +got):\n%s", diff)
	}
	if calls != 3 {
		t.Fatalf("expected 3 model calls, got %d", calls)
	}
}

func TestRunFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	run := Run{"a": map[string]any{"tool": "read_file", "args": map[string]any{"max_bytes": 10}}}
	if err := WriteRun(path, run); err != nil {
		t.Fatalf("WriteRun: %v", err)
	}
	loaded, err := LoadRun(path)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	m := CompareOneRun([]Case{{ID: "a", Expected: run["a"]}}, loaded)
	if m.Matched != 1 {
		t.Fatalf("loaded run should match its source: %+v", m)
	}
}
