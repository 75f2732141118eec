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

// Package evalcmp scores recorded model parses against labelled cases and
// compares two runs.
package evalcmp

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/go-cmp/cmp"
)

// Case is one labelled utterance.
type Case struct {
	ID         string `json:"id"`
	Transcript string `json:"transcript,omitempty"`
	Expected   any    `json:"expected"`
}

// Run maps case ids to what a model run produced for them.
type Run map[string]any

// Mismatch records a case whose result differs from the label.
type Mismatch struct {
	ID       string `json:"id"`
	Expected any    `json:"expected"`
	Got      any    `json:"got"`
}

// Metrics summarizes one run.
type Metrics struct {
	Total      int        `json:"total"`
	Matched    int        `json:"matched"`
	Accuracy   float64    `json:"accuracy"`
	Mismatches []Mismatch `json:"mismatches"`
}

// Comparison holds the metrics of a baseline and a candidate run.
type Comparison struct {
	RunA          Metrics `json:"run_a"`
	RunB          Metrics `json:"run_b"`
	DeltaAccuracy float64 `json:"delta_accuracy"`
}

// CompareOneRun counts the cases whose recorded result equals the label.
// A case missing from run compares as null.
func CompareOneRun(cases []Case, run Run) Metrics {
	m := Metrics{Total: len(cases), Mismatches: []Mismatch{}}
	for _, c := range cases {
		expected := canonical(c.Expected)
		got := canonical(run[c.ID])
		if cmp.Equal(expected, got) {
			m.Matched++
			continue
		}
		m.Mismatches = append(m.Mismatches, Mismatch{ID: c.ID, Expected: c.Expected, Got: run[c.ID]})
	}
	if m.Total > 0 {
		m.Accuracy = float64(m.Matched) / float64(m.Total)
	}
	return m
}

// CompareTwoRuns scores both runs; DeltaAccuracy is B minus A.
func CompareTwoRuns(cases []Case, runA, runB Run) Comparison {
	a := CompareOneRun(cases, runA)
	b := CompareOneRun(cases, runB)
	return Comparison{RunA: a, RunB: b, DeltaAccuracy: b.Accuracy - a.Accuracy}
}

// canonical round-trips v through JSON so values decoded from files and
// values built in memory compare by content.
func canonical(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// LoadCases reads a JSON array of cases.
func LoadCases(path string) ([]Case, error) {
	var cases []Case
	if err := loadJSON(path, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

// LoadRun reads a JSON object keyed by case id.
func LoadRun(path string) (Run, error) {
	run := Run{}
	if err := loadJSON(path, &run); err != nil {
		return nil, err
	}
	return run, nil
}

// WriteRun stores run as indented JSON.
func WriteRun(path string, run Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func loadJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
