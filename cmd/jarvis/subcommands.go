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
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"jarvis/internal/agent"
	"jarvis/internal/evalcmp"
	"jarvis/internal/tools"
	systemprompt "jarvis/system_prompt"
)

var execCmd = &cobra.Command{
	Use:   "exec [text]",
	Short: "Run the tool calls found in text without asking the model",
	Long: `Extracts tool instructions from the argument (or stdin) exactly as it
would from a model reply and executes them in order.

Example:
  jarvis exec '[{"tool":"make_dir","args":{"path":"notes"}}]'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := inputText(cmd, args)
		if err != nil {
			return err
		}
		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		return runExec(cmd, rt.Registry, text)
	},
}

var toolsPrompt bool

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool section of the system prompt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		section := rt.Registry.ToolsSection()
		if toolsPrompt {
			if section, err = systemprompt.Build(section); err != nil {
				return err
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), section)
		return nil
	},
}

var (
	casesFile  string
	casesOut   string
	casesModel string
	runAFile   string
	runBFile   string
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Run labelled utterances through the model and record the first tool call of each",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := evalcmp.LoadCases(casesFile)
		if err != nil {
			return fmt.Errorf("failed to load cases: %w", err)
		}
		session, err := newSession()
		if err != nil {
			return err
		}
		if casesModel != "" {
			session.Config.Model = casesModel
		}
		run := evalcmp.RunCases(cmd.Context(), cases, session.Parse, logger)
		if err := evalcmp.WriteRun(casesOut, run); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d results to %s\n", len(run), casesOut)
		return nil
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the accuracy of two recorded runs against labelled cases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompare(cmd.OutOrStdout(), casesFile, runAFile, runBFile)
	},
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsPrompt, "prompt", false, "Print the whole system prompt")

	casesCmd.Flags().StringVar(&casesFile, "cases", "", "JSON file with cases: [{id, transcript, expected?}, ...]")
	casesCmd.Flags().StringVar(&casesOut, "out", "", "Where to write the run results (id -> first tool call)")
	casesCmd.Flags().StringVar(&casesModel, "model", "", "Override the configured model")
	_ = casesCmd.MarkFlagRequired("cases")
	_ = casesCmd.MarkFlagRequired("out")

	compareCmd.Flags().StringVar(&casesFile, "cases", "", "JSON file with cases: [{id, expected}, ...]")
	compareCmd.Flags().StringVar(&runAFile, "run-a", "", "Baseline results keyed by id")
	compareCmd.Flags().StringVar(&runBFile, "run-b", "", "Candidate results keyed by id")
	_ = compareCmd.MarkFlagRequired("cases")
	_ = compareCmd.MarkFlagRequired("run-a")
	_ = compareCmd.MarkFlagRequired("run-b")
}

func inputText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func runExec(cmd *cobra.Command, registry *tools.Registry, text string) error {
	instructions := agent.Extract(text)
	if len(instructions) == 0 {
		return errors.New("no tool instructions found in input")
	}
	ctx := agent.WithTurnID(cmd.Context(), uuid.NewString())
	batch := agent.NewDispatcher(registry, logger).Execute(ctx, instructions)
	fmt.Fprintln(cmd.OutOrStdout(), batch.Reply)

	failed := 0
	for _, res := range batch.Results {
		if !res.OK {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d instructions failed", failed, len(batch.Results))
	}
	return nil
}

func runCompare(w io.Writer, casesPath, runAPath, runBPath string) error {
	cases, err := evalcmp.LoadCases(casesPath)
	if err != nil {
		return fmt.Errorf("failed to load cases: %w", err)
	}
	runA, err := evalcmp.LoadRun(runAPath)
	if err != nil {
		return fmt.Errorf("failed to load run A: %w", err)
	}
	runB, err := evalcmp.LoadRun(runBPath)
	if err != nil {
		return fmt.Errorf("failed to load run B: %w", err)
	}
	result := evalcmp.CompareTwoRuns(cases, runA, runB)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}
