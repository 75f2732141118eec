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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"jarvis/internal/chat"
	"jarvis/internal/theme"
)

// newSession builds the runtime and a model-backed session with the
// stored conversation loaded.
func newSession() (*chat.Session, error) {
	rt, err := loadRuntime()
	if err != nil {
		return nil, err
	}
	if err := rt.Config.RequireAPIKey(); err != nil {
		return nil, err
	}
	session, err := chat.NewSession(rt.Config, rt.Registry, logger)
	if err != nil {
		return nil, err
	}
	loadHistory(session)
	return session, nil
}

func loadHistory(session *chat.Session) {
	cfg := session.Config
	if cfg.HistoryFile == "" {
		return
	}
	maxMessages := cfg.HistoryMaxMessages
	if maxMessages <= 0 {
		maxMessages = 100
	}
	if err := session.LoadConversationHistory(cfg.HistoryFile, maxMessages); err != nil {
		logger.Warn().Err(err).Msg("failed to load conversation history")
		return
	}
	if n := len(session.GetHistory()); n > 0 {
		logger.Debug().Int("messages", n).Msg("loaded conversation history")
	}
}

func saveHistory(session *chat.Session) {
	if session.Config.HistoryFile == "" {
		return
	}
	if err := session.SaveConversationHistory(session.Config.HistoryFile); err != nil {
		logger.Warn().Err(err).Msg("failed to save conversation history")
	}
}

// runTurn handles one request. Ctrl+C cancels the model call without
// leaving the program.
func runTurn(ctx context.Context, session *chat.Session, text string) (chat.Turn, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	start := time.Now()
	turn, err := session.HandleUserText(ctx, text)
	event := logger.Info()
	if err != nil {
		event = logger.Error().Err(err)
	}
	event.Str("turn", turn.ID).Int("instructions", len(turn.Instructions)).Dur("duration", time.Since(start)).Msg("turn finished")
	if err == nil {
		saveHistory(session)
	}
	return turn, err
}

// printTurn shows a plain reply as is and colors each numbered line of a
// batch by its outcome.
func printTurn(w io.Writer, colors *theme.ColorScheme, turn chat.Turn) {
	results := turn.Batch.Results
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, colors.Reply.Sprint(turn.Reply))
	case len(results) == 1:
		fmt.Fprintln(w, colors.Status(results[0].OK, turn.Reply))
	default:
		for i, line := range strings.Split(turn.Reply, "\n") {
			ok := i < len(results) && results[i].OK
			fmt.Fprintln(w, colors.Status(ok, line))
		}
	}
}

func runInteractive(cmd *cobra.Command) error {
	session, err := newSession()
	if err != nil {
		return err
	}
	colors := theme.ForEnvironment()

	if file := session.Config.CommandHistoryFile; file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          colors.Prompt.Sprint("❯ "),
		HistoryFile:     session.Config.CommandHistoryFile,
		AutoComplete:    commandCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	out := cmd.OutOrStdout()
	roots := session.Config.Roots()
	fmt.Fprintln(out, colors.Header.Sprint("Jarvis"))
	fmt.Fprintln(out, colors.Muted.Sprintf("Model: %s  Project: %s  Documents: %s", session.Config.Model, roots.Project, roots.Documents))
	fmt.Fprintln(out, colors.Muted.Sprint("Type /help for commands, exit to quit"))
	fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		switch classifyReadlineError(line, err) {
		case readlineExit:
			return nil
		case readlineContinue:
			continue
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isExitPhrase(line) {
			fmt.Fprintln(out, colors.Reply.Sprint("Goodbye."))
			return nil
		}
		if strings.HasPrefix(line, "/") {
			if handleCommand(line, session, colors, out) {
				return nil
			}
			continue
		}

		turn, err := runTurn(cmd.Context(), session, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				colors.Error.Fprintln(out, "✗ Request cancelled")
				continue
			}
			colors.Error.Fprintf(out, "✗ %v\n", err)
			continue
		}
		printTurn(out, colors, turn)
	}
}

func runBatchMode(cmd *cobra.Command) error {
	session, err := newSession()
	if err != nil {
		return err
	}
	return runBatch(cmd.Context(), session, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// runBatch handles one request per input line. Model errors are reported
// for their line only; an exit phrase ends the run.
func runBatch(ctx context.Context, session *chat.Session, in io.Reader, out, errOut io.Writer) error {
	logger.Debug().Msg("running in batch mode")
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if isExitPhrase(line) {
			break
		}
		turn, err := runTurn(ctx, session, line)
		if err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, turn.Reply)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}
