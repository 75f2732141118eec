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
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jarvis/internal/app"
	"jarvis/internal/config"
)

var (
	configPath string
	debugMode  bool
	logFile    string
	logConsole bool

	logger    = zerolog.Nop()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "jarvis [-]",
	Short: "Local assistant that turns requests into sandboxed file and desktop actions",
	Long: `jarvis sends what you type to a language model, extracts the tool calls
from its reply and runs them inside the project and Documents roots.

Run without arguments for the interactive prompt. Pass "-" or pipe input
to process one request per line.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, logCloser, err = initLogger(debugMode, logFile, logConsole)
		if err != nil {
			return err
		}
		logger.Debug().Str("command", cmd.Name()).Msg("jarvis starting")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && args[0] != "-" {
			return fmt.Errorf("unexpected argument %q (use \"-\" for batch mode)", args[0])
		}
		if len(args) == 1 || !stdinIsTerminal() {
			return runBatchMode(cmd)
		}
		return runInteractive(cmd)
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process one request per line from stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatchMode(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file, JSON or YAML (default: $JARVIS_CONFIG or "+config.DefaultConfigFile+")")
	rootCmd.PersistentFlags().BoolVarP(&debugMode, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (logs disabled by default)")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Also log to stderr")

	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(casesCmd)
	rootCmd.AddCommand(compareCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadRuntime reads the config and builds the tool runtime.
func loadRuntime() (*app.Runtime, error) {
	path := config.ResolvePath(configPath)
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Debug().Str("config", path).Msg("configuration loaded")
	return app.Build(cfg, logger)
}
