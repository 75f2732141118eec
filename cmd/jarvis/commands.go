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
	"strings"

	"jarvis/internal/chat"
	"jarvis/internal/theme"
)

// Command represents a slash command
type Command struct {
	Name        string
	Description string
}

func availableCommands() []Command {
	return []Command{
		{Name: "help", Description: "Show available commands"},
		{Name: "clear", Description: "Clear conversation history"},
		{Name: "history", Description: "Display conversation history"},
		{Name: "tools", Description: "List the tools the model may call"},
		{Name: "debug", Description: "Toggle debug logging"},
		{Name: "quit", Description: "Exit the application"},
		{Name: "exit", Description: "Exit the application"},
	}
}

// handleCommand processes slash commands, returns true if should quit
func handleCommand(input string, session *chat.Session, colors *theme.ColorScheme, w io.Writer) bool {
	cmdName := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(input, "/")))
	logger.Debug().Str("command", cmdName).Msg("executing command")

	switch cmdName {
	case "help":
		showHelp(w, colors)
	case "clear":
		session.ClearHistory()
		colors.Success.Fprintln(w, "✓ Conversation history cleared")
	case "history":
		if len(session.GetHistory()) == 0 {
			colors.Error.Fprintln(w, "No conversation history")
			return false
		}
		session.PrintHistory(w)
	case "tools":
		fmt.Fprint(w, session.Registry.ToolsSection())
	case "debug":
		if toggleDebug() {
			colors.Success.Fprintln(w, "✓ Debug logging enabled")
		} else {
			colors.Success.Fprintln(w, "✓ Debug logging disabled")
		}
	case "quit", "exit":
		return true
	default:
		colors.Error.Fprintf(w, "✗ Unknown command: /%s (type /help for available commands)\n", cmdName)
	}
	return false
}

func showHelp(w io.Writer, colors *theme.ColorScheme) {
	fmt.Fprintln(w, colors.Header.Sprint("\nAvailable Commands:"))
	for _, cmd := range availableCommands() {
		fmt.Fprintf(w, "  /%-10s - %s\n", cmd.Name, cmd.Description)
	}
	fmt.Fprintln(w, "\nSay exit, quit, bye, стоп or выход to leave. Tab completes commands.")
	fmt.Fprintln(w)
}
