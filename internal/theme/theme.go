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

package theme

import (
	"os"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

// ColorScheme provides pterm and color styles for the console.
type ColorScheme struct {
	Header  *pterm.Style
	Prompt  *color.Color
	Reply   *color.Color
	Error   *color.Color
	Success *color.Color
	Muted   *color.Color
}

// DefaultColorScheme returns the standard console colors.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Header:  pterm.NewStyle(pterm.FgCyan, pterm.Bold),
		Prompt:  color.New(color.FgBlue, color.Bold),
		Reply:   color.New(color.FgGreen),
		Error:   color.New(color.FgRed, color.Bold),
		Success: color.New(color.FgGreen),
		Muted:   color.New(color.FgHiBlack),
	}
}

// DisabledColorScheme returns a color scheme with all colors disabled (for NO_COLOR).
func DisabledColorScheme() *ColorScheme {
	color.NoColor = true
	pterm.DisableColor()

	return &ColorScheme{
		Header:  pterm.NewStyle(),
		Prompt:  color.New(),
		Reply:   color.New(),
		Error:   color.New(),
		Success: color.New(),
		Muted:   color.New(),
	}
}

// ForEnvironment honors NO_COLOR and falls back to plain output when
// colors are off for any other reason.
func ForEnvironment() *ColorScheme {
	if os.Getenv("NO_COLOR") != "" || color.NoColor {
		return DisabledColorScheme()
	}
	return DefaultColorScheme()
}

// Status colors a result line by outcome.
func (c *ColorScheme) Status(ok bool, text string) string {
	if ok {
		return c.Success.Sprint(text)
	}
	return c.Error.Sprint(text)
}
