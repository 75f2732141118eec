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
	"testing"

	"github.com/fatih/color"
)

func TestDefaultColorScheme(t *testing.T) {
	scheme := DefaultColorScheme()
	if scheme.Header == nil || scheme.Prompt == nil || scheme.Reply == nil ||
		scheme.Error == nil || scheme.Success == nil || scheme.Muted == nil {
		t.Fatalf("expected every style to be set: %+v", scheme)
	}
}

func TestNoColorDisablesStyles(t *testing.T) {
	prev := color.NoColor
	t.Cleanup(func() { color.NoColor = prev })
	t.Setenv("NO_COLOR", "1")

	scheme := ForEnvironment()
	if !color.NoColor {
		t.Fatal("expected fatih/color to be disabled")
	}
	if got := scheme.Status(false, "boom"); got != "boom" {
		t.Fatalf("expected plain text, got %q", got)
	}
	if got := scheme.Reply.Sprint("ok"); got != "ok" {
		t.Fatalf("expected plain text, got %q", got)
	}
}

func TestStatusColorsByOutcome(t *testing.T) {
	prev := color.NoColor
	t.Cleanup(func() { color.NoColor = prev })
	color.NoColor = false

	scheme := DefaultColorScheme()
	ok := scheme.Status(true, "done")
	failed := scheme.Status(false, "done")
	if ok == failed {
		t.Fatal("success and failure should render differently")
	}
	if ok == "done" {
		t.Fatal("expected color codes around success text")
	}
}
