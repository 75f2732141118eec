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

package agent

import (
	"context"

	apperrors "jarvis/internal/errors"
)

// Instruction is one tool call extracted from model output.
type Instruction struct {
	// Index is the 1-based position in the batch.
	Index int
	Tool  string
	// Args is nil when the model supplied something other than an object;
	// RawArgs then holds what it did supply.
	Args    map[string]any
	RawArgs any
}

// ExecutionResult is the outcome of one instruction.
type ExecutionResult struct {
	Index   int
	Tool    string
	OK      bool
	Message string
	Code    apperrors.Code
}

// Batch is the outcome of a whole turn.
type Batch struct {
	Results []ExecutionResult
	Reply   string
}

type turnKey struct{}

// WithTurnID tags ctx with the id used in log lines for the current turn.
func WithTurnID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, turnKey{}, id)
}

// TurnID returns the id set by WithTurnID, or "".
func TurnID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(turnKey{}).(string)
	return id
}
