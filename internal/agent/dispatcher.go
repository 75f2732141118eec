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
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	apperrors "jarvis/internal/errors"
	"jarvis/internal/tools"
)

// Dispatcher runs instructions against a registry strictly in order.
type Dispatcher struct {
	registry *tools.Registry
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher for registry.
func NewDispatcher(registry *tools.Registry, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger}
}

// Execute runs every instruction, one after another. A failing instruction
// never stops the ones after it.
func (d *Dispatcher) Execute(ctx context.Context, instructions []Instruction) Batch {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := d.logger.With().Str("turn", TurnID(ctx)).Logger()

	results := make([]ExecutionResult, 0, len(instructions))
	for i, ins := range instructions {
		res := d.run(ctx, ins)
		res.Index = i + 1
		event := logger.Info()
		if !res.OK {
			event = logger.Warn().Str("code", string(res.Code))
		}
		event.Int("index", res.Index).Str("tool", res.Tool).Bool("ok", res.OK).Msg("instruction executed")
		results = append(results, res)
	}
	return Batch{Results: results, Reply: FormatReply(results)}
}

func (d *Dispatcher) run(ctx context.Context, ins Instruction) ExecutionResult {
	res := ExecutionResult{Tool: ins.Tool}
	tool, ok := d.registry.Lookup(ins.Tool)
	if !ok {
		res.Code = apperrors.CodeMalformed
		res.Message = "Unknown tool: " + ins.Tool
		return res
	}
	if ins.Args == nil {
		return failed(res, apperrors.Newf(apperrors.CodeMalformed, "args must be a JSON object, got %s", describe(ins.RawArgs)))
	}
	if err := d.registry.Validate(ins.Tool, ins.Args); err != nil {
		return failed(res, err)
	}

	msg, err := safeExecute(ctx, tool, ins.Args)
	if err != nil {
		return failed(res, err)
	}
	res.OK = true
	res.Message = msg
	return res
}

// failed keeps the descriptive text of classified operation failures and
// prefixes everything else with the tool name.
func failed(res ExecutionResult, err error) ExecutionResult {
	res.Code = apperrors.CodeOf(err)
	switch res.Code {
	case apperrors.CodeSandbox, apperrors.CodeNotFound, apperrors.CodeConflict, apperrors.CodeIO:
		res.Message = err.Error()
	default:
		if res.Code == "" {
			res.Code = apperrors.CodeToolExecution
		}
		res.Message = fmt.Sprintf("tool '%s' failed: %v", res.Tool, err)
	}
	return res
}

func safeExecute(ctx context.Context, tool tools.Tool, args map[string]any) (msg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.Newf(apperrors.CodeToolExecution, "panic: %v", r)
		}
	}()
	return tool.Execute(ctx, args)
}

// FormatReply returns a single message unchanged and numbers several
// messages as "1) ...", one per line.
func FormatReply(results []ExecutionResult) string {
	switch len(results) {
	case 0:
		return ""
	case 1:
		return results[0].Message
	}
	lines := make([]string, len(results))
	for i, res := range results {
		lines[i] = fmt.Sprintf("%d) %s", i+1, res.Message)
	}
	return strings.Join(lines, "\n")
}

func describe(v any) string {
	switch v.(type) {
	case string:
		return "a string"
	case []any:
		return "an array"
	case bool:
		return "a boolean"
	case int64, float64:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
