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
	"strings"

	"github.com/rs/zerolog"

	"jarvis/internal/agent"
)

// Parse sends one transcript to the model and returns its raw reply.
type Parse func(ctx context.Context, transcript string) (string, error)

// RunCases records, per case id, the first instruction the model produced
// as {"tool": ..., "args": ...}. Cases without an id are skipped, a reply
// without instructions is recorded as null and a failed call as
// {"error": ...}.
func RunCases(ctx context.Context, cases []Case, parse Parse, logger zerolog.Logger) Run {
	run := Run{}
	for _, c := range cases {
		if strings.TrimSpace(c.ID) == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			run[c.ID] = map[string]any{"error": err.Error()}
			continue
		}
		reply, err := parse(ctx, c.Transcript)
		if err != nil {
			logger.Warn().Err(err).Str("case", c.ID).Msg("case failed")
			run[c.ID] = map[string]any{"error": err.Error()}
			continue
		}
		instructions := agent.Extract(reply)
		if len(instructions) == 0 {
			run[c.ID] = nil
			continue
		}
		first := instructions[0]
		args := any(first.Args)
		if first.Args == nil {
			args = first.RawArgs
		}
		run[c.ID] = canonical(map[string]any{"tool": first.Tool, "args": args})
		logger.Debug().Str("case", c.ID).Str("tool", first.Tool).Msg("case parsed")
	}
	return run
}
