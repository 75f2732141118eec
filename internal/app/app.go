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

// Package app assembles the tool runtime from a loaded configuration.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"jarvis/internal/config"
	"jarvis/internal/launcher"
	"jarvis/internal/paths"
	"jarvis/internal/tools"
	"jarvis/internal/weather"
)

// Runtime is everything a turn needs besides the model.
type Runtime struct {
	Config   *config.Config
	Resolver *paths.Resolver
	FS       *tools.FS
	Registry *tools.Registry
	Launcher *launcher.Launcher
	Weather  *weather.Client
	Warnings []config.ValidationWarning
}

// Build resolves the sandbox roots, registers every built-in tool and then
// removes the ones the config denies.
func Build(cfg *config.Config, logger zerolog.Logger) (*Runtime, error) {
	aliases, err := paths.DefaultAliases()
	if err != nil {
		return nil, err
	}
	resolver, err := paths.NewResolver(cfg.Roots(), aliases)
	if err != nil {
		return nil, fmt.Errorf("invalid sandbox roots: %w", err)
	}

	searcher := tools.NewSearcher(cfg.PreferRipgrep())
	fsys := tools.NewFS(resolver, cfg.ToolLimitsConfig(), searcher, logger)

	apps, err := launcher.New(cfg.AppCommands, logger)
	if err != nil {
		return nil, err
	}
	forecast := weather.New(cfg.WeatherAPIKey, cfg.DefaultCity, logger)

	registry := tools.NewRegistry(logger)
	if err := tools.RegisterBuiltinTools(registry, fsys, tools.SystemServices{Launcher: apps, Weather: forecast}); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	warnings := cfg.Validate(registry)
	registry.ApplyPolicy(cfg.ToolPolicy())
	for _, w := range warnings {
		logger.Warn().Str("field", w.Field).Msg(w.Message)
	}

	roots := resolver.Roots()
	logger.Info().
		Str("project_root", roots.Project).
		Str("documents_root", roots.Documents).
		Str("search", searcher.Name()).
		Int("tools", len(registry.GetToolNames())).
		Msg("runtime ready")

	return &Runtime{
		Config:   cfg,
		Resolver: resolver,
		FS:       fsys,
		Registry: registry,
		Launcher: apps,
		Weather:  forecast,
		Warnings: warnings,
	}, nil
}
