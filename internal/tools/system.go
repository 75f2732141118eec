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

package tools

import (
	"context"
	"net/url"
	"strings"
)

// AppLauncher starts and stops desktop applications and opens URLs and
// files in external programs.
type AppLauncher interface {
	NormalizeKey(name string) string
	Launch(key string) (string, error)
	Close(key string) (string, error)
	OpenURL(rawURL string) (string, error)
	OpenEditor(path string) (string, error)
}

// WeatherReporter describes current conditions for a city.
type WeatherReporter interface {
	Current(ctx context.Context, city string) (string, error)
}

// SystemServices are the optional collaborators behind the system tools.
type SystemServices struct {
	Launcher AppLauncher
	Weather  WeatherReporter
}

func registerSystemTools(register func(Tool), fsys *FS, sys SystemServices) {
	if sys.Launcher != nil {
		launcher := sys.Launcher
		register(&ToolDefinition{
			NameValue:        "open_url",
			DescriptionValue: "Open a web page in the default browser.",
			ParamsValue:      []Param{{Name: "url", Type: ParamString, Required: true}},
			ExecuteFunc: func(_ context.Context, args Args) (string, error) {
				target, err := normalizeURL(args.String("url"))
				if err != nil {
					return "", err
				}
				return launcher.OpenURL(target)
			},
			ValidateFunc: RequireNonBlankArg("url"),
		})

		register(&ToolDefinition{
			NameValue:        "open_app",
			DescriptionValue: "Start a known desktop application by name, e.g. firefox, telegram, steam. Other names need an app_commands entry.",
			ParamsValue:      []Param{{Name: "name", Type: ParamString, Required: true}},
			ExecuteFunc: func(_ context.Context, args Args) (string, error) {
				return launcher.Launch(launcher.NormalizeKey(args.String("name")))
			},
			ValidateFunc: RequireNonBlankArg("name"),
		})

		register(&ToolDefinition{
			NameValue:        "close_app",
			DescriptionValue: "Close a desktop application by name.",
			ParamsValue:      []Param{{Name: "name", Type: ParamString, Required: true}},
			ExecuteFunc: func(_ context.Context, args Args) (string, error) {
				return launcher.Close(launcher.NormalizeKey(args.String("name")))
			},
			ValidateFunc: RequireNonBlankArg("name"),
		})

		register(&ToolDefinition{
			NameValue:        "open_in_vscode",
			DescriptionValue: "Open a file or folder in Visual Studio Code.",
			ParamsValue:      []Param{{Name: "path", Type: ParamString, Default: ""}},
			ExecuteFunc: func(_ context.Context, args Args) (string, error) {
				resolved, err := fsys.resolver.Resolve(args.String("path"))
				if err != nil {
					return "", err
				}
				return launcher.OpenEditor(resolved.Path)
			},
		})
	}

	if sys.Weather != nil {
		weather := sys.Weather
		register(&ToolDefinition{
			NameValue:        "get_weather",
			DescriptionValue: "Current weather for a city. Without a city the configured default is used.",
			ParamsValue:      []Param{{Name: "city", Type: ParamString, Default: ""}},
			ExecuteFunc: func(ctx context.Context, args Args) (string, error) {
				return weather.Current(ensureContext(ctx), args.String("city"))
			},
		})
	}
}

// normalizeURL adds https:// to bare host names and accepts only web URLs.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", malformed("invalid url %q", raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", malformed("unsupported url scheme %q", parsed.Scheme)
	}
	return parsed.String(), nil
}
