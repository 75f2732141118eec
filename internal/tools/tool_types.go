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

import "context"

// ParamType is the JSON type an argument must have.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamBoolean ParamType = "boolean"
	ParamInteger ParamType = "integer"
)

// Param describes one named argument of a tool.
type Param struct {
	Name        string
	Type        ParamType
	Required    bool
	Default     any
	Description string
}

// ExecutorFunc is the function signature for tool implementations.
type ExecutorFunc func(ctx context.Context, args Args) (string, error)

// Tool represents a callable tool with its argument signature.
type Tool interface {
	Name() string
	Description() string
	Params() []Param
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// ToolDefinition provides a default implementation of Tool.
type ToolDefinition struct {
	NameValue        string
	DescriptionValue string
	ParamsValue      []Param
	ExecuteFunc      ExecutorFunc
	// ValidateFunc runs after schema validation for checks a schema cannot
	// express, such as mutually exclusive arguments.
	ValidateFunc ValidationRule
}

func (t *ToolDefinition) Name() string {
	return t.NameValue
}

func (t *ToolDefinition) Description() string {
	return t.DescriptionValue
}

func (t *ToolDefinition) Params() []Param {
	return t.ParamsValue
}

func (t *ToolDefinition) Execute(ctx context.Context, args map[string]any) (string, error) {
	if t.ValidateFunc != nil {
		if err := t.ValidateFunc(args); err != nil {
			return "", invalidArguments(err)
		}
	}
	if t.ExecuteFunc == nil {
		return "", nil
	}
	return t.ExecuteFunc(ctx, Args(args))
}
