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
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// parametersSchema builds a JSON schema object from an explicit parameter
// list. Unknown arguments are rejected.
func parametersSchema(params []Param) map[string]any {
	properties := make(map[string]any, len(params))
	required := make([]string, 0, len(params))
	for _, p := range params {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func compileSchema(params []Param) (*gojsonschema.Schema, error) {
	for _, p := range params {
		switch p.Type {
		case ParamString, ParamBoolean, ParamInteger:
		default:
			return nil, fmt.Errorf("parameter %q has unsupported type %q", p.Name, p.Type)
		}
	}
	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(parametersSchema(params)))
}

func validateAgainstSchema(schema *gojsonschema.Schema, args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("cannot validate arguments: %v", err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" || field == "(root)" {
			problems = append(problems, desc.Description())
			continue
		}
		problems = append(problems, fmt.Sprintf("%s: %s", field, desc.Description()))
	}
	return fmt.Errorf("%s", strings.Join(problems, "; "))
}

// signature renders params the way the system prompt lists them, e.g.
// read_file(path: string, max_bytes?: integer = 20000).
func signature(name string, params []Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		part := p.Name
		if !p.Required {
			part += "?"
		}
		part += ": " + string(p.Type)
		switch def := p.Default.(type) {
		case nil:
		case string:
			part += fmt.Sprintf(" = %q", def)
		default:
			part += fmt.Sprintf(" = %v", def)
		}
		parts = append(parts, part)
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}
