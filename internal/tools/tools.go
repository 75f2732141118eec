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
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	apperrors "jarvis/internal/errors"
)

// ToolDescription is the prompt-facing summary of one tool.
type ToolDescription struct {
	Name        string
	Signature   string
	Description string
}

// Policy removes tools from a registry.
type Policy struct {
	Denied []string
}

type registeredTool struct {
	tool   Tool
	schema *gojsonschema.Schema
}

// Registry holds all available tools keyed by name.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]registeredTool
	logger zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]registeredTool),
		logger: logger,
	}
}

// RegisterTool adds a tool. Registering an existing name replaces the
// previous tool; the last registration wins.
func (r *Registry) RegisterTool(tool Tool) error {
	name := strings.TrimSpace(tool.Name())
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	schema, err := compileSchema(tool.Params())
	if err != nil {
		return fmt.Errorf("tool %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		r.logger.Warn().Str("tool", name).Msg("replacing previously registered tool")
	}
	r.tools[name] = registeredTool{tool: tool, schema: schema}
	return nil
}

// Unregister removes a tool and reports whether it existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tools[name]
	delete(r.tools, name)
	return ok
}

// ApplyPolicy removes denied tools and returns the denied names that were
// not registered.
func (r *Registry) ApplyPolicy(policy Policy) []string {
	var unknown []string
	for _, name := range policy.Denied {
		if !r.Unregister(name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.tools[name]
	return entry.tool, ok
}

// Validate checks args against the tool's parameter list.
func (r *Registry) Validate(name string, args map[string]any) error {
	r.mu.RLock()
	entry, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return apperrors.Wrap(apperrors.CodeMalformed, "", fmt.Errorf("%w: %s", ErrToolNotFound, name))
	}
	if err := validateAgainstSchema(entry.schema, args); err != nil {
		return invalidArguments(err)
	}
	return nil
}

// GetToolNames returns all tool names in sorted order.
func (r *Registry) GetToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DescribeAll returns every tool sorted by name.
func (r *Registry) DescribeAll() []ToolDescription {
	names := r.GetToolNames()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolDescription, 0, len(names))
	for _, name := range names {
		entry, ok := r.tools[name]
		if !ok {
			continue
		}
		out = append(out, ToolDescription{
			Name:        name,
			Signature:   signature(name, entry.tool.Params()),
			Description: entry.tool.Description(),
		})
	}
	return out
}

// ToolsSection renders the tool list for the system prompt.
func (r *Registry) ToolsSection() string {
	var b strings.Builder
	b.WriteString("Tools:\n")
	for i, desc := range r.DescribeAll() {
		fmt.Fprintf(&b, "\n%d) %s\n", i+1, desc.Signature)
		for _, line := range strings.Split(strings.TrimSpace(desc.Description), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				b.WriteString("    " + line + "\n")
			}
		}
	}
	return b.String()
}
