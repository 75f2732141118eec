package systemprompt

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.txt
var promptFiles embed.FS

// Load concatenates all embedded prompt files in lexical order, separated
// by a blank line.
func Load() (string, error) {
	entries, err := fs.ReadDir(promptFiles, ".")
	if err != nil {
		return "", fmt.Errorf("failed to read embedded system prompt files: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		names = append(names, entry.Name())
	}

	if len(names) == 0 {
		return "", fmt.Errorf("no system prompt files found in embedded set")
	}

	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		data, err := promptFiles.ReadFile(name)
		if err != nil {
			return "", fmt.Errorf("failed to read system prompt file %q: %w", name, err)
		}
		parts = append(parts, strings.TrimRight(string(data), "\n")+"\n")
	}
	return strings.Join(parts, "\n"), nil
}

// Build returns the embedded prompt followed by the generated tool section.
func Build(toolsSection string) (string, error) {
	prompt, err := Load()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(toolsSection) == "" {
		return prompt, nil
	}
	return prompt + "\n" + toolsSection, nil
}
