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

// Package launcher starts and stops desktop applications on behalf of
// the agent and hands URLs and files to external programs.
package launcher

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	apperrors "jarvis/internal/errors"
)

//go:embed apps.yaml
var appsYAML []byte

type appTable struct {
	Synonyms map[string]string `yaml:"synonyms"`
	Commands map[string]string `yaml:"commands"`
}

var (
	tableOnce    sync.Once
	builtinTable appTable
	tableErr     error
)

func defaultTable() (appTable, error) {
	tableOnce.Do(func() {
		var t appTable
		if err := yaml.Unmarshal(appsYAML, &t); err != nil {
			tableErr = fmt.Errorf("parse apps.yaml: %w", err)
			return
		}
		builtinTable = t
	})
	return builtinTable, tableErr
}

// Launcher tracks the applications it started so they can be closed
// again by key.
type Launcher struct {
	synonyms map[string]string
	commands map[string]string
	logger   zerolog.Logger

	lookPath   func(string) (string, error)
	runCommand func(name string, args ...string) error

	mu      sync.Mutex
	running map[string]*os.Process
}

// New builds a launcher from the embedded tables. overrides maps launcher
// keys to commands and wins over the built-in entries.
func New(overrides map[string]string, logger zerolog.Logger) (*Launcher, error) {
	table, err := defaultTable()
	if err != nil {
		return nil, err
	}
	l := &Launcher{
		synonyms:   make(map[string]string, len(table.Synonyms)),
		commands:   make(map[string]string, len(table.Commands)+len(overrides)),
		logger:     logger,
		lookPath:   exec.LookPath,
		runCommand: runExternal,
		running:    make(map[string]*os.Process),
	}
	for phrase, key := range table.Synonyms {
		l.synonyms[norm.NFC.String(strings.ToLower(phrase))] = key
	}
	for key, command := range table.Commands {
		l.commands[key] = command
	}
	for key, command := range overrides {
		key = strings.ToLower(strings.TrimSpace(key))
		if key != "" && strings.TrimSpace(command) != "" {
			l.commands[key] = command
		}
	}
	return l, nil
}

// NormalizeKey maps a free-form application name to a launcher key.
// Unknown names come back cleaned but otherwise unchanged.
func (l *Launcher) NormalizeKey(name string) string {
	base := strings.ToLower(norm.NFC.String(strings.TrimSpace(name)))
	base = strings.TrimSpace(strings.NewReplacer(".", "", ",", "", "!", "", "?", "", ":", "").Replace(base))
	if key, ok := l.synonyms[base]; ok {
		return key
	}
	for _, suffix := range []string{" browser", " браузер"} {
		base = strings.TrimSpace(strings.TrimSuffix(base, suffix))
	}
	if key, ok := l.synonyms[base]; ok {
		return key
	}
	return base
}

// Command returns the command line configured for key.
func (l *Launcher) Command(key string) (string, bool) {
	command, ok := l.commands[key]
	return command, ok
}

// Launch starts the application registered under key. Only keys from the
// built-in table or the app_commands config can be started.
func (l *Launcher) Launch(key string) (string, error) {
	if key == "" {
		return "", apperrors.New(apperrors.CodeMalformed, "application name is empty")
	}
	argv, err := l.argv(key)
	if err != nil {
		return "", err
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return "", apperrors.Wrap(apperrors.CodeIO, fmt.Sprintf("Failed to launch %s", key), err)
	}

	l.mu.Lock()
	l.running[key] = cmd.Process
	l.mu.Unlock()
	l.logger.Info().Str("app", key).Int("pid", cmd.Process.Pid).Msg("launched application")

	go l.reap(key, cmd)
	return fmt.Sprintf("Launched app: %s", key), nil
}

func (l *Launcher) reap(key string, cmd *exec.Cmd) {
	_ = cmd.Wait()
	l.mu.Lock()
	if p, ok := l.running[key]; ok && p == cmd.Process {
		delete(l.running, key)
	}
	l.mu.Unlock()
	l.logger.Debug().Str("app", key).Int("pid", cmd.Process.Pid).Msg("application exited")
}

func (l *Launcher) argv(key string) ([]string, error) {
	command, ok := l.commands[key]
	if !ok {
		return nil, unknownApp(key)
	}
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, apperrors.Newf(apperrors.CodeMalformed, "no command configured for %s", key)
	}
	path, err := l.lookPath(argv[0])
	if err != nil {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "Application not found: %s (command %q is not installed)", key, argv[0])
	}
	argv[0] = path
	return argv, nil
}

// Close terminates an application. Processes this launcher started are
// signalled directly; anything else is matched by the exact process name of
// the configured command.
func (l *Launcher) Close(key string) (string, error) {
	if key == "" {
		return "", apperrors.New(apperrors.CodeMalformed, "application name is empty")
	}

	l.mu.Lock()
	proc, ok := l.running[key]
	l.mu.Unlock()
	if ok {
		if err := terminate(proc); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return "", apperrors.Wrap(apperrors.CodeIO, fmt.Sprintf("Failed to close %s", key), err)
		}
		l.logger.Info().Str("app", key).Int("pid", proc.Pid).Msg("terminated application")
		return fmt.Sprintf("Requested to close app: %s", key), nil
	}

	command, ok := l.commands[key]
	if !ok {
		return "", unknownApp(key)
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", apperrors.Newf(apperrors.CodeMalformed, "no command configured for %s", key)
	}
	if err := l.killByName(fields[0]); err != nil {
		return "", err
	}
	l.logger.Info().Str("app", key).Msg("terminated application by name")
	return fmt.Sprintf("Requested to close app: %s", key), nil
}

func runExternal(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func unknownApp(key string) *apperrors.Error {
	return apperrors.Newf(apperrors.CodeNotFound, "Unknown application: %s", key)
}

// processPattern turns a command's executable into an exact pkill pattern.
// Linux keeps only the first 15 bytes of a process name.
func processPattern(executable string) string {
	name := filepath.Base(executable)
	if runtime.GOOS == "linux" && len(name) > 15 {
		name = name[:15]
	}
	return regexp.QuoteMeta(name)
}

func (l *Launcher) killByName(executable string) error {
	pkill, err := l.lookPath("pkill")
	if err != nil {
		return apperrors.New(apperrors.CodeIO, "Cannot close applications: pkill is not available")
	}
	name := filepath.Base(executable)
	err = l.runCommand(pkill, "-x", processPattern(executable))
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &exitErr) && exitErr.ExitCode() == 1:
		return apperrors.Newf(apperrors.CodeNotFound, "Application is not running: %s", name)
	default:
		return apperrors.Wrap(apperrors.CodeIO, fmt.Sprintf("Failed to close %s", name), err)
	}
}

// OpenURL hands a URL to the desktop's default handler.
func (l *Launcher) OpenURL(rawURL string) (string, error) {
	if err := l.open(rawURL); err != nil {
		return "", err
	}
	return fmt.Sprintf("Opened %s in the default browser", rawURL), nil
}

// OpenEditor opens a file or folder with the VS Code command line tool.
func (l *Launcher) OpenEditor(path string) (string, error) {
	code, err := l.lookPath("code")
	if err != nil {
		return "", apperrors.New(apperrors.CodeNotFound, "VS Code command 'code' not found in PATH")
	}
	cmd := exec.Command(code, path)
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return "", apperrors.Wrap(apperrors.CodeIO, "Failed to start VS Code", err)
	}
	go func() { _ = cmd.Wait() }()
	return fmt.Sprintf("Opened in VS Code: %s", path), nil
}

func (l *Launcher) open(target string) error {
	var opener string
	switch runtime.GOOS {
	case "darwin":
		opener = "open"
	case "windows":
		opener = "explorer"
	default:
		opener = "xdg-open"
	}
	path, err := l.lookPath(opener)
	if err != nil {
		return apperrors.Newf(apperrors.CodeNotFound, "Cannot open %s: %s not found in PATH", target, opener)
	}
	cmd := exec.Command(path, target)
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return apperrors.Wrap(apperrors.CodeIO, fmt.Sprintf("Failed to open %s", target), err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
