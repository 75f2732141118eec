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

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"jarvis/internal/app"
	"jarvis/internal/chat"
	"jarvis/internal/config"
)

// scriptedClient answers with canned replies keyed by the last user
// message; unknown prompts fail like an unreachable API.
type scriptedClient struct {
	mu      sync.Mutex
	replies map[string]string
	calls   int
}

func (c *scriptedClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	last := req.Messages[len(req.Messages)-1].Content
	reply, ok := c.replies[last]
	if !ok {
		return openai.ChatCompletionResponse{}, errors.New("connection refused")
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply}}},
	}, nil
}

type testEnv struct {
	rt      *app.Runtime
	project string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("resolve temp dir: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.ProjectRoot = filepath.Join(base, "project")
	cfg.DocumentsRoot = filepath.Join(base, "Documents")
	cfg.HistoryFile = ""
	for _, dir := range []string{cfg.ProjectRoot, cfg.DocumentsRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	rt, err := app.Build(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return testEnv{rt: rt, project: cfg.ProjectRoot}
}

func (e testEnv) session(t *testing.T, client chat.ChatClient) *chat.Session {
	t.Helper()
	session, err := chat.NewSessionWithClient(e.rt.Config, client, e.rt.Registry, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSessionWithClient: %v", err)
	}
	return session
}
