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

package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"jarvis/internal/agent"
	"jarvis/internal/config"
	"jarvis/internal/tools"
	systemprompt "jarvis/system_prompt"
)

// Session holds the conversation with the model and runs the tool calls
// found in its replies.
//
// Thread-safety: message operations are protected by an internal mutex.
// Turns are expected to run one at a time.
type Session struct {
	Client     ChatClient
	Config     *config.Config
	Messages   []openai.ChatCompletionMessage
	Registry   *tools.Registry
	Dispatcher *agent.Dispatcher
	History    HistoryStorage

	logger            zerolog.Logger
	mu                sync.Mutex
	lastSavedMsgCount int
}

// Turn is the outcome of one user message.
type Turn struct {
	ID           string
	Raw          string
	Instructions []agent.Instruction
	Batch        agent.Batch
	Reply        string
}

// NewClient builds an OpenAI-compatible client from the config.
func NewClient(cfg *config.Config) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIURL != "" {
		clientConfig.BaseURL = cfg.APIURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

// NewSession creates a session backed by the OpenAI API.
func NewSession(cfg *config.Config, registry *tools.Registry, logger zerolog.Logger) (*Session, error) {
	return NewSessionWithClient(cfg, NewClient(cfg), registry, logger)
}

// NewSessionWithClient creates a session with a provided client.
func NewSessionWithClient(cfg *config.Config, client ChatClient, registry *tools.Registry, logger zerolog.Logger) (*Session, error) {
	prompt, err := systemprompt.Build(registry.ToolsSection())
	if err != nil {
		return nil, fmt.Errorf("failed to load system prompt: %w", err)
	}
	return &Session{
		Client:     client,
		Config:     cfg,
		Messages:   []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: prompt}},
		Registry:   registry,
		Dispatcher: agent.NewDispatcher(registry, logger),
		History:    JSONLHistory{},
		logger:     logger,
	}, nil
}

// SystemPrompt returns the prompt the session was created with.
func (s *Session) SystemPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Messages[0].Content
}

// AddMessage adds a message to the conversation history
func (s *Session) AddMessage(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, openai.ChatCompletionMessage{
		Role:    role,
		Content: content,
	})
}

// MessagesSnapshot returns a copy of the current messages.
func (s *Session) MessagesSnapshot() []openai.ChatCompletionMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]openai.ChatCompletionMessage, len(s.Messages))
	copy(msgs, s.Messages)
	return msgs
}

// HandleUserText sends text to the model, executes the instructions in the
// reply and records the exchange. Without instructions the model's text is
// the reply. Only model failures are returned as errors; tool failures are
// part of the reply.
func (s *Session) HandleUserText(ctx context.Context, text string) (Turn, error) {
	turn := Turn{ID: uuid.NewString()}
	ctx = agent.WithTurnID(ctx, turn.ID)
	logger := s.logger.With().Str("turn", turn.ID).Logger()

	s.AddMessage(openai.ChatMessageRoleUser, text)
	raw, err := s.complete(ctx, s.MessagesSnapshot())
	if err != nil {
		s.dropLast()
		logger.Error().Err(err).Msg("model request failed")
		return turn, err
	}
	turn.Raw = raw

	turn.Instructions = agent.Extract(raw)
	logger.Debug().Int("instructions", len(turn.Instructions)).Msg("model reply parsed")
	if len(turn.Instructions) == 0 {
		turn.Reply = raw
	} else {
		turn.Batch = s.Dispatcher.Execute(ctx, turn.Instructions)
		turn.Reply = turn.Batch.Reply
	}

	s.AddMessage(openai.ChatMessageRoleAssistant, turn.Reply)
	return turn, nil
}

// Parse asks the model about a single transcript with only the system
// prompt as context. The session history is left untouched.
func (s *Session) Parse(ctx context.Context, transcript string) (string, error) {
	return s.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: s.SystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: transcript},
	})
}

func (s *Session) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    s.Config.Model,
		Messages: messages,
	}
	if s.Config.Temperature != nil {
		req.Temperature = *s.Config.Temperature
	}
	if s.Config.MaxTokens != nil {
		req.MaxTokens = *s.Config.MaxTokens
	}

	resp, err := s.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &APIError{Operation: "create_completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &APIError{Operation: "create_completion", Err: errors.New("response has no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *Session) dropLast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Messages) > 1 {
		s.Messages = s.Messages[:len(s.Messages)-1]
	}
}

// ClearHistory clears the conversation history
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	systemMsg := s.Messages[0]
	s.Messages = []openai.ChatCompletionMessage{systemMsg}
	s.lastSavedMsgCount = 0
}

// GetHistory returns the conversation history excluding system message
func (s *Session) GetHistory() []openai.ChatCompletionMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]openai.ChatCompletionMessage, len(s.Messages)-1)
	copy(history, s.Messages[1:])
	return history
}

// SaveConversationHistory appends the messages added since the last save
// or load.
func (s *Session) SaveConversationHistory(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.Messages[1:]
	if len(history) <= s.lastSavedMsgCount {
		return nil
	}
	if err := s.History.Append(path, history[s.lastSavedMsgCount:]); err != nil {
		return err
	}
	s.lastSavedMsgCount = len(history)
	return nil
}

// LoadConversationHistory appends at most maxMessages stored messages after
// the system prompt.
func (s *Session) LoadConversationHistory(path string, maxMessages int) error {
	messages, err := s.History.Load(path, maxMessages)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, messages...)
	s.lastSavedMsgCount = len(s.Messages) - 1
	return nil
}

// PrintHistory writes the conversation, one "Role: content" line per message.
func (s *Session) PrintHistory(w io.Writer) {
	fmt.Fprintln(w, "--- Conversation History ---")
	for _, msg := range s.MessagesSnapshot()[1:] {
		role := "Unknown"
		switch msg.Role {
		case openai.ChatMessageRoleUser:
			role = "User"
		case openai.ChatMessageRoleAssistant:
			role = "Assistant"
		case openai.ChatMessageRoleTool:
			role = "Tool"
		}
		fmt.Fprintf(w, "%s: %s\n", role, strings.TrimRight(msg.Content, "\n"))
	}
	fmt.Fprintln(w, "--- End History ---")
}
