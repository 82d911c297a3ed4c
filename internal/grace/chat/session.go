// Package chat drives a turn-taking conversation between an end user and a
// completion service.
//
// A Session owns the transcript. It is Inactive while the transcript is empty
// and Active otherwise; Start moves it to Active and the model's end token
// moves it back. CommandSession layers the embedded-command protocol on top:
// replies may carry one [json]...[/json] block that is dispatched to a
// backend, with the result fed back to the model as a system turn.
//
// Sessions are not safe for concurrent use. Callers serialize Start and
// SendResponses.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/artmatsak/grace/internal/grace/llm"
	"github.com/artmatsak/grace/internal/grace/observability"
)

// replyCutset is stripped from both ends of every model reply.
const replyCutset = " \t\n\r\v\f\""

// OutputFunc receives display text. It is never called with blank text.
type OutputFunc func(text string)

// Session is the base conversation state machine.
type Session struct {
	id       string
	provider llm.Provider
	prompt   string
	output   OutputFunc
	cfg      settings
	messages []llm.Message

	// cycle performs one reply cycle; CommandSession replaces it.
	cycle func(ctx context.Context) error
}

// New creates an inactive Session. prompt becomes the first system turn on
// Start; output receives every non-empty display reply.
func New(provider llm.Provider, prompt string, output OutputFunc, opts ...Option) *Session {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	if output == nil {
		output = func(string) {}
	}
	s := &Session{
		id:       uuid.Must(uuid.NewV7()).String(),
		provider: provider,
		prompt:   prompt,
		output:   output,
		cfg:      cfg,
	}
	s.cycle = s.replyCycle
	return s
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Start initialises the transcript with the instruction prompt and lets the
// model produce its opening utterance.
func (s *Session) Start(ctx context.Context) error {
	if !s.IsEnded() {
		return ErrSessionActive
	}
	s.messages = []llm.Message{llm.NewMessage(llm.RoleSystem, s.prompt)}
	s.log(ctx).Debug("session started", "prompt_length", len(s.prompt))
	return s.cycle(ctx)
}

// SendResponses appends one user turn per utterance, trimmed, and runs a
// reply cycle. It fails with ErrSessionInactive when the session is not
// running.
func (s *Session) SendResponses(ctx context.Context, utterances []string) error {
	if s.IsEnded() {
		return ErrSessionInactive
	}
	for _, u := range utterances {
		s.append(ctx, llm.RoleUser, strings.TrimSpace(u))
	}
	return s.cycle(ctx)
}

// IsEnded reports whether the transcript is empty.
func (s *Session) IsEnded() bool {
	return len(s.messages) == 0
}

// Transcript returns a copy of the current transcript.
func (s *Session) Transcript() []llm.Message {
	return slices.Clone(s.messages)
}

func (s *Session) replyCycle(ctx context.Context) error {
	raw, visible, err := s.nextReply(ctx)
	if err != nil {
		return err
	}
	s.emit(visible)
	if !s.IsEnded() {
		s.append(ctx, llm.RoleAssistant, raw)
	}
	return nil
}

// nextReply asks the model for a reply over the current transcript. raw is
// the stripped reply; visible is raw truncated at the end token. Finding the
// token clears the transcript.
func (s *Session) nextReply(ctx context.Context) (raw, visible string, err error) {
	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:       s.cfg.model,
		Messages:    s.Transcript(),
		MaxTokens:   s.cfg.maxTokens,
		Temperature: s.cfg.temperature,
	})
	if err != nil {
		return "", "", fmt.Errorf("completion: %w", err)
	}

	raw = strings.Trim(resp.Content, replyCutset)
	s.log(ctx).Debug("model reply", "reply", raw, "finish_reason", resp.FinishReason)

	p := s.endTokenIndex(raw)
	if p < 0 {
		return raw, raw, nil
	}
	s.messages = nil
	s.log(ctx).Info("session ended by model")
	return raw, strings.TrimSpace(raw[:p]), nil
}

func (s *Session) endTokenIndex(reply string) int {
	token := s.cfg.endToken
	switch s.cfg.mode {
	case TerminationSuffix:
		if !strings.HasSuffix(reply, token) {
			return -1
		}
		p := len(reply) - len(token)
		if p > 0 {
			r, _ := utf8.DecodeLastRuneInString(reply[:p])
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return -1
			}
		}
		return p
	default:
		return strings.Index(reply, token)
	}
}

func (s *Session) emit(text string) {
	if text = strings.TrimSpace(text); text != "" {
		s.output(text)
	}
}

func (s *Session) append(ctx context.Context, role llm.Role, content string) {
	s.log(ctx).Debug("adding turn", "role", role, "content", content)
	s.messages = append(s.messages, llm.NewMessage(role, content))
}

// end clears the transcript outside of end-token detection.
func (s *Session) end() {
	s.messages = nil
}

func (s *Session) log(ctx context.Context) *slog.Logger {
	return observability.WithTrace(ctx).With("session_id", s.id)
}
