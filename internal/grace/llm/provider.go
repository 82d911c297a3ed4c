// Package llm defines the completion-service boundary used by grace
// sessions, plus adapters for OpenAI-compatible and Gemini endpoints.
//
// A session sends its whole transcript on every call and receives one reply
// string. Adapters never retry on their own; wrap a Provider with WithRetry
// when transient upstream failures should be absorbed below the session.
package llm

import (
	"context"
	"errors"
)

// Role is the role of a transcript turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage builds a Message.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// CompletionRequest is the input to a single completion call.
type CompletionRequest struct {
	// Model overrides the adapter's default model when non-empty.
	Model string
	// Messages is the ordered transcript.
	Messages []Message
	// MaxTokens caps the reply length. 0 = provider default.
	MaxTokens int
	// Temperature is the sampling temperature, sent as-is.
	Temperature float64
}

// CompletionResponse is the output of a completion call.
type CompletionResponse struct {
	// Content is the reply text of the first choice.
	Content string
	// FinishReason explains why the model stopped ("stop", "length", ...).
	FinishReason string
	// Usage holds token counts when the provider reports them.
	Usage TokenUsage
}

// TokenUsage reports token consumption.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Provider is implemented by every completion backend.
type Provider interface {
	// Complete sends the transcript and returns the model's next reply.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

// Complete calls f.
func (f ProviderFunc) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return f(ctx, req)
}

var (
	// ErrRateLimit is returned when the upstream API answers HTTP 429.
	ErrRateLimit = errors.New("llm: upstream rate limit exceeded")

	// ErrUnavailable is returned for HTTP 5xx answers.
	ErrUnavailable = errors.New("llm: upstream unavailable")

	// ErrEmptyResponse is returned when the upstream answer has no choices.
	ErrEmptyResponse = errors.New("llm: no choices in response")
)
