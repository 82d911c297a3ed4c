// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/artmatsak/grace/internal/grace/llm"
)

// Script replays canned replies in order and records every request.
// Once the replies are exhausted further calls fail.
type Script struct {
	mu       sync.Mutex
	replies  []string
	errs     map[int]error
	requests []llm.CompletionRequest
}

// NewScript returns a Script that answers with replies in order.
func NewScript(replies ...string) *Script {
	return &Script{replies: replies, errs: make(map[int]error)}
}

// FailAt makes call number n (zero-based) return err instead of a reply.
// The scripted reply at that position is not consumed.
func (s *Script) FailAt(n int, err error) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[n] = err
	return s
}

// Complete implements llm.Provider.
func (s *Script) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := len(s.requests)
	req.Messages = slices.Clone(req.Messages)
	s.requests = append(s.requests, req)

	if err, ok := s.errs[call]; ok {
		return nil, err
	}

	consumed := 0
	for n := range s.errs {
		if n < call {
			consumed++
		}
	}
	idx := call - consumed
	if idx >= len(s.replies) {
		return nil, fmt.Errorf("llmtest: script exhausted after %d replies", len(s.replies))
	}
	return &llm.CompletionResponse{Content: s.replies[idx], FinishReason: "stop"}, nil
}

// Requests returns a copy of every request received so far.
func (s *Script) Requests() []llm.CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Calls returns the number of Complete calls received.
func (s *Script) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
