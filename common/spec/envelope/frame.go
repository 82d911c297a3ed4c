// Package envelope defines the JSON frames exchanged over the webchat
// websocket. Clients send user frames; the server answers with assistant
// frames, a single end frame when the session terminates, and error frames
// for requests it could not process.
package envelope

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FrameType classifies a frame.
type FrameType string

const (
	// FrameUser carries one or more end-user utterances (client → server).
	FrameUser FrameType = "user"
	// FrameAssistant carries one display utterance (server → client).
	FrameAssistant FrameType = "assistant"
	// FrameEnd signals that the assistant ended the conversation.
	FrameEnd FrameType = "end"
	// FrameError reports a problem with the previous client frame.
	FrameError FrameType = "error"
)

// Frame is the websocket message envelope.
type Frame struct {
	Type FrameType `json:"type"`

	// Text is the utterance for user and assistant frames, or the error
	// description for error frames.
	Text string `json:"text,omitempty"`

	// Texts lets a client deliver several user utterances in one batch.
	Texts []string `json:"texts,omitempty"`

	// TS is stamped by the sender.
	TS time.Time `json:"ts"`
}

// Utterances returns the user utterances carried by a user frame, Text first.
func (f *Frame) Utterances() []string {
	out := make([]string, 0, len(f.Texts)+1)
	if strings.TrimSpace(f.Text) != "" {
		out = append(out, f.Text)
	}
	for _, t := range f.Texts {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}

// Validate checks that a client frame can be handed to a session.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("frame must not be nil")
	}
	if f.Type != FrameUser {
		return fmt.Errorf("unsupported frame type %q", f.Type)
	}
	if len(f.Utterances()) == 0 {
		return fmt.Errorf("user frame carries no text")
	}
	return nil
}

// ParseFrame decodes a JSON-encoded client frame and validates it.
func ParseFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("envelope parse: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("envelope validate: %w", err)
	}
	return &f, nil
}

// Assistant builds a server frame carrying one display utterance.
func Assistant(text string) Frame {
	return Frame{Type: FrameAssistant, Text: text, TS: time.Now().UTC()}
}

// End builds the terminal server frame.
func End() Frame {
	return Frame{Type: FrameEnd, TS: time.Now().UTC()}
}

// Error builds an error frame.
func Error(msg string) Frame {
	return Frame{Type: FrameError, Text: msg, TS: time.Now().UTC()}
}
