// Package simulate plays a scripted customer, itself a language model,
// against a grace session. It exercises whole conversations end to end
// without a human.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/artmatsak/grace/common/spec/domain"
	"github.com/artmatsak/grace/internal/grace/chat"
)

// DefaultMaxTurns caps the exchanges in one simulated conversation.
const DefaultMaxTurns = 20

// ErrTurnLimit is returned when the assistant has not ended the
// conversation after the turn cap.
var ErrTurnLimit = errors.New("simulate: turn limit reached")

// ErrCustomerLeft is returned when the customer session ends first.
var ErrCustomerLeft = errors.New("simulate: customer ended the conversation")

// Conversation is the session surface the simulator drives.
type Conversation interface {
	Start(ctx context.Context) error
	SendResponses(ctx context.Context, utterances []string) error
	IsEnded() bool
}

// AssistantFactory creates the assistant under test.
type AssistantFactory func(output chat.OutputFunc) Conversation

// CustomerFactory creates the simulated customer from its prompt.
type CustomerFactory func(prompt string, output chat.OutputFunc) Conversation

// Speaker identifies who said a Line.
type Speaker string

const (
	SpeakerAI       Speaker = "AI"
	SpeakerCustomer Speaker = "Customer"
)

// Line is one utterance in the simulated dialogue.
type Line struct {
	Speaker Speaker
	Text    string
}

// Result is the dialogue of one simulated conversation.
type Result struct {
	Lines []Line
	Turns int
}

// String renders the dialogue one "Speaker: text" line at a time.
func (r *Result) String() string {
	var b strings.Builder
	for _, l := range r.Lines {
		fmt.Fprintf(&b, "%s: %s\n", l.Speaker, l.Text)
	}
	return b.String()
}

// CustomerPrompt renders the customer's instructions for a task.
func CustomerPrompt(d *domain.Domain, task string) string {
	return fmt.Sprintf("You are a customer of %s, %s. You are chatting to the restaurant's AI assistant. %s\n\n"+
		"A transcript of your chat session with the AI assistant follows.\n",
		d.BusinessName, d.BusinessDescription, task)
}

// Run starts the assistant, seeds the customer prompt with the assistant's
// greeting, and alternates turns until the assistant ends the session.
func Run(ctx context.Context, assistant AssistantFactory, customer CustomerFactory, customerPrompt string, maxTurns int) (*Result, error) {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	res := &Result{}
	var fromAI, fromCustomer []string

	ai := assistant(func(text string) {
		fromAI = append(fromAI, text)
		res.Lines = append(res.Lines, Line{SpeakerAI, text})
	})
	if err := ai.Start(ctx); err != nil {
		return res, fmt.Errorf("start assistant: %w", err)
	}

	var seeded strings.Builder
	seeded.WriteString(customerPrompt)
	for _, u := range fromAI {
		seeded.WriteString("\nAI: ")
		seeded.WriteString(u)
	}
	fromAI = nil

	cust := customer(seeded.String(), func(text string) {
		fromCustomer = append(fromCustomer, text)
		res.Lines = append(res.Lines, Line{SpeakerCustomer, text})
	})
	if err := cust.Start(ctx); err != nil {
		return res, fmt.Errorf("start customer: %w", err)
	}

	for !ai.IsEnded() {
		if res.Turns >= maxTurns {
			return res, ErrTurnLimit
		}
		if cust.IsEnded() {
			return res, ErrCustomerLeft
		}
		res.Turns++

		if err := ai.SendResponses(ctx, fromCustomer); err != nil {
			return res, fmt.Errorf("assistant turn %d: %w", res.Turns, err)
		}
		fromCustomer = nil

		if ai.IsEnded() {
			break
		}
		if err := cust.SendResponses(ctx, fromAI); err != nil {
			return res, fmt.Errorf("customer turn %d: %w", res.Turns, err)
		}
		fromAI = nil
	}
	return res, nil
}
