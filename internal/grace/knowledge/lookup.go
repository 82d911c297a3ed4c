package knowledge

import (
	"context"

	"github.com/artmatsak/grace/internal/grace/commands"
	"github.com/artmatsak/grace/internal/grace/observability"
)

const (
	// Threshold is the score a lookup must exceed for its answer to reach
	// the model.
	Threshold = 0.4

	// CannotAnswer replaces answers scoring at or below Threshold.
	CannotAnswer = "Cannot answer the question"

	// LookUpCommand is the name of the registered lookup command.
	LookUpCommand = "look_up"
)

// RegisterLookUp adds the look_up command to r, answering from src.
func RegisterLookUp(r *commands.Router, src Source) error {
	return r.Add(LookUpCommand, "look up a question", []string{"question"},
		func(ctx context.Context, params map[string]string) (any, error) {
			answer, score, err := src.Lookup(ctx, params["question"])
			if err != nil {
				return nil, err
			}
			observability.WithTrace(ctx).Debug("knowledge base lookup", "score", score)
			if score <= Threshold {
				return CannotAnswer, nil
			}
			return answer, nil
		},
		map[string]string{"question": "What are your opening hours?"},
		"")
}
