// Package knowledge answers free-text questions from a fixed set of canned
// question/answer pairs.
package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/artmatsak/grace/common/spec/domain"
)

// Source looks up the best canned answer for a question. score is in [0, 1];
// higher means a closer match.
type Source interface {
	Lookup(ctx context.Context, question string) (answer string, score float64, err error)
}

// Scorer rates how well question matches each candidate. The returned slice
// is parallel to candidates.
type Scorer interface {
	Score(ctx context.Context, question string, candidates []string) ([]float64, error)
}

// Base is a Source over a list of domain answers.
type Base struct {
	answers   []domain.Answer
	questions []string
	scorer    Scorer
}

// NewBase builds a Base. A nil scorer selects LexicalScorer.
func NewBase(answers []domain.Answer, scorer Scorer) (*Base, error) {
	if scorer == nil {
		scorer = LexicalScorer{}
	}
	questions := make([]string, 0, len(answers))
	for i, a := range answers {
		if a.Question == "" {
			return nil, fmt.Errorf("knowledge: answer %d has an empty question", i)
		}
		questions = append(questions, a.Question)
	}
	return &Base{answers: answers, questions: questions, scorer: scorer}, nil
}

// Len returns the number of canned answers.
func (b *Base) Len() int { return len(b.answers) }

// Lookup returns the answer whose question scores highest. An empty base
// returns a zero score.
func (b *Base) Lookup(ctx context.Context, question string) (string, float64, error) {
	if len(b.answers) == 0 {
		return "", 0, nil
	}
	scores, err := b.scorer.Score(ctx, question, b.questions)
	if err != nil {
		return "", 0, fmt.Errorf("knowledge: score: %w", err)
	}
	if len(scores) != len(b.questions) {
		return "", 0, errors.New("knowledge: scorer returned wrong number of scores")
	}

	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return b.answers[best].Answer, scores[best], nil
}

var _ Source = (*Base)(nil)
