package knowledge

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// Embedder produces a vector embedding for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingScorer scores by cosine similarity of embeddings. Candidate
// embeddings are computed once and cached.
type EmbeddingScorer struct {
	embedder Embedder

	mu    sync.Mutex
	cache map[string][]float32
}

// NewEmbeddingScorer wraps e.
func NewEmbeddingScorer(e Embedder) *EmbeddingScorer {
	return &EmbeddingScorer{embedder: e, cache: make(map[string][]float32)}
}

// Score implements Scorer.
func (s *EmbeddingScorer) Score(ctx context.Context, question string, candidates []string) ([]float64, error) {
	q, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	out := make([]float64, len(candidates))
	for i, c := range candidates {
		v, err := s.candidate(ctx, c)
		if err != nil {
			return nil, err
		}
		// Negative similarity means unrelated; clamp into the [0, 1] range
		// the lookup threshold is defined over.
		out[i] = max(0, cosineSimilarity(q, v))
	}
	return out, nil
}

func (s *EmbeddingScorer) candidate(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	v, ok := s.cache[text]
	s.mu.Unlock()
	if ok {
		return v, nil
	}
	v, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed candidate: %w", err)
	}
	s.mu.Lock()
	s.cache[text] = v
	s.mu.Unlock()
	return v, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
