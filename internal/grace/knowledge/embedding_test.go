package knowledge_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artmatsak/grace/internal/grace/knowledge"
	"github.com/artmatsak/grace/internal/grace/llm"
)

// tableEmbedder returns fixed vectors and counts calls per text.
type tableEmbedder struct {
	vectors map[string][]float32
	calls   map[string]int
}

func (e *tableEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls[text]++
	v, ok := e.vectors[text]
	if !ok {
		return nil, errors.New("no vector for " + text)
	}
	return v, nil
}

func TestEmbeddingScorer(t *testing.T) {
	e := &tableEmbedder{
		vectors: map[string][]float32{
			"parking?": {1, 0},
			"Parking":  {1, 0},
			"Hours":    {0, 1},
			"Opposite": {-1, 0},
			"Diagonal": {1, 1},
		},
		calls: map[string]int{},
	}
	s := knowledge.NewEmbeddingScorer(e)
	ctx := context.Background()

	scores, err := s.Score(ctx, "parking?", []string{"Parking", "Hours", "Opposite", "Diagonal"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, scores[0], 1e-6)
	assert.InDelta(t, 0.0, scores[1], 1e-6)
	assert.Zero(t, scores[2])
	assert.InDelta(t, 0.7071, scores[3], 1e-3)

	_, err = s.Score(ctx, "parking?", []string{"Parking"})
	require.NoError(t, err)
	assert.Equal(t, 1, e.calls["Parking"], "candidate embeddings are cached")
	assert.Equal(t, 2, e.calls["parking?"])

	_, err = s.Score(ctx, "unknown", []string{"Parking"})
	assert.Error(t, err)
}

func TestOpenAIEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test-key", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text-embedding-3-small", body["model"])
		assert.Equal(t, "hello", body["input"])
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5,0.25],"index":0}]}`))
	}))
	defer srv.Close()

	e := knowledge.NewOpenAIEmbedder(knowledge.OpenAIEmbedderConfig{APIKey: "sk-test-key", BaseURL: srv.URL})
	v, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, v)
}

func TestOpenAIEmbedder_RateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	e := knowledge.NewOpenAIEmbedder(knowledge.OpenAIEmbedderConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := e.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, llm.ErrRateLimit)
}

func TestOpenAIEmbedder_TimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	e := knowledge.NewOpenAIEmbedder(knowledge.OpenAIEmbedderConfig{
		APIKey:  "sk-test-key",
		BaseURL: srv.URL,
		Timeout: 20 * time.Millisecond,
	})
	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, llm.IsTransient(err), "got %v", err)
	assert.NotContains(t, err.Error(), "sk-test-key")
}
