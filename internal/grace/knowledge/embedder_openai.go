package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/artmatsak/grace/common/redact"
	"github.com/artmatsak/grace/internal/grace/llm"
)

const (
	defaultEmbeddingBase  = "https://api.openai.com/v1"
	defaultEmbeddingModel = "text-embedding-3-small"
)

// OpenAIEmbedderConfig configures OpenAIEmbedder.
type OpenAIEmbedderConfig struct {
	APIKey string
	// BaseURL defaults to https://api.openai.com/v1.
	BaseURL string
	// Model defaults to text-embedding-3-small.
	Model string
	// Timeout defaults to 30s.
	Timeout time.Duration
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint. It is safe
// for concurrent use.
type OpenAIEmbedder struct {
	cfg    OpenAIEmbedderConfig
	client *http.Client
}

// NewOpenAIEmbedder applies defaults to cfg and returns an embedder.
func NewOpenAIEmbedder(cfg OpenAIEmbedderConfig) *OpenAIEmbedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEmbeddingBase
	}
	if cfg.Model == "" {
		cfg.Model = defaultEmbeddingModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAIEmbedder{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	data, err := json.Marshal(embeddingRequest{Input: text, Model: e.cfg.Model})
	if err != nil {
		return nil, fmt.Errorf("embedder: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("embedder: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedder: http request: %w", redact.Error(err, e.cfg.APIKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedder: read response: %w", err)
	}

	var out embeddingResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("embedder: %w: HTTP %d", llm.ErrUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("embedder: decode response: %w", err)
	}

	if out.Error != nil || resp.StatusCode >= 400 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if out.Error != nil {
			msg = fmt.Sprintf("%s: %s", out.Error.Type, redact.String(out.Error.Message, e.cfg.APIKey))
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, fmt.Errorf("embedder: %w: %s", llm.ErrRateLimit, msg)
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("embedder: %w: %s", llm.ErrUnavailable, msg)
		default:
			return nil, fmt.Errorf("embedder: API error %s", msg)
		}
	}

	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedder: no embedding data returned")
	}
	return out.Data[0].Embedding, nil
}

var _ Embedder = (*OpenAIEmbedder)(nil)
