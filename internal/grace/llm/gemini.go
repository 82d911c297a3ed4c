package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiConfig configures the Gemini adapter.
type GeminiConfig struct {
	// APIKey is the Gemini API key.
	APIKey string
	// Model is used when CompletionRequest.Model is empty.
	Model string
}

type geminiProvider struct {
	client *genai.Client
	model  string
}

// NewGemini returns a Provider backed by the Gemini API.
func NewGemini(ctx context.Context, cfg GeminiConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &geminiProvider{client: client, model: cfg.Model}, nil
}

// Complete sends the transcript as Gemini contents. Leading system turns
// become the system instruction, or the first user content when no user turn
// precedes the model's; later system turns (backend results) are sent as user
// content prefixed with "System:".
func (p *geminiProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	system, contents := geminiContents(req.Messages)
	gcfg := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		gcfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, gcfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}

	out := &CompletionResponse{
		Content:      resp.Text(),
		FinishReason: strings.ToLower(string(resp.Candidates[0].FinishReason)),
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

// geminiContents maps a transcript onto Gemini's two-role model, merging
// consecutive turns of the same role into one content. Gemini needs at least
// one content and expects the first to come from the user, so when the
// transcript has no leading user turn the instruction prompt is sent as that
// turn instead of as a system instruction.
func geminiContents(msgs []Message) (*genai.Content, []*genai.Content) {
	var systemParts []string
	i := 0
	for ; i < len(msgs) && msgs[i].Role == RoleSystem; i++ {
		systemParts = append(systemParts, msgs[i].Content)
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser)
	}

	var contents []*genai.Content
	for _, m := range msgs[i:] {
		role := genai.RoleUser
		text := m.Content
		switch m.Role {
		case RoleAssistant:
			role = genai.RoleModel
		case RoleSystem:
			text = "System: " + text
		}

		if n := len(contents); n > 0 && contents[n-1].Role == string(role) {
			contents[n-1].Parts = append(contents[n-1].Parts, &genai.Part{Text: text})
			continue
		}
		contents = append(contents, genai.NewContentFromText(text, role))
	}

	if system != nil && (len(contents) == 0 || contents[0].Role != string(genai.RoleUser)) {
		contents = append([]*genai.Content{system}, contents...)
		system = nil
	}
	return system, contents
}
