// Package app wires grace's subsystems: completion provider, command
// router, knowledge base, booking store and the rendered system prompt. It
// hands out one CommandSession per conversation.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/artmatsak/grace/common/retry"
	"github.com/artmatsak/grace/common/spec/domain"
	"github.com/artmatsak/grace/internal/grace/backend"
	"github.com/artmatsak/grace/internal/grace/chat"
	"github.com/artmatsak/grace/internal/grace/commands"
	"github.com/artmatsak/grace/internal/grace/config"
	"github.com/artmatsak/grace/internal/grace/knowledge"
	"github.com/artmatsak/grace/internal/grace/llm"
	"github.com/artmatsak/grace/internal/grace/prompt"
)

// App holds the shared, read-only collaborators of every session.
type App struct {
	cfg      *config.Config
	domain   *domain.Domain
	provider llm.Provider
	store    backend.Store
	router   *commands.Router
	prompt   string
	opts     []chat.Option
	closers  []func() error
}

// Option overrides a collaborator New would otherwise build from config.
type Option func(*App)

// WithProvider replaces the configured completion provider.
func WithProvider(p llm.Provider) Option {
	return func(a *App) { a.provider = p }
}

// WithStore replaces the configured booking store.
func WithStore(s backend.Store) Option {
	return func(a *App) { a.store = s }
}

// New builds an App from cfg and d.
func New(ctx context.Context, cfg *config.Config, d *domain.Domain, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := domain.Validate(d); err != nil {
		return nil, fmt.Errorf("domain: %w", err)
	}
	a := &App{cfg: cfg, domain: d}
	for _, opt := range opts {
		opt(a)
	}

	if a.provider == nil {
		p, err := NewProvider(ctx, cfg.LLM)
		if err != nil {
			return nil, err
		}
		a.provider = p
	}

	if a.store == nil {
		s, closer, err := openStore(cfg.Storage)
		if err != nil {
			return nil, err
		}
		a.store = s
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
	}

	base, err := knowledge.NewBase(d.Answers, newScorer(cfg))
	if err != nil {
		return nil, err
	}

	a.router = commands.NewRouter()
	if err := backend.Register(a.router, a.store, cfg.Session.EndToken); err != nil {
		return nil, fmt.Errorf("register backend commands: %w", err)
	}
	if err := knowledge.RegisterLookUp(a.router, base); err != nil {
		return nil, fmt.Errorf("register look_up: %w", err)
	}

	tmpl := prompt.Default()
	if cfg.Prompt != "" {
		tmpl, err = prompt.Load(os.DirFS(filepath.Dir(cfg.Prompt)), filepath.Base(cfg.Prompt))
		if err != nil {
			return nil, err
		}
	}
	a.prompt, err = tmpl.Render(d, a.router.Commands(), cfg.Session.EndToken)
	if err != nil {
		return nil, err
	}

	a.opts = sessionOptions(cfg)
	slog.Info("grace ready",
		"business", d.BusinessName,
		"provider", cfg.LLM.Provider,
		"commands", len(a.router.Commands()),
		"answers", base.Len(),
	)
	return a, nil
}

// NewProvider builds the completion provider named by cfg.Provider, wrapped
// with retries when cfg.MaxAttempts > 1.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (llm.Provider, error) {
	var p llm.Provider
	switch cfg.Provider {
	case "", "openai":
		p = llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	case "gemini":
		var err error
		p, err = llm.NewGemini(ctx, llm.GeminiConfig{APIKey: cfg.APIKey, Model: cfg.Model})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if cfg.MaxAttempts > 1 {
		rc := retry.DefaultConfig
		rc.MaxAttempts = cfg.MaxAttempts
		p = llm.WithRetry(p, rc)
	}
	return p, nil
}

func openStore(cfg config.StorageConfig) (backend.Store, func() error, error) {
	switch cfg.Driver {
	case "", "memory":
		return backend.NewMemoryStore(), nil, nil
	case "sqlite":
		s, err := backend.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open booking store: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func newScorer(cfg *config.Config) knowledge.Scorer {
	if cfg.Knowledge.Scorer != "embedding" {
		return knowledge.LexicalScorer{}
	}
	return knowledge.NewEmbeddingScorer(knowledge.NewOpenAIEmbedder(knowledge.OpenAIEmbedderConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.Knowledge.EmbeddingModel,
	}))
}

func sessionOptions(cfg *config.Config) []chat.Option {
	mode := chat.TerminationSubstring
	if cfg.Session.Termination == "suffix" {
		mode = chat.TerminationSuffix
	}
	return []chat.Option{
		chat.WithModel(cfg.LLM.Model),
		chat.WithMaxTokens(cfg.Session.MaxTokens),
		chat.WithTemperature(cfg.Session.Temperature),
		chat.WithEndToken(cfg.Session.EndToken),
		chat.WithTerminationMode(mode),
		chat.WithMaxChain(cfg.Session.MaxChain),
	}
}

// NewSession returns an inactive session that reports replies to output.
func (a *App) NewSession(output chat.OutputFunc) *chat.CommandSession {
	return chat.NewCommandSession(a.provider, a.router, a.prompt, output, a.opts...)
}

// NewPlainSession returns a session without command dispatch, driven by a
// caller-supplied prompt. The simulator uses it for the customer side.
func (a *App) NewPlainSession(prompt string, output chat.OutputFunc) *chat.Session {
	return chat.New(a.provider, prompt, output, a.opts...)
}

// Prompt returns the rendered system prompt.
func (a *App) Prompt() string { return a.prompt }

// Router returns the command router.
func (a *App) Router() *commands.Router { return a.router }

// Store returns the booking store.
func (a *App) Store() backend.Store { return a.store }

// Provider returns the completion provider.
func (a *App) Provider() llm.Provider { return a.provider }

// Domain returns the business domain.
func (a *App) Domain() *domain.Domain { return a.domain }

// Close releases resources opened by New.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
