package fantasy

import (
	"context"
	"fmt"
	"sort"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/openai"
	"charm.land/fantasy/providers/openrouter"

	"docqa/internal/domain"
)

// Config selects a hosted model. BaseURL is ignored by openrouter.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

type providerFactory func(cfg Config) (fantasy.Provider, error)

var providers = map[string]providerFactory{
	"openai": func(cfg Config) (fantasy.Provider, error) {
		opts := []openai.Option{openai.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(opts...)
	},
	"anthropic": func(cfg Config) (fantasy.Provider, error) {
		opts := []anthropic.Option{anthropic.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		return anthropic.New(opts...)
	},
	"openrouter": func(cfg Config) (fantasy.Provider, error) {
		return openrouter.New(openrouter.WithAPIKey(cfg.APIKey))
	},
}

// Providers returns the supported provider names in sorted order.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ domain.Answerer = (*Answerer)(nil)

// Answerer hands out sessions bound to one resolved language model.
type Answerer struct {
	model    fantasy.LanguageModel
	provider string
}

// NewAnswerer resolves cfg.Model on the named provider. Unknown providers
// and a missing model are configuration errors.
func NewAnswerer(ctx context.Context, cfg Config) (*Answerer, error) {
	newProvider, ok := providers[cfg.Provider]
	if !ok {
		return nil, domain.Configf("unsupported generator provider %q", cfg.Provider)
	}
	if cfg.Model == "" {
		return nil, domain.Configf("%s generator needs a model", cfg.Provider)
	}

	p, err := newProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s provider: %w", cfg.Provider, err)
	}
	model, err := p.LanguageModel(ctx, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("resolve model %s: %w", cfg.Model, err)
	}
	return &Answerer{model: model, provider: cfg.Provider}, nil
}

func (a *Answerer) Name() string { return a.provider }

// StartSession binds a new agent to the model. Agents keep no state
// between sessions.
func (a *Answerer) StartSession(context.Context) (domain.Session, error) {
	return &session{agent: fantasy.NewAgent(a.model)}, nil
}

type session struct {
	agent fantasy.Agent
}

func (s *session) Send(ctx context.Context, prompt string) (string, error) {
	result, err := s.agent.Generate(ctx, fantasy.AgentCall{Prompt: prompt})
	if err != nil {
		return "", err
	}
	return result.Response.Content.Text(), nil
}
