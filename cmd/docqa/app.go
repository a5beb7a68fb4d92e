package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"docqa/internal/answer"
	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/embedding/gemini"
	"docqa/internal/embedding/openai"
	"docqa/internal/generation/fantasy"
	geminigen "docqa/internal/generation/gemini"
	"docqa/internal/indexer"
	"docqa/internal/loader"
	"docqa/internal/retriever"
	"docqa/internal/service"
	"docqa/internal/vectorstore/memory"
	"docqa/internal/vectorstore/qdrant"
	"docqa/internal/vectorstore/sqlite"
)

// components are the pluggable ends of the pipeline.
type components struct {
	embedder domain.Embedder
	store    domain.VectorStore
	answerer domain.Answerer
}

type app struct {
	open   func(ctx context.Context, cfg *config.AppConfig) (components, error)
	load   func(path string) (string, error)
	runTUI func(m tea.Model) error
}

func newApp() *app {
	return &app{
		open: openComponents,
		load: loader.Load,
		runTUI: func(m tea.Model) error {
			_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

// service loads the configuration named by the persistent flags and
// assembles a QAService from it. Callers close the returned service.
func (a *app) service(cmd *cobra.Command) (*service.QAService, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if verbose && cfg.Log.Verbosity < 1 {
		cfg.Log.Verbosity = 1
	}
	log := newLogger(cmd.ErrOrStderr(), cfg.Log.Verbosity)

	ch, err := chunker.NewWordChunker(cfg.Chunker.ChunkSize, cfg.Chunker.Overlap)
	if err != nil {
		return nil, err
	}

	c, err := a.open(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	log.V(1).Info("opened components",
		"embedder", c.embedder.Name(), "store", cfg.VectorStore.Type, "answerer", c.answerer.Name())

	adapter := embedding.NewAdapter(c.embedder)
	return service.NewQAService(service.Options{
		Load:      a.load,
		Chunker:   ch,
		Writer:    indexer.NewWriter(adapter, c.store, cfg.Retrieval.SourceTag, log.WithName("indexer")),
		Retriever: retriever.New(adapter, c.store, cfg.Retrieval.SourceTag, log.WithName("retriever")),
		Composer:  answer.NewComposer(c.answerer),
		Store:     c.store,
		TopK:      cfg.Retrieval.TopK,
		Log:       log,
	}), nil
}

func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(path)
}

// newLogger writes slog text records to w. logr verbosity n maps to slog level -n.
func newLogger(w io.Writer, verbosity int) logr.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.Level(-verbosity)})
	return logr.FromSlogHandler(h)
}

func openComponents(ctx context.Context, cfg *config.AppConfig) (components, error) {
	emb, err := newEmbedder(ctx, cfg.Embedder)
	if err != nil {
		return components{}, err
	}
	ans, err := newAnswerer(ctx, cfg.Generator)
	if err != nil {
		return components{}, err
	}
	st, err := newStore(ctx, cfg.VectorStore)
	if err != nil {
		return components{}, err
	}
	return components{embedder: emb, store: st, answerer: ans}, nil
}

func newEmbedder(ctx context.Context, cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "gemini":
		client, err := newGenaiClient(ctx, cfg.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		return gemini.NewEmbedder(client, cfg.Model), nil
	case "openai":
		emb, err := openai.NewEmbedder(openai.Config{
			BaseURL:   cfg.BaseURL,
			APIKeyEnv: cfg.APIKeyEnv,
			Model:     cfg.Model,
			Timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, domain.Configf("openai embedder: %v", err)
		}
		return emb, nil
	default:
		return nil, domain.Configf("unknown embedder: %q", cfg.Type)
	}
}

func newAnswerer(ctx context.Context, cfg config.GeneratorConfig) (domain.Answerer, error) {
	switch cfg.Type {
	case "gemini":
		client, err := newGenaiClient(ctx, cfg.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		return geminigen.NewAnswerer(client, cfg.Model), nil
	case "openai", "anthropic", "openrouter":
		key := os.Getenv(cfg.APIKeyEnv)
		if key == "" {
			return nil, domain.Configf("missing API key in env %s", cfg.APIKeyEnv)
		}
		model := cfg.Model
		if model == "" {
			model = defaultChatModels[cfg.Type]
		}
		return fantasy.NewAnswerer(ctx, fantasy.Config{
			Provider: cfg.Type,
			APIKey:   key,
			BaseURL:  cfg.BaseURL,
			Model:    model,
		})
	default:
		return nil, domain.Configf("unknown generator: %q", cfg.Type)
	}
}

var defaultChatModels = map[string]string{
	"openai":     "gpt-4o-mini",
	"anthropic":  "claude-3-5-haiku-latest",
	"openrouter": "openai/gpt-4o-mini",
}

func newStore(ctx context.Context, cfg config.VectorStoreConfig) (domain.VectorStore, error) {
	switch cfg.Type {
	case "sqlite":
		st, err := sqlite.Open(ctx, cfg.Path, cfg.Collection)
		if err != nil {
			return nil, &domain.StoreError{Op: "open", Err: err}
		}
		return st, nil
	case "memory":
		return memory.NewStorage(), nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, domain.Configf("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Collection,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, domain.Configf("unknown vector store: %q", cfg.Type)
	}
}

func newGenaiClient(ctx context.Context, keyEnv string) (*genai.Client, error) {
	key := os.Getenv(keyEnv)
	if key == "" {
		return nil, domain.Configf("missing API key in env %s", keyEnv)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}
