package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"docqa/internal/domain"
)

// Embedder calls an OpenAI-compatible embeddings endpoint.
// The task hint is ignored; OpenAI models use one embedding space.
type Embedder struct {
	client *goopenai.Client
	model  string
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewEmbedder creates a new embeddings client using the provided configuration.
func NewEmbedder(cfg Config) (*Embedder, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = string(goopenai.SmallEmbedding3)
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	clientCfg := goopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: t}
	return &Embedder{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "openai" }

// Embed returns an embedding vector for the given text.
func (e *Embedder) Embed(ctx context.Context, text string, _ domain.TaskType) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}
