package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"docqa/internal/domain"
)

// DefaultModel is used when no embedding model is configured.
const DefaultModel = "text-embedding-004"

type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

var _ domain.Embedder = (*Embedder)(nil)

// Embedder produces embeddings with the Gemini API. Document and query
// embeddings use the matching retrieval task types.
type Embedder struct {
	models contentEmbedder
	model  string
}

func NewEmbedder(client *genai.Client, model string) *Embedder {
	return newEmbedder(client.Models, model)
}

func newEmbedder(models contentEmbedder, model string) *Embedder {
	if model == "" {
		model = DefaultModel
	}
	return &Embedder{models: models, model: model}
}

func (e *Embedder) Name() string { return "gemini" }

func (e *Embedder) Embed(ctx context.Context, text string, task domain.TaskType) ([]float32, error) {
	resp, err := e.models.EmbedContent(ctx, e.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType: taskType(task),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed content: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, errors.New("no embedding returned")
	}
	return resp.Embeddings[0].Values, nil
}

func taskType(task domain.TaskType) string {
	switch task {
	case domain.TaskRetrievalQuery:
		return "RETRIEVAL_QUERY"
	case domain.TaskRetrievalDocument:
		return "RETRIEVAL_DOCUMENT"
	default:
		return ""
	}
}
