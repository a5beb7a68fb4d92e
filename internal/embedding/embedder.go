package embedding

import (
	"context"
	"errors"

	"docqa/internal/domain"
)

var errEmptyVector = errors.New("provider returned an empty vector")

// Adapter isolates provider failures behind domain.EmbeddingError so callers
// can decide per unit of text whether to skip or abort. It never retries.
type Adapter struct {
	provider domain.Embedder
}

func NewAdapter(provider domain.Embedder) *Adapter {
	return &Adapter{provider: provider}
}

// Name returns the identifier of the wrapped provider.
func (a *Adapter) Name() string { return a.provider.Name() }

// EmbedDocument embeds text that will be stored in the index.
func (a *Adapter) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return a.embed(ctx, text, domain.TaskRetrievalDocument)
}

// EmbedQuery embeds a question that will be matched against the index.
func (a *Adapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return a.embed(ctx, text, domain.TaskRetrievalQuery)
}

func (a *Adapter) embed(ctx context.Context, text string, task domain.TaskType) ([]float32, error) {
	vec, err := a.provider.Embed(ctx, text, task)
	if err != nil {
		return nil, &domain.EmbeddingError{Err: err}
	}
	if len(vec) == 0 {
		return nil, &domain.EmbeddingError{Err: errEmptyVector}
	}
	return vec, nil
}
