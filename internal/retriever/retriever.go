package retriever

import (
	"context"
	"strings"

	"github.com/go-logr/logr"

	"docqa/internal/domain"
	"docqa/internal/embedding"
)

// DefaultTopK is the number of neighbours requested when k is not positive.
const DefaultTopK = 5

// Retriever turns a question into a context string built from the closest
// stored chunks of one source tag.
type Retriever struct {
	embedder  *embedding.Adapter
	store     domain.VectorStore
	sourceTag string
	log       logr.Logger
}

func New(embedder *embedding.Adapter, store domain.VectorStore, sourceTag string, log logr.Logger) *Retriever {
	if sourceTag == "" {
		sourceTag = domain.DefaultSourceTag
	}
	return &Retriever{embedder: embedder, store: store, sourceTag: sourceTag, log: log}
}

// Retrieve returns the matched documents joined by newlines, in store order.
// It returns domain.ErrNoMatch when the store has nothing under the tag.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) (string, error) {
	matches, err := r.Matches(ctx, question, k)
	if err != nil {
		return "", err
	}
	docs := make([]string, len(matches))
	for i, m := range matches {
		docs[i] = m.Document
	}
	return strings.Join(docs, "\n"), nil
}

// Matches returns every match of every result group, flattened in store order.
func (r *Retriever) Matches(ctx context.Context, question string, k int) ([]domain.Match, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	vec, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}
	groups, err := r.store.Query(ctx, [][]float32{vec}, k, map[string]string{domain.SourceKey: r.sourceTag})
	if err != nil {
		return nil, &domain.StoreError{Op: "query", Err: err}
	}
	if len(groups) == 0 || len(groups[0]) == 0 {
		return nil, domain.ErrNoMatch
	}
	var out []domain.Match
	for _, g := range groups {
		out = append(out, g...)
	}
	r.log.V(1).Info("retrieved", "matches", len(out), "k", k)
	return out, nil
}
