package indexer

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"docqa/internal/domain"
	"docqa/internal/embedding"
)

// ChunkID returns the id of the chunk at position i of an indexing run.
func ChunkID(i int) string { return fmt.Sprintf("chunk-%d", i) }

// Writer replaces the stored chunks of one source tag with a freshly embedded set.
type Writer struct {
	embedder  *embedding.Adapter
	store     domain.VectorStore
	sourceTag string
	log       logr.Logger
}

func NewWriter(embedder *embedding.Adapter, store domain.VectorStore, sourceTag string, log logr.Logger) *Writer {
	if sourceTag == "" {
		sourceTag = domain.DefaultSourceTag
	}
	return &Writer{embedder: embedder, store: store, sourceTag: sourceTag, log: log}
}

// Reindex embeds chunks in order and, when at least one succeeds, swaps the
// stored set for the new one. Embedding failures skip the chunk; its id is
// not reused, so ids may have gaps. When nothing embeds the store is left
// untouched.
func (w *Writer) Reindex(ctx context.Context, chunks []string) (domain.IndexReport, error) {
	report := domain.IndexReport{Attempted: len(chunks)}
	records := make([]domain.Record, 0, len(chunks))

	for i, text := range chunks {
		chunk := domain.Chunk{ID: ChunkID(i), Text: text, SourceTag: w.sourceTag}
		vec, err := w.embedder.EmbedDocument(ctx, chunk.Text)
		if err != nil {
			w.log.Error(err, "couldn't embed chunk", "position", i, "id", chunk.ID)
			report.Skipped = append(report.Skipped, domain.SkippedChunk{Position: i, Err: err})
			continue
		}
		records = append(records, chunk.Record(vec))
	}
	report.Embedded = len(records)

	if len(records) == 0 {
		w.log.Info("nothing indexed, keeping previous index", "attempted", report.Attempted)
		return report, nil
	}

	filter := map[string]string{domain.SourceKey: w.sourceTag}
	if r, ok := w.store.(domain.Replacer); ok {
		if err := r.Replace(ctx, filter, records); err != nil {
			return report, &domain.StoreError{Op: "replace", Err: err}
		}
	} else {
		if err := w.store.Delete(ctx, filter); err != nil {
			return report, &domain.StoreError{Op: "delete", Err: err}
		}
		if err := w.store.Upsert(ctx, records); err != nil {
			return report, &domain.StoreError{Op: "upsert", Err: err}
		}
	}
	report.StoreUpdated = true

	w.log.V(1).Info("reindexed", "source", w.sourceTag, "embedded", report.Embedded, "skipped", len(report.Skipped))
	return report, nil
}
