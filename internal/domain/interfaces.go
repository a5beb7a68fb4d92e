package domain

import "context"

// DefaultSourceTag marks chunks written by the index writer.
const DefaultSourceTag = "indexed"

// SourceKey is the metadata key holding a chunk's source tag.
const SourceKey = "source"

// TaskType hints the embedding provider about how the vector will be used.
type TaskType string

const (
	TaskRetrievalDocument TaskType = "retrieval_document"
	TaskRetrievalQuery    TaskType = "retrieval_query"
)

// Chunk is a contiguous word window of a document used for indexing.
type Chunk struct {
	ID        string
	Text      string
	SourceTag string
}

// Record pairs the chunk with its embedding, tagging it under SourceKey.
func (c Chunk) Record(vector []float32) Record {
	return Record{
		ID:       c.ID,
		Vector:   vector,
		Document: c.Text,
		Metadata: map[string]string{SourceKey: c.SourceTag},
	}
}

// Record is one stored tuple in a vector store collection.
type Record struct {
	ID       string
	Vector   []float32
	Document string
	Metadata map[string]string
}

// Match is a stored document returned by a similarity query.
// Smaller distances are closer.
type Match struct {
	ID       string
	Document string
	Distance float64
	Metadata map[string]string
}

// SkippedChunk records a chunk that could not be embedded.
type SkippedChunk struct {
	Position int
	Err      error
}

// IndexReport summarises one re-index run.
type IndexReport struct {
	Attempted    int
	Embedded     int
	Skipped      []SkippedChunk
	StoreUpdated bool
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string, task TaskType) ([]float32, error)
}

// VectorStore persists vectors and supports filtered similarity search.
// Query returns one ranked group of matches per query vector.
type VectorStore interface {
	Upsert(ctx context.Context, records []Record) error
	Delete(ctx context.Context, filter map[string]string) error
	Query(ctx context.Context, vectors [][]float32, k int, filter map[string]string) ([][]Match, error)
	Close() error
}

// Replacer is implemented by stores that can delete by filter and upsert
// in a single atomic step.
type Replacer interface {
	Replace(ctx context.Context, filter map[string]string, records []Record) error
}

// Session is a single conversation with a generative model.
type Session interface {
	Send(ctx context.Context, prompt string) (string, error)
}

// Answerer opens conversations with a generative model.
type Answerer interface {
	Name() string
	StartSession(ctx context.Context) (Session, error)
}
