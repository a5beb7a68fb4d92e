package service

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"docqa/internal/answer"
	"docqa/internal/chunker"
	"docqa/internal/domain"
	"docqa/internal/indexer"
	"docqa/internal/retriever"
)

// Answer is the reply to a question together with the context it was built from.
type Answer struct {
	Text    string
	Context string
}

// QAService runs the index and query paths over injected components.
type QAService struct {
	load      func(path string) (string, error)
	chunker   *chunker.WordChunker
	writer    *indexer.Writer
	retriever *retriever.Retriever
	composer  *answer.Composer
	store     domain.VectorStore
	topK      int
	log       logr.Logger
}

// Options holds the collaborators of a QAService.
type Options struct {
	Load      func(path string) (string, error)
	Chunker   *chunker.WordChunker
	Writer    *indexer.Writer
	Retriever *retriever.Retriever
	Composer  *answer.Composer
	Store     domain.VectorStore
	TopK      int
	Log       logr.Logger
}

func NewQAService(opts Options) *QAService {
	topK := opts.TopK
	if topK <= 0 {
		topK = retriever.DefaultTopK
	}
	return &QAService{
		load:      opts.Load,
		chunker:   opts.Chunker,
		writer:    opts.Writer,
		retriever: opts.Retriever,
		composer:  opts.Composer,
		store:     opts.Store,
		topK:      topK,
		log:       opts.Log,
	}
}

// IndexFile loads the document at path and replaces the index with it.
func (s *QAService) IndexFile(ctx context.Context, path string) (domain.IndexReport, error) {
	text, err := s.load(path)
	if err != nil {
		return domain.IndexReport{}, err
	}
	s.log.V(1).Info("loaded document", "path", path, "bytes", len(text))
	return s.IndexText(ctx, text)
}

// IndexText splits text into chunks and replaces the index with them.
func (s *QAService) IndexText(ctx context.Context, text string) (domain.IndexReport, error) {
	chunks := s.chunker.Split(text)
	s.log.V(1).Info("split document", "chunks", len(chunks), "chunk_size", s.chunker.ChunkSize(), "overlap", s.chunker.Overlap())
	report, err := s.writer.Reindex(ctx, chunks)
	if err != nil {
		return report, fmt.Errorf("reindex: %w", err)
	}
	return report, nil
}

// Ask answers question from the indexed document. When nothing is indexed
// the error matches domain.ErrNoMatch and the answerer is not called.
func (s *QAService) Ask(ctx context.Context, question string) (Answer, error) {
	docContext, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve: %w", err)
	}
	text, err := s.composer.Answer(ctx, docContext, question)
	if err != nil {
		return Answer{Context: docContext}, fmt.Errorf("answer: %w", err)
	}
	return Answer{Text: text, Context: docContext}, nil
}

// Close releases the vector store.
func (s *QAService) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
