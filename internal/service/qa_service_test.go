package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/answer"
	"docqa/internal/chunker"
	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/indexer"
	"docqa/internal/loader"
	"docqa/internal/retriever"
	"docqa/internal/vectorstore/memory"
)

// letterEmbedder maps text to letter frequencies, enough to rank overlapping words.
type letterEmbedder struct{}

func (letterEmbedder) Name() string { return "letters" }

func (letterEmbedder) Embed(_ context.Context, text string, _ domain.TaskType) ([]float32, error) {
	vec := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec, nil
}

type fakeSession struct{ a *fakeAnswerer }

func (s fakeSession) Send(_ context.Context, prompt string) (string, error) {
	s.a.prompts = append(s.a.prompts, prompt)
	return s.a.reply, s.a.err
}

type fakeAnswerer struct {
	prompts []string
	reply   string
	err     error
}

func (a *fakeAnswerer) Name() string { return "fake" }

func (a *fakeAnswerer) StartSession(context.Context) (domain.Session, error) {
	return fakeSession{a: a}, nil
}

func newService(t *testing.T, store *memory.Storage, ans *fakeAnswerer) *QAService {
	t.Helper()
	log := testr.New(t)
	ch, err := chunker.NewWordChunker(chunker.DefaultChunkSize, chunker.DefaultOverlap)
	require.NoError(t, err)
	emb := embedding.NewAdapter(letterEmbedder{})
	return NewQAService(Options{
		Load:      loader.Load,
		Chunker:   ch,
		Writer:    indexer.NewWriter(emb, store, domain.DefaultSourceTag, log),
		Retriever: retriever.New(emb, store, domain.DefaultSourceTag, log),
		Composer:  answer.NewComposer(ans),
		Store:     store,
		Log:       log,
	})
}

func TestIndexThenAskEndToEnd(t *testing.T) {
	store := memory.NewStorage()
	ans := &fakeAnswerer{reply: "  The sky is blue.\n"}
	svc := newService(t, store, ans)
	ctx := context.Background()

	doc := "The sky over the harbour is a bright clear blue."
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	report, err := svc.IndexFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.Embedded)
	assert.True(t, report.StoreUpdated)

	stored, ok := store.Get("chunk-0")
	require.True(t, ok)
	assert.Equal(t, doc, stored.Document)
	assert.Equal(t, 1, store.Len())

	got, err := svc.Ask(ctx, "What colour is the sky?")
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.", got.Text)
	assert.Equal(t, doc, got.Context)

	require.Len(t, ans.prompts, 1)
	assert.Contains(t, ans.prompts[0], doc)
	assert.Contains(t, ans.prompts[0], "What colour is the sky?")
	assert.Equal(t, answer.BuildPrompt(doc, "What colour is the sky?"), ans.prompts[0])
}

func TestAskWithEmptyIndexIsNoMatch(t *testing.T) {
	ans := &fakeAnswerer{reply: "unused"}
	svc := newService(t, memory.NewStorage(), ans)

	_, err := svc.Ask(context.Background(), "anything?")

	assert.ErrorIs(t, err, domain.ErrNoMatch)
	assert.Empty(t, ans.prompts)
}

func TestReindexLeavesOnlySecondDocument(t *testing.T) {
	store := memory.NewStorage()
	svc := newService(t, store, &fakeAnswerer{reply: "ok"})
	ctx := context.Background()

	first := strings.Repeat("alpha ", 400)
	_, err := svc.IndexText(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())

	_, err = svc.IndexText(ctx, "just a short second document")
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len())
	got, err := svc.Ask(ctx, "what?")
	require.NoError(t, err)
	assert.Equal(t, "just a short second document", got.Context)
}

func TestIndexFileLoadError(t *testing.T) {
	svc := newService(t, memory.NewStorage(), &fakeAnswerer{})

	_, err := svc.IndexFile(context.Background(), "slides.pptx")

	var loadErr *domain.DocumentLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestAskGenerationError(t *testing.T) {
	store := memory.NewStorage()
	svc := newService(t, store, &fakeAnswerer{err: errors.New("overloaded")})
	ctx := context.Background()
	_, err := svc.IndexText(ctx, "some words here")
	require.NoError(t, err)

	got, err := svc.Ask(ctx, "q")

	var genErr *domain.GenerationError
	assert.ErrorAs(t, err, &genErr)
	assert.Equal(t, "some words here", got.Context)
}

func TestClose(t *testing.T) {
	svc := newService(t, memory.NewStorage(), &fakeAnswerer{})
	assert.NoError(t, svc.Close())
}
