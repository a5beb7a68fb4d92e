package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/vectorstore/memory"
)

type fixedEmbedder struct {
	vec []float32
	err error
}

func (f fixedEmbedder) Name() string { return "fixed" }

func (f fixedEmbedder) Embed(context.Context, string, domain.TaskType) ([]float32, error) {
	return f.vec, f.err
}

// cannedStore returns preset groups and records the query arguments.
type cannedStore struct {
	groups [][]domain.Match
	err    error
	k      int
	filter map[string]string
}

func (c *cannedStore) Upsert(context.Context, []domain.Record) error  { return nil }
func (c *cannedStore) Delete(context.Context, map[string]string) error { return nil }
func (c *cannedStore) Close() error                                    { return nil }

func (c *cannedStore) Query(_ context.Context, _ [][]float32, k int, filter map[string]string) ([][]domain.Match, error) {
	c.k = k
	c.filter = filter
	return c.groups, c.err
}

func newRetriever(store domain.VectorStore, emb domain.Embedder) *Retriever {
	return New(embedding.NewAdapter(emb), store, "", logr.Discard())
}

func TestRetrieveJoinsMatchesInStoreOrder(t *testing.T) {
	store := &cannedStore{groups: [][]domain.Match{
		{{Document: "second best"}, {Document: "best"}},
		{{Document: "extra group"}},
	}}
	r := newRetriever(store, fixedEmbedder{vec: []float32{1}})

	ctx, err := r.Retrieve(context.Background(), "what?", 3)
	require.NoError(t, err)

	assert.Equal(t, "second best\nbest\nextra group", ctx)
	assert.Equal(t, 3, store.k)
	assert.Equal(t, map[string]string{"source": "indexed"}, store.filter)
}

func TestRetrieveKeepsDuplicates(t *testing.T) {
	store := &cannedStore{groups: [][]domain.Match{{{Document: "same"}, {Document: "same"}}}}
	r := newRetriever(store, fixedEmbedder{vec: []float32{1}})

	ctx, err := r.Retrieve(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Equal(t, "same\nsame", ctx)
}

func TestRetrieveDefaultsK(t *testing.T) {
	store := &cannedStore{groups: [][]domain.Match{{{Document: "x"}}}}
	r := newRetriever(store, fixedEmbedder{vec: []float32{1}})

	_, err := r.Retrieve(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, store.k)
}

func TestRetrieveNoMatch(t *testing.T) {
	for name, groups := range map[string][][]domain.Match{
		"no groups":         nil,
		"empty first group": {{}},
	} {
		t.Run(name, func(t *testing.T) {
			r := newRetriever(&cannedStore{groups: groups}, fixedEmbedder{vec: []float32{1}})
			_, err := r.Retrieve(context.Background(), "q", 5)
			assert.ErrorIs(t, err, domain.ErrNoMatch)
		})
	}
}

func TestRetrieveSurfacesEmbeddingError(t *testing.T) {
	store := &cannedStore{}
	r := newRetriever(store, fixedEmbedder{err: errors.New("offline")})

	_, err := r.Retrieve(context.Background(), "q", 5)

	var embErr *domain.EmbeddingError
	assert.ErrorAs(t, err, &embErr)
	assert.Nil(t, store.filter)
}

func TestRetrieveWrapsStoreError(t *testing.T) {
	r := newRetriever(&cannedStore{err: errors.New("locked")}, fixedEmbedder{vec: []float32{1}})

	_, err := r.Retrieve(context.Background(), "q", 5)

	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "query", storeErr.Op)
}

func TestRetrieveAgainstMemoryStore(t *testing.T) {
	store := memory.NewStorage()
	ctx := context.Background()
	r := newRetriever(store, fixedEmbedder{vec: []float32{1, 0}})

	_, err := r.Retrieve(ctx, "q", 5)
	assert.ErrorIs(t, err, domain.ErrNoMatch)

	require.NoError(t, store.Upsert(ctx, []domain.Record{
		{ID: "chunk-0", Vector: []float32{0, 1}, Document: "far", Metadata: map[string]string{"source": "indexed"}},
		{ID: "chunk-1", Vector: []float32{1, 0}, Document: "near", Metadata: map[string]string{"source": "indexed"}},
		{ID: "x", Vector: []float32{1, 0}, Document: "foreign", Metadata: map[string]string{"source": "other"}},
	}))

	got, err := r.Retrieve(ctx, "q", 5)
	require.NoError(t, err)
	assert.Equal(t, "near\nfar", got)
}
