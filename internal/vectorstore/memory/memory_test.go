package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func rec(id string, vec []float32, source string) domain.Record {
	return domain.Record{ID: id, Vector: vec, Document: "doc " + id, Metadata: map[string]string{"source": source}}
}

func TestUpsertQueryDelete(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	indexed := map[string]string{"source": "indexed"}

	require.NoError(t, s.Upsert(ctx, []domain.Record{
		rec("chunk-0", []float32{1, 0}, "indexed"),
		rec("chunk-1", []float32{0, 1}, "indexed"),
		rec("other", []float32{1, 0}, "manual"),
	}))
	assert.Equal(t, 3, s.Len())

	groups, err := s.Query(ctx, [][]float32{{1, 0.1}}, 5, indexed)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0], 2)
	assert.Equal(t, "chunk-0", groups[0][0].ID)
	assert.Equal(t, "doc chunk-0", groups[0][0].Document)

	require.NoError(t, s.Delete(ctx, indexed))
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("other")
	assert.True(t, ok)

	groups, err = s.Query(ctx, [][]float32{{1, 0}}, 5, indexed)
	require.NoError(t, err)
	assert.Empty(t, groups[0])
}

func TestUpsertOverwritesSameID(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []domain.Record{rec("chunk-0", []float32{1, 0}, "indexed")}))
	updated := rec("chunk-0", []float32{0, 1}, "indexed")
	updated.Document = "new text"
	require.NoError(t, s.Upsert(ctx, []domain.Record{updated}))

	assert.Equal(t, 1, s.Len())
	got, ok := s.Get("chunk-0")
	require.True(t, ok)
	assert.Equal(t, "new text", got.Document)
}

func TestUpsertRejectsDimensionMismatch(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []domain.Record{rec("a", []float32{1, 0}, "indexed")}))
	err := s.Upsert(ctx, []domain.Record{rec("b", []float32{1, 0, 0}, "indexed")})
	assert.ErrorIs(t, err, errDimensionMismatch)
	assert.Equal(t, 1, s.Len())
}

func TestReplaceSwapsTaggedRecords(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	indexed := map[string]string{"source": "indexed"}

	require.NoError(t, s.Upsert(ctx, []domain.Record{
		rec("chunk-0", []float32{1, 0}, "indexed"),
		rec("chunk-1", []float32{0, 1}, "indexed"),
	}))

	require.NoError(t, s.Replace(ctx, indexed, []domain.Record{rec("chunk-0", []float32{1, 1, 1}, "indexed")}))

	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("chunk-1")
	assert.False(t, ok)
}

func TestReplaceFailureKeepsOldRecords(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []domain.Record{rec("chunk-0", []float32{1, 0}, "indexed")}))
	err := s.Replace(ctx, map[string]string{"source": "indexed"}, []domain.Record{
		rec("chunk-0", []float32{1, 0}, "indexed"),
		rec("chunk-1", []float32{1}, "indexed"),
	})

	assert.Error(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestReplaceMismatchWithOtherTagKeepsOldRecords(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []domain.Record{
		rec("manual-0", []float32{1, 0}, "manual"),
		rec("chunk-0", []float32{0, 1}, "indexed"),
	}))
	err := s.Replace(ctx, map[string]string{"source": "indexed"}, []domain.Record{
		rec("chunk-0", []float32{1, 0, 0}, "indexed"),
	})

	assert.ErrorIs(t, err, errDimensionMismatch)
	assert.Equal(t, 2, s.Len())
	old, ok := s.Get("chunk-0")
	require.True(t, ok)
	assert.Equal(t, []float32{0, 1}, old.Vector)
}

func TestReplaceAllowsNewDimensionWhenNothingElseStored(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []domain.Record{rec("chunk-0", []float32{0, 1}, "indexed")}))
	require.NoError(t, s.Replace(ctx, map[string]string{"source": "indexed"}, []domain.Record{
		rec("chunk-0", []float32{1, 0, 0}, "indexed"),
	}))

	got, ok := s.Get("chunk-0")
	require.True(t, ok)
	assert.Len(t, got.Vector, 3)
}
