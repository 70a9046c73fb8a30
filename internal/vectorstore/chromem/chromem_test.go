package chromem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faq-rag/internal/vectorstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("", "test", 2)
	require.NoError(t, err)
	return s
}

func TestNearestEmptyCollection(t *testing.T) {
	s := newTestStore(t)
	results, err := s.Nearest(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestInsertAndNearest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertBatch(ctx, []vectorstore.Fragment{
		{SourceID: "near.txt", SequenceIndex: 0, Text: "close", Vector: []float32{1, 0}},
		{SourceID: "far.txt", SequenceIndex: 0, Text: "distant", Vector: []float32{0, 1}},
	}))

	// topK larger than the collection is clamped, not an error
	results, err := s.Nearest(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near.txt", results[0].SourceID)
	assert.Equal(t, "close", results[0].Text)
	assert.GreaterOrEqual(t, results[0].Similarity, results[1].Similarity)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInsertDimensionMismatch(t *testing.T) {
	s := newTestStore(t)
	err := s.Insert(context.Background(), vectorstore.Fragment{
		SourceID: "a.txt", Text: "bad", Vector: []float32{1, 0, 0},
	})
	assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
}
