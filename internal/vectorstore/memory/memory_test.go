package memory

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faq-rag/internal/vectorstore"
)

func frag(source string, seq int, vec ...float32) vectorstore.Fragment {
	return vectorstore.Fragment{
		SourceID:      source,
		SequenceIndex: seq,
		Text:          fmt.Sprintf("%s-%d", source, seq),
		Vector:        vec,
	}
}

func TestNearestEmptyStore(t *testing.T) {
	s := New(3)
	results, err := s.Nearest(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNearestTopKNotPositive(t *testing.T) {
	s := New(3)
	require.NoError(t, s.Insert(context.Background(), frag("a.txt", 0, 1, 0, 0)))

	results, err := s.Nearest(context.Background(), []float32{1, 0, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = s.Nearest(context.Background(), []float32{1, 0, 0}, -2)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestInsertDimensionMismatch(t *testing.T) {
	s := New(3)
	err := s.Insert(context.Background(), frag("a.txt", 0, 1, 0))
	assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
	assert.ErrorIs(t, err, vectorstore.ErrStorage)
}

func TestInsertBatchAllOrNothing(t *testing.T) {
	s := New(3)
	batch := []vectorstore.Fragment{
		frag("a.txt", 0, 1, 0, 0),
		frag("a.txt", 1, 0, 1), // wrong dimension
	}
	err := s.InsertBatch(context.Background(), batch)
	require.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)

	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "failed batch must not leave partial inserts")
}

func TestNearestRankingAndLength(t *testing.T) {
	s := New(2)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, frag("far.txt", 0, 0, 1)))
	require.NoError(t, s.Insert(ctx, frag("near.txt", 0, 1, 0)))
	require.NoError(t, s.Insert(ctx, frag("mid.txt", 0, 1, 1)))

	results, err := s.Nearest(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near.txt", results[0].SourceID)
	assert.Equal(t, "mid.txt", results[1].SourceID)
	assert.GreaterOrEqual(t, results[0].Similarity, results[1].Similarity)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
}

func TestNearestSingleFragment(t *testing.T) {
	s := New(2)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, frag("only.txt", 0, 0.9, float32(math.Sqrt(1-0.81)))))

	results, err := s.Nearest(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.9, results[0].Similarity, 1e-6)
}

func TestNearestTieBreakInsertionOrder(t *testing.T) {
	s := New(2)
	ctx := context.Background()
	// identical vectors, identical similarity
	require.NoError(t, s.Insert(ctx, frag("first.txt", 0, 1, 0)))
	require.NoError(t, s.Insert(ctx, frag("second.txt", 0, 1, 0)))
	require.NoError(t, s.Insert(ctx, frag("third.txt", 0, 1, 0)))

	results, err := s.Nearest(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "first.txt", results[0].SourceID)
	assert.Equal(t, "second.txt", results[1].SourceID)
	assert.Equal(t, "third.txt", results[2].SourceID)
}

func TestNearestSimilarityNonIncreasing(t *testing.T) {
	s := New(3)
	ctx := context.Background()
	vecs := [][]float32{
		{1, 0, 0}, {0.5, 0.5, 0}, {0, 1, 0}, {0, 0, 1}, {0.2, 0.3, 0.9},
	}
	for i, v := range vecs {
		require.NoError(t, s.Insert(ctx, frag("doc.txt", i, v...)))
	}

	results, err := s.Nearest(ctx, []float32{1, 0.1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity)
	}
}

func TestConcurrentInsertsAndScans(t *testing.T) {
	s := New(2)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.Insert(ctx, frag("w.txt", i*50+j, 1, 0))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				results, err := s.Nearest(ctx, []float32{1, 0}, 5)
				assert.NoError(t, err)
				for _, res := range results {
					assert.NotEmpty(t, res.Text, "no partially written fragment may be visible")
				}
			}
		}()
	}
	wg.Wait()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 400, count)
}
