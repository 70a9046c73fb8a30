package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"faq-rag/internal/vectorstore"
)

// Store is an in-memory vector store using a brute-force cosine scan.
// Reads see a snapshot of completed inserts; ties are broken by insertion
// order.
type Store struct {
	mu    sync.RWMutex
	dim   int
	frags []vectorstore.Fragment
}

func New(dim int) *Store {
	return &Store{dim: dim}
}

func (s *Store) Insert(ctx context.Context, f vectorstore.Fragment) error {
	return s.InsertBatch(ctx, []vectorstore.Fragment{f})
}

func (s *Store) InsertBatch(_ context.Context, frags []vectorstore.Fragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// validate everything before appending anything, the batch is
	// all-or-nothing
	for _, f := range frags {
		if len(f.Vector) != s.dim {
			return fmt.Errorf("%w: got %d, want %d", vectorstore.ErrDimensionMismatch, len(f.Vector), s.dim)
		}
	}
	for _, f := range frags {
		if f.CreatedAt.IsZero() {
			f.CreatedAt = time.Now()
		}
		s.frags = append(s.frags, f)
	}
	return nil
}

func (s *Store) Nearest(_ context.Context, vector []float32, topK int) ([]vectorstore.Result, error) {
	if topK <= 0 {
		return nil, nil
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", vectorstore.ErrDimensionMismatch, len(vector), s.dim)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		idx int
		sim float64
	}
	scores := make([]scored, len(s.frags))
	for i, f := range s.frags {
		scores[i] = scored{idx: i, sim: cosineSimilarity(f.Vector, vector)}
	}

	// stable sort keeps insertion order for equal similarities
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].sim > scores[j].sim
	})
	if topK > len(scores) {
		topK = len(scores)
	}
	results := make([]vectorstore.Result, 0, topK)
	for _, sc := range scores[:topK] {
		f := s.frags[sc.idx]
		results = append(results, vectorstore.Result{
			SourceID:   f.SourceID,
			Text:       f.Text,
			Similarity: sc.sim,
		})
	}
	return results, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frags), nil
}

func (s *Store) Ping(_ context.Context) error { return nil }

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
