package chromem

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	chromemgo "github.com/philippgille/chromem-go"

	"faq-rag/internal/vectorstore"
)

// Store is an embedded vector-store backend over chromem-go. Ranking is
// delegated to the library, so tie ordering among equal similarities is
// backend-defined.
type Store struct {
	db         *chromemgo.DB
	collection *chromemgo.Collection
	dim        int
}

// New opens (or creates) the store. An empty path selects a purely in-memory
// database.
func New(path, collectionName string, dim int) (*Store, error) {
	var db *chromemgo.DB
	var err error
	if path == "" {
		db = chromemgo.NewDB()
	} else {
		db, err = chromemgo.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("%w: open chromem db: %v", vectorstore.ErrStorage, err)
		}
	}
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: get collection: %v", vectorstore.ErrStorage, err)
	}
	return &Store{db: db, collection: collection, dim: dim}, nil
}

func (s *Store) Insert(ctx context.Context, f vectorstore.Fragment) error {
	return s.InsertBatch(ctx, []vectorstore.Fragment{f})
}

func (s *Store) InsertBatch(ctx context.Context, frags []vectorstore.Fragment) error {
	if len(frags) == 0 {
		return nil
	}
	docs := make([]chromemgo.Document, len(frags))
	for i, f := range frags {
		if len(f.Vector) != s.dim {
			return fmt.Errorf("%w: got %d, want %d", vectorstore.ErrDimensionMismatch, len(f.Vector), s.dim)
		}
		docs[i] = chromemgo.Document{
			ID:      fmt.Sprintf("%s-%d", f.SourceID, f.SequenceIndex),
			Content: f.Text,
			Metadata: map[string]string{
				"source_id":      f.SourceID,
				"sequence_index": strconv.Itoa(f.SequenceIndex),
			},
			Embedding: f.Vector,
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: add documents: %v", vectorstore.ErrStorage, err)
	}
	return nil
}

func (s *Store) Nearest(ctx context.Context, vector []float32, topK int) ([]vectorstore.Result, error) {
	if topK <= 0 {
		return nil, nil
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", vectorstore.ErrDimensionMismatch, len(vector), s.dim)
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	hits, err := s.collection.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: query embedding: %v", vectorstore.ErrStorage, err)
	}

	results := make([]vectorstore.Result, len(hits))
	for i, h := range hits {
		results[i] = vectorstore.Result{
			SourceID:   h.Metadata["source_id"],
			Text:       h.Content,
			Similarity: float64(h.Similarity),
		}
	}
	return results, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	return s.collection.Count(), nil
}

func (s *Store) Ping(_ context.Context) error { return nil }
