package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrStorage reports a persistence-layer failure. It is surfaced to the
// caller, never retried here.
var ErrStorage = errors.New("vector storage failure")

// ErrDimensionMismatch is a storage failure caused by a vector whose
// dimensionality does not match the store's configured size.
var ErrDimensionMismatch = fmt.Errorf("%w: vector dimension mismatch", ErrStorage)

// Fragment is a chunk of source text plus its embedding, the unit of
// retrieval. Fragments are immutable once inserted.
type Fragment struct {
	SourceID      string
	SequenceIndex int
	Text          string
	Vector        []float32
	CreatedAt     time.Time
}

// Result is one ranked retrieval hit. Similarity is cosine similarity in
// [-1, 1], higher is closer.
type Result struct {
	SourceID   string
	Text       string
	Similarity float64
}

// Store persists fragments and answers nearest-neighbor queries. The scan
// strategy (linear in-process, database operator, embedded index) is an
// implementation detail behind this interface.
//
// Nearest with topK <= 0 or an empty store returns an empty result, not an
// error. Results are ordered by descending similarity; implementations that
// control ranking break ties by insertion order.
type Store interface {
	Insert(ctx context.Context, f Fragment) error
	// InsertBatch inserts all fragments or none of them.
	InsertBatch(ctx context.Context, frags []Fragment) error
	Nearest(ctx context.Context, vector []float32, topK int) ([]Result, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}
