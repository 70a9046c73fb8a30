package pg

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"faq-rag/internal/config"
	"faq-rag/internal/vectorstore"
)

// vectorValue renders a []float32 as a pgvector text literal, e.g.
// "[0.1,0.2,0.3]". pgvector casts the literal on comparison and insert.
type vectorValue []float32

func (v vectorValue) Value() (driver.Value, error) {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String(), nil
}

type fragmentRow struct {
	bun.BaseModel `bun:"table:fragments,alias:f"`

	ID            int64       `bun:"id,pk,autoincrement"`
	SourceID      string      `bun:"source_id,notnull"`
	SequenceIndex int         `bun:"sequence_index,notnull"`
	Text          string      `bun:"text,notnull"`
	Embedding     vectorValue `bun:"embedding,notnull"`
	CreatedAt     time.Time   `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type nearestRow struct {
	SourceID   string  `bun:"source_id"`
	Text       string  `bun:"text"`
	Similarity float64 `bun:"similarity"`
}

// Connect opens the database using the configured driver. The default is
// bun's native pgdriver; driver "postgres" selects lib/pq instead.
func Connect(cfg *config.DatabaseConfig) (*bun.DB, error) {
	var sqldb *sql.DB
	switch cfg.Driver {
	case "postgres":
		connector, err := pq.NewConnector(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %v", err)
		}
		sqldb = sql.OpenDB(connector)
	default:
		sqldb = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	}
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db, nil
}

// Store persists fragments in Postgres and delegates the similarity scan to
// the pgvector cosine-distance operator.
type Store struct {
	db  *bun.DB
	dim int
}

func New(db *bun.DB, dim int) *Store {
	return &Store{db: db, dim: dim}
}

// Init creates the pgvector extension and the fragments table. The vector
// column width comes from the configured embedding dimension, so the DDL is
// raw SQL rather than a bun model tag.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("%w: create extension: %v", vectorstore.ErrStorage, err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS fragments (
		id BIGSERIAL PRIMARY KEY,
		source_id VARCHAR(255) NOT NULL,
		sequence_index INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, s.dim)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("%w: create fragments table: %v", vectorstore.ErrStorage, err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, f vectorstore.Fragment) error {
	return s.InsertBatch(ctx, []vectorstore.Fragment{f})
}

func (s *Store) InsertBatch(ctx context.Context, frags []vectorstore.Fragment) error {
	if len(frags) == 0 {
		return nil
	}
	rows := make([]fragmentRow, len(frags))
	for i, f := range frags {
		if len(f.Vector) != s.dim {
			return fmt.Errorf("%w: got %d, want %d", vectorstore.ErrDimensionMismatch, len(f.Vector), s.dim)
		}
		rows[i] = fragmentRow{
			SourceID:      f.SourceID,
			SequenceIndex: f.SequenceIndex,
			Text:          f.Text,
			Embedding:     vectorValue(f.Vector),
			CreatedAt:     f.CreatedAt,
		}
	}
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&rows).Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: insert fragments: %v", vectorstore.ErrStorage, err)
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

	var rows []nearestRow
	err := s.db.NewSelect().
		Model((*fragmentRow)(nil)).
		ColumnExpr("f.source_id").
		ColumnExpr("f.text").
		ColumnExpr("1 - (f.embedding <=> ?) AS similarity", vectorValue(vector)).
		OrderExpr("f.embedding <=> ?", vectorValue(vector)).
		OrderExpr("f.id ASC").
		Limit(topK).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity query: %v", vectorstore.ErrStorage, err)
	}

	results := make([]vectorstore.Result, len(rows))
	for i, r := range rows {
		results[i] = vectorstore.Result{
			SourceID:   r.SourceID,
			Text:       r.Text,
			Similarity: r.Similarity,
		}
	}
	return results, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.db.NewSelect().Model((*fragmentRow)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: count fragments: %v", vectorstore.ErrStorage, err)
	}
	return count, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
