package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"faq-rag/internal/models"
)

// Entry is one resolved question in the query_history table.
type Entry struct {
	bun.BaseModel `bun:"table:query_history,alias:qh"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Question     string    `bun:"question,notnull"`
	Answer       string    `bun:"answer,notnull"`
	Sources      string    `bun:"sources"`
	TokensUsed   int       `bun:"tokens_used"`
	ResponseTime float64   `bun:"response_time"`
	Timestamp    time.Time `bun:"timestamp,nullzero,notnull,default:current_timestamp"`
}

// Recorder persists answer history. Writes are best-effort from the
// pipeline's point of view; the caller logs and continues on failure.
type Recorder struct {
	db *bun.DB
}

func NewRecorder(db *bun.DB) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) Init(ctx context.Context) error {
	_, err := r.db.NewCreateTable().Model((*Entry)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("create query_history table: %v", err)
	}
	return nil
}

func (r *Recorder) Record(ctx context.Context, question, answer string, sources []models.Source, tokens int, responseTime float64) error {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Filename
	}
	encoded, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("encode sources: %v", err)
	}

	entry := &Entry{
		Question:     question,
		Answer:       answer,
		Sources:      string(encoded),
		TokensUsed:   tokens,
		ResponseTime: responseTime,
	}
	if _, err := r.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("insert history entry: %v", err)
	}
	return nil
}
