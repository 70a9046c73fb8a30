package cache

import (
	"context"

	"github.com/rs/zerolog/log"

	"faq-rag/internal/models"
)

// Strict is the erroring get/set contract BestEffort wraps.
type Strict interface {
	Get(ctx context.Context, question string) (*models.CachedAnswer, error)
	Set(ctx context.Context, question string, answer *models.CachedAnswer) error
}

// BestEffort downgrades every cache failure to a miss or no-op and logs it.
// The cache is an optimization, never a correctness dependency.
type BestEffort struct {
	inner Strict
}

func NewBestEffort(inner Strict) *BestEffort {
	return &BestEffort{inner: inner}
}

func (b *BestEffort) Get(ctx context.Context, question string) *models.CachedAnswer {
	answer, err := b.inner.Get(ctx, question)
	if err != nil {
		log.Warn().Err(err).Msg("cache get failed, treating as miss")
		return nil
	}
	return answer
}

func (b *BestEffort) Set(ctx context.Context, question string, answer *models.CachedAnswer) {
	if err := b.inner.Set(ctx, question, answer); err != nil {
		log.Warn().Err(err).Msg("cache set failed, skipping")
	}
}
