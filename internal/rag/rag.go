package rag

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"faq-rag/internal/models"
	"faq-rag/internal/vectorstore"
)

const sourcePreviewRunes = 200

// Generator produces an answer from a question and its retrieved context,
// reporting tokens consumed.
type Generator interface {
	Generate(ctx context.Context, question, contextText string) (answer string, tokens int, err error)
}

// AnswerCache is the best-effort cache the pipeline consumes: failures have
// already been downgraded to misses/no-ops behind this interface.
type AnswerCache interface {
	Get(ctx context.Context, question string) *models.CachedAnswer
	Set(ctx context.Context, question string, answer *models.CachedAnswer)
}

// HistoryRecorder persists resolved answers. Failures do not fail the
// request.
type HistoryRecorder interface {
	Record(ctx context.Context, question, answer string, sources []models.Source, tokens int, responseTime float64) error
}

// RAG is the question-answering pipeline: cache check, retrieval,
// generation, history write, cache write.
type RAG struct {
	retriever *Retriever
	generator Generator
	cache     AnswerCache
	history   HistoryRecorder
	topK      int
}

func New(retriever *Retriever, generator Generator, cache AnswerCache, history HistoryRecorder, topK int) *RAG {
	return &RAG{
		retriever: retriever,
		generator: generator,
		cache:     cache,
		history:   history,
		topK:      topK,
	}
}

// Answer resolves a question. A cache hit costs one lookup and skips
// retrieval and generation entirely. An empty corpus yields the fixed
// no-information bundle without calling the generation backend.
func (r *RAG) Answer(ctx context.Context, question string) (*models.AnswerBundle, error) {
	start := time.Now()

	if hit := r.cache.Get(ctx, question); hit != nil {
		log.Info().Str("question", preview(question, 50)).Msg("cache hit")
		return &models.AnswerBundle{
			Answer:       hit.Answer,
			Sources:      hit.Sources,
			TokensUsed:   hit.TokensUsed,
			ResponseTime: time.Since(start).Seconds(),
			Cached:       true,
		}, nil
	}
	log.Info().Str("question", preview(question, 50)).Msg("cache miss")

	results, err := r.retriever.Retrieve(ctx, question, r.topK)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return &models.AnswerBundle{
			Answer:       models.NoAnswerMessage,
			Sources:      []models.Source{},
			TokensUsed:   0,
			ResponseTime: time.Since(start).Seconds(),
		}, nil
	}

	answer, tokens, err := r.generator.Generate(ctx, question, buildContext(results))
	if err != nil {
		return nil, err
	}

	sources := make([]models.Source, len(results))
	for i, res := range results {
		sources[i] = models.Source{
			Filename:   res.SourceID,
			Content:    preview(res.Text, sourcePreviewRunes) + "...",
			Similarity: math.Round(res.Similarity*1000) / 1000,
		}
	}

	elapsed := time.Since(start).Seconds()

	if r.history != nil {
		if err := r.history.Record(ctx, question, answer, sources, tokens, elapsed); err != nil {
			log.Error().Err(err).Msg("failed to record query history")
		}
	}

	r.cache.Set(ctx, question, &models.CachedAnswer{
		Answer:     answer,
		Sources:    sources,
		TokensUsed: tokens,
	})

	log.Info().Float64("response_time", elapsed).Int("tokens", tokens).Msg("rag pipeline completed")

	return &models.AnswerBundle{
		Answer:       answer,
		Sources:      sources,
		TokensUsed:   tokens,
		ResponseTime: elapsed,
	}, nil
}

// buildContext concatenates fragments in ranked order, each tagged with its
// source identifier.
func buildContext(results []vectorstore.Result) string {
	var b strings.Builder
	for _, res := range results {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", res.SourceID, res.Text)
	}
	return strings.TrimSuffix(b.String(), "\n\n")
}

func preview(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}
