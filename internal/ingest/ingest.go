package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"faq-rag/internal/chunker"
	"faq-rag/internal/vectorstore"
)

// Embedder is the embedding gateway the ingestor consumes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Ingestor turns raw document text into stored fragments: chunk, embed,
// then one atomic batch insert. A failure anywhere leaves the store without
// any fragment of the document.
type Ingestor struct {
	embedder     Embedder
	store        vectorstore.Store
	chunkSize    int
	chunkOverlap int
}

func New(embedder Embedder, store vectorstore.Store, chunkSize, chunkOverlap int) *Ingestor {
	return &Ingestor{
		embedder:     embedder,
		store:        store,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// IngestDocument stores one document and reports how many chunks it
// produced. Embedding happens before any insert, so an embedding failure
// needs no rollback; the batch insert itself is all-or-nothing.
func (i *Ingestor) IngestDocument(ctx context.Context, sourceID, text string) (int, error) {
	chunks, err := chunker.Chunk(text, i.chunkSize, i.chunkOverlap)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		log.Info().Str("source", sourceID).Msg("no chunks produced, nothing to ingest")
		return 0, nil
	}

	frags := make([]vectorstore.Fragment, len(chunks))
	for idx, chunk := range chunks {
		vec, err := i.embedder.Embed(ctx, chunk)
		if err != nil {
			return 0, err
		}
		frags[idx] = vectorstore.Fragment{
			SourceID:      sourceID,
			SequenceIndex: idx,
			Text:          chunk,
			Vector:        vec,
			CreatedAt:     time.Now(),
		}
	}

	if err := i.store.InsertBatch(ctx, frags); err != nil {
		return 0, err
	}

	log.Info().Str("source", sourceID).Int("chunks", len(chunks)).Msg("ingested document")
	return len(chunks), nil
}

// LoadDirectory ingests every .txt and .md file under dir at startup. It
// skips loading entirely when the store already holds fragments, and skips
// (with a log line) individual files that fail.
func (i *Ingestor) LoadDirectory(ctx context.Context, dir string) error {
	count, err := i.store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Info().Int("fragments", count).Msg("documents already loaded, skipping")
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("dir", dir).Msg("documents folder not found")
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Error().Err(err).Str("file", entry.Name()).Msg("failed to read document")
			continue
		}
		if _, err := i.IngestDocument(ctx, entry.Name(), string(data)); err != nil {
			log.Error().Err(err).Str("file", entry.Name()).Msg("failed to ingest document")
		}
	}
	return nil
}
