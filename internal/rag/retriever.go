package rag

import (
	"context"

	"faq-rag/internal/vectorstore"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever embeds a question once and delegates ranking to the vector
// store. An empty corpus yields an empty result, which is a valid "no
// knowledge" state, not an error.
type Retriever struct {
	embedder Embedder
	store    vectorstore.Store
}

func NewRetriever(embedder Embedder, store vectorstore.Store) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]vectorstore.Result, error) {
	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}
	return r.store.Nearest(ctx, vec, topK)
}
