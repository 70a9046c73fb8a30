package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"faq-rag/internal/config"
)

// ErrEmbed reports an embedding backend failure.
var ErrEmbed = errors.New("embedding failed")

// NewEmbedder builds the langchaingo embedder for the configured provider.
func NewEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	switch cfg.Provider {
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("init ollama embedder: %v", err)
		}
		return embeddings.NewEmbedder(llm)
	default:
		llm, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
			openai.WithEmbeddingModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("init openai embedder: %v", err)
		}
		return embeddings.NewEmbedder(llm)
	}
}

// Gateway adapts the langchaingo embedder to the pipeline's embed contract,
// mapping failures to ErrEmbed.
type Gateway struct {
	embedder *embeddings.EmbedderImpl
}

func NewGateway(embedder *embeddings.EmbedderImpl) *Gateway {
	return &Gateway{embedder: embedder}
}

func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := g.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbed, err)
	}
	return vec, nil
}
