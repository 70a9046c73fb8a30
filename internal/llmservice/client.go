package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"faq-rag/internal/config"
	"faq-rag/internal/models"
)

// ErrGenerate reports a generation backend failure.
var ErrGenerate = errors.New("generation failed")

// Client answers questions against retrieved context through an
// OpenAI-compatible chat endpoint. Constructed once and injected.
type Client struct {
	llm *openai.LLM
}

func NewClient(cfg *config.LLMConfig) (*Client, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("init inference llm: %v", err)
	}
	return &Client{llm: llm}, nil
}

// Generate produces an answer from the question and context and reports the
// total tokens consumed.
func (c *Client) Generate(ctx context.Context, question, contextText string) (string, int, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, models.SystemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, fmt.Sprintf(models.AnswerPromptTemplate, contextText, question)),
	}

	res, err := c.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(0.3),
		llms.WithMaxTokens(500),
	)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrGenerate, err)
	}
	if len(res.Choices) == 0 {
		return "", 0, fmt.Errorf("%w: empty response", ErrGenerate)
	}

	choice := res.Choices[0]
	tokens := totalTokens(choice.GenerationInfo)
	log.Debug().Int("tokens", tokens).Msg("llm response")
	return choice.Content, tokens, nil
}

func totalTokens(info map[string]any) int {
	if t, ok := info["TotalTokens"].(int); ok && t > 0 {
		return t
	}
	total := 0
	if t, ok := info["PromptTokens"].(int); ok {
		total += t
	}
	if t, ok := info["CompletionTokens"].(int); ok {
		total += t
	}
	return total
}
