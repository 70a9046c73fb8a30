package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"faq-rag/internal/cache"
	"faq-rag/internal/config"
	"faq-rag/internal/embedding"
	"faq-rag/internal/eval"
	"faq-rag/internal/llmservice"
	"faq-rag/internal/rag"
	"faq-rag/internal/vectorstore"
	chromemstore "faq-rag/internal/vectorstore/chromem"
	"faq-rag/internal/vectorstore/memory"
	"faq-rag/internal/vectorstore/pg"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	configPath := flag.String("config", "./configs/config.yaml", "Path to the config file")
	casesPath := flag.String("cases", "./configs/eval.yaml", "Path to the evaluation question set")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	cases, err := eval.LoadCases(*casesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading evaluation cases")
	}
	if len(cases) == 0 {
		log.Fatal().Str("path", *casesPath).Msg("Evaluation question set is empty")
	}

	ctx := context.Background()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector store")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	answerCache := cache.NewBestEffort(cache.New(rdb, cfg.Redis.TTL()))

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	gateway := embedding.NewGateway(embedder)

	generator, err := llmservice.NewClient(&cfg.InferenceLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing inference client")
	}

	pipeline := rag.New(rag.NewRetriever(gateway, store), generator, answerCache, nil, cfg.RAG.TopK)

	report := eval.New(pipeline, cases).Run(ctx)
	report.Print()

	if report.Failed > 0 {
		os.Exit(1)
	}
}

// buildStore mirrors the server's backend selection, minus query history:
// evaluation runs must not pollute the history table.
func buildStore(ctx context.Context, cfg *config.Config) (vectorstore.Store, error) {
	switch cfg.RAG.Store {
	case "memory":
		return memory.New(cfg.RAG.VectorSize), nil
	case "chromem":
		return chromemstore.New(cfg.RAG.ChromemPath, "fragments", cfg.RAG.VectorSize)
	default:
		db, err := pg.Connect(&cfg.Database)
		if err != nil {
			return nil, err
		}
		store := pg.New(db, cfg.RAG.VectorSize)
		if err := store.Init(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
}
