package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"faq-rag/internal/cache"
	"faq-rag/internal/config"
	"faq-rag/internal/embedding"
	"faq-rag/internal/history"
	"faq-rag/internal/ingest"
	"faq-rag/internal/llmservice"
	"faq-rag/internal/rag"
	"faq-rag/internal/server"
	"faq-rag/internal/vectorstore"
	chromemstore "faq-rag/internal/vectorstore/chromem"
	"faq-rag/internal/vectorstore/memory"
	"faq-rag/internal/vectorstore/pg"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, recorder, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector store")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	strictCache := cache.New(rdb, cfg.Redis.TTL())
	if err := strictCache.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, answer cache degraded to best-effort misses")
	}
	answerCache := cache.NewBestEffort(strictCache)

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	gateway := embedding.NewGateway(embedder)

	generator, err := llmservice.NewClient(&cfg.InferenceLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing inference client")
	}

	ingestor := ingest.New(gateway, store, cfg.RAG.ChunkSize, *cfg.RAG.ChunkOverlap)
	if err := ingestor.LoadDirectory(ctx, cfg.RAG.DocumentsDir); err != nil {
		log.Error().Err(err).Msg("Error loading initial documents")
	}

	var historyRecorder rag.HistoryRecorder
	if recorder != nil {
		historyRecorder = recorder
	}
	pipeline := rag.New(rag.NewRetriever(gateway, store), generator, answerCache, historyRecorder, cfg.RAG.TopK)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: server.New(pipeline, ingestor, store, strictCache).Routes(),
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting FAQ service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing redis client")
	}
}

// buildStore selects the vector-store backend. Query history is only
// available on the pg backend, where the database is already at hand.
func buildStore(ctx context.Context, cfg *config.Config) (vectorstore.Store, *history.Recorder, error) {
	switch cfg.RAG.Store {
	case "memory":
		return memory.New(cfg.RAG.VectorSize), nil, nil
	case "chromem":
		store, err := chromemstore.New(cfg.RAG.ChromemPath, "fragments", cfg.RAG.VectorSize)
		return store, nil, err
	default:
		db, err := pg.Connect(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		store := pg.New(db, cfg.RAG.VectorSize)
		if err := store.Init(ctx); err != nil {
			return nil, nil, err
		}
		recorder := history.NewRecorder(db)
		if err := recorder.Init(ctx); err != nil {
			return nil, nil, err
		}
		return store, recorder, nil
	}
}
