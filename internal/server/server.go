package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"faq-rag/internal/models"
	"faq-rag/internal/vectorstore"
)

// Answerer resolves questions into answer bundles.
type Answerer interface {
	Answer(ctx context.Context, question string) (*models.AnswerBundle, error)
}

// Ingestor stores uploaded documents.
type Ingestor interface {
	IngestDocument(ctx context.Context, sourceID, text string) (int, error)
}

// Pinger is a health-checkable dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the question-answering pipeline over HTTP.
type Server struct {
	answerer Answerer
	ingestor Ingestor
	store    vectorstore.Store
	cache    Pinger
}

func New(answerer Answerer, ingestor Ingestor, store vectorstore.Store, cache Pinger) *Server {
	return &Server{
		answerer: answerer,
		ingestor: ingestor,
		store:    store,
		cache:    cache,
	}
}

// Routes assembles the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/ask", s.handleAsk)
		r.Post("/documents", s.handleUploadDocument)
		r.Get("/health", s.handleHealth)
	})
	return r
}

// requestID tags each request with a uuid for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		log.Debug().Str("request_id", id).Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
