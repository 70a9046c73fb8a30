package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"faq-rag/internal/chunker"
	"faq-rag/internal/embedding"
	"faq-rag/internal/llmservice"
	"faq-rag/internal/vectorstore"
)

const (
	minQuestionRunes = 3
	maxQuestionRunes = 500
	maxUploadBytes   = 10 << 20
)

type questionRequest struct {
	Question string `json:"question"`
}

type uploadResponse struct {
	Filename      string `json:"filename"`
	ChunksCreated int    `json:"chunks_created"`
	Status        string `json:"status"`
}

type healthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Database       string    `json:"database"`
	Redis          string    `json:"redis"`
	DocumentsCount int       `json:"documents_count"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if n := utf8.RuneCountInString(req.Question); n < minQuestionRunes || n > maxQuestionRunes {
		respondError(w, http.StatusBadRequest, "question must be between 3 and 500 characters")
		return
	}

	bundle, err := s.answerer.Answer(r.Context(), req.Question)
	if err != nil {
		log.Error().Err(err).Msg("failed to answer question")
		respondError(w, statusForError(err), "failed to answer question")
		return
	}
	respondJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".txt" && ext != ".md" {
		respondError(w, http.StatusBadRequest, "only .txt and .md files are supported")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	chunks, err := s.ingestor.IngestDocument(r.Context(), header.Filename, string(data))
	if err != nil {
		log.Error().Err(err).Str("file", header.Filename).Msg("failed to ingest document")
		respondError(w, statusForError(err), "failed to ingest document")
		return
	}

	log.Info().Str("file", header.Filename).Int("chunks", chunks).Msg("uploaded document")
	respondJSON(w, http.StatusOK, uploadResponse{
		Filename:      header.Filename,
		ChunksCreated: chunks,
		Status:        "success",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbStatus := "ok"
	if err := s.store.Ping(ctx); err != nil {
		dbStatus = "error"
	}
	redisStatus := "ok"
	if err := s.cache.Ping(ctx); err != nil {
		redisStatus = "error"
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		dbStatus = "error"
	}

	status := "healthy"
	if dbStatus != "ok" || redisStatus != "ok" {
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, healthResponse{
		Status:         status,
		Timestamp:      time.Now(),
		Database:       dbStatus,
		Redis:          redisStatus,
		DocumentsCount: count,
	})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// statusForError maps the pipeline's error kinds to HTTP statuses: bad
// input is the client's fault, backend unavailability is a gateway problem,
// storage failures are internal.
func statusForError(err error) int {
	switch {
	case errors.Is(err, chunker.ErrInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, embedding.ErrEmbed), errors.Is(err, llmservice.ErrGenerate):
		return http.StatusBadGateway
	case errors.Is(err, vectorstore.ErrStorage):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
