package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faq-rag/internal/embedding"
	"faq-rag/internal/models"
	"faq-rag/internal/vectorstore/memory"
)

type stubAnswerer struct {
	bundle *models.AnswerBundle
	err    error
}

func (s *stubAnswerer) Answer(context.Context, string) (*models.AnswerBundle, error) {
	return s.bundle, s.err
}

type stubIngestor struct {
	chunks int
	err    error
	lastID string
}

func (s *stubIngestor) IngestDocument(_ context.Context, sourceID, _ string) (int, error) {
	s.lastID = sourceID
	return s.chunks, s.err
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type failPinger struct{}

func (failPinger) Ping(context.Context) error { return fmt.Errorf("down") }

func newTestServer(answerer Answerer, ingestor Ingestor, cache Pinger) http.Handler {
	return New(answerer, ingestor, memory.New(2), cache).Routes()
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAskReturnsBundle(t *testing.T) {
	answerer := &stubAnswerer{bundle: &models.AnswerBundle{
		Answer:     "From the dashboard.",
		Sources:    []models.Source{{Filename: "guide.txt", Content: "...", Similarity: 0.9}},
		TokensUsed: 42,
	}}
	h := newTestServer(answerer, &stubIngestor{}, okPinger{})

	rec := postJSON(t, h, "/api/ask", `{"question":"How do I create a task?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var bundle models.AnswerBundle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bundle))
	assert.Equal(t, "From the dashboard.", bundle.Answer)
	assert.Equal(t, 42, bundle.TokensUsed)
}

func TestAskValidatesQuestionLength(t *testing.T) {
	h := newTestServer(&stubAnswerer{}, &stubIngestor{}, okPinger{})

	rec := postJSON(t, h, "/api/ask", `{"question":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	long := strings.Repeat("x", 501)
	rec = postJSON(t, h, "/api/ask", fmt.Sprintf(`{"question":%q}`, long))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskRejectsMalformedBody(t *testing.T) {
	h := newTestServer(&stubAnswerer{}, &stubIngestor{}, okPinger{})
	rec := postJSON(t, h, "/api/ask", `{"question":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskMapsBackendFailures(t *testing.T) {
	answerer := &stubAnswerer{err: fmt.Errorf("%w: boom", embedding.ErrEmbed)}
	h := newTestServer(answerer, &stubIngestor{}, okPinger{})

	rec := postJSON(t, h, "/api/ask", `{"question":"what about this?"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadDocument(t *testing.T) {
	ingestor := &stubIngestor{chunks: 4}
	h := newTestServer(&stubAnswerer{}, ingestor, okPinger{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "manual.txt", "Some documentation."))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "manual.txt", resp.Filename)
	assert.Equal(t, 4, resp.ChunksCreated)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "manual.txt", ingestor.lastID)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	h := newTestServer(&stubAnswerer{}, &stubIngestor{}, okPinger{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "report.pdf", "binary"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthHealthy(t *testing.T) {
	h := newTestServer(&stubAnswerer{}, &stubIngestor{}, okPinger{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "ok", resp.Database)
	assert.Equal(t, "ok", resp.Redis)
	assert.Zero(t, resp.DocumentsCount)
}

func TestHealthDegradedWhenRedisDown(t *testing.T) {
	h := newTestServer(&stubAnswerer{}, &stubIngestor{}, failPinger{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "error", resp.Redis)
}
