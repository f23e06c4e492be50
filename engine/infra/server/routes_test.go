package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clausewise/clausewise/engine/chat"
	"github.com/clausewise/clausewise/engine/compliance"
	"github.com/clausewise/clausewise/engine/knowledge/chunk"
	"github.com/clausewise/clausewise/engine/knowledge/retriever"
	"github.com/clausewise/clausewise/engine/llm"
	"github.com/clausewise/clausewise/internal/pdftest"
	"github.com/clausewise/clausewise/pkg/config"
)

type stubEmbedder struct{}

func (stubEmbedder) embed(text string) []float32 {
	vector := []float32{0.1, 0.1}
	if strings.Contains(strings.ToLower(text), "encryption") {
		vector[0] = 1
	}
	return vector
}

func (s stubEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = s.embed(text)
	}
	return vectors, nil
}

func (s stubEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return s.embed(text), nil
}

func newTestServer(t *testing.T, client llm.Client) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Server.CORSEnabled = false
	splitter, err := chunk.NewSplitter(chunk.Settings{Size: 500, Overlap: 50})
	require.NoError(t, err)
	ret, err := retriever.NewService(splitter)
	require.NoError(t, err)
	scorer, err := compliance.NewScorer(client, llm.NewSanitizer(1, time.Millisecond))
	require.NoError(t, err)
	pipeline, err := compliance.NewPipeline(ret, scorer, cfg.Analyzer.TopKText, cfg.Analyzer.TopKTable)
	require.NoError(t, err)
	chatService, err := chat.NewService(stubEmbedder{}, client, &cfg.RAG, &cfg.Sessions)
	require.NoError(t, err)
	srv, err := NewServer(cfg, pipeline, chatService)
	require.NoError(t, err)
	return srv
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func errorDetail(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	return payload["detail"]
}

func TestHandleHealth(t *testing.T) {
	t.Run("Should report status and configured model", func(t *testing.T) {
		srv := newTestServer(t, &llm.MockClient{Response: "{}"})
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		srv.Handler().ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
		assert.Equal(t, "ok", payload["status"])
		assert.Equal(t, "deepseek-r1:8b", payload["ollama_model"])
	})
}

func TestHandleAnalyze(t *testing.T) {
	pdfBytes := pdftest.BuildPDF("All data shall be encrypted with AES-256 at rest and in transit.")

	t.Run("Should analyze a PDF and return ordered items", func(t *testing.T) {
		mock := &llm.MockClient{Response: `{
			"compliance_state": "Partially Compliant",
			"confidence": 55,
			"relevant_quotes": ["Section 7"],
			"rationale": "The contract addresses a portion of the stated requirements."
		}`}
		srv := newTestServer(t, mock)
		body, contentType := multipartUpload(t, "contract.pdf", pdfBytes)
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze?session_id=abc", body)
		req.Header.Set("Content-Type", contentType)
		srv.Handler().ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		var payload AnalyzeResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
		assert.Equal(t, "abc", payload.SessionID)
		require.Len(t, payload.Items, len(compliance.Questions))
		for i, item := range payload.Items {
			assert.Equal(t, compliance.Questions[i], item.Question)
		}
	})

	t.Run("Should generate a session ID when none is given", func(t *testing.T) {
		srv := newTestServer(t, &llm.MockClient{Response: `{
			"compliance_state": "Non-Compliant", "confidence": 10,
			"rationale": "Insufficient evidence found for the stated requirement."
		}`})
		body, contentType := multipartUpload(t, "contract.pdf", pdfBytes)
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze", body)
		req.Header.Set("Content-Type", contentType)
		srv.Handler().ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		var payload AnalyzeResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
		assert.NotEmpty(t, payload.SessionID)
	})

	t.Run("Should reject non-PDF filenames", func(t *testing.T) {
		srv := newTestServer(t, &llm.MockClient{Response: "{}"})
		body, contentType := multipartUpload(t, "contract.txt", []byte("text"))
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze", body)
		req.Header.Set("Content-Type", contentType)
		srv.Handler().ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, errorDetail(t, recorder), "PDF")
	})

	t.Run("Should reject requests without a file", func(t *testing.T) {
		srv := newTestServer(t, &llm.MockClient{Response: "{}"})
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
		srv.Handler().ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Should reject unparseable PDF bytes", func(t *testing.T) {
		srv := newTestServer(t, &llm.MockClient{Response: "{}"})
		body, contentType := multipartUpload(t, "contract.pdf", []byte("not a pdf at all"))
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/analyze", body)
		req.Header.Set("Content-Type", contentType)
		srv.Handler().ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, errorDetail(t, recorder), "parse")
	})
}

func TestHandleRAG(t *testing.T) {
	pdfBytes := pdftest.BuildPDF("The vendor encrypts data with AES-256 encryption at rest.")

	ingest := func(t *testing.T, srv *Server, sid string) {
		t.Helper()
		body, contentType := multipartUpload(t, "contract.pdf", pdfBytes)
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/rag/ingest?session_id="+sid, body)
		req.Header.Set("Content-Type", contentType)
		srv.Handler().ServeHTTP(recorder, req)
		require.Equal(t, http.StatusOK, recorder.Code)
	}

	t.Run("Should ingest and report chunk counts", func(t *testing.T) {
		srv := newTestServer(t, &llm.MockClient{Response: "answer"})
		body, contentType := multipartUpload(t, "contract.pdf", pdfBytes)
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/rag/ingest?session_id=abc", body)
		req.Header.Set("Content-Type", contentType)
		srv.Handler().ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		var payload IngestResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
		assert.Equal(t, "abc", payload.SessionID)
		assert.Greater(t, payload.ChunksAdded, 0)
	})

	t.Run("Should reject unparseable PDF bytes on ingest", func(t *testing.T) {
		srv := newTestServer(t, &llm.MockClient{Response: "answer"})
		body, contentType := multipartUpload(t, "contract.pdf", []byte("not a pdf at all"))
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/rag/ingest", body)
		req.Header.Set("Content-Type", contentType)
		srv.Handler().ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, errorDetail(t, recorder), "parse")
	})

	t.Run("Should answer questions after ingest", func(t *testing.T) {
		srv := newTestServer(t, &llm.MockClient{Response: "The data is encrypted with AES-256."})
		ingest(t, srv, "abc")

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/rag/chat",
			strings.NewReader(`{"session_id": "abc", "question": "How is encryption handled?"}`))
		req.Header.Set("Content-Type", "application/json")
		srv.Handler().ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		var payload ChatResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
		assert.Equal(t, "abc", payload.SessionID)
		assert.Equal(t, "The data is encrypted with AES-256.", payload.Answer)
		assert.NotEmpty(t, payload.UsedContext)
	})

	t.Run("Should refuse chat before ingest", func(t *testing.T) {
		srv := newTestServer(t, &llm.MockClient{Response: "answer"})
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/rag/chat",
			strings.NewReader(`{"session_id": "missing", "question": "anything"}`))
		req.Header.Set("Content-Type", "application/json")
		srv.Handler().ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Contains(t, errorDetail(t, recorder), "No documents ingested yet")
	})

	t.Run("Should validate chat request fields", func(t *testing.T) {
		srv := newTestServer(t, &llm.MockClient{Response: "answer"})
		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/rag/chat", strings.NewReader(`{"session_id": "abc"}`))
		req.Header.Set("Content-Type", "application/json")
		srv.Handler().ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("Should answer preflight requests when enabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.Server.CORSEnabled = true
		cfg.Server.CORSOrigins = []string{"http://localhost:8501"}
		srv := newTestServer(t, &llm.MockClient{Response: "{}"})
		srv.config = cfg
		srv.buildRouter()

		recorder := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
		req.Header.Set("Origin", "http://localhost:8501")
		srv.Handler().ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.Equal(t, "http://localhost:8501", recorder.Header().Get("Access-Control-Allow-Origin"))
	})
}
