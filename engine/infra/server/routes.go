package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clausewise/clausewise/engine/chat"
	"github.com/clausewise/clausewise/engine/compliance"
	"github.com/clausewise/clausewise/engine/document"
	"github.com/clausewise/clausewise/pkg/logger"
)

// AnalyzeResponse is the wire shape for POST /analyze.
type AnalyzeResponse struct {
	SessionID string              `json:"session_id"`
	Items     []compliance.Result `json:"items"`
}

// IngestResponse is the wire shape for POST /rag/ingest.
type IngestResponse struct {
	SessionID   string `json:"session_id"`
	ChunksAdded int    `json:"chunks_added"`
}

// ChatRequest is the wire shape for POST /rag/chat.
type ChatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Question  string `json:"question"   binding:"required"`
}

// ChatResponse is the wire shape for POST /rag/chat.
type ChatResponse struct {
	SessionID   string   `json:"session_id"`
	Answer      string   `json:"answer"`
	UsedContext []string `json:"used_context"`
}

// RegisterRoutes wires every endpoint onto the router.
func RegisterRoutes(router *gin.Engine, s *Server) {
	router.GET("/health", s.handleHealth)
	router.POST("/analyze", s.handleAnalyze)
	router.POST("/rag/ingest", s.handleRAGIngest)
	router.POST("/rag/chat", s.handleRAGChat)
	logger.Info("Completed route registration")
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"ollama_model": s.config.Ollama.Model,
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	data, ok := readPDFUpload(c)
	if !ok {
		return
	}
	sid := sessionID(c.Query("session_id"))
	items, err := s.pipeline.AnalyzePDF(c.Request.Context(), data)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Could not parse the uploaded PDF.")
		return
	}
	c.JSON(http.StatusOK, AnalyzeResponse{SessionID: sid, Items: items})
}

func (s *Server) handleRAGIngest(c *gin.Context) {
	data, ok := readPDFUpload(c)
	if !ok {
		return
	}
	sid := sessionID(c.Query("session_id"))
	added, err := s.chat.Ingest(c.Request.Context(), sid, data)
	if err != nil {
		if errors.Is(err, document.ErrParse) {
			respondError(c, http.StatusBadRequest, "Could not parse the uploaded PDF.")
			return
		}
		logger.FromContext(c.Request.Context()).Error("Ingest failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to ingest document.")
		return
	}
	c.JSON(http.StatusOK, IngestResponse{SessionID: sid, ChunksAdded: added})
}

func (s *Server) handleRAGChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "session_id and question are required.")
		return
	}
	answer, err := s.chat.Chat(c.Request.Context(), req.SessionID, req.Question)
	if err != nil {
		if errors.Is(err, chat.ErrNoDocuments) {
			respondError(c, http.StatusBadRequest, "No documents ingested yet. Please upload a PDF first.")
			return
		}
		logger.FromContext(c.Request.Context()).Error("Chat failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to answer question.")
		return
	}
	c.JSON(http.StatusOK, ChatResponse{
		SessionID:   req.SessionID,
		Answer:      answer.Text,
		UsedContext: answer.Context,
	})
}

// readPDFUpload validates and reads the multipart file field. It writes
// the error response itself when validation fails.
func readPDFUpload(c *gin.Context) ([]byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "A PDF file upload is required.")
		return nil, false
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		respondError(c, http.StatusBadRequest, "Please upload a PDF.")
		return nil, false
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Could not read the uploaded file.")
		return nil, false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Could not read the uploaded file.")
		return nil, false
	}
	return data, true
}

func sessionID(requested string) string {
	if strings.TrimSpace(requested) != "" {
		return requested
	}
	return uuid.NewString()
}

func respondError(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}
