package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clausewise/clausewise/engine/chat"
	"github.com/clausewise/clausewise/engine/compliance"
	"github.com/clausewise/clausewise/pkg/config"
	"github.com/clausewise/clausewise/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Server hosts the analyze and chat endpoints.
type Server struct {
	config   *config.Config
	pipeline *compliance.Pipeline
	chat     *chat.Service
	router   *gin.Engine
}

func NewServer(cfg *config.Config, pipeline *compliance.Pipeline, chatService *chat.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server: config is required")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("server: compliance pipeline is required")
	}
	if chatService == nil {
		return nil, fmt.Errorf("server: chat service is required")
	}
	s := &Server{config: cfg, pipeline: pipeline, chat: chatService}
	s.buildRouter()
	return s, nil
}

func (s *Server) buildRouter() {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(logger.GetDefault()))
	if s.config.Server.CORSEnabled {
		r.Use(CORSMiddleware(s.config.Server.CORSOrigins))
	}
	RegisterRoutes(r, s)
	s.router = r
}

// Handler exposes the router, used directly by handler tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	logger.Info("Starting HTTP server", "address", fmt.Sprintf("http://%s", addr))
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		// Analysis latency is the sum of five sequential model calls, so
		// the write timeout must exceed five model timeouts.
		WriteTimeout: 5*s.config.Ollama.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	case <-quit:
	case <-ctx.Done():
	}
	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
