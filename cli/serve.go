package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/clausewise/clausewise/engine/chat"
	"github.com/clausewise/clausewise/engine/compliance"
	"github.com/clausewise/clausewise/engine/infra/server"
	"github.com/clausewise/clausewise/engine/knowledge/chunk"
	"github.com/clausewise/clausewise/engine/knowledge/embedder"
	"github.com/clausewise/clausewise/engine/knowledge/retriever"
	"github.com/clausewise/clausewise/engine/llm"
	"github.com/clausewise/clausewise/pkg/config"
	"github.com/clausewise/clausewise/pkg/logger"
)

// ServeCmd starts the HTTP server.
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the analyzer HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if envFile, err := cmd.Flags().GetString("env-file"); err == nil && envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("load env file %q: %w", envFile, err)
				}
			}
			cfg, err := config.NewLoader().Load(cmd.Context())
			if err != nil {
				return err
			}
			srv, err := buildServer(cfg)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}
}

func buildServer(cfg *config.Config) (*server.Server, error) {
	splitter, err := chunk.NewSplitter(chunk.Settings{
		Size:    cfg.Analyzer.ChunkSize,
		Overlap: cfg.Analyzer.ChunkOverlap,
	})
	if err != nil {
		return nil, err
	}
	retrieverService, err := retriever.NewService(splitter)
	if err != nil {
		return nil, err
	}
	client := llm.NewOllamaClient(&cfg.Ollama)
	sanitizer := llm.NewSanitizer(cfg.Analyzer.ParseAttempts, cfg.Analyzer.ParseDelay)
	scorer, err := compliance.NewScorer(client, sanitizer)
	if err != nil {
		return nil, err
	}
	pipeline, err := compliance.NewPipeline(retrieverService, scorer, cfg.Analyzer.TopKText, cfg.Analyzer.TopKTable)
	if err != nil {
		return nil, err
	}
	embedderAdapter, err := embedder.New(&cfg.Ollama)
	if err != nil {
		return nil, err
	}
	chatService, err := chat.NewService(embedderAdapter, client, &cfg.RAG, &cfg.Sessions)
	if err != nil {
		return nil, err
	}
	logger.Info("Server dependencies ready", "model", cfg.Ollama.Model, "base_url", cfg.Ollama.BaseURL)
	return server.NewServer(cfg, pipeline, chatService)
}
