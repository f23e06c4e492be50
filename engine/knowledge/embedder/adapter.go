package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/clausewise/clausewise/pkg/config"
)

const embedCacheSize = 1024

// Embedder turns texts into vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Adapter wraps a langchaingo embedder and caches query vectors so
// repeated chat questions skip the embedding round-trip.
type Adapter struct {
	impl    embeddings.Embedder
	model   string
	cacheMu sync.Mutex
	cache   *lru.Cache[string, []float32]
}

// New constructs an Ollama-backed embedder adapter.
func New(cfg *config.OllamaConfig) (*Adapter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("embedder: config is required")
	}
	llm, err := ollama.New(
		ollama.WithModel(cfg.Model),
		ollama.WithServerURL(cfg.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("embedder: create ollama client: %w", err)
	}
	impl, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("embedder: create embedder: %w", err)
	}
	cache, err := lru.New[string, []float32](embedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("embedder: create cache: %w", err)
	}
	return &Adapter{impl: impl, model: cfg.Model, cache: cache}, nil
}

func (a *Adapter) Model() string {
	return a.model
}

func (a *Adapter) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := a.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedder: embed %d documents with %s: %w", len(texts), a.model, err)
	}
	return vectors, nil
}

func (a *Adapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(a.model, text)
	a.cacheMu.Lock()
	if vector, ok := a.cache.Get(key); ok {
		a.cacheMu.Unlock()
		return append([]float32(nil), vector...), nil
	}
	a.cacheMu.Unlock()
	vector, err := a.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedder: embed query with %s: %w", a.model, err)
	}
	a.cacheMu.Lock()
	a.cache.Add(key, append([]float32(nil), vector...))
	a.cacheMu.Unlock()
	return vector, nil
}

func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "::" + text))
	return hex.EncodeToString(sum[:16])
}
