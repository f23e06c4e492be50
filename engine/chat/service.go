package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/clausewise/clausewise/engine/document"
	"github.com/clausewise/clausewise/engine/knowledge/chunk"
	"github.com/clausewise/clausewise/engine/knowledge/embedder"
	"github.com/clausewise/clausewise/engine/knowledge/vectordb"
	"github.com/clausewise/clausewise/engine/llm"
	"github.com/clausewise/clausewise/pkg/config"
	"github.com/clausewise/clausewise/pkg/logger"
)

// ErrNoDocuments indicates a chat request arrived before any ingest.
var ErrNoDocuments = errors.New("chat: no documents ingested for session")

const usedContextLimit = 3

const answerPromptTemplate = "Answer based ONLY on this context:\n\n%s\n\nQuestion: %s"

// Answer carries the model's reply and the context snippets used.
type Answer struct {
	Text    string
	Context []string
}

// session holds one uploaded document's vectors. A later ingest replaces
// the store wholesale.
type session struct {
	store vectordb.Store
}

// Service implements retrieval-augmented chat over uploaded documents.
// Sessions live in a bounded LRU with TTL expiry rather than an
// unbounded map.
type Service struct {
	embedder    embedder.Embedder
	client      llm.Client
	splitter    *chunk.Splitter
	similarityK int
	sessions    *expirable.LRU[string, *session]
}

func NewService(
	emb embedder.Embedder,
	client llm.Client,
	ragCfg *config.RAGConfig,
	sessionCfg *config.SessionConfig,
) (*Service, error) {
	if emb == nil {
		return nil, errors.New("chat: embedder is required")
	}
	if client == nil {
		return nil, errors.New("chat: llm client is required")
	}
	if ragCfg == nil || sessionCfg == nil {
		return nil, errors.New("chat: configuration is required")
	}
	splitter, err := chunk.NewSplitter(chunk.Settings{Size: ragCfg.ChunkSize, Overlap: ragCfg.ChunkOverlap})
	if err != nil {
		return nil, err
	}
	return &Service{
		embedder:    emb,
		client:      client,
		splitter:    splitter,
		similarityK: ragCfg.SimilarityK,
		sessions:    expirable.NewLRU[string, *session](sessionCfg.MaxEntries, nil, sessionCfg.TTL),
	}, nil
}

// Ingest splits an uploaded PDF into chunks, embeds them, and replaces
// the session's vector store. Returns the number of chunks added.
func (s *Service) Ingest(ctx context.Context, sessionID string, pdfBytes []byte) (int, error) {
	log := logger.FromContext(ctx).With("session_id", sessionID)
	blocks, err := document.Load(pdfBytes)
	if err != nil {
		return 0, err
	}
	text := joinNarrative(blocks)
	chunks, err := s.splitter.Split([]string{text})
	if err != nil {
		return 0, err
	}
	store := vectordb.NewMemoryStore()
	if len(chunks) > 0 {
		vectors, err := s.embedder.EmbedDocuments(ctx, chunks)
		if err != nil {
			return 0, err
		}
		if len(vectors) != len(chunks) {
			return 0, fmt.Errorf("chat: embedded %d vectors for %d chunks", len(vectors), len(chunks))
		}
		records := make([]vectordb.Record, len(chunks))
		for i := range chunks {
			records[i] = vectordb.Record{
				ID:        fmt.Sprintf("chunk-%d", i),
				Text:      chunks[i],
				Embedding: vectors[i],
			}
		}
		if err := store.Upsert(ctx, records); err != nil {
			return 0, err
		}
	}
	s.sessions.Add(sessionID, &session{store: store})
	log.Info("Document ingested for chat", "chunks", len(chunks))
	return len(chunks), nil
}

// HasDocuments reports whether the session holds at least one chunk.
func (s *Service) HasDocuments(sessionID string) bool {
	sess, ok := s.sessions.Get(sessionID)
	return ok && sess.store.Count() > 0
}

// Chat answers a question from the session's document via similarity
// search and a single context-stuffed prompt.
func (s *Service) Chat(ctx context.Context, sessionID, question string) (*Answer, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok || sess.store.Count() == 0 {
		return nil, ErrNoDocuments
	}
	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}
	matches, err := sess.store.Search(ctx, vector, vectordb.SearchOptions{TopK: s.similarityK})
	if err != nil {
		return nil, err
	}
	snippets := make([]string, len(matches))
	for i, match := range matches {
		snippets[i] = match.Text
	}
	prompt := fmt.Sprintf(answerPromptTemplate, strings.Join(snippets, "\n\n"), question)
	raw, err := s.client.Chat(ctx, "", prompt)
	if err != nil {
		return nil, err
	}
	used := snippets
	if len(used) > usedContextLimit {
		used = used[:usedContextLimit]
	}
	return &Answer{Text: llm.StripReasoning(raw), Context: used}, nil
}

func joinNarrative(blocks []document.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if block.Kind != document.KindPage {
			continue
		}
		parts = append(parts, block.Content)
	}
	return strings.Join(parts, "\n")
}
