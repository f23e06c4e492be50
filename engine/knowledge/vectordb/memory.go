package vectordb

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// memoryStore keeps embeddings in process memory for the lifetime of a
// chat session. The dimension is fixed by the first upsert.
type memoryStore struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]Record
}

// NewMemoryStore creates an empty in-memory cosine-similarity store.
func NewMemoryStore() Store {
	return &memoryStore{records: make(map[string]Record)}
}

func (s *memoryStore) Upsert(_ context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range records {
		rec := records[i]
		if len(rec.Embedding) == 0 {
			return fmt.Errorf("memory: record %q has an empty embedding", rec.ID)
		}
		if s.dimension == 0 {
			s.dimension = len(rec.Embedding)
		}
		if len(rec.Embedding) != s.dimension {
			return fmt.Errorf(
				"memory: record %q dimension mismatch (got %d want %d)",
				rec.ID,
				len(rec.Embedding),
				s.dimension,
			)
		}
		s.records[rec.ID] = Record{
			ID:        rec.ID,
			Text:      rec.Text,
			Embedding: append([]float32(nil), rec.Embedding...),
		}
	}
	return nil
}

func (s *memoryStore) Search(_ context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dimension > 0 && len(query) != s.dimension {
		return nil, fmt.Errorf("memory: query dimension mismatch (got %d want %d)", len(query), s.dimension)
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	candidates := make([]Match, 0, len(s.records))
	for _, rec := range s.records {
		score := cosineSimilarity(rec.Embedding, query)
		if score < opts.MinScore {
			continue
		}
		candidates = append(candidates, Match{ID: rec.ID, Score: score, Text: rec.Text})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score == candidates[j].Score {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

func (s *memoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
