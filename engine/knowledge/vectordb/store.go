package vectordb

import "context"

const defaultTopK = 4

// Record is a chunk persisted to the vector store.
type Record struct {
	ID        string
	Text      string
	Embedding []float32
}

// Match is a similarity search result.
type Match struct {
	ID    string
	Score float64
	Text  string
}

// SearchOptions controls similarity search execution.
type SearchOptions struct {
	TopK     int
	MinScore float64
}

// Store exposes the minimal contract for ingestion and retrieval.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error)
	Count() int
}
