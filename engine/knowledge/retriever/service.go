package retriever

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/clausewise/clausewise/engine/knowledge/chunk"
)

// Service ranks document chunks against keyword queries with a TF-IDF
// index rebuilt from scratch on every call. Ranking is stateless and
// deterministic: identical inputs yield identical output.
type Service struct {
	splitter *chunk.Splitter
}

func NewService(splitter *chunk.Splitter) (*Service, error) {
	if splitter == nil {
		return nil, errors.New("retriever: splitter is required")
	}
	return &Service{splitter: splitter}, nil
}

// TopK splits the texts into overlapping chunks, ranks them against the
// space-joined keyword query, and returns the text of the K highest
// scoring chunks. Ties keep the chunks' natural order.
func (s *Service) TopK(texts []string, keywords []string, k int) ([]string, error) {
	if len(texts) == 0 || k <= 0 {
		return nil, nil
	}
	chunks, err := s.splitter.Split(texts)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}
	index := buildIndex(chunks)
	query := strings.Join(keywords, " ")
	scored := index.score(query)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	out := make([]string, len(scored))
	for i, sc := range scored {
		out[i] = chunks[sc.chunk]
	}
	return out, nil
}

type scoredChunk struct {
	chunk int
	score float64
}

// tfidfIndex holds term frequencies per chunk plus smoothed inverse
// document frequencies over the chunk corpus.
type tfidfIndex struct {
	termFreqs []map[string]int
	docFreq   map[string]int
	norms     []float64
	total     int
}

func buildIndex(chunks []string) *tfidfIndex {
	index := &tfidfIndex{
		termFreqs: make([]map[string]int, len(chunks)),
		docFreq:   make(map[string]int),
		norms:     make([]float64, len(chunks)),
		total:     len(chunks),
	}
	for i, text := range chunks {
		freqs := termFrequencies(text)
		index.termFreqs[i] = freqs
		for term := range freqs {
			index.docFreq[term]++
		}
	}
	for i, freqs := range index.termFreqs {
		sum := 0.0
		for term, count := range freqs {
			weight := float64(count) * index.idf(term)
			sum += weight * weight
		}
		index.norms[i] = math.Sqrt(sum)
	}
	return index
}

// score computes cosine similarity between the query's TF-IDF vector and
// each chunk's vector.
func (x *tfidfIndex) score(query string) []scoredChunk {
	queryFreqs := termFrequencies(query)
	queryNorm := 0.0
	for term, count := range queryFreqs {
		weight := float64(count) * x.idf(term)
		queryNorm += weight * weight
	}
	queryNorm = math.Sqrt(queryNorm)
	out := make([]scoredChunk, x.total)
	for i := range x.termFreqs {
		dot := 0.0
		for term, qCount := range queryFreqs {
			cCount, ok := x.termFreqs[i][term]
			if !ok {
				continue
			}
			idf := x.idf(term)
			dot += float64(qCount) * idf * float64(cCount) * idf
		}
		score := 0.0
		if denominator := queryNorm * x.norms[i]; denominator > 0 {
			score = dot / denominator
		}
		out[i] = scoredChunk{chunk: i, score: score}
	}
	return out
}

// idf uses the smoothed formulation log((1+N)/(1+df))+1 so terms absent
// from the corpus still contribute a finite weight.
func (x *tfidfIndex) idf(term string) float64 {
	df := x.docFreq[term]
	return math.Log(float64(1+x.total)/float64(1+df)) + 1
}

func termFrequencies(text string) map[string]int {
	freqs := make(map[string]int)
	for _, token := range tokenize(text) {
		freqs[token]++
	}
	return freqs
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		token := strings.Trim(field, "-")
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}
