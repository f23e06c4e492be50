package compliance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clausewise/clausewise/engine/document"
	"github.com/clausewise/clausewise/engine/knowledge/retriever"
	"github.com/clausewise/clausewise/pkg/logger"
)

// Pipeline runs the fixed question list over one document's text blocks.
// Questions are scored strictly sequentially; total latency is the sum of
// the per-question model round-trips.
type Pipeline struct {
	retriever *retriever.Service
	scorer    *Scorer
	topKText  int
	topKTable int
}

func NewPipeline(ret *retriever.Service, scorer *Scorer, topKText, topKTable int) (*Pipeline, error) {
	if ret == nil {
		return nil, fmt.Errorf("compliance: pipeline retriever is required")
	}
	if scorer == nil {
		return nil, fmt.Errorf("compliance: pipeline scorer is required")
	}
	if topKText <= 0 || topKTable <= 0 {
		return nil, fmt.Errorf("compliance: top-k values must be greater than zero")
	}
	return &Pipeline{retriever: ret, scorer: scorer, topKText: topKText, topKTable: topKTable}, nil
}

// AnalyzePDF extracts text blocks from raw PDF bytes and scores every
// question. The only hard failure is an unparseable document; per-question
// failures degrade to fallback results.
func (p *Pipeline) AnalyzePDF(ctx context.Context, data []byte) ([]Result, error) {
	blocks, err := document.Load(data)
	if err != nil {
		return nil, err
	}
	return p.Analyze(ctx, blocks), nil
}

// Analyze scores the fixed question list in order and always returns
// exactly one result per question.
func (p *Pipeline) Analyze(ctx context.Context, blocks []document.Block) []Result {
	log := logger.FromContext(ctx)
	start := time.Now()
	// The first retrieval pass ranks every block, pages and tables alike;
	// the second pass ranks tables alone so dense rows cannot be drowned
	// out by narrative text.
	all := make([]string, 0, len(blocks))
	tables := make([]string, 0)
	for _, block := range blocks {
		all = append(all, block.Content)
		if block.Kind == document.KindTable {
			tables = append(tables, block.Content)
		}
	}
	log.Info("Compliance analysis started", "blocks", len(all), "table_blocks", len(tables))
	results := make([]Result, 0, len(Questions))
	for _, question := range Questions {
		results = append(results, p.scoreQuestion(ctx, question, all, tables))
	}
	log.Info("Compliance analysis finished", "results", len(results), "duration_seconds", time.Since(start).Seconds())
	return results
}

func (p *Pipeline) scoreQuestion(ctx context.Context, question string, all, tables []string) Result {
	keywords := KeywordsFor(question)
	textChunks, err := p.retriever.TopK(all, keywords, p.topKText)
	if err != nil {
		return FallbackResult(question, err)
	}
	var tableChunks []string
	if len(tables) > 0 {
		tableChunks, err = p.retriever.TopK(tables, keywords, p.topKTable)
		if err != nil {
			return FallbackResult(question, err)
		}
	}
	evidence := assembleContext(textChunks, tableChunks)
	return p.scorer.Score(ctx, question, evidence)
}

// assembleContext joins narrative chunks and table chunks not already
// present among them, separated by blank lines.
func assembleContext(textChunks, tableChunks []string) string {
	seen := make(map[string]struct{}, len(textChunks))
	combined := make([]string, 0, len(textChunks)+len(tableChunks))
	for _, chunk := range textChunks {
		seen[chunk] = struct{}{}
		combined = append(combined, chunk)
	}
	for _, chunk := range tableChunks {
		if _, dup := seen[chunk]; dup {
			continue
		}
		combined = append(combined, chunk)
	}
	return strings.Join(combined, "\n\n")
}
