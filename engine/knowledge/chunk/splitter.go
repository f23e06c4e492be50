package chunk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// Settings configures fixed-size overlapping splitting. Size and overlap
// are process-wide configuration, never varied per call.
type Settings struct {
	Size    int
	Overlap int
}

// Splitter produces overlapping chunks from source texts.
type Splitter struct {
	settings Settings
}

// NewSplitter builds a splitter with validated settings.
func NewSplitter(settings Settings) (*Splitter, error) {
	if settings.Size <= 0 {
		return nil, errors.New("chunk: size must be greater than zero")
	}
	if settings.Overlap < 0 {
		return nil, errors.New("chunk: overlap cannot be negative")
	}
	if settings.Overlap >= settings.Size {
		return nil, fmt.Errorf("chunk: overlap %d must be smaller than size %d", settings.Overlap, settings.Size)
	}
	return &Splitter{settings: settings}, nil
}

// Split cuts every source text into deterministic overlapping chunks,
// preserving source order. Empty sources and empty chunks are dropped.
func (s *Splitter) Split(texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.settings.Size),
		textsplitter.WithChunkOverlap(s.settings.Overlap),
	)
	chunks := make([]string, 0, len(texts))
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		segments, err := splitter.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("chunk: split text: %w", err)
		}
		for _, segment := range segments {
			trimmed := strings.TrimSpace(segment)
			if trimmed == "" {
				continue
			}
			chunks = append(chunks, trimmed)
		}
	}
	return chunks, nil
}
