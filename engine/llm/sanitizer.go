package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/sethvargo/go-retry"
	"github.com/tidwall/gjson"
)

var (
	thinkPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)
	fencePattern = regexp.MustCompile("```(?:json)?")
)

// StripWrappers removes <think>...</think> spans and code-fence markers,
// then trims surrounding whitespace. Empty input is returned unchanged.
func StripWrappers(raw string) string {
	if raw == "" {
		return raw
	}
	cleaned := thinkPattern.ReplaceAllString(raw, "")
	cleaned = fencePattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// StripReasoning removes <think> spans plus trailing whitespace from a
// single value, used to clean quote and rationale fields.
func StripReasoning(value string) string {
	return strings.TrimSpace(thinkPattern.ReplaceAllString(value, ""))
}

// Sanitizer repairs model output into a parseable JSON object.
type Sanitizer struct {
	attempts int
	delay    time.Duration
}

// NewSanitizer builds a sanitizer; attempts is the total attempt count
// including the first try.
func NewSanitizer(attempts int, delay time.Duration) *Sanitizer {
	if attempts < 1 {
		attempts = 1
	}
	if delay <= 0 {
		// retry.NewConstant rejects non-positive intervals.
		delay = time.Millisecond
	}
	return &Sanitizer{attempts: attempts, delay: delay}
}

// ExtractJSON strips wrappers, locates the outermost brace-delimited
// object, repairs it, and verifies the repaired text parses. The whole
// sequence is retried with a fixed delay; the final error propagates.
func (s *Sanitizer) ExtractJSON(ctx context.Context, raw string) (string, error) {
	backoff := retry.WithMaxRetries(uint64(s.attempts-1), retry.NewConstant(s.delay)) //nolint:gosec // attempts >= 1
	var repaired string
	err := retry.Do(ctx, backoff, func(_ context.Context) error {
		result, attemptErr := s.extractOnce(raw)
		if attemptErr != nil {
			return retry.RetryableError(attemptErr)
		}
		repaired = result
		return nil
	})
	if err != nil {
		return "", err
	}
	return repaired, nil
}

func (s *Sanitizer) extractOnce(raw string) (string, error) {
	cleaned := StripWrappers(raw)
	first := strings.IndexByte(cleaned, '{')
	last := strings.LastIndexByte(cleaned, '}')
	if first < 0 || last < first {
		return "", ErrNoJSONFound
	}
	candidate := cleaned[first : last+1]
	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return "", fmt.Errorf("llm: repair JSON: %w", err)
	}
	if !gjson.Valid(repaired) {
		return "", fmt.Errorf("llm: repaired text is not valid JSON")
	}
	return repaired, nil
}
