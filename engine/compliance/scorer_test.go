package compliance

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/clausewise/clausewise/engine/llm"
)

func newTestScorer(t *testing.T, client llm.Client) *Scorer {
	t.Helper()
	scorer, err := NewScorer(client, llm.NewSanitizer(3, time.Millisecond))
	require.NoError(t, err)
	return scorer
}

func TestScorer(t *testing.T) {
	question := "Password Management"
	evidence := "Passwords must be at least 12 characters, stored with salted hashing, lockout after 5 attempts."

	t.Run("Should never invoke the model for empty context", func(t *testing.T) {
		mock := &llm.MockClient{Response: `{"compliance_state": "Fully Compliant", "confidence": 95}`}
		scorer := newTestScorer(t, mock)
		for _, blank := range []string{"", "   ", "\n\t "} {
			result := scorer.Score(context.Background(), question, blank)
			assert.Equal(t, NonCompliant, result.State)
			assert.Equal(t, 0, result.Confidence)
			assert.Empty(t, result.RelevantQuotes)
			assert.Equal(t, "No relevant evidence found in extracted context.", result.Rationale)
		}
		assert.Equal(t, 0, mock.Calls)
	})

	t.Run("Should apply the policy over the model's claimed state", func(t *testing.T) {
		mock := &llm.MockClient{Response: `{
			"compliance_state": "Fully Compliant",
			"confidence": 57,
			"relevant_quotes": ["Section 6.6 (password standards)"],
			"rationale": "The contract covers password strength, storage and lockout requirements."
		}`}
		scorer := newTestScorer(t, mock)
		result := scorer.Score(context.Background(), question, evidence)
		assert.Equal(t, PartiallyCompliant, result.State)
		assert.Equal(t, 57, result.Confidence)
		assert.Equal(t, []string{"Section 6.6 (password standards)"}, result.RelevantQuotes)
		assert.NotEmpty(t, result.Rationale)
		assert.Equal(t, 1, mock.Calls)
	})

	t.Run("Should recover from malformed JSON via repair", func(t *testing.T) {
		mock := &llm.MockClient{Response: "<think>scoring each item now</think>```json\n" +
			`{"compliance_state": "Partially Compliant", "confidence": 50, "relevant_quotes": [], ` +
			`"rationale": "Partial evidence for password controls found in the contract text.",}` + "\n```"}
		scorer := newTestScorer(t, mock)
		result := scorer.Score(context.Background(), question, evidence)
		assert.Equal(t, PartiallyCompliant, result.State)
		assert.Equal(t, 50, result.Confidence)
		assert.False(t, strings.HasPrefix(result.Rationale, "Error analyzing:"))
	})

	t.Run("Should fall back on invocation errors", func(t *testing.T) {
		mock := &llm.MockClient{Err: errors.New("connection refused")}
		scorer := newTestScorer(t, mock)
		result := scorer.Score(context.Background(), question, evidence)
		assert.Equal(t, NonCompliant, result.State)
		assert.Equal(t, 0, result.Confidence)
		assert.Empty(t, result.RelevantQuotes)
		assert.True(t, strings.HasPrefix(result.Rationale, "Error analyzing:"))
	})

	t.Run("Should fall back when no JSON can be located", func(t *testing.T) {
		mock := &llm.MockClient{Response: "I cannot answer that."}
		scorer := newTestScorer(t, mock)
		result := scorer.Score(context.Background(), question, evidence)
		assert.Equal(t, NonCompliant, result.State)
		assert.True(t, strings.HasPrefix(result.Rationale, "Error analyzing:"))
	})

	t.Run("Should truncate overlong error details", func(t *testing.T) {
		mock := &llm.MockClient{Err: errors.New(strings.Repeat("x", 500))}
		scorer := newTestScorer(t, mock)
		result := scorer.Score(context.Background(), question, evidence)
		assert.LessOrEqual(t, len(result.Rationale), len("Error analyzing: ")+200)
	})

	t.Run("Should substitute the fallback rationale for short model rationales", func(t *testing.T) {
		mock := &llm.MockClient{Response: `{"compliance_state": "Partially Compliant", "confidence": 60, "rationale": ""}`}
		scorer := newTestScorer(t, mock)
		result := scorer.Score(context.Background(), question, evidence)
		assert.Equal(t, shortRationaleFallback, result.Rationale)
		assert.Equal(t, PartiallyCompliant, result.State)
	})
}

func TestCoerceConfidence(t *testing.T) {
	t.Run("Should truncate numeric values", func(t *testing.T) {
		assert.Equal(t, 71, coerceConfidence(gjson.Parse(`{"c": 71.4}`).Get("c")))
		assert.Equal(t, 57, coerceConfidence(gjson.Parse(`{"c": 57}`).Get("c")))
	})
	t.Run("Should take the last numeric token from strings", func(t *testing.T) {
		assert.Equal(t, 71, coerceConfidence(gjson.Parse(`{"c": "71.4%"}`).Get("c")))
		assert.Equal(t, 71, coerceConfidence(gjson.Parse(`{"c": "(5/7)*100 = 71.4"}`).Get("c")))
	})
	t.Run("Should default to 60 without numeric substrings", func(t *testing.T) {
		assert.Equal(t, 60, coerceConfidence(gjson.Parse(`{"c": "high"}`).Get("c")))
		assert.Equal(t, 60, coerceConfidence(gjson.Parse(`{}`).Get("c")))
		assert.Equal(t, 60, coerceConfidence(gjson.Parse(`{"c": null}`).Get("c")))
	})
}

func TestCoerceQuotes(t *testing.T) {
	t.Run("Should wrap a bare string", func(t *testing.T) {
		quotes := coerceQuotes(gjson.Parse(`{"q": "Section 7.2"}`).Get("q"))
		assert.Equal(t, []string{"Section 7.2"}, quotes)
	})
	t.Run("Should render objects with sections", func(t *testing.T) {
		quotes := coerceQuotes(gjson.Parse(
			`{"q": [{"text": "TLS 1.2 required", "section": "7.2"}, {"quote": "MFA mandated"}, "plain"]}`,
		).Get("q"))
		assert.Equal(t, []string{"Section 7.2: TLS 1.2 required", "MFA mandated", "plain"}, quotes)
	})
	t.Run("Should strip reasoning wrappers and drop empties", func(t *testing.T) {
		quotes := coerceQuotes(gjson.Parse(
			`{"q": ["<think>internal</think>Section 9.1", "", "<think>only reasoning</think>"]}`,
		).Get("q"))
		assert.Equal(t, []string{"Section 9.1"}, quotes)
	})
	t.Run("Should return empty for missing field", func(t *testing.T) {
		assert.Empty(t, coerceQuotes(gjson.Parse(`{}`).Get("q")))
	})
}

func TestCoerceRationale(t *testing.T) {
	t.Run("Should join list rationales with spaces", func(t *testing.T) {
		rationale := coerceRationale(gjson.Parse(`{"r": ["Covers training.", "Lacks screening."]}`).Get("r"))
		assert.Equal(t, "Covers training. Lacks screening.", rationale)
	})
	t.Run("Should fall back when stripped empty", func(t *testing.T) {
		rationale := coerceRationale(gjson.Parse(`{"r": "<think>nothing left</think>"}`).Get("r"))
		assert.Equal(t, shortRationaleFallback, rationale)
	})
}
