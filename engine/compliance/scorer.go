package compliance

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/clausewise/clausewise/engine/llm"
	"github.com/clausewise/clausewise/pkg/logger"
)

const (
	defaultConfidence = 60

	noEvidenceRationale = "No relevant evidence found in extracted context."

	shortRationaleFallback = "Decision based on the provided context; the explanation from the model was short, " +
		"so a concise rationale has been supplied."

	fallbackErrorLimit = 200
)

var numberPattern = regexp.MustCompile(`[\d.]+`)

// Scorer answers one compliance question from assembled context. Every
// failure is absorbed into a safe default result; Score never returns an
// error and never panics on model misbehavior.
type Scorer struct {
	client    llm.Client
	sanitizer *llm.Sanitizer
}

func NewScorer(client llm.Client, sanitizer *llm.Sanitizer) (*Scorer, error) {
	if client == nil {
		return nil, fmt.Errorf("compliance: scorer client is required")
	}
	if sanitizer == nil {
		return nil, fmt.Errorf("compliance: scorer sanitizer is required")
	}
	return &Scorer{client: client, sanitizer: sanitizer}, nil
}

// Score runs the per-question flow: prompt, sanitize, coerce fields,
// apply the threshold policy, validate. Empty context short-circuits to a
// Non-Compliant result without invoking the model.
func (s *Scorer) Score(ctx context.Context, question, evidence string) Result {
	log := logger.FromContext(ctx).With("question", question)
	if strings.TrimSpace(evidence) == "" {
		log.Debug("No context assembled, skipping model invocation")
		return NoEvidenceResult(question)
	}
	userPrompt := UserPrompt(evidence, RequirementFor(question))
	raw, err := s.client.Chat(ctx, SystemPrompt, userPrompt)
	if err != nil {
		log.Warn("Model invocation failed", "error", err)
		return FallbackResult(question, err)
	}
	payload, err := s.sanitizer.ExtractJSON(ctx, strings.TrimSpace(raw))
	if err != nil {
		log.Warn("Response could not be parsed", "error", err)
		return FallbackResult(question, err)
	}
	fields := gjson.Parse(payload)
	state, confidence := ApplyPolicy(coerceState(fields.Get("compliance_state")), coerceConfidence(fields.Get("confidence")))
	result := Result{
		Question:       question,
		State:          state,
		Confidence:     confidence,
		RelevantQuotes: coerceQuotes(fields.Get("relevant_quotes")),
		Rationale:      coerceRationale(fields.Get("rationale")),
	}
	if err := result.Validate(); err != nil {
		log.Warn("Assembled result failed validation", "error", err)
		return FallbackResult(question, err)
	}
	return result
}

// NoEvidenceResult is the terminal result for empty context.
func NoEvidenceResult(question string) Result {
	return Result{
		Question:       question,
		State:          NonCompliant,
		Confidence:     0,
		RelevantQuotes: []string{},
		Rationale:      noEvidenceRationale,
	}
}

// FallbackResult is the terminal safety net for the per-question flow.
// It never itself fails.
func FallbackResult(question string, cause error) Result {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	if len(detail) > fallbackErrorLimit {
		detail = detail[:fallbackErrorLimit]
	}
	return Result{
		Question:       question,
		State:          NonCompliant,
		Confidence:     0,
		RelevantQuotes: []string{},
		Rationale:      "Error analyzing: " + detail,
	}
}

func coerceState(field gjson.Result) State {
	state := strings.TrimSpace(field.String())
	if state == "" {
		return PartiallyCompliant
	}
	return State(state)
}

// coerceConfidence accepts a number (truncated to integer) or a string,
// from which the last numeric token wins; formats like "71.4%" and
// "(5/7)*100 = 71.4" both yield 71. Anything else defaults to 60.
func coerceConfidence(field gjson.Result) int {
	if !field.Exists() || field.Type == gjson.Null {
		return defaultConfidence
	}
	if field.Type == gjson.Number {
		return int(field.Float())
	}
	tokens := numberPattern.FindAllString(field.String(), -1)
	for i := len(tokens) - 1; i >= 0; i-- {
		if value, err := strconv.ParseFloat(tokens[i], 64); err == nil {
			return int(value)
		}
	}
	return defaultConfidence
}

// coerceQuotes accepts a single string or a list whose elements are
// strings or objects carrying text/quote and an optional section.
func coerceQuotes(field gjson.Result) []string {
	elements := make([]gjson.Result, 0)
	switch {
	case field.IsArray():
		elements = field.Array()
	case field.Type == gjson.String:
		elements = append(elements, field)
	}
	quotes := make([]string, 0, len(elements))
	for _, element := range elements {
		value := quoteText(element)
		value = llm.StripReasoning(value)
		if value == "" {
			continue
		}
		quotes = append(quotes, value)
	}
	return quotes
}

func quoteText(element gjson.Result) string {
	if !element.IsObject() {
		return element.String()
	}
	text := element.Get("text").String()
	if text == "" {
		text = element.Get("quote").String()
	}
	section := element.Get("section").String()
	switch {
	case section != "" && text != "":
		return fmt.Sprintf("Section %s: %s", section, text)
	case section != "":
		return "Section " + section
	case text != "":
		return text
	}
	return element.Raw
}

// coerceRationale accepts a string or a list of strings joined by spaces;
// an empty result is replaced with a fixed fallback sentence.
func coerceRationale(field gjson.Result) string {
	rationale := ""
	if field.IsArray() {
		parts := make([]string, 0)
		for _, element := range field.Array() {
			parts = append(parts, element.String())
		}
		rationale = strings.Join(parts, " ")
	} else {
		rationale = field.String()
	}
	rationale = llm.StripReasoning(rationale)
	if rationale == "" {
		return shortRationaleFallback
	}
	return rationale
}
