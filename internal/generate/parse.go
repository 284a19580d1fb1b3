package generate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseError means the AI response did not contain the expected JSON shape,
// even after substring extraction.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("AI response did not contain valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	fenceRe  = regexp.MustCompile("(?s)```(?:json|html)?\\s*(.*?)```")
	objectRe = regexp.MustCompile(`(?s)\{.*\}`)
	arrayRe  = regexp.MustCompile(`(?s)\[.*\]`)
)

// decodeJSON unmarshals the model output into v. Models frequently wrap JSON
// in markdown fences or prose, so after a direct parse fails it extracts the
// fenced block, then the widest {...} or [...] substring, before giving up
// with a ParseError.
func decodeJSON(raw string, v any) error {
	trimmed := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	candidates := []string{}
	if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := objectRe.FindString(trimmed); m != "" {
		candidates = append(candidates, m)
	}
	if m := arrayRe.FindString(trimmed); m != "" {
		candidates = append(candidates, m)
	}

	var lastErr error
	for _, c := range candidates {
		if err := json.Unmarshal([]byte(c), v); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON found in response")
	}
	return &ParseError{Raw: raw, Err: lastErr}
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// countWords approximates the word count of HTML content by stripping tags
// and splitting on whitespace.
func countWords(html string) int {
	text := htmlTagRe.ReplaceAllString(html, " ")
	return len(strings.Fields(text))
}

// stripFences removes a surrounding markdown code fence from article output.
// Some models fence the HTML even when told not to.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(trimmed); m != nil && strings.HasPrefix(trimmed, "```") {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}
