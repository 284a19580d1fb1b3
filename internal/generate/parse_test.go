package generate

import (
	"errors"
	"testing"
)

func TestDecodeJSONDirect(t *testing.T) {
	var v struct {
		Titles []string `json:"titles"`
	}
	if err := decodeJSON(`{"titles":["a","b"]}`, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.Titles) != 2 {
		t.Errorf("expected 2 titles, got %d", len(v.Titles))
	}
}

func TestDecodeJSONFenced(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"titles\":[\"a\"]}\n```\nHope that helps!"
	var v struct {
		Titles []string `json:"titles"`
	}
	if err := decodeJSON(raw, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.Titles) != 1 || v.Titles[0] != "a" {
		t.Errorf("unexpected titles: %v", v.Titles)
	}
}

func TestDecodeJSONProseWrapped(t *testing.T) {
	raw := `Sure! The strategy is {"persona_summary":"busy founders"} as requested.`
	var v struct {
		PersonaSummary string `json:"persona_summary"`
	}
	if err := decodeJSON(raw, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.PersonaSummary != "busy founders" {
		t.Errorf("unexpected summary: %q", v.PersonaSummary)
	}
}

func TestDecodeJSONArray(t *testing.T) {
	raw := "The keywords are: [\"coffee\",\"espresso\"] — enjoy."
	var v []string
	if err := decodeJSON(raw, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v) != 2 {
		t.Errorf("expected 2 items, got %d", len(v))
	}
}

func TestDecodeJSONNoJSON(t *testing.T) {
	var v map[string]any
	err := decodeJSON("I cannot help with that.", &v)
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Raw != "I cannot help with that." {
		t.Errorf("ParseError should carry the raw response, got %q", pe.Raw)
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int
	}{
		{"plain text", "one two three", 3},
		{"tags stripped", "<h2>Title here</h2><p>Body text goes here.</p>", 6},
		{"empty", "", 0},
		{"only tags", "<p></p><br/>", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countWords(tt.html); got != tt.want {
				t.Errorf("countWords(%q) = %d, want %d", tt.html, got, tt.want)
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	fenced := "```html\n<p>body</p>\n```"
	if got := stripFences(fenced); got != "<p>body</p>" {
		t.Errorf("expected fences stripped, got %q", got)
	}
	plain := "<p>body</p>"
	if got := stripFences(plain); got != plain {
		t.Errorf("expected unfenced content unchanged, got %q", got)
	}
}
