//go:build !integration

package ai

import (
	"strings"
	"testing"
)

func TestParseSpotDrafts(t *testing.T) {
	t.Run("should parse a plain JSON array", func(t *testing.T) {
		drafts, err := parseSpotDrafts(`[{"name":"Kinkaku-ji","description":"golden pavilion"}]`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(drafts) != 1 || drafts[0].Name != "Kinkaku-ji" {
			t.Fatalf("unexpected drafts: %+v", drafts)
		}
	})

	t.Run("should tolerate a markdown fence", func(t *testing.T) {
		text := "```json\n[{\"name\":\"Kinkaku-ji\",\"description\":\"golden pavilion\"}]\n```"
		drafts, err := parseSpotDrafts(text)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(drafts) != 1 {
			t.Fatalf("unexpected drafts: %+v", drafts)
		}
	})

	t.Run("should tolerate a bare fence and surrounding space", func(t *testing.T) {
		text := "  ```\n[{\"name\":\"Fushimi Inari\",\"description\":\"torii gates\"}]\n```  "
		drafts, err := parseSpotDrafts(strings.TrimSpace(text))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(drafts) != 1 || drafts[0].Name != "Fushimi Inari" {
			t.Fatalf("unexpected drafts: %+v", drafts)
		}
	})

	t.Run("should drop nameless entries and trim names", func(t *testing.T) {
		drafts, err := parseSpotDrafts(`[
			{"name":"  Kinkaku-ji  ","description":"a"},
			{"name":"   ","description":"b"},
			{"name":"","description":"c"}
		]`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(drafts) != 1 || drafts[0].Name != "Kinkaku-ji" {
			t.Fatalf("unexpected drafts: %+v", drafts)
		}
	})

	t.Run("should error on non-JSON text", func(t *testing.T) {
		if _, err := parseSpotDrafts("Here are some great spots for your trip!"); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestTokenBudgetPromptBuilder(t *testing.T) {
	builder, err := NewPromptBuilder(40)
	if err != nil {
		t.Fatalf("NewPromptBuilder failed: %v", err)
	}

	t.Run("should keep a short prompt intact", func(t *testing.T) {
		prompt, tokens := builder.BuildSpotPrompt("Kyoto", "Kinkaku-ji", "golden pavilion")
		if !strings.Contains(prompt, "Kinkaku-ji") || !strings.Contains(prompt, "Kyoto") {
			t.Errorf("prompt missing subject: %q", prompt)
		}
		if !strings.Contains(prompt, "golden pavilion") {
			t.Errorf("short description should survive: %q", prompt)
		}
		if tokens <= 0 || tokens > 40 {
			t.Errorf("token count out of budget: %d", tokens)
		}
	})

	t.Run("should trim a rambling description to the budget", func(t *testing.T) {
		long := strings.Repeat("a very long and winding description of the place ", 50)
		prompt, tokens := builder.BuildSpotPrompt("Kyoto", "Kinkaku-ji", long)
		if tokens > 40 {
			t.Errorf("expected at most 40 tokens, got %d", tokens)
		}
		if !strings.Contains(prompt, "Kinkaku-ji") {
			t.Errorf("header must survive the trim: %q", prompt)
		}
		if len(prompt) >= len(long) {
			t.Error("description was not trimmed")
		}
	})

	t.Run("should handle an empty description", func(t *testing.T) {
		prompt, tokens := builder.BuildSpotPrompt("Kyoto", "Kinkaku-ji", "   ")
		if strings.Contains(prompt, "Scene:") {
			t.Errorf("no scene section expected: %q", prompt)
		}
		if tokens <= 0 {
			t.Errorf("token count must be positive, got %d", tokens)
		}
	})
}
