package ai

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.PromptBuilder = (*tokenBudgetPromptBuilder)(nil)

const spotPromptHeader = `A beautiful, photorealistic travel photograph of %s in %s. No text, no watermarks.`

// tokenBudgetPromptBuilder renders image prompts and trims the spot
// description so the whole prompt stays inside a token budget. Guide
// descriptions are model-written and occasionally rambling; image models
// reject or silently truncate long prompts, so the cut happens here where
// it is measurable.
type tokenBudgetPromptBuilder struct {
	enc    *tiktoken.Tiktoken
	budget int
}

func NewPromptBuilder(budget int) (*tokenBudgetPromptBuilder, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("prompt encoding: %w", err)
	}
	if budget <= 0 {
		budget = 480
	}
	return &tokenBudgetPromptBuilder{enc: enc, budget: budget}, nil
}

func (b *tokenBudgetPromptBuilder) BuildSpotPrompt(destination, spotName, description string) (string, int) {
	head := fmt.Sprintf(spotPromptHeader, spotName, destination)
	headTokens := b.enc.Encode(head, nil, nil)

	description = strings.TrimSpace(description)
	if description == "" {
		return head, len(headTokens)
	}

	// " Scene: " + description rides behind the header inside the budget.
	scene := " Scene: " + description
	sceneTokens := b.enc.Encode(scene, nil, nil)
	room := b.budget - len(headTokens)
	if room <= 0 {
		return head, len(headTokens)
	}
	if len(sceneTokens) > room {
		sceneTokens = sceneTokens[:room]
		scene = b.enc.Decode(sceneTokens)
	}
	return head + scene, len(headTokens) + len(sceneTokens)
}
