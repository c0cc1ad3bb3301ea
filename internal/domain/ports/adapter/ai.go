package adapter

import "context"

// SpotDraft is one point of interest proposed by the guide writer.
type SpotDraft struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GuideWriter asks a text model to draft the guide for a plan: which spots
// to visit and a short description of each.
type GuideWriter interface {
	ComposeGuide(ctx context.Context, destination string, days int, interests []string) ([]SpotDraft, error)
}

// Image is the raw output of an image model.
type Image struct {
	Data     []byte
	MIMEType string
}

// ImageModel renders one illustrative image for a prompt.
type ImageModel interface {
	Generate(ctx context.Context, prompt string) (*Image, error)
	// Provider returns a short label used in logs and metrics.
	Provider() string
}

// PromptBuilder renders the image prompt for a spot, bounded to a token
// budget so long descriptions cannot blow past the image model's input
// limit. Returns the prompt and its token count.
type PromptBuilder interface {
	BuildSpotPrompt(destination, spotName, description string) (string, int)
}
