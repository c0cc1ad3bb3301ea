package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
)

// Compile-time assurance the adapters satisfy their ports
var (
	_ adapter.GuideWriter = (*GeminiGuideWriter)(nil)
	_ adapter.ImageModel  = (*GeminiImageModel)(nil)
)

// NewGeminiClient builds a shared genai client for both the text and the
// image adapters.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
}

// GeminiGuideWriter drafts the spot list for a plan with a Gemini text
// model, asking for JSON so the response parses without prose-scraping.
type GeminiGuideWriter struct {
	client *genai.Client
	model  string
	maxOut int
}

func NewGeminiGuideWriter(client *genai.Client, model string, maxOut int) *GeminiGuideWriter {
	if maxOut <= 0 {
		maxOut = 4096
	}
	return &GeminiGuideWriter{client: client, model: model, maxOut: maxOut}
}

const guidePromptTemplate = `You are a travel guide writer.
Destination: %s
Trip length: %d days
Traveler interests: %s

List the points of interest this traveler should visit, roughly 3 to 5 per
day. For each, give the widely used name of the place and a two-sentence
description of what makes it worth the detour.

Respond with a JSON array only. Each element: {"name": string, "description": string}.`

func (g *GeminiGuideWriter) ComposeGuide(ctx context.Context, destination string, days int, interests []string) ([]adapter.SpotDraft, error) {
	interestLine := "general sightseeing"
	if len(interests) > 0 {
		interestLine = strings.Join(interests, ", ")
	}
	prompt := fmt.Sprintf(guidePromptTemplate, destination, days, interestLine)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens:  int32(g.maxOut),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("gemini compose: %w", err)
	}

	text := ""
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		text = resp.Candidates[0].Content.Parts[0].Text
	}
	if text == "" {
		return nil, errors.New("gemini compose: empty response")
	}
	return parseSpotDrafts(text)
}

// parseSpotDrafts decodes the model's JSON, tolerating a markdown fence
// around it. Models occasionally wrap JSON despite the response MIME type.
func parseSpotDrafts(text string) ([]adapter.SpotDraft, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	var drafts []adapter.SpotDraft
	if err := json.Unmarshal([]byte(text), &drafts); err != nil {
		return nil, fmt.Errorf("parse guide draft: %w", err)
	}
	out := drafts[:0]
	for _, d := range drafts {
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// GeminiImageModel renders spot images through the Imagen API.
type GeminiImageModel struct {
	client *genai.Client
	model  string
}

func NewGeminiImageModel(client *genai.Client, model string) *GeminiImageModel {
	return &GeminiImageModel{client: client, model: model}
}

func (g *GeminiImageModel) Provider() string { return "gemini" }

func (g *GeminiImageModel) Generate(ctx context.Context, prompt string) (*adapter.Image, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini image: %w", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, errors.New("gemini image: empty response")
	}
	img := resp.GeneratedImages[0].Image
	if len(img.ImageBytes) == 0 {
		return nil, errors.New("gemini image: no image bytes")
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return &adapter.Image{Data: img.ImageBytes, MIMEType: mime}, nil
}
