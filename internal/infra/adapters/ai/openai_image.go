package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ImageModel = (*OpenAIImageModel)(nil)

// OpenAIImageModel is the alternate image backend, selected by
// ai.image_provider in config.
type OpenAIImageModel struct {
	client openai.Client
	model  string
}

func NewOpenAIImageModel(apiKey, model string) (*OpenAIImageModel, error) {
	if apiKey == "" {
		return nil, errors.New("openai: empty api key")
	}
	if model == "" {
		model = "dall-e-3"
	}
	return &OpenAIImageModel{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (o *OpenAIImageModel) Provider() string { return "openai" }

func (o *OpenAIImageModel) Generate(ctx context.Context, prompt string) (*adapter.Image, error) {
	resp, err := o.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(o.model),
		N:              openai.Int(1),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		Size:           openai.ImageGenerateParamsSize1024x1024,
	})
	if err != nil {
		return nil, fmt.Errorf("openai image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, errors.New("openai image: empty response")
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("openai image: decode: %w", err)
	}
	// b64_json responses are always PNG.
	return &adapter.Image{Data: raw, MIMEType: "image/png"}, nil
}
