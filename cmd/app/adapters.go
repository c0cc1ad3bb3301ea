// File: cmd/app/adapters.go
package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/config"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
	aiAdapters "github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/adapters/ai"
	mediaAdapters "github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/adapters/storage"
)

// buildAIAdapters picks the guide writer and image model for the run.
// Gemini writes the guide whenever a key is present; the image backend is
// chosen separately so DALL-E can render images for a Gemini-written
// guide. Without any key, dev mode gets noop adapters and prod refuses to
// start.
func buildAIAdapters(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (adapter.GuideWriter, adapter.ImageModel, error) {
	if cfg.AI.GeminiKey == "" {
		if !cfg.Runtime.Dev {
			return nil, nil, fmt.Errorf("ai.gemini_key is required outside dev mode")
		}
		logger.Warn().Msg("no AI credentials, using noop adapters")
		return aiAdapters.NewNoopGuideWriter(), aiAdapters.NewNoopImageModel(), nil
	}

	client, err := aiAdapters.NewGeminiClient(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL)
	if err != nil {
		return nil, nil, err
	}
	writer := aiAdapters.NewGeminiGuideWriter(client, cfg.AI.TextModel, 0)

	var imageModel adapter.ImageModel
	switch cfg.AI.ImageProvider {
	case "gemini":
		imageModel = aiAdapters.NewGeminiImageModel(client, cfg.AI.ImageModel)
	case "openai":
		imageModel, err = aiAdapters.NewOpenAIImageModel(cfg.AI.OpenAIKey, cfg.AI.OpenAIImageModel)
		if err != nil {
			return nil, nil, err
		}
	case "noop":
		imageModel = aiAdapters.NewNoopImageModel()
	default:
		return nil, nil, fmt.Errorf("unknown ai.image_provider %q", cfg.AI.ImageProvider)
	}
	logger.Info().Str("text_model", cfg.AI.TextModel).Str("image_provider", cfg.AI.ImageProvider).Msg("ai adapters ready")
	return writer, imageModel, nil
}

func buildPromptBuilder(cfg *config.Config) (adapter.PromptBuilder, error) {
	return aiAdapters.NewPromptBuilder(cfg.AI.PromptTokenBudget)
}

func buildMediaStore(ctx context.Context, cfg *config.Config) (adapter.MediaStore, error) {
	switch cfg.Storage.Backend {
	case "gcs":
		return mediaAdapters.NewGCSMediaStore(ctx, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
	case "noop":
		return mediaAdapters.NewNoopMediaStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage.backend %q", cfg.Storage.Backend)
	}
}
