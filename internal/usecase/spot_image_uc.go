package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/repository"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/metrics"
)

// Compile-time check
var _ SpotImageUseCase = (*spotImageUC)(nil)

// SpotImageUseCase is the single blocking call behind one image job:
// prompt construction, image generation, upload, and the spot update.
type SpotImageUseCase interface {
	GenerateForSpot(ctx context.Context, planID, spotName string) (string, error)
}

type spotImageUC struct {
	plans  repository.TravelPlanRepository
	spots  repository.SpotRepository
	image  adapter.ImageModel
	media  adapter.MediaStore
	prompt adapter.PromptBuilder
	log    *zerolog.Logger
}

func NewSpotImageUseCase(
	plans repository.TravelPlanRepository,
	spots repository.SpotRepository,
	image adapter.ImageModel,
	media adapter.MediaStore,
	prompt adapter.PromptBuilder,
	logger *zerolog.Logger,
) *spotImageUC {
	return &spotImageUC{
		plans:  plans,
		spots:  spots,
		image:  image,
		media:  media,
		prompt: prompt,
		log:    logger,
	}
}

// GenerateForSpot renders and stores the illustrative image for one spot,
// flips the spot to ready and returns the stored URL. Every step reports
// failure through the returned error; nothing here retries, the job layer
// owns that.
func (uc *spotImageUC) GenerateForSpot(ctx context.Context, planID, spotName string) (string, error) {
	if planID == "" || spotName == "" {
		return "", domain.ErrInvalidArgument
	}

	spot, err := uc.spots.FindByPlanAndName(ctx, repository.NoTX, planID, spotName)
	if err != nil {
		return "", fmt.Errorf("load spot: %w", err)
	}
	plan, err := uc.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return "", fmt.Errorf("load plan: %w", err)
	}

	provider := uc.image.Provider()
	prompt, tokens := uc.prompt.BuildSpotPrompt(plan.Destination, spot.Name, spot.Description)
	metrics.AddPromptTokens(provider, tokens)

	start := time.Now()
	img, err := uc.image.Generate(ctx, prompt)
	metrics.ObserveImageGen(provider, int(time.Since(start)/time.Millisecond), err == nil)
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}

	object := imageObjectName(planID, spot.ID, img.MIMEType)
	url, err := uc.media.Put(ctx, object, img.Data, img.MIMEType)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}

	if err := uc.spots.SetImage(ctx, repository.NoTX, planID, spotName, url); err != nil {
		return "", fmt.Errorf("record image url: %w", err)
	}

	uc.log.Info().Str("plan_id", planID).Str("spot", spotName).Str("url", url).Msg("spot image ready")
	return url, nil
}

// imageObjectName keys stored media by plan and spot id, never by the
// user-supplied name, so renamed or oddly named spots cannot collide.
func imageObjectName(planID, spotID, mime string) string {
	ext := "png"
	if i := strings.LastIndex(mime, "/"); i >= 0 && i < len(mime)-1 {
		ext = mime[i+1:]
	}
	return fmt.Sprintf("plans/%s/spots/%s.%s", planID, spotID, ext)
}
