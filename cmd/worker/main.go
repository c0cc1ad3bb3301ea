// File: cmd/worker/main.go
//
// Standalone polling worker. Runs the same lease-execute-report loop the
// API process embeds in poll mode, for deployments that scale workers
// separately from the HTTP surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/config"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
	aiAdapters "github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/adapters/ai"
	mediaAdapters "github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/adapters/storage"
	pg "github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/db/postgres"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/dispatch"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/logging"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/metrics"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/worker"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	planRepo := pg.NewTravelPlanRepo(pool)
	spotRepo := pg.NewSpotRepo(pool)
	jobRepo := pg.NewImageJobRepo(pool)

	// Image backend.
	var imageModel adapter.ImageModel
	switch cfg.AI.ImageProvider {
	case "gemini":
		client, err := aiAdapters.NewGeminiClient(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini client")
		}
		imageModel = aiAdapters.NewGeminiImageModel(client, cfg.AI.ImageModel)
	case "openai":
		imageModel, err = aiAdapters.NewOpenAIImageModel(cfg.AI.OpenAIKey, cfg.AI.OpenAIImageModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai image model")
		}
	case "noop":
		imageModel = aiAdapters.NewNoopImageModel()
	default:
		logger.Fatal().Msg(fmt.Sprintf("unknown ai.image_provider %q", cfg.AI.ImageProvider))
	}

	var promptBuilder adapter.PromptBuilder
	promptBuilder, err = aiAdapters.NewPromptBuilder(cfg.AI.PromptTokenBudget)
	if err != nil {
		logger.Warn().Err(err).Msg("token encoding unavailable, falling back to heuristic prompt budget")
		promptBuilder = aiAdapters.NewNoopPromptBuilder()
	}

	var media adapter.MediaStore
	if cfg.Storage.Backend == "gcs" {
		media, err = mediaAdapters.NewGCSMediaStore(ctx, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("media store")
		}
	} else {
		media = mediaAdapters.NewNoopMediaStore()
	}

	// The polling path never re-dispatches, so the null dispatcher fits
	// regardless of tasks.mode.
	dispatcher := dispatch.NewNullDispatcher()

	spotImageUC := usecase.NewSpotImageUseCase(planRepo, spotRepo, imageModel, media, promptBuilder, logger)
	jobUC := usecase.NewImageJobUseCase(jobRepo, spotRepo, spotImageUC, dispatcher, cfg.Jobs.StaleAfter, logger)

	w := worker.NewImageJobWorker(jobUC, cfg.Jobs.Concurrency, cfg.Jobs.PollInterval, logger)
	go w.Run(ctx)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
}
