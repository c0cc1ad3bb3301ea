// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/config"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
	aiAdapters "github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/adapters/ai"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/api"
	pg "github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/db/postgres"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/dispatch"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/logging"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/metrics"
	red "github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/redis"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/worker"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop adapters allowed, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	planRepo := pg.NewTravelPlanRepoCacheDecorator(pg.NewTravelPlanRepo(pool), redisClient)
	spotRepo := pg.NewSpotRepo(pool)
	jobRepo := pg.NewImageJobRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- AI adapters ----
	writer, imageModel, err := buildAIAdapters(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("ai adapters")
	}

	promptBuilder, err := buildPromptBuilder(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("token encoding unavailable, falling back to heuristic prompt budget")
		promptBuilder = aiAdapters.NewNoopPromptBuilder()
	}

	// ---- Media store ----
	media, err := buildMediaStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("media store")
	}

	// ---- Dispatcher (push vs poll strategy) ----
	var dispatcher adapter.JobDispatcher
	if cfg.Tasks.Mode == "push" {
		dispatcher, err = dispatch.NewCloudTasksDispatcher(ctx, cfg.Tasks.Project, cfg.Tasks.Location, cfg.Tasks.Queue, cfg.Tasks.HandlerURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("cloud tasks dispatcher")
		}
		logger.Info().Str("queue", cfg.Tasks.Queue).Msg("dispatch: cloud tasks (push)")
	} else {
		dispatcher = dispatch.NewNullDispatcher()
		logger.Info().Msg("dispatch: null (polling worker)")
	}

	// ---- Use cases ----
	planUC := usecase.NewPlanUseCase(planRepo, logger)
	spotImageUC := usecase.NewSpotImageUseCase(planRepo, spotRepo, imageModel, media, promptBuilder, logger)
	jobUC := usecase.NewImageJobUseCase(jobRepo, spotRepo, spotImageUC, dispatcher, cfg.Jobs.StaleAfter, logger)
	guideUC := usecase.NewGuideUseCase(planRepo, spotRepo, jobRepo, writer, dispatcher, tm, rateLimiter, cfg.Server.GuidePerHour, cfg.Jobs.MaxAttempts, logger)

	// ---- HTTP server ----
	auth := api.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.SessionTTL)
	srv := api.NewServer(planUC, guideUC, jobUC, auth, cfg.Admin.APIKey, cfg.Tasks.Queue, cfg.Server.RequestTimeout, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: srv.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Polling worker (poll mode only) ----
	if cfg.Tasks.Mode == "poll" {
		w := worker.NewImageJobWorker(jobUC, cfg.Jobs.Concurrency, cfg.Jobs.PollInterval, logger)
		go w.Run(ctx)
	}

	// ---- DB pool stats sampler ----
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = server.Shutdown(shCtx)
}
