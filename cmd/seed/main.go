package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/config"
	pg "github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/db/postgres"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/logging"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/usecase"
)

// Seeds a demo travel plan so a fresh environment has something to
// generate a guide for.
func main() {
	cfg, err := config.LoadConfig("config.yaml", true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	logger := logging.New(cfg.Log, true)
	planUC := usecase.NewPlanUseCase(pg.NewTravelPlanRepo(pool), logger)

	plans, err := planUC.List(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (%s, %d days, status=%s)\n", p.Title, p.Destination, p.Days, p.Status)
		}
		return
	}

	p, err := planUC.Create(ctx, "Kyoto in Autumn", "Kyoto, Japan", 3, []string{"temples", "food", "gardens"})
	if err != nil {
		log.Fatalf("seed plan: %v", err)
	}
	fmt.Printf("seeded plan %s: %s (%s)\n", p.ID, p.Title, p.Destination)
	fmt.Printf("next: POST /api/v1/plans/%s/guide\n", p.ID)
}
