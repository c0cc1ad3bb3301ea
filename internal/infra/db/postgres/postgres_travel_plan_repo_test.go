//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
)

func TestTravelPlanRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewTravelPlanRepo(testPool)
	ctx := context.Background()

	t.Run("should perform full CRUD cycle", func(t *testing.T) {
		cleanup(t)

		plan, err := model.NewTravelPlan("plan-1", "Autumn Trip", "Kyoto", 3, []string{"temples", "food"})
		if err != nil {
			t.Fatalf("model.NewTravelPlan() failed: %v", err)
		}
		if err := repo.Save(ctx, nil, plan); err != nil {
			t.Fatalf("Failed to save plan: %v", err)
		}

		found, err := repo.FindByID(ctx, nil, "plan-1")
		if err != nil {
			t.Fatalf("Failed to find plan: %v", err)
		}
		if found.Destination != "Kyoto" || found.Days != 3 {
			t.Errorf("unexpected plan: %+v", found)
		}
		if len(found.Interests) != 2 || found.Interests[0] != "temples" {
			t.Errorf("interests did not round-trip: %v", found.Interests)
		}

		found.Title = "Autumn Trip, revised"
		if err := repo.Save(ctx, nil, found); err != nil {
			t.Fatalf("Failed to update plan: %v", err)
		}
		updated, err := repo.FindByID(ctx, nil, "plan-1")
		if err != nil {
			t.Fatalf("Failed to re-find plan: %v", err)
		}
		if updated.Title != "Autumn Trip, revised" {
			t.Errorf("expected updated title, got %q", updated.Title)
		}

		if err := repo.Delete(ctx, nil, "plan-1"); err != nil {
			t.Fatalf("Failed to delete plan: %v", err)
		}
		if _, err := repo.FindByID(ctx, nil, "plan-1"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("should list plans newest first", func(t *testing.T) {
		cleanup(t)

		older, _ := model.NewTravelPlan("plan-old", "Old", "Nara", 1, nil)
		older.CreatedAt = time.Now().Add(-time.Hour)
		newer, _ := model.NewTravelPlan("plan-new", "New", "Osaka", 2, nil)
		if err := repo.Save(ctx, nil, older); err != nil {
			t.Fatalf("save older: %v", err)
		}
		if err := repo.Save(ctx, nil, newer); err != nil {
			t.Fatalf("save newer: %v", err)
		}

		plans, err := repo.ListAll(ctx, nil)
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		if len(plans) != 2 || plans[0].ID != "plan-new" || plans[1].ID != "plan-old" {
			t.Fatalf("unexpected ordering: %+v", plans)
		}
	})

	t.Run("should update status", func(t *testing.T) {
		cleanup(t)

		plan, _ := model.NewTravelPlan("plan-1", "Trip", "Kyoto", 3, nil)
		if err := repo.Save(ctx, nil, plan); err != nil {
			t.Fatalf("save: %v", err)
		}
		if err := repo.SetStatus(ctx, nil, "plan-1", model.PlanStatusReady); err != nil {
			t.Fatalf("SetStatus failed: %v", err)
		}
		got, _ := repo.FindByID(ctx, nil, "plan-1")
		if got.Status != model.PlanStatusReady {
			t.Errorf("expected ready, got %s", got.Status)
		}

		if err := repo.SetStatus(ctx, nil, "missing", model.PlanStatusReady); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should refuse to delete a plan with in-flight jobs", func(t *testing.T) {
		cleanup(t)

		plan, _ := model.NewTravelPlan("plan-1", "Trip", "Kyoto", 3, nil)
		if err := repo.Save(ctx, nil, plan); err != nil {
			t.Fatalf("save: %v", err)
		}
		jobs := NewImageJobRepo(testPool)
		if _, err := jobs.CreateBatch(ctx, nil, "plan-1", []string{"A"}, 3); err != nil {
			t.Fatalf("CreateBatch failed: %v", err)
		}

		if err := repo.Delete(ctx, nil, "plan-1"); !errors.Is(err, domain.ErrPlanBusy) {
			t.Fatalf("expected ErrPlanBusy, got %v", err)
		}

		// Once the job settles, the delete goes through.
		batch, err := jobs.FetchAndLock(ctx, 1, "worker-1", testStaleAfter)
		if err != nil || len(batch) != 1 {
			t.Fatalf("lease failed: %v", err)
		}
		if err := jobs.MarkSucceeded(ctx, nil, batch[0].ID); err != nil {
			t.Fatalf("MarkSucceeded failed: %v", err)
		}
		if err := repo.Delete(ctx, nil, "plan-1"); err != nil {
			t.Fatalf("Delete after settle failed: %v", err)
		}
	})
}
