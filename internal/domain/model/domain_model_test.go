//go:build !integration

package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
)

func TestNewTravelPlan(t *testing.T) {
	t.Run("should create a draft plan", func(t *testing.T) {
		p, err := model.NewTravelPlan("id-1", "Autumn trip", "Kyoto", 3, []string{"temples"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Status != model.PlanStatusDraft {
			t.Errorf("expected draft status, got %s", p.Status)
		}
		if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
			t.Error("expected timestamps to be set")
		}
	})

	t.Run("should reject missing fields", func(t *testing.T) {
		cases := []struct {
			name        string
			id, title   string
			destination string
			days        int
		}{
			{"empty id", "", "t", "d", 1},
			{"blank title", "id", "  ", "d", 1},
			{"blank destination", "id", "t", "", 1},
			{"zero days", "id", "t", "d", 0},
		}
		for _, c := range cases {
			if _, err := model.NewTravelPlan(c.id, c.title, c.destination, c.days, nil); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("%s: expected ErrInvalidArgument, got %v", c.name, err)
			}
		}
	})
}

func TestNewSpot(t *testing.T) {
	t.Run("should trim the name and start pending", func(t *testing.T) {
		s, err := model.NewSpot("s-1", "p-1", "  Fushimi Inari  ", "torii gates", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Name != "Fushimi Inari" {
			t.Errorf("expected trimmed name, got %q", s.Name)
		}
		if s.ImageState != model.SpotImagePending {
			t.Errorf("expected pending image state, got %s", s.ImageState)
		}
	})

	t.Run("should reject a blank name", func(t *testing.T) {
		if _, err := model.NewSpot("s-1", "p-1", "   ", "", 0); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestImageJobTerminal(t *testing.T) {
	now := time.Now()
	for _, c := range []struct {
		status model.ImageJobStatus
		want   bool
	}{
		{model.ImageJobStatusQueued, false},
		{model.ImageJobStatusProcessing, false},
		{model.ImageJobStatusSucceeded, true},
		{model.ImageJobStatusFailed, true},
	} {
		j := &model.ImageJob{ID: "j", Status: c.status, CreatedAt: now}
		if got := j.Terminal(); got != c.want {
			t.Errorf("Terminal() for %s = %v, want %v", c.status, got, c.want)
		}
	}
}
