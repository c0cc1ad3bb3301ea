//go:build !integration

package dispatch

import (
	"context"
	"strings"
	"testing"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
)

func TestTaskID(t *testing.T) {
	t.Run("should be deterministic for the same key", func(t *testing.T) {
		a := TaskID("job-123")
		b := TaskID("job-123")
		if a != b {
			t.Fatalf("expected identical task IDs, got %q and %q", a, b)
		}
	})

	t.Run("should differ between keys", func(t *testing.T) {
		if TaskID("job-123") == TaskID("job-123-r1") {
			t.Fatal("distinct keys must not collide")
		}
	})

	t.Run("should stay inside the task-name charset", func(t *testing.T) {
		id := TaskID("plan/with spaces & punctuation!")
		if !strings.HasPrefix(id, "spot-image-") {
			t.Fatalf("unexpected prefix: %q", id)
		}
		for _, r := range id {
			ok := r == '-' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z')
			if !ok {
				t.Fatalf("character %q not allowed in a task name", r)
			}
		}
	})
}

func TestNullDispatcher(t *testing.T) {
	t.Run("should accept any dispatch without error", func(t *testing.T) {
		d := NewNullDispatcher()
		err := d.Enqueue(context.Background(), adapter.JobDispatch{PlanID: "p1", SpotName: "A"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
