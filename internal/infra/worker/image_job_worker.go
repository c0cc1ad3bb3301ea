package worker

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/usecase"
)

// ImageJobWorker is the polling execution path: one always-on loop that
// leases a batch of spot-image jobs, runs them concurrently up to a bound,
// and reports each outcome as it resolves. Used when no push dispatcher is
// configured; harmless to run alongside one, the lease query keeps the two
// paths from colliding.
type ImageJobWorker struct {
	jobs         usecase.ImageJobUseCase
	workerID     string
	concurrency  int
	pollInterval time.Duration
	log          *zerolog.Logger
}

func NewImageJobWorker(jobs usecase.ImageJobUseCase, concurrency int, pollInterval time.Duration, logger *zerolog.Logger) *ImageJobWorker {
	if concurrency <= 0 {
		concurrency = 4
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &ImageJobWorker{
		jobs: jobs,
		// The ID only labels leases for observability; a fresh ULID per
		// process is all the identity a holder needs.
		workerID:     "worker-" + ulid.Make().String(),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		log:          logger,
	}
}

func (w *ImageJobWorker) WorkerID() string { return w.workerID }

// Run blocks until ctx is cancelled. Batch size equals the concurrency
// bound, so one round of the loop is one full batch: lease, execute every
// job under the semaphore, wait, lease again. An empty batch sleeps one
// poll interval instead.
func (w *ImageJobWorker) Run(ctx context.Context) {
	w.log.Info().Str("worker_id", w.workerID).Int("concurrency", w.concurrency).
		Dur("poll_interval", w.pollInterval).Msg("image job worker started")

	sem := make(chan struct{}, w.concurrency)
	for {
		if ctx.Err() != nil {
			w.log.Info().Str("worker_id", w.workerID).Msg("image job worker stopping")
			return
		}

		batch, err := w.jobs.Lease(ctx, w.concurrency, w.workerID)
		if err != nil {
			w.log.Error().Err(err).Msg("lease failed")
			if !w.sleep(ctx) {
				return
			}
			continue
		}
		if len(batch) == 0 {
			if !w.sleep(ctx) {
				return
			}
			continue
		}

		w.log.Debug().Int("batch", len(batch)).Msg("leased jobs")
		var wg sync.WaitGroup
		for _, job := range batch {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				// Unstarted jobs keep their lease and are reclaimed once
				// it goes stale.
				wg.Wait()
				return
			}
			wg.Add(1)
			go func(job *model.ImageJob) {
				defer wg.Done()
				defer func() { <-sem }()
				w.runOne(ctx, job)
			}(job)
		}
		wg.Wait()
	}
}

// runOne executes a single leased job. Execute never returns an error;
// everything it could not record is already logged, and the job either
// reached a state the store knows about or its lease will go stale.
func (w *ImageJobWorker) runOne(ctx context.Context, job *model.ImageJob) {
	start := time.Now()
	report := w.jobs.Execute(ctx, job)
	w.log.Info().
		Str("job_id", job.ID).
		Str("spot", job.SpotName).
		Str("outcome", string(report.Outcome)).
		Dur("duration", time.Since(start)).
		Msg("job finished")
}

func (w *ImageJobWorker) sleep(ctx context.Context) bool {
	select {
	case <-time.After(w.pollInterval):
		return true
	case <-ctx.Done():
		return false
	}
}
