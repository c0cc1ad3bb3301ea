package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/repository"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/logging"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/metrics"
)

// Compile-time check
var _ ImageJobUseCase = (*imageJobUC)(nil)

// ExecOutcome classifies what happened to one executed job.
type ExecOutcome string

const (
	// ExecSucceeded: image generated and the job is marked succeeded.
	ExecSucceeded ExecOutcome = "succeeded"
	// ExecRetrying: execution failed, attempts are under the ceiling and
	// the job is queued again.
	ExecRetrying ExecOutcome = "retrying"
	// ExecFailed: execution failed and the ceiling is reached; terminal.
	ExecFailed ExecOutcome = "failed"
	// ExecUnrecorded: the outcome could not be written back to the store.
	// The lease is left to go stale, which re-queues the job eventually.
	ExecUnrecorded ExecOutcome = "unrecorded"
)

// ExecReport is the result of executing one leased job. Job carries the
// post-report record when the store write went through; Err carries the
// execution error for every outcome but ExecSucceeded.
type ExecReport struct {
	Outcome ExecOutcome
	Job     *model.ImageJob
	Err     error
}

// ImageJobUseCase wraps the job store with execution and dispatch
// bookkeeping. Worker and push handler both funnel through Execute so the
// retry ceiling, spot fallout and metrics behave identically on both
// paths.
type ImageJobUseCase interface {
	// Lease atomically claims up to limit runnable jobs for holder workerID.
	Lease(ctx context.Context, limit int, workerID string) ([]*model.ImageJob, error)
	// Claim atomically claims the single job keyed (planID, spotName).
	// Returns domain.ErrNotFound when nothing is claimable.
	Claim(ctx context.Context, planID, spotName, workerID string) (*model.ImageJob, error)
	// Execute runs one leased job and records the outcome.
	Execute(ctx context.Context, job *model.ImageJob) ExecReport
	// Requeue moves a terminally failed job back to queued and re-dispatches
	// it under idemKey (derived from the job when empty).
	Requeue(ctx context.Context, jobID, idemKey string) (*model.ImageJob, error)
	Get(ctx context.Context, jobID string) (*model.ImageJob, error)
	List(ctx context.Context, status model.ImageJobStatus, limit int) ([]*model.ImageJob, error)
	Stats(ctx context.Context) (map[model.ImageJobStatus]int, error)
}

type imageJobUC struct {
	jobs       repository.ImageJobRepository
	spots      repository.SpotRepository
	generator  SpotImageUseCase
	dispatcher adapter.JobDispatcher
	staleAfter time.Duration
	log        *zerolog.Logger
}

func NewImageJobUseCase(
	jobs repository.ImageJobRepository,
	spots repository.SpotRepository,
	generator SpotImageUseCase,
	dispatcher adapter.JobDispatcher,
	staleAfter time.Duration,
	logger *zerolog.Logger,
) *imageJobUC {
	return &imageJobUC{
		jobs:       jobs,
		spots:      spots,
		generator:  generator,
		dispatcher: dispatcher,
		staleAfter: staleAfter,
		log:        logger,
	}
}

func (uc *imageJobUC) Lease(ctx context.Context, limit int, workerID string) ([]*model.ImageJob, error) {
	batch, err := uc.jobs.FetchAndLock(ctx, limit, workerID, uc.staleAfter)
	if err != nil {
		return nil, err
	}
	if len(batch) > 0 {
		metrics.AddJobLeases(len(batch))
	}
	return batch, nil
}

func (uc *imageJobUC) Claim(ctx context.Context, planID, spotName, workerID string) (*model.ImageJob, error) {
	job, err := uc.jobs.Claim(ctx, planID, spotName, workerID, uc.staleAfter)
	if err != nil {
		return nil, err
	}
	metrics.AddJobLeases(1)
	return job, nil
}

// Execute runs the generator for one leased job and reports the outcome
// back to the store. Failures stay contained to this job: every path out
// of here is a report, not a raised error, and a failed bookkeeping write
// is only logged, leaving the stale-lease reclaim as the safety net.
func (uc *imageJobUC) Execute(ctx context.Context, job *model.ImageJob) ExecReport {
	ctx = logging.WithJobID(logging.WithPlanID(ctx, job.PlanID), job.ID)
	l := logging.With(ctx, uc.log)

	execErr := uc.runGenerator(ctx, job)
	if execErr == nil {
		if err := uc.jobs.MarkSucceeded(ctx, repository.NoTX, job.ID); err != nil {
			l.Error().Err(err).Msg("job succeeded but store write failed")
			return ExecReport{Outcome: ExecUnrecorded, Err: err}
		}
		metrics.IncImageJob("succeeded")
		job.Status = model.ImageJobStatusSucceeded
		return ExecReport{Outcome: ExecSucceeded, Job: job}
	}

	post, err := uc.jobs.MarkFailed(ctx, repository.NoTX, job.ID, execErr.Error())
	if err != nil {
		l.Error().Err(err).Str("exec_error", execErr.Error()).
			Msg("job failed and store write failed, lease left to go stale")
		return ExecReport{Outcome: ExecUnrecorded, Err: execErr}
	}

	if post.Status == model.ImageJobStatusFailed {
		metrics.IncImageJob("failed")
		l.Warn().Err(execErr).Int("attempts", post.Attempts).Msg("job terminally failed")
		// Surface the terminal state on the spot. Best effort: the job row
		// itself already carries last_error for operators.
		if err := uc.spots.SetImageState(ctx, repository.NoTX, job.PlanID, job.SpotName, model.SpotImageUnavailable); err != nil {
			l.Error().Err(err).Msg("could not mark spot image unavailable")
		}
		return ExecReport{Outcome: ExecFailed, Job: post, Err: execErr}
	}

	metrics.IncImageJob("retried")
	l.Info().Err(execErr).Int("attempts", post.Attempts).Int("max_attempts", post.MaxAttempts).
		Msg("job failed, queued for retry")
	return ExecReport{Outcome: ExecRetrying, Job: post, Err: execErr}
}

// runGenerator shields the caller from a panicking adapter. The execution
// boundary reports failures as errors wherever it can, but a raised panic
// must still land in the mark-failed path rather than kill the batch.
func (uc *imageJobUC) runGenerator(ctx context.Context, job *model.ImageJob) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("image generation panicked: %v", rec)
		}
	}()
	_, err = uc.generator.GenerateForSpot(ctx, job.PlanID, job.SpotName)
	return err
}

func (uc *imageJobUC) Requeue(ctx context.Context, jobID, idemKey string) (*model.ImageJob, error) {
	job, err := uc.jobs.Requeue(ctx, repository.NoTX, jobID)
	if err != nil {
		return nil, err
	}
	if idemKey == "" {
		// Attempts are not reset by a requeue, so the pair (job, attempts)
		// is fresh for every requeue round.
		idemKey = fmt.Sprintf("%s-r%d", job.ID, job.Attempts)
	}
	if err := uc.dispatcher.Enqueue(ctx, adapter.JobDispatch{
		PlanID:         job.PlanID,
		SpotName:       job.SpotName,
		IdempotencyKey: idemKey,
	}); err != nil {
		// The row is queued either way; a polling worker or the next
		// operator requeue picks it up.
		uc.log.Error().Err(err).Str("job_id", job.ID).Msg("re-dispatch after requeue failed")
	}
	uc.log.Info().Str("job_id", job.ID).Int("attempts", job.Attempts).Msg("job requeued")
	return job, nil
}

func (uc *imageJobUC) Get(ctx context.Context, jobID string) (*model.ImageJob, error) {
	return uc.jobs.FindByID(ctx, repository.NoTX, jobID)
}

func (uc *imageJobUC) List(ctx context.Context, status model.ImageJobStatus, limit int) ([]*model.ImageJob, error) {
	return uc.jobs.ListByStatus(ctx, repository.NoTX, status, limit)
}

// Stats reports per-status job counts and refreshes the queue depth gauge
// as a side effect.
func (uc *imageJobUC) Stats(ctx context.Context) (map[model.ImageJobStatus]int, error) {
	counts, err := uc.jobs.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	for _, st := range []model.ImageJobStatus{
		model.ImageJobStatusQueued, model.ImageJobStatusProcessing,
		model.ImageJobStatusSucceeded, model.ImageJobStatusFailed,
	} {
		metrics.SetJobQueueDepth(string(st), counts[st])
	}
	return counts, nil
}
