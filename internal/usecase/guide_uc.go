package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/repository"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/logging"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/metrics"
	red "github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/redis"
)

// Compile-time check
var _ GuideUseCase = (*guideUC)(nil)

// GuideResult reports what one guide generation produced.
type GuideResult struct {
	Plan       *model.TravelPlan `json:"plan"`
	Spots      []*model.Spot     `json:"spots"`
	JobsQueued int               `json:"jobs_queued"`
}

// GuideUseCase drives guide generation for a plan: the text model drafts
// the spot list, spots and image jobs are persisted in one transaction,
// and every newly created job is handed to the dispatcher.
type GuideUseCase interface {
	Generate(ctx context.Context, planID string) (*GuideResult, error)
	Spots(ctx context.Context, planID string) ([]*model.Spot, error)
}

type guideUC struct {
	plans       repository.TravelPlanRepository
	spots       repository.SpotRepository
	jobs        repository.ImageJobRepository
	writer      adapter.GuideWriter
	dispatcher  adapter.JobDispatcher
	tm          repository.TransactionManager
	limiter     *red.RateLimiter
	perHour     int
	maxAttempts int
	log         *zerolog.Logger
}

func NewGuideUseCase(
	plans repository.TravelPlanRepository,
	spots repository.SpotRepository,
	jobs repository.ImageJobRepository,
	writer adapter.GuideWriter,
	dispatcher adapter.JobDispatcher,
	tm repository.TransactionManager,
	limiter *red.RateLimiter,
	perHour int,
	maxAttempts int,
	logger *zerolog.Logger,
) *guideUC {
	return &guideUC{
		plans:       plans,
		spots:       spots,
		jobs:        jobs,
		writer:      writer,
		dispatcher:  dispatcher,
		tm:          tm,
		limiter:     limiter,
		perHour:     perHour,
		maxAttempts: maxAttempts,
		log:         logger,
	}
}

// Generate runs the full producer flow. Spots and their image jobs are
// written in a single transaction, so a failed generation never leaves
// orphaned jobs behind. Dispatch happens after commit, one call per job
// actually created, before control returns to the caller.
func (uc *guideUC) Generate(ctx context.Context, planID string) (*GuideResult, error) {
	if planID == "" {
		return nil, domain.ErrInvalidArgument
	}
	ctx = logging.WithPlanID(ctx, planID)
	l := logging.With(ctx, uc.log)

	plan, err := uc.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}

	if uc.limiter != nil {
		ok, err := uc.limiter.Allow(ctx, red.GuideKey(planID), uc.perHour, time.Hour)
		if err != nil {
			l.Warn().Err(err).Msg("rate limiter unavailable, letting request through")
		} else if !ok {
			return nil, domain.ErrRateLimited
		}
	}

	if err := uc.plans.SetStatus(ctx, repository.NoTX, planID, model.PlanStatusGenerating); err != nil {
		return nil, err
	}

	composeStart := time.Now()
	drafts, err := uc.writer.ComposeGuide(ctx, plan.Destination, plan.Days, plan.Interests)
	metrics.ObserveGuideCompose(int(time.Since(composeStart)/time.Millisecond), err == nil && len(drafts) > 0)
	if err != nil {
		// Best effort: leave the plan in a state an operator can see.
		_ = uc.plans.SetStatus(ctx, repository.NoTX, planID, model.PlanStatusFailed)
		return nil, err
	}
	if len(drafts) == 0 {
		_ = uc.plans.SetStatus(ctx, repository.NoTX, planID, model.PlanStatusFailed)
		return nil, domain.ErrEmptyGuideDraft
	}

	spots := make([]*model.Spot, 0, len(drafts))
	names := make([]string, 0, len(drafts))
	for i, d := range drafts {
		s, err := model.NewSpot(uuid.NewString(), planID, d.Name, d.Description, i)
		if err != nil {
			// A nameless draft is a model glitch, not fatal for the guide.
			l.Warn().Int("seq", i).Msg("dropping unnamed spot draft")
			continue
		}
		spots = append(spots, s)
		names = append(names, s.Name)
	}
	if len(spots) == 0 {
		_ = uc.plans.SetStatus(ctx, repository.NoTX, planID, model.PlanStatusFailed)
		return nil, domain.ErrEmptyGuideDraft
	}

	var created []*model.ImageJob
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.spots.SaveBatch(ctx, tx, spots); err != nil {
			return err
		}
		if err := uc.plans.SetStatus(ctx, tx, planID, model.PlanStatusReady); err != nil {
			return err
		}
		created, err = uc.jobs.CreateBatch(ctx, tx, planID, names, uc.maxAttempts)
		return err
	})
	if err != nil {
		_ = uc.plans.SetStatus(ctx, repository.NoTX, planID, model.PlanStatusFailed)
		return nil, err
	}

	uc.dispatchAll(ctx, created)

	plan.Status = model.PlanStatusReady
	l.Info().Int("spots", len(spots)).Int("jobs_queued", len(created)).Msg("guide generated")
	return &GuideResult{Plan: plan, Spots: spots, JobsQueued: len(created)}, nil
}

// dispatchAll enqueues one dispatch per created job. The job ID doubles as
// the idempotency key, so a crashed re-run of the same producer cannot
// double-submit. Enqueue errors are logged, never propagated: the row is
// already durable and a polling worker or an operator requeue can pick it
// up later.
func (uc *guideUC) dispatchAll(ctx context.Context, created []*model.ImageJob) {
	if len(created) == 0 {
		return
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, job := range created {
		job := job
		g.Go(func() error {
			err := uc.dispatcher.Enqueue(ctx, adapter.JobDispatch{
				PlanID:         job.PlanID,
				SpotName:       job.SpotName,
				IdempotencyKey: job.ID,
			})
			if err != nil {
				uc.log.Error().Err(err).Str("job_id", job.ID).Str("spot", job.SpotName).
					Msg("dispatch failed, job stays queued")
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (uc *guideUC) Spots(ctx context.Context, planID string) ([]*model.Spot, error) {
	if planID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := uc.plans.FindByID(ctx, repository.NoTX, planID); err != nil {
		return nil, err
	}
	return uc.spots.ListByPlan(ctx, repository.NoTX, planID)
}
