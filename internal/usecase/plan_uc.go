package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/repository"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

// PlanUseCase manages travel plans.
type PlanUseCase interface {
	Create(ctx context.Context, title, destination string, days int, interests []string) (*model.TravelPlan, error)
	Get(ctx context.Context, id string) (*model.TravelPlan, error)
	List(ctx context.Context) ([]*model.TravelPlan, error)
	Delete(ctx context.Context, id string) error
}

type planUC struct {
	plans repository.TravelPlanRepository
	log   *zerolog.Logger
}

func NewPlanUseCase(plans repository.TravelPlanRepository, logger *zerolog.Logger) *planUC {
	return &planUC{plans: plans, log: logger}
}

func (uc *planUC) Create(ctx context.Context, title, destination string, days int, interests []string) (*model.TravelPlan, error) {
	plan, err := model.NewTravelPlan(uuid.NewString(), title, destination, days, interests)
	if err != nil {
		return nil, err
	}
	if err := uc.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	uc.log.Info().Str("plan_id", plan.ID).Str("destination", plan.Destination).Msg("plan created")
	return plan, nil
}

func (uc *planUC) Get(ctx context.Context, id string) (*model.TravelPlan, error) {
	return uc.plans.FindByID(ctx, repository.NoTX, id)
}

func (uc *planUC) List(ctx context.Context) ([]*model.TravelPlan, error) {
	return uc.plans.ListAll(ctx, repository.NoTX)
}

func (uc *planUC) Delete(ctx context.Context, id string) error {
	if err := uc.plans.Delete(ctx, repository.NoTX, id); err != nil {
		return err
	}
	uc.log.Info().Str("plan_id", id).Msg("plan deleted")
	return nil
}
