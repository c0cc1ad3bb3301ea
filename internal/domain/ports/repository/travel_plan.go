package repository

import (
	"context"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
)

// TravelPlanRepository is the port for travel plan persistence.
type TravelPlanRepository interface {
	Save(ctx context.Context, tx Tx, plan *model.TravelPlan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.TravelPlan, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.TravelPlan, error)
	SetStatus(ctx context.Context, tx Tx, id string, status model.PlanStatus) error
	Delete(ctx context.Context, tx Tx, id string) error
}
