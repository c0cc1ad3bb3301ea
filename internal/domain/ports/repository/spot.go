package repository

import (
	"context"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
)

// SpotRepository is the port for guide spot persistence.
type SpotRepository interface {
	SaveBatch(ctx context.Context, tx Tx, spots []*model.Spot) error
	FindByPlanAndName(ctx context.Context, tx Tx, planID, name string) (*model.Spot, error)
	ListByPlan(ctx context.Context, tx Tx, planID string) ([]*model.Spot, error)
	// SetImage records the stored image reference and flips the spot to ready.
	SetImage(ctx context.Context, tx Tx, planID, name, imageURL string) error
	SetImageState(ctx context.Context, tx Tx, planID, name string, state model.SpotImageState) error
}
