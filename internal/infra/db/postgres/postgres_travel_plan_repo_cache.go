package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/repository"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/metrics"
	red "github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/redis"
)

var _ repository.TravelPlanRepository = (*travelPlanRepoCacheDecorator)(nil)

// travelPlanRepoCacheDecorator serves reads from Redis and invalidates on
// every write. Plans change rarely after the guide is generated, so a
// short TTL plus write-through invalidation keeps the cache honest.
type travelPlanRepoCacheDecorator struct {
	inner repository.TravelPlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewTravelPlanRepoCacheDecorator(inner repository.TravelPlanRepository, cache red.RedisClient) repository.TravelPlanRepository {
	return &travelPlanRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func (d *travelPlanRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.TravelPlan, error) {
	key := fmt.Sprintf("travel_plan:%s", id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("travel_plan", "hit")
		var plan model.TravelPlan
		if json.Unmarshal([]byte(val), &plan) == nil {
			return &plan, nil
		}
	}

	metrics.IncCacheRequest("travel_plan", "miss")
	plan, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		bytes, _ := json.Marshal(plan)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return plan, nil
}

func (d *travelPlanRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.TravelPlan, error) {
	key := "travel_plans:all"
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("travel_plan_list", "hit")
		var plans []*model.TravelPlan
		if json.Unmarshal([]byte(val), &plans) == nil {
			return plans, nil
		}
	}

	metrics.IncCacheRequest("travel_plan_list", "miss")
	plans, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		bytes, _ := json.Marshal(plans)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return plans, nil
}

// Write operations invalidate both the per-plan entry and the list.
func (d *travelPlanRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.TravelPlan) error {
	d.cache.Del(ctx, fmt.Sprintf("travel_plan:%s", plan.ID))
	d.cache.Del(ctx, "travel_plans:all")
	return d.inner.Save(ctx, tx, plan)
}

func (d *travelPlanRepoCacheDecorator) SetStatus(ctx context.Context, tx repository.Tx, id string, status model.PlanStatus) error {
	d.cache.Del(ctx, fmt.Sprintf("travel_plan:%s", id))
	d.cache.Del(ctx, "travel_plans:all")
	return d.inner.SetStatus(ctx, tx, id, status)
}

func (d *travelPlanRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	d.cache.Del(ctx, fmt.Sprintf("travel_plan:%s", id))
	d.cache.Del(ctx, "travel_plans:all")
	return d.inner.Delete(ctx, tx, id)
}
