package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/repository"
)

// Ensure travelPlanRepo implements repository.TravelPlanRepository
var _ repository.TravelPlanRepository = (*travelPlanRepo)(nil)

type travelPlanRepo struct {
	pool *pgxpool.Pool
}

func NewTravelPlanRepo(pool *pgxpool.Pool) *travelPlanRepo {
	return &travelPlanRepo{pool: pool}
}

func (r *travelPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.TravelPlan) error {
	if plan.IsZero() {
		return domain.ErrInvalidArgument
	}
	plan.UpdatedAt = time.Now()

	const q = `
INSERT INTO travel_plans (id, title, destination, days, interests, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
  title       = EXCLUDED.title,
  destination = EXCLUDED.destination,
  days        = EXCLUDED.days,
  interests   = EXCLUDED.interests,
  status      = EXCLUDED.status,
  updated_at  = EXCLUDED.updated_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		plan.ID, plan.Title, plan.Destination, plan.Days, plan.Interests, string(plan.Status), plan.CreatedAt, plan.UpdatedAt)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *travelPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.TravelPlan, error) {
	const q = `
SELECT id, title, destination, days, interests, status, created_at, updated_at
  FROM travel_plans
 WHERE id = $1;`

	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanTravelPlan(row)
}

func (r *travelPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.TravelPlan, error) {
	const q = `
SELECT id, title, destination, days, interests, status, created_at, updated_at
  FROM travel_plans
 ORDER BY created_at DESC;`

	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.TravelPlan
	for rows.Next() {
		p, err := scanTravelPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *travelPlanRepo) SetStatus(ctx context.Context, tx repository.Tx, id string, status model.PlanStatus) error {
	const q = `
UPDATE travel_plans
   SET status = $2, updated_at = NOW()
 WHERE id = $1;`

	tag, err := execSQL(ctx, r.pool, tx, q, id, string(status))
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *travelPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	// Refuse while image jobs are still in flight; their worker would
	// otherwise resolve spots against a plan that no longer exists.
	const countQ = `
SELECT COUNT(1) FROM spot_image_jobs
 WHERE plan_id = $1 AND status IN ('queued', 'processing');`

	row, err := pickRow(ctx, r.pool, tx, countQ, id)
	if err != nil {
		return err
	}
	var live int
	if err := row.Scan(&live); err != nil {
		return domain.ErrReadDatabaseRow
	}
	if live > 0 {
		return domain.ErrPlanBusy
	}

	const q = `DELETE FROM travel_plans WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTravelPlan(row interface{ Scan(dest ...interface{}) error }) (*model.TravelPlan, error) {
	p := &model.TravelPlan{}
	var status string
	err := row.Scan(&p.ID, &p.Title, &p.Destination, &p.Days, &p.Interests, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	p.Status = model.PlanStatus(status)
	return p, nil
}
