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

// Ensure spotRepo implements repository.SpotRepository
var _ repository.SpotRepository = (*spotRepo)(nil)

type spotRepo struct {
	pool *pgxpool.Pool
}

func NewSpotRepo(pool *pgxpool.Pool) *spotRepo {
	return &spotRepo{pool: pool}
}

func (r *spotRepo) SaveBatch(ctx context.Context, tx repository.Tx, spots []*model.Spot) error {
	if len(spots) == 0 {
		return domain.ErrInvalidArgument
	}

	// Regenerating a guide overwrites description and position but leaves
	// image columns alone: an already fetched image stays valid for the
	// same (plan, name) pair.
	const q = `
INSERT INTO spots (id, plan_id, name, description, seq, image_state, image_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (plan_id, name) DO UPDATE SET
  description = EXCLUDED.description,
  seq         = EXCLUDED.seq,
  updated_at  = EXCLUDED.updated_at;`

	for _, s := range spots {
		if s == nil || s.ID == "" || s.PlanID == "" || s.Name == "" {
			return domain.ErrInvalidArgument
		}
		s.UpdatedAt = time.Now()
		_, err := execSQL(ctx, r.pool, tx, q,
			s.ID, s.PlanID, s.Name, s.Description, s.Seq, string(s.ImageState), nullIfEmpty(s.ImageURL), s.CreatedAt, s.UpdatedAt)
		if err != nil {
			switch err {
			case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
				return err
			default:
				return domain.ErrOperationFailed
			}
		}
	}
	return nil
}

func (r *spotRepo) FindByPlanAndName(ctx context.Context, tx repository.Tx, planID, name string) (*model.Spot, error) {
	const q = `
SELECT id, plan_id, name, description, seq, image_state, COALESCE(image_url, ''), created_at, updated_at
  FROM spots
 WHERE plan_id = $1 AND name = $2;`

	row, err := pickRow(ctx, r.pool, tx, q, planID, name)
	if err != nil {
		return nil, err
	}
	return scanSpot(row)
}

func (r *spotRepo) ListByPlan(ctx context.Context, tx repository.Tx, planID string) ([]*model.Spot, error) {
	const q = `
SELECT id, plan_id, name, description, seq, image_state, COALESCE(image_url, ''), created_at, updated_at
  FROM spots
 WHERE plan_id = $1
 ORDER BY seq ASC;`

	rows, err := queryRows(ctx, r.pool, tx, q, planID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Spot
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *spotRepo) SetImage(ctx context.Context, tx repository.Tx, planID, name, imageURL string) error {
	if imageURL == "" {
		return domain.ErrInvalidArgument
	}

	const q = `
UPDATE spots
   SET image_state = 'ready', image_url = $3, updated_at = NOW()
 WHERE plan_id = $1 AND name = $2;`

	tag, err := execSQL(ctx, r.pool, tx, q, planID, name, imageURL)
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

func (r *spotRepo) SetImageState(ctx context.Context, tx repository.Tx, planID, name string, state model.SpotImageState) error {
	const q = `
UPDATE spots
   SET image_state = $3, updated_at = NOW()
 WHERE plan_id = $1 AND name = $2;`

	tag, err := execSQL(ctx, r.pool, tx, q, planID, name, string(state))
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

func scanSpot(row interface{ Scan(dest ...interface{}) error }) (*model.Spot, error) {
	s := &model.Spot{}
	var state string
	err := row.Scan(&s.ID, &s.PlanID, &s.Name, &s.Description, &s.Seq, &state, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	s.ImageState = model.SpotImageState(state)
	return s, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
