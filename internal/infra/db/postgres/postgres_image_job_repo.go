package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/repository"
)

// Ensure imageJobRepo implements repository.ImageJobRepository
var _ repository.ImageJobRepository = (*imageJobRepo)(nil)

// imageJobCols is the select list shared by every query returning full rows.
// locked_by and last_error are nullable in the schema but empty strings in
// the model.
const imageJobCols = `id, plan_id, spot_name, status, attempts, max_attempts, locked_at,
  COALESCE(locked_by, '') AS locked_by, COALESCE(last_error, '') AS last_error, created_at, updated_at`

type imageJobRepo struct {
	pool *pgxpool.Pool
}

func NewImageJobRepo(pool *pgxpool.Pool) *imageJobRepo {
	return &imageJobRepo{pool: pool}
}

func (r *imageJobRepo) CreateBatch(ctx context.Context, tx repository.Tx, planID string, spotNames []string, maxAttempts int) ([]*model.ImageJob, error) {
	if planID == "" || len(spotNames) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	if maxAttempts <= 0 {
		maxAttempts = model.DefaultMaxAttempts
	}

	const q = `
INSERT INTO spot_image_jobs (id, plan_id, spot_name, status, attempts, max_attempts, created_at, updated_at)
VALUES ($1, $2, $3, 'queued', 0, $4, NOW(), NOW())
ON CONFLICT (plan_id, spot_name) DO NOTHING
RETURNING ` + imageJobCols + `;`

	seen := make(map[string]struct{}, len(spotNames))
	out := make([]*model.ImageJob, 0, len(spotNames))
	for _, name := range spotNames {
		if name == "" {
			return nil, domain.ErrInvalidArgument
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		row, err := pickRow(ctx, r.pool, tx, q, uuid.NewString(), planID, name, maxAttempts)
		if err != nil {
			switch err {
			case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
				return nil, err
			default:
				return nil, domain.ErrOperationFailed
			}
		}
		job, err := scanImageJob(row)
		if err != nil {
			// DO NOTHING yields no row when the (plan, spot) pair already
			// has a job in any status.
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}

func (r *imageJobRepo) FetchAndLock(ctx context.Context, limit int, workerID string, staleAfter time.Duration) ([]*model.ImageJob, error) {
	if limit <= 0 || workerID == "" {
		return nil, domain.ErrInvalidArgument
	}

	// Single statement so select-and-mark is atomic: rows locked by a
	// concurrent worker are skipped, not waited on. A processing row whose
	// lease is older than staleAfter (or has no locked_at) is claimable
	// again.
	const q = `
WITH claimed AS (
  UPDATE spot_image_jobs
     SET status = 'processing', locked_by = $2, locked_at = NOW(), updated_at = NOW()
   WHERE id IN (
         SELECT id FROM spot_image_jobs
          WHERE status = 'queued'
             OR (status = 'processing' AND (locked_at IS NULL OR locked_at < NOW() - ($3::float8 * INTERVAL '1 second')))
          ORDER BY created_at ASC
            FOR UPDATE SKIP LOCKED
          LIMIT $1
   )
  RETURNING ` + imageJobCols + `
)
SELECT * FROM claimed ORDER BY created_at ASC;`

	rows, err := queryRows(ctx, r.pool, nil, q, limit, workerID, staleAfter.Seconds())
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.ImageJob
	for rows.Next() {
		job, err := scanImageJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *imageJobRepo) Claim(ctx context.Context, planID, spotName, workerID string, staleAfter time.Duration) (*model.ImageJob, error) {
	if planID == "" || spotName == "" || workerID == "" {
		return nil, domain.ErrInvalidArgument
	}

	const q = `
WITH claimed AS (
  UPDATE spot_image_jobs
     SET status = 'processing', locked_by = $3, locked_at = NOW(), updated_at = NOW()
   WHERE id IN (
         SELECT id FROM spot_image_jobs
          WHERE plan_id = $1 AND spot_name = $2
            AND (status = 'queued'
             OR (status = 'processing' AND (locked_at IS NULL OR locked_at < NOW() - ($4::float8 * INTERVAL '1 second'))))
            FOR UPDATE SKIP LOCKED
          LIMIT 1
   )
  RETURNING ` + imageJobCols + `
)
SELECT * FROM claimed;`

	row, err := pickRow(ctx, r.pool, nil, q, planID, spotName, workerID, staleAfter.Seconds())
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	return scanImageJob(row)
}

func (r *imageJobRepo) MarkSucceeded(ctx context.Context, tx repository.Tx, jobID string) error {
	if jobID == "" {
		return domain.ErrInvalidArgument
	}

	const q = `
UPDATE spot_image_jobs
   SET status = 'succeeded', locked_by = NULL, locked_at = NULL, updated_at = NOW()
 WHERE id = $1;`

	tag, err := execSQL(ctx, r.pool, tx, q, jobID)
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

func (r *imageJobRepo) MarkFailed(ctx context.Context, tx repository.Tx, jobID, errMsg string) (*model.ImageJob, error) {
	if jobID == "" {
		return nil, domain.ErrInvalidArgument
	}

	// attempts on the right-hand side is the pre-update value, so the status
	// branch and the increment see the same attempt count. A job under the
	// ceiling goes back to queued for another lease; at the ceiling it is
	// failed for good. Both branches keep the error and drop the lease.
	const q = `
UPDATE spot_image_jobs
   SET status = CASE WHEN attempts + 1 < max_attempts THEN 'queued' ELSE 'failed' END,
       attempts = attempts + 1,
       last_error = $2,
       locked_by = NULL,
       locked_at = NULL,
       updated_at = NOW()
 WHERE id = $1
RETURNING ` + imageJobCols + `;`

	row, err := pickRow(ctx, r.pool, tx, q, jobID, errMsg)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	return scanImageJob(row)
}

func (r *imageJobRepo) Requeue(ctx context.Context, tx repository.Tx, jobID string) (*model.ImageJob, error) {
	if jobID == "" {
		return nil, domain.ErrInvalidArgument
	}

	// attempts is deliberately not reset: a requeued job gets exactly one
	// more lease before MarkFailed turns it terminal again.
	const q = `
UPDATE spot_image_jobs
   SET status = 'queued', locked_by = NULL, locked_at = NULL, updated_at = NOW()
 WHERE id = $1 AND status = 'failed'
RETURNING ` + imageJobCols + `;`

	row, err := pickRow(ctx, r.pool, tx, q, jobID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	job, err := scanImageJob(row)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	// No row matched: tell a missing job apart from one in the wrong status.
	if _, err := r.FindByID(ctx, tx, jobID); err != nil {
		return nil, err
	}
	return nil, domain.ErrJobNotRequeueable
}

func (r *imageJobRepo) FindByID(ctx context.Context, tx repository.Tx, jobID string) (*model.ImageJob, error) {
	const q = `
SELECT ` + imageJobCols + `
  FROM spot_image_jobs
 WHERE id = $1;`
	return r.queryOne(ctx, tx, q, jobID)
}

func (r *imageJobRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.ImageJobStatus, limit int) ([]*model.ImageJob, error) {
	q := `
SELECT ` + imageJobCols + `
  FROM spot_image_jobs
 WHERE status = $1
 ORDER BY created_at ASC`
	args := []any{string(status)}
	if limit > 0 {
		q += `
 LIMIT $2`
		args = append(args, limit)
	}
	q += `;`

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.ImageJob
	for rows.Next() {
		job, err := scanImageJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *imageJobRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.ImageJobStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM spot_image_jobs GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	counts := make(map[model.ImageJobStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		counts[model.ImageJobStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return counts, nil
}

func (r *imageJobRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.ImageJob, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanImageJob(row)
}

func scanImageJob(row interface{ Scan(dest ...interface{}) error }) (*model.ImageJob, error) {
	j := &model.ImageJob{}
	var status string
	err := row.Scan(
		&j.ID, &j.PlanID, &j.SpotName, &status, &j.Attempts, &j.MaxAttempts,
		&j.LockedAt, &j.LockedBy, &j.LastError, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	j.Status = model.ImageJobStatus(status)
	return j, nil
}
