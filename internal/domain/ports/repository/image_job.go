package repository

import (
	"context"
	"time"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/model"
)

// ImageJobRepository is the durable job store for spot-image work.
//
// Lease semantics: FetchAndLock and Claim are the only ways a job becomes
// processing. Both are single atomic select-and-mark operations; two
// concurrent callers never receive the same row while its lease is live,
// and a processing row whose locked_at is older than staleAfter (or null)
// is treated as abandoned and may be re-leased.
type ImageJobRepository interface {
	// CreateBatch inserts one queued job per spot name, skipping names that
	// already have a row for this plan in any status. Input names are
	// de-duplicated preserving first-seen order. Returns the rows actually
	// inserted. Runs inside tx when one is supplied, so a caller can keep
	// job creation inside a larger transaction.
	CreateBatch(ctx context.Context, tx Tx, planID string, spotNames []string, maxAttempts int) ([]*model.ImageJob, error)

	// FetchAndLock atomically leases up to limit claimable jobs (queued, or
	// processing with a stale or null lease), oldest first, stamping each
	// with workerID. Rows locked by concurrent callers are skipped, never
	// waited on. An empty result is not an error.
	FetchAndLock(ctx context.Context, limit int, workerID string, staleAfter time.Duration) ([]*model.ImageJob, error)

	// Claim is the single-job analogue of FetchAndLock used by the push
	// path. Returns domain.ErrNotFound when no claimable job matches the
	// key, which callers treat as a benign duplicate delivery.
	Claim(ctx context.Context, planID, spotName, workerID string, staleAfter time.Duration) (*model.ImageJob, error)

	// MarkSucceeded finishes the job and clears its lease. Calling it again
	// on an already succeeded job is harmless.
	MarkSucceeded(ctx context.Context, tx Tx, jobID string) error

	// MarkFailed increments attempts and records errMsg. While attempts
	// stay under the ceiling the job goes back to queued; otherwise it
	// becomes failed (terminal). Returns the resulting record so callers
	// can branch on terminality.
	MarkFailed(ctx context.Context, tx Tx, jobID, errMsg string) (*model.ImageJob, error)

	// Requeue transitions a failed job back to queued without resetting
	// attempts. Returns domain.ErrJobNotRequeueable when the job is not
	// currently failed.
	Requeue(ctx context.Context, tx Tx, jobID string) (*model.ImageJob, error)

	FindByID(ctx context.Context, tx Tx, jobID string) (*model.ImageJob, error)
	ListByStatus(ctx context.Context, tx Tx, status model.ImageJobStatus, limit int) ([]*model.ImageJob, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.ImageJobStatus]int, error)
}
