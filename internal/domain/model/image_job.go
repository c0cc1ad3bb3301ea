package model

import "time"

type ImageJobStatus string

const (
	ImageJobStatusQueued     ImageJobStatus = "queued"
	ImageJobStatusProcessing ImageJobStatus = "processing"
	ImageJobStatusSucceeded  ImageJobStatus = "succeeded"
	ImageJobStatusFailed     ImageJobStatus = "failed"
)

// DefaultMaxAttempts is the retry ceiling applied when a producer does not
// ask for a specific one.
const DefaultMaxAttempts = 3

// ImageJob is one unit of spot-image work. (PlanID, SpotName) is the
// logical key; at most one row exists per pair. A job is owned by whoever
// holds its lease (LockedBy, LockedAt); a lease older than the configured
// staleness window counts as abandoned.
type ImageJob struct {
	ID          string         `json:"id"`
	PlanID      string         `json:"plan_id"`
	SpotName    string         `json:"spot_name"`
	Status      ImageJobStatus `json:"status"`
	Attempts    int            `json:"attempts"`
	MaxAttempts int            `json:"max_attempts"`
	LockedAt    *time.Time     `json:"locked_at,omitempty"`
	LockedBy    string         `json:"locked_by,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Terminal reports whether no further automatic transition will happen.
func (j *ImageJob) Terminal() bool {
	return j.Status == ImageJobStatusSucceeded || j.Status == ImageJobStatusFailed
}
