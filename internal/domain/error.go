package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Job lifecycle errors
	ErrJobNotRequeueable = errors.New("job is not in a requeueable state")
	ErrPlanBusy          = errors.New("plan has in-flight image jobs")

	// Guide generation errors
	ErrGuideNotReady   = errors.New("guide has not been generated yet")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrEmptyGuideDraft = errors.New("guide writer returned no spots")
)
