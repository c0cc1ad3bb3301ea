package adapter

import "context"

// JobDispatch identifies one spot-image job to hand to an execution path.
// IdempotencyKey, when set, makes duplicate submissions collapse at the
// queue service. TargetURL optionally overrides the configured handler.
type JobDispatch struct {
	PlanID         string
	SpotName       string
	IdempotencyKey string
	TargetURL      string
}

// JobDispatcher hands a created job to whatever will execute it. The push
// implementation submits a task to an external queue that calls back into
// the application; the null implementation does nothing and leaves the job
// for the polling worker.
//
// Enqueue MUST treat a duplicate-submission response from the external
// queue as success, not an error.
type JobDispatcher interface {
	Enqueue(ctx context.Context, d JobDispatch) error
}
