package dispatch

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain/ports/adapter"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/metrics"
)

// Compile-time check
var _ adapter.JobDispatcher = (*CloudTasksDispatcher)(nil)

// taskPayload is the JSON body delivered to the push handler.
type taskPayload struct {
	PlanID   string `json:"plan_id"`
	SpotName string `json:"spot_name"`
}

// CloudTasksDispatcher submits one HTTP task per job to a Cloud Tasks
// queue. When a dispatch carries an idempotency key the task is created
// under a name derived from that key, so the queue itself rejects a
// duplicate submission; that rejection is success here, not an error.
type CloudTasksDispatcher struct {
	client     *cloudtasks.Client
	queuePath  string
	handlerURL string
	deadline   time.Duration
	log        *zerolog.Logger
}

func NewCloudTasksDispatcher(ctx context.Context, project, location, queue, handlerURL string, logger *zerolog.Logger) (*CloudTasksDispatcher, error) {
	if project == "" || location == "" || queue == "" || handlerURL == "" {
		return nil, domain.ErrInvalidArgument
	}
	client, err := cloudtasks.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("cloud tasks client: %w", err)
	}
	return &CloudTasksDispatcher{
		client:     client,
		queuePath:  fmt.Sprintf("projects/%s/locations/%s/queues/%s", project, location, queue),
		handlerURL: handlerURL,
		deadline:   10 * time.Minute,
		log:        logger,
	}, nil
}

func (d *CloudTasksDispatcher) Enqueue(ctx context.Context, disp adapter.JobDispatch) error {
	if disp.PlanID == "" || disp.SpotName == "" {
		return domain.ErrInvalidArgument
	}

	body, err := json.Marshal(taskPayload{PlanID: disp.PlanID, SpotName: disp.SpotName})
	if err != nil {
		return err
	}
	target := d.handlerURL
	if disp.TargetURL != "" {
		target = disp.TargetURL
	}

	task := &taskspb.Task{
		DispatchDeadline: durationpb.New(d.deadline),
		MessageType: &taskspb.Task_HttpRequest{
			HttpRequest: &taskspb.HttpRequest{
				Url:        target,
				HttpMethod: taskspb.HttpMethod_POST,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       body,
			},
		},
	}
	if disp.IdempotencyKey != "" {
		task.Name = d.queuePath + "/tasks/" + TaskID(disp.IdempotencyKey)
	}

	_, err = d.client.CreateTask(ctx, &taskspb.CreateTaskRequest{
		Parent: d.queuePath,
		Task:   task,
	})
	if status.Code(err) == codes.AlreadyExists {
		// The queue already holds (or recently held) a task under this
		// name: somebody dispatched this job before us. Done.
		metrics.IncDispatch("duplicate")
		d.log.Debug().Str("plan_id", disp.PlanID).Str("spot", disp.SpotName).Msg("task already enqueued")
		return nil
	}
	if err != nil {
		metrics.IncDispatch("error")
		return fmt.Errorf("create task: %w", err)
	}
	metrics.IncDispatch("created")
	return nil
}

func (d *CloudTasksDispatcher) Close() error { return d.client.Close() }

// TaskID maps an idempotency key onto the task-name charset Cloud Tasks
// accepts. Hashing keeps arbitrary key content (spot names reach here via
// job IDs, but keys from requeues embed task names) out of the resource
// path while preserving determinism.
func TaskID(idempotencyKey string) string {
	return fmt.Sprintf("spot-image-%x", sha256.Sum256([]byte(idempotencyKey)))
}
