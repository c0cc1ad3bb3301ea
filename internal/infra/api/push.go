package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/narumikr/ai-hackathon-4th-sub000/internal/domain"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/logging"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/infra/metrics"
	"github.com/narumikr/ai-hackathon-4th-sub000/internal/usecase"
)

// Cloud Tasks stamps these on every HTTP-target delivery. The queue name
// is the authorization check; the task name seeds re-dispatch keys.
const (
	headerQueueName = "X-CloudTasks-QueueName"
	headerTaskName  = "X-CloudTasks-TaskName"
)

type pushTaskRequest struct {
	PlanID   string `json:"plan_id"`
	SpotName string `json:"spot_name"`
}

// handlePushTask executes exactly one job per delivered task.
//
// Status codes are the contract with the queue: 2xx acknowledges the
// task, 5xx makes the queue redeliver it. A job that fails while still
// under its attempt ceiling therefore answers 500 on purpose; a job that
// just went terminal is instead requeued and re-dispatched under a fresh
// idempotency key, because the queue's own retry budget may be smaller
// than ours.
func (s *Server) handlePushTask(w http.ResponseWriter, r *http.Request) {
	l := logging.With(r.Context(), s.log)

	if q := r.Header.Get(headerQueueName); q == "" || q != s.queue {
		metrics.IncPushDelivery("unauthorized")
		l.Warn().Str("queue_header", q).Msg("push delivery from unexpected origin rejected")
		writeError(w, http.StatusForbidden, "not a recognized task queue")
		return
	}

	var req pushTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" || req.SpotName == "" {
		metrics.IncPushDelivery("error")
		writeError(w, http.StatusBadRequest, "invalid task payload")
		return
	}
	ctx := logging.WithSpot(logging.WithPlanID(r.Context(), req.PlanID), req.SpotName)
	l = logging.With(ctx, s.log)

	taskName := r.Header.Get(headerTaskName)
	holder := "push-" + taskName
	if taskName == "" {
		holder = "push-" + uuid.NewString()
	}

	job, err := s.jobUC.Claim(ctx, req.PlanID, req.SpotName, holder)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Duplicate delivery, or the job already reached a terminal
			// state. Acknowledge so the queue stops redelivering.
			metrics.IncPushDelivery("skipped")
			writeJSON(w, http.StatusOK, map[string]string{"result": "skipped"})
			return
		}
		metrics.IncPushDelivery("error")
		l.Error().Err(err).Msg("push claim failed")
		writeError(w, http.StatusInternalServerError, "claim failed")
		return
	}

	report := s.jobUC.Execute(ctx, job)
	switch report.Outcome {
	case usecase.ExecSucceeded:
		metrics.IncPushDelivery("succeeded")
		writeJSON(w, http.StatusOK, map[string]string{"result": "succeeded", "job_id": job.ID})

	case usecase.ExecRetrying:
		metrics.IncPushDelivery("retrying")
		writeError(w, http.StatusInternalServerError, "job failed, retry via queue")

	case usecase.ExecFailed:
		// Terminal under our ceiling. Give the job a fresh round: back to
		// queued, new task under a new idempotency key.
		idemKey := ""
		if taskName != "" {
			idemKey = fmt.Sprintf("%s-r%d", taskName, report.Job.Attempts)
		}
		if _, err := s.jobUC.Requeue(ctx, job.ID, idemKey); err != nil {
			metrics.IncPushDelivery("error")
			l.Error().Err(err).Msg("requeue after terminal failure failed")
			writeError(w, http.StatusInternalServerError, "requeue failed")
			return
		}
		metrics.IncPushDelivery("requeued")
		writeJSON(w, http.StatusOK, map[string]string{"result": "requeued", "job_id": job.ID})

	default: // usecase.ExecUnrecorded
		metrics.IncPushDelivery("error")
		writeError(w, http.StatusInternalServerError, "outcome not recorded")
	}
}
