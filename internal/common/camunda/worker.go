// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"onboarding-service/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every review worker.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// JobObserver receives one record per handled job.
type JobObserver interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration)
}

type observedHandler struct {
	next     JobHandler
	observer JobObserver
	taskType string
}

// Observe reports every Handle call on handler to observer.
func Observe(handler JobHandler, taskType string, observer JobObserver) JobHandler {
	return &observedHandler{next: handler, observer: observer, taskType: taskType}
}

func (h *observedHandler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.next.Handle(client, job)
	ctx := context.Background()
	h.observer.RecordJobProcessed(ctx, h.taskType, "handled")
	h.observer.RecordJobDuration(ctx, h.taskType, time.Since(start))
}

// Worker is an open job subscription for one task type.
type Worker struct {
	worker   worker.JobWorker
	log      logger.Logger
	taskType string
}

// StartWorker opens a job subscription. The Zeebe client is shared and is
// not closed by the worker.
func StartWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	log logger.Logger,
) *Worker {
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Name(taskType).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": maxJobsActive,
		"timeout":       timeout.String(),
	})

	return &Worker{worker: jobWorker, log: log, taskType: taskType}
}

func (w *Worker) TaskType() string {
	return w.taskType
}

// Stop closes the subscription and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.log.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
