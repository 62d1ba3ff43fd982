// internal/workers/review/validate-application-data/handler.go
package validateapplicationdata

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"onboarding-service/internal/common/errors"
	"onboarding-service/internal/common/logger"
	"onboarding-service/internal/common/metrics"
	"onboarding-service/internal/models"
	"onboarding-service/internal/onboarding"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "validate-application-data"

// ApplicationReader loads the submitted snapshot.
type ApplicationReader interface {
	Get(ctx context.Context, userEmail string) (*models.Application, error)
}

type Handler struct {
	config *Config
	apps   ApplicationReader
	errors *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, apps ApplicationReader, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		apps:   apps,
		errors: errors.NewErrorHandler(log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.GetKey(),
		"workflowKey": job.GetProcessInstanceKey(),
	})

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		h.failJob(ctx, client, job, errors.NewInvalidPayloadError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// Execute re-runs every section validator over the stored snapshot. A
// snapshot replaced by a newer submission is reported as superseded and not
// validated.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.UserEmail) == "" {
		return nil, errors.NewInvalidPayloadError("userEmail is required")
	}

	app, err := h.apps.Get(ctx, input.UserEmail)
	switch {
	case stderrors.Is(err, onboarding.ErrApplicationNotFound):
		return nil, errors.NewApplicationNotFoundError(input.UserEmail)
	case stderrors.Is(err, onboarding.ErrApplicationUnreadable):
		return nil, errors.NewApplicationValidationFailedError(err.Error())
	case err != nil:
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}

	if input.ApplicationID != "" && app.ID != input.ApplicationID {
		h.logger.Info("application superseded", map[string]interface{}{
			"applicationId": input.ApplicationID,
			"currentId":     app.ID,
		})
		return &Output{
			ApplicationID: input.ApplicationID,
			Superseded:    true,
			FieldErrors:   map[string]string{},
		}, nil
	}

	fe := onboarding.ValidateDraft(app.Draft, h.config.MaxInvoiceSize)
	h.logger.Info("validation completed", map[string]interface{}{
		"applicationId": app.ID,
		"isValid":       !fe.HasErrors(),
		"errorCount":    len(fe),
	})
	if fe.HasErrors() {
		return nil, errors.NewApplicationValidationFailedError(
			fmt.Sprintf("%d field errors: %s", len(fe), strings.Join(fe.Fields(), ", ")),
		).WithMetadata("fieldErrors", map[string]string(fe))
	}

	return &Output{
		ApplicationID: app.ID,
		IsValid:       true,
		FieldErrors:   map[string]string{},
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, extractErrorCode(err)).Inc()
	h.errors.HandleJobError(ctx, client, job, err)
}

func extractErrorCode(err error) string {
	if stdErr, ok := errors.AsStandardError(err); ok {
		return string(stdErr.Code)
	}
	return "INTERNAL_ERROR"
}
