// internal/workers/review/apply-review-decision/handler.go
package applyreviewdecision

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

const TaskType = "apply-review-decision"

type ReviewUpdater interface {
	UpdateReview(ctx context.Context, userEmail string, decision models.ReviewDecision) (*models.Application, error)
}

type Handler struct {
	config *Config
	apps   ReviewUpdater
	errors *errors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, apps ReviewUpdater, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		apps:   apps,
		errors: errors.NewErrorHandler(log),
		logger: log,
		now:    time.Now,
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

// Execute records a reviewer's final decision. Only approved and rejected are
// accepted here; the repository enforces the status transition. A decision
// for a submission that has since been replaced is reported as superseded
// and not written.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	status, _ := models.ParseApplicationStatus(input.Decision)

	decision := models.ReviewDecision{
		ApplicationID: strings.TrimSpace(input.ApplicationID),
		Status:        status,
		ReviewedBy:    strings.TrimSpace(input.ReviewedBy),
		Notes:         strings.TrimSpace(input.Notes),
		ReviewedAt:    h.now().UTC(),
	}

	app, err := h.apps.UpdateReview(ctx, input.UserEmail, decision)
	if stderrors.Is(err, onboarding.ErrApplicationNotFound) {
		return nil, errors.NewApplicationNotFoundError(input.UserEmail)
	}
	if stderrors.Is(err, onboarding.ErrApplicationSuperseded) {
		h.logger.Info("application superseded", map[string]interface{}{
			"applicationId": input.ApplicationID,
			"decision":      input.Decision,
		})
		return &Output{
			ApplicationID: input.ApplicationID,
			Superseded:    true,
		}, nil
	}
	if err != nil {
		if _, ok := errors.AsStandardError(err); ok {
			return nil, err
		}
		return nil, errors.NewDatabaseUpdateFailedError(err)
	}

	h.logger.Info("review decision applied", map[string]interface{}{
		"applicationId": app.ID,
		"status":        app.Status,
		"reviewedBy":    app.ReviewedBy,
	})

	return &Output{
		ApplicationID: app.ID,
		Status:        string(app.Status),
		ReviewedBy:    app.ReviewedBy,
		ReviewedAt:    app.ReviewedAt.UTC().Format(time.RFC3339),
	}, nil
}

func validateInput(input *Input) error {
	if strings.TrimSpace(input.UserEmail) == "" {
		return errors.NewInvalidPayloadError("userEmail is required")
	}
	if strings.TrimSpace(input.ReviewedBy) == "" {
		return errors.NewInvalidPayloadError("reviewedBy is required")
	}
	status, ok := models.ParseApplicationStatus(input.Decision)
	if !ok || !status.IsFinal() {
		return errors.NewInvalidPayloadError(fmt.Sprintf("decision must be approved or rejected, got %q", input.Decision))
	}
	return nil
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
