// internal/workers/review/send-notification/handler.go
package sendnotification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"onboarding-service/internal/common/errors"
	"onboarding-service/internal/common/logger"
	"onboarding-service/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "send-notification"

// Emailer is satisfied by *aws.SESClient.
type Emailer interface {
	SendText(ctx context.Context, to, subject, body string) (string, error)
}

// Publisher is satisfied by *aws.SNSClient.
type Publisher interface {
	PublishToTopic(ctx context.Context, topicARN, subject, message string, attrs map[string]string) (string, error)
}

type Handler struct {
	config    *Config
	emailer   Emailer
	publisher Publisher
	errors    *errors.ErrorHandler
	logger    logger.Logger
	now       func() time.Time
}

func NewHandler(config *Config, emailer Emailer, publisher Publisher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		emailer:   emailer,
		publisher: publisher,
		errors:    errors.NewErrorHandler(log),
		logger:    log,
		now:       time.Now,
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

// Execute emails the applicant and, when configured, publishes a staff alert.
// Disabled channels are skipped; a failed channel fails the job for retry.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.UserEmail) == "" {
		return nil, errors.NewInvalidPayloadError("userEmail is required")
	}

	msg, err := applicantMessage(input)
	if err != nil {
		return nil, errors.NewInvalidPayloadError(err.Error())
	}

	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
	}

	if h.config.EmailEnabled && h.emailer != nil {
		id, err := h.emailer.SendText(ctx, input.UserEmail, msg.Subject, msg.Body)
		if err != nil {
			return nil, errors.NewNotificationSendFailedError("email", err)
		}
		output.EmailMessageID = id
		output.Status = StatusSent
	}

	if h.config.SNSEnabled && h.publisher != nil {
		staff := staffMessage(input)
		id, err := h.publisher.PublishToTopic(ctx, h.config.StaffTopicARN, staff.Subject, staff.Body, map[string]string{
			"notificationType": input.NotificationType,
			"status":           input.Status,
		})
		if err != nil {
			return nil, errors.NewNotificationSendFailedError("sns", err)
		}
		output.StaffMessageID = id
		output.Status = StatusSent
	}

	output.SentAt = h.now().UTC().Format(time.RFC3339)

	h.logger.Info("notification processed", map[string]interface{}{
		"applicationId":    input.ApplicationID,
		"notificationType": input.NotificationType,
		"status":           output.Status,
	})

	return output, nil
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
