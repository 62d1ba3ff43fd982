// internal/workers/review/index-application/handler.go
package indexapplication

import (
	"bytes"
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
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const TaskType = "index-application"

type ApplicationReader interface {
	Get(ctx context.Context, userEmail string) (*models.Application, error)
}

type Handler struct {
	config *Config
	client *elasticsearch.Client
	apps   ApplicationReader
	errors *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, client *elasticsearch.Client, apps ApplicationReader, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		client: client,
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

// Execute writes the application document under its application ID, so
// redelivered jobs overwrite rather than duplicate. A job for a submission
// that has since been replaced indexes nothing and reports superseded.
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
			Index:      h.config.Index,
			DocumentID: input.ApplicationID,
			Superseded: true,
		}, nil
	}

	body, err := json.Marshal(NewApplicationDocument(app))
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      h.config.Index,
		DocumentID: app.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, h.client)
	if err != nil {
		return nil, errors.NewIndexFailedError(h.config.Index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewIndexFailedError(h.config.Index, fmt.Errorf("elasticsearch responded %s", res.Status()))
	}

	var out indexResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, errors.NewIndexFailedError(h.config.Index, fmt.Errorf("decode response: %w", err))
	}

	h.logger.Info("application indexed", map[string]interface{}{
		"applicationId": app.ID,
		"index":         h.config.Index,
		"result":        out.Result,
	})

	return &Output{
		Indexed:    true,
		Index:      h.config.Index,
		DocumentID: app.ID,
		Result:     out.Result,
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
