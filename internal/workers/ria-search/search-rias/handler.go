// internal/workers/ria-search/search-rias/handler.go
package searchrias

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	commonerrors "ria-hunter/internal/common/errors"
	"ria-hunter/internal/common/logger"
	"ria-hunter/internal/common/metrics"
)

const (
	TaskType = "search-rias"
)

type Handler struct {
	config       *Config
	pipeline     *Pipeline
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		pipeline:     NewPipeline(config, deps, l),
		logger:       l,
		errorHandler: commonerrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		stdErr := commonerrors.NewQueryValidationFailedError(fmt.Sprintf("parse input: %v", err))
		metrics.ObserveJob(TaskType, start, string(stdErr.Code))
		h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
		return
	}

	output, err := h.execute(context.Background(), &input)
	if err != nil {
		metrics.ObserveJob(TaskType, start, string(commonerrors.AsStandardError(err).Code))
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	errorCode := ""
	if output.SearchResponse.Error != nil {
		errorCode = output.SearchResponse.Error.Code
	}
	metrics.ObserveJob(TaskType, start, errorCode)
	h.completeJob(client, job, output)
}

// execute rejects invalid input as an error so the workflow sees a BPMN
// error; retrieval failures complete the job with an error response.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, commonerrors.NewQueryValidationFailedError("input cannot be nil")
	}
	req := input.Request()
	if stdErr := ValidateRequest(req); stdErr != nil {
		return nil, stdErr
	}

	return &Output{SearchResponse: h.pipeline.Search(ctx, req)}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

// Pipeline exposes the configured pipeline for in-process callers.
func (h *Handler) Pipeline() *Pipeline {
	return h.pipeline
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
