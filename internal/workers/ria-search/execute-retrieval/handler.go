// internal/workers/ria-search/execute-retrieval/handler.go
package executeretrieval

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
	TaskType = "execute-retrieval"
)

type Handler struct {
	config       *Config
	executor     *Executor
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, repo Repository, index VectorIndex, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		executor:     NewExecutor(config, repo, index, l),
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

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.ObserveJob(TaskType, start, string(commonerrors.AsStandardError(err).Code))
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.ObserveJob(TaskType, start, "")
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, commonerrors.NewQueryValidationFailedError("input cannot be nil")
	}

	limit := EffectiveLimit(input.Limit, input.Filters.TopN, h.config.DefaultLimit, h.config.MaxLimit)

	result, err := h.executor.Retrieve(ctx, input.Filters, input.Vector, limit)
	if err != nil {
		return nil, err
	}

	h.logger.Info("retrieval complete", map[string]interface{}{
		"queryType": input.Filters.QueryType,
		"rowCount":  len(result.Rows),
		"matches":   len(result.Matches),
		"sortBy":    result.SortBy,
		"degraded":  result.Degraded,
	})

	return &Output{Retrieval: *result, Limit: limit}, nil
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

// Executor exposes the configured executor for in-process callers.
func (h *Handler) Executor() *Executor {
	return h.executor
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
