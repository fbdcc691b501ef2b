// internal/workers/data-access/query-postgresql/handler.go
package querypostgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	commonerrors "ria-hunter/internal/common/errors"
	"ria-hunter/internal/common/logger"
	"ria-hunter/internal/common/metrics"
	"ria-hunter/internal/workers/data-access/query-postgresql/queries"
)

const (
	TaskType = "query-postgresql"
)

type Handler struct {
	config       *Config
	repo         *queries.Repository
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		repo:         queries.NewRepository(db),
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
	if _, exists := queries.Registry[input.QueryType]; !exists {
		return nil, commonerrors.NewInvalidQueryTypeError(input.QueryType)
	}

	params := queries.Params{
		CRD:   input.CRD,
		CRDs:  input.CRDs,
		Query: input.Filters,
	}

	data, rowCount, execTime, err := queries.Execute(ctx, h.repo, input.QueryType, params)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, commonerrors.NewQueryTimeoutError(input.QueryType)
		}
		if errors.Is(err, queries.ErrMissingParam) {
			return nil, commonerrors.NewQueryValidationFailedError(err.Error())
		}
		return nil, commonerrors.NewQueryExecutionFailedError(input.QueryType, err)
	}

	h.logger.Info("query executed", map[string]interface{}{
		"queryType": input.QueryType,
		"rowCount":  rowCount,
		"execMs":    execTime,
	})

	return &Output{
		Data:               data,
		RowCount:           rowCount,
		QueryExecutionTime: execTime,
	}, nil
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

// Repository exposes the underlying adviser repository.
func (h *Handler) Repository() *queries.Repository {
	return h.repo
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
