package queryelasticsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"

	commonerrors "ria-hunter/internal/common/errors"
	"ria-hunter/internal/common/logger"
	"ria-hunter/internal/common/metrics"
	"ria-hunter/internal/workers/data-access/query-elasticsearch/queries"
)

const (
	TaskType = "query-elasticsearch"
)

type Handler struct {
	config       *Config
	client       *elasticsearch.Client
	logger       logger.Logger
	errorHandler *commonerrors.ErrorHandler
}

func NewHandler(config *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		client:       client,
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

	index := input.IndexName
	if index == "" {
		index = h.config.DefaultIndex
	}
	queryType := input.QueryType
	if queryType == "" {
		queryType = queries.QueryNarrativeKNN
	}

	result, err := queries.Execute(ctx, h.client, queries.NarrativeQuery{
		Index:     index,
		QueryType: queryType,
		Field:     h.config.EmbeddingField,
		Vector:    input.Vector,
		Text:      input.Text,
		K:         input.K,
		State:     input.State,
	})
	if err != nil {
		switch {
		case ctx.Err() == context.DeadlineExceeded:
			return nil, commonerrors.NewQueryTimeoutError(queryType)
		case errors.Is(err, queries.ErrUnknownQueryType):
			return nil, commonerrors.NewInvalidQueryTypeError(queryType)
		case errors.Is(err, queries.ErrIndexNotFound), errors.Is(err, queries.ErrMissingIndex):
			return nil, commonerrors.NewIndexNotFoundError(index)
		case errors.Is(err, queries.ErrMissingVector), errors.Is(err, queries.ErrMissingText):
			return nil, commonerrors.NewQueryValidationFailedError(err.Error())
		}
		return nil, commonerrors.NewSearchQueryFailedError(index, err)
	}

	h.logger.Info("search executed", map[string]interface{}{
		"queryType": queryType,
		"matches":   len(result.Matches),
		"took":      result.Took,
	})

	return &Output{
		Matches:   result.Matches,
		TotalHits: result.TotalHits,
		MaxScore:  result.MaxScore,
		Took:      result.Took,
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

// Index returns a NarrativeIndex bound to the handler's client and defaults.
func (h *Handler) Index() *queries.NarrativeIndex {
	return queries.NewNarrativeIndex(h.client, h.config.DefaultIndex, h.config.EmbeddingField)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
