// internal/workers/ria-search/select-strategy/handler.go
package selectstrategy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"ria-hunter/internal/common/metrics"
)

const (
	TaskType = "select-strategy"
)

var (
	ErrInvalidInput = errors.New("QUERY_VALIDATION_FAILED")
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config   *Config
	selector *Selector
	logger   Logger
}

func NewHandler(config *Config, log Logger) *Handler {
	return &Handler{
		config:   config,
		selector: NewSelector(config.ConfidenceThreshold),
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, fmt.Errorf("%w: parse input: %v", ErrInvalidInput, err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	selection := h.selector.Select(input.LLMOutcome, input.FallbackFilters)
	filters := ApplyOverrides(selection.Filters, input.Overrides)

	metrics.SearchRequests.WithLabelValues(string(selection.Strategy), string(filters.QueryType)).Inc()

	fields := map[string]interface{}{
		"searchStrategy": selection.Strategy,
		"queryType":      filters.QueryType,
		"confidence":     filters.Confidence,
	}
	if selection.Reason != "" {
		fields["fallbackReason"] = selection.Reason
	}
	h.logger.Info("strategy selected", fields)

	return &Output{
		SelectedFilters: filters,
		SearchStrategy:  selection.Strategy,
		FallbackReason:  selection.Reason,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)

	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey": job.Key,
		"error":  err.Error(),
	})

	_, _ = client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(ErrInvalidInput.Error()).
		ErrorMessage(err.Error()).
		Send(context.Background())
}

// Selector exposes the configured selector for in-process callers.
func (h *Handler) Selector() *Selector {
	return h.selector
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
