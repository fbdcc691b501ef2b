package decomposequeryllm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "decompose-query-llm"
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
	config     *Config
	decomposer *Decomposer
	logger     Logger
}

func NewHandler(config *Config, backend Backend, log Logger) *Handler {
	return &Handler{
		config:     config,
		decomposer: NewDecomposer(backend, config.Timeout, config.MaxRetries),
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

	// The decomposer applies its own timeout; a failed attempt still
	// completes the job so the workflow can select the fallback.
	output, err := h.execute(context.Background(), &input)
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

	outcome := h.decomposer.Attempt(ctx, input.Text)

	if !outcome.Success {
		h.logger.Warn("llm decomposition failed", map[string]interface{}{
			"reason":     outcome.Reason,
			"durationMs": outcome.DurationMs,
		})
	} else {
		h.logger.Info("llm decomposition complete", map[string]interface{}{
			"queryType":  outcome.Filters.QueryType,
			"confidence": outcome.Filters.Confidence,
			"durationMs": outcome.DurationMs,
		})
	}

	return &Output{LLMOutcome: outcome}, nil
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

// Decomposer exposes the configured decomposer for in-process callers.
func (h *Handler) Decomposer() *Decomposer {
	return h.decomposer
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
