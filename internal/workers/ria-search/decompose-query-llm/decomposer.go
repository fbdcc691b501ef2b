package decomposequeryllm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ria-hunter/internal/common/location"
	"ria-hunter/internal/common/metrics"
	"ria-hunter/internal/common/validation"
	"ria-hunter/internal/models"
)

var (
	ErrLLMTimeout      = errors.New("LLM_TIMEOUT")
	ErrLLMTransport    = errors.New("LLM_TRANSPORT_FAILED")
	ErrResponseInvalid = errors.New("LLM_RESPONSE_INVALID")
	ErrLLMCanceled     = errors.New("LLM_CANCELED")
)

// Failure reasons carried by models.LLMOutcome.
const (
	ReasonTimeout         = "timeout"
	ReasonTransport       = "transport"
	ReasonInvalidResponse = "invalid_response"
	ReasonCanceled        = "canceled"
)

// Decomposer wraps a Backend with a bounded timeout, a transient-only retry
// policy and shape validation. A value it returns without error is complete.
type Decomposer struct {
	backend    Backend
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
}

func NewDecomposer(backend Backend, timeout time.Duration, maxRetries int) *Decomposer {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Decomposer{
		backend:    backend,
		timeout:    timeout,
		maxRetries: maxRetries,
		backoff:    100 * time.Millisecond,
	}
}

// Decompose returns validated filters or one of ErrLLMTimeout,
// ErrLLMTransport, ErrResponseInvalid, ErrLLMCanceled.
func (d *Decomposer) Decompose(ctx context.Context, text string) (models.StructuredFilters, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var raw []byte
	var lastErr error

	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * d.backoff
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return models.StructuredFilters{}, contextError(ctx)
			}
		}

		raw, lastErr = d.backend.Decompose(ctx, text)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return models.StructuredFilters{}, contextError(ctx)
		}
		if errors.Is(lastErr, ErrResponseInvalid) || !isTransient(lastErr) {
			break
		}
	}

	if lastErr != nil {
		if errors.Is(lastErr, ErrResponseInvalid) {
			return models.StructuredFilters{}, lastErr
		}
		return models.StructuredFilters{}, fmt.Errorf("%w: %v", ErrLLMTransport, lastErr)
	}

	return ParseFilters(raw)
}

// Attempt runs Decompose and folds the result into a tagged outcome,
// recording duration and failure metrics.
func (d *Decomposer) Attempt(ctx context.Context, text string) models.LLMOutcome {
	start := time.Now()
	filters, err := d.Decompose(ctx, text)
	elapsed := time.Since(start)
	metrics.DecompositionDuration.WithLabelValues(string(models.SourceLLM)).Observe(elapsed.Seconds())

	if err != nil {
		reason := Reason(err)
		metrics.LLMFailures.WithLabelValues(reason).Inc()
		return models.LLMFailure(reason, elapsed.Milliseconds())
	}
	return models.LLMSuccess(filters, elapsed.Milliseconds())
}

// Reason maps a Decompose error to its outcome reason.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrLLMTimeout):
		return ReasonTimeout
	case errors.Is(err, ErrLLMCanceled):
		return ReasonCanceled
	case errors.Is(err, ErrResponseInvalid):
		return ReasonInvalidResponse
	}
	return ReasonTransport
}

func contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrLLMTimeout
	}
	return ErrLLMCanceled
}

// ParseFilters validates a serialized decomposition and converts it to
// StructuredFilters. Both a bare object and a {"filters": {...}} envelope
// are accepted, with or without a markdown code fence around them.
func ParseFilters(raw []byte) (models.StructuredFilters, error) {
	var doc interface{}
	if err := json.Unmarshal([]byte(stripCodeFence(string(raw))), &doc); err != nil {
		return models.StructuredFilters{}, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	doc = unwrapEnvelope(doc)

	if result := validation.ValidateDecomposition(doc); !result.Valid {
		return models.StructuredFilters{}, fmt.Errorf("%w: %s", ErrResponseInvalid, result.Error())
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return models.StructuredFilters{}, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	var filters models.StructuredFilters
	if err := json.Unmarshal(normalized, &filters); err != nil {
		return models.StructuredFilters{}, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}

	if filters.Location.City != nil && strings.TrimSpace(*filters.Location.City) == "" {
		filters.Location.City = nil
	}
	if filters.Location.State != nil && strings.TrimSpace(*filters.Location.State) == "" {
		filters.Location.State = nil
	}
	if filters.Location.State != nil {
		code, ok := location.NormalizeState(*filters.Location.State)
		if !ok {
			return models.StructuredFilters{}, fmt.Errorf("%w: invalid state %q", ErrResponseInvalid, *filters.Location.State)
		}
		filters.Location.State = &code
	}
	return filters, nil
}

func unwrapEnvelope(doc interface{}) interface{} {
	outer, ok := doc.(map[string]interface{})
	if !ok {
		return doc
	}
	inner, ok := outer["filters"].(map[string]interface{})
	if !ok {
		return doc
	}
	if _, has := inner["confidence"]; !has {
		if c, ok := outer["confidence"]; ok {
			inner["confidence"] = c
		}
	}
	return inner
}
