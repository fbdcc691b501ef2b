package selectstrategy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ria-hunter/internal/models"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return l
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(LoadConfig(), &TestLogger{t: t})

	out, err := h.Execute(context.Background(), &Input{
		LLMOutcome:      models.LLMFailure("timeout", 4000),
		FallbackFilters: fallbackFilters(),
		Overrides:       &models.FilterOverrides{State: models.StringPtr("MO")},
	})
	require.NoError(t, err)

	assert.Equal(t, models.SearchStrategyFallback, out.SearchStrategy)
	assert.Equal(t, "timeout", out.FallbackReason)
	assert.Equal(t, "MO", *out.SelectedFilters.Location.State)
	assert.Equal(t, 5e8, *out.SelectedFilters.MinAum)
}

func TestHandler_Execute_ConfiguredThreshold(t *testing.T) {
	cfg := LoadConfig()
	cfg.ConfidenceThreshold = 0.95
	h := NewHandler(cfg, &TestLogger{t: t})

	out, err := h.Execute(context.Background(), &Input{
		LLMOutcome:      models.LLMSuccess(llmFilters(0.9), 100),
		FallbackFilters: fallbackFilters(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.SearchStrategyFallback, out.SearchStrategy)
	assert.Equal(t, ReasonLowConfidence, out.FallbackReason)
	assert.Equal(t, 0.95, h.Selector().Threshold())
}

func TestHandler_Execute_Errors(t *testing.T) {
	h := NewHandler(LoadConfig(), &TestLogger{t: t})

	_, err := h.Execute(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.Execute(ctx, &Input{})
	assert.ErrorIs(t, err, context.Canceled)
}
