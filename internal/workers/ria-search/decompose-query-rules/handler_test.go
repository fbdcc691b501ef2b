package decomposequeryrules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ria-hunter/internal/models"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: make(map[string]interface{})}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{t: l.t, fields: merged}
}

func createTestConfig() *Config {
	return &Config{
		FallbackConfidence: 0.5,
		Timeout:            time.Second,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(createTestConfig(), NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Text: "top 5 RIAs for private placements in St. Louis, MO"})
	require.NoError(t, err)

	assert.Equal(t, models.SourceFallback, out.Source)
	assert.Equal(t, models.QueryTypeTopNRanking, out.FallbackFilters.QueryType)
	assert.Equal(t, 0.5, out.FallbackFilters.Confidence)
	require.NotNil(t, out.FallbackFilters.Location.State)
	assert.Equal(t, "MO", *out.FallbackFilters.Location.State)
}

func TestHandler_Execute_ConfiguredConfidence(t *testing.T) {
	cfg := createTestConfig()
	cfg.FallbackConfidence = 0.35
	h := NewHandler(cfg, NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Text: "anything"})
	require.NoError(t, err)
	assert.Equal(t, 0.35, out.FallbackFilters.Confidence)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_NilInput(t *testing.T) {
	h := NewHandler(createTestConfig(), NewTestLogger(t))

	_, err := h.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
