package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveJob(t *testing.T) {
	before := testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues("metrics-test"))
	ObserveJob("metrics-test", time.Now(), "")
	assert.Equal(t, before+1, testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues("metrics-test")))

	failedBefore := testutil.ToFloat64(WorkerJobsFailed.WithLabelValues("metrics-test", "RETRIEVAL_FAILED"))
	ObserveJob("metrics-test", time.Now(), "RETRIEVAL_FAILED")
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(WorkerJobsFailed.WithLabelValues("metrics-test", "RETRIEVAL_FAILED")))
}

func TestObserveSince(t *testing.T) {
	before := testutil.CollectAndCount(DecompositionDuration)
	ObserveSince(DecompositionDuration, "metrics-test-source", time.Now().Add(-50*time.Millisecond))
	assert.Equal(t, before+1, testutil.CollectAndCount(DecompositionDuration))
}
