package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAnalysis(t *testing.T) {
	before := testutil.ToFloat64(AnalysisAttempts.WithLabelValues("primary", "failed"))
	ObserveAnalysis("primary", false, 10*time.Millisecond)
	ObserveAnalysis("degraded", true, 5*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(AnalysisAttempts.WithLabelValues("primary", "failed")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(AnalysisAttempts.WithLabelValues("degraded", "ok")), 1.0)
}

func TestProcessingStateGauge(t *testing.T) {
	g := ProcessingState.WithLabelValues("test_state")
	g.Inc()
	g.Inc()
	g.Dec()
	assert.Equal(t, 1.0, testutil.ToFloat64(g))
}
