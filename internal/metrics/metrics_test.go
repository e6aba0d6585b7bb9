package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_RecordsJobLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.JobSubmitted("convert")
	m.JobStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsRunning))

	m.AdapterAttempt("raster-image", "success", 20*time.Millisecond)
	m.JobFinished("convert", "Succeeded", time.Second)
	m.EventsDropped(3)
	m.EventsDropped(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsSubmittedTotal.WithLabelValues("convert")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsFinishedTotal.WithLabelValues("convert", "Succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdapterAttemptsTotal.WithLabelValues("raster-image", "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.JobsRunning))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.EventsDroppedTotal))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.JobSubmitted("fetch")
		m.JobStarted()
		m.AdapterAttempt("remote-fetch", "failed", time.Second)
		m.JobFinished("fetch", "Failed", time.Second)
		m.EventsDropped(1)
	})
}
