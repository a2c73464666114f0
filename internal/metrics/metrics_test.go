package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObservePatch("cleaned", 10*time.Millisecond)
	m.ObservePatch("cleaned", time.Millisecond)
	m.ObservePatch("malformed_header", time.Millisecond)
	m.ObserveEvent(EventScheduled)
	m.ObserveEvent(EventPaused)
	m.ObserveEvent(EventPaused)

	assert.InDelta(t, 2, testutil.ToFloat64(m.patches.WithLabelValues("cleaned")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.patches.WithLabelValues("malformed_header")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.events.WithLabelValues(EventPaused)), 0)

	var pb dto.Metric
	require.NoError(t, m.duration.Write(&pb))
	assert.Equal(t, uint64(3), pb.GetHistogram().GetSampleCount())
}

func TestNewReusesRegistered(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m1, err := New(reg)
	require.NoError(t, err)
	m2, err := New(reg)
	require.NoError(t, err)

	m1.ObserveEvent(EventBusy)
	m2.ObserveEvent(EventBusy)
	assert.InDelta(t, 2, testutil.ToFloat64(m1.events.WithLabelValues(EventBusy)), 0)
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePatch("cleaned", time.Second)
		m.ObserveEvent(EventScheduled)
	})
}
