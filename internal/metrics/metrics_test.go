package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adRise/choco-solver/internal/metrics"
)

func TestNew(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ExplanationsTotal.WithLabelValues("wipe_out").Inc()
	m.EventsWalkedTotal.Add(12)
	m.TrailSize.Set(12)
	m.ReasonSize.WithLabelValues("decisions").Observe(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExplanationsTotal.WithLabelValues("wipe_out")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.EventsWalkedTotal))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.TrailSize))

	n, err := testutil.GatherAndCount(reg, "choco_explanation_reason_size")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewWithoutRegistry(t *testing.T) {
	// unregistered collectors can be created any number of times
	a, b := metrics.New(nil), metrics.New(nil)
	a.RefutationsTotal.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.RefutationsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RefutationsTotal))
}

func TestNewTwiceOnOneRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	assert.Panics(t, func() { metrics.New(reg) })
}
