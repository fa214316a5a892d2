package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObservePoll("polls", OutcomeOK)
	m.ObservePoll("polls", OutcomeOK)
	m.ObservePoll("polls", OutcomeNetwork)
	m.ObserveDiff(1, 2, 3)
	m.ObserveDispatch("vote", OutcomeOK)
	m.SetMirrorSize(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pollCycles.WithLabelValues("polls", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pollCycles.WithLabelValues("polls", OutcomeNetwork)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.diffEvents.WithLabelValues("append")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.diffEvents.WithLabelValues("replace")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatches.WithLabelValues("vote", OutcomeOK)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.mirrorRecords))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "tally_poll_cycles_total")
	assert.Contains(t, names, "tally_mirror_records")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePoll("polls", OutcomeOK)
		m.ObserveDiff(1, 1, 1)
		m.ObserveDispatch("count", OutcomeMalformed)
		m.SetMirrorSize(1)
	})
}

func TestMetrics_UnregisteredWithNilRegisterer(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = New(nil)
		_ = New(nil)
	})
}
