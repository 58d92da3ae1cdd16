package corio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoopMetrics_DiscardsEverything(t *testing.T) {
	var m NoopMetrics
	m.Counter("x").Add(5)
	m.Gauge("y").Set(5)
	// nothing to assert beyond "does not panic"
}

func TestBasicMetrics_CounterAccumulates(t *testing.T) {
	m := NewBasicMetrics()
	m.Counter("requests").Add(1)
	m.Counter("requests").Add(2)
	require.Equal(t, int64(3), m.Snapshot("requests"))
}

func TestBasicMetrics_UnknownCounterSnapshotsZero(t *testing.T) {
	m := NewBasicMetrics()
	require.Equal(t, int64(0), m.Snapshot("never-touched"))
}

func TestBasicMetrics_GaugeSetOverwrites(t *testing.T) {
	m := NewBasicMetrics()
	g := m.Gauge("depth")
	g.Set(10)
	g.Set(3)
	require.Equal(t, int64(3), g.(*basicGauge).val.Load())
	require.Same(t, g, m.Gauge("depth")) // same instrument returned on repeat lookup
}
