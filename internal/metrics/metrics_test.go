package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWorldMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorldMetrics(reg)

	m.SetPopulation(4, 1, 60, 2)
	m.LODTransition("simplified")
	m.LODTransition("simplified")
	m.Edit("place")

	assert.Equal(t, 4.0, testutil.ToFloat64(m.chunks))
	assert.Equal(t, 60.0, testutil.ToFloat64(m.blocks))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.lodTransitions.WithLabelValues("simplified")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.edits.WithLabelValues("place")))
}

func TestWorldMetrics_NilSafe(t *testing.T) {
	var m *WorldMetrics
	assert.NotPanics(t, func() {
		m.SetPopulation(1, 1, 1, 1)
		m.LODTransition("detailed")
		m.Edit("remove_block")
		m.ObserveGeneration(time.Millisecond)
		m.ObserveUpdate(time.Millisecond)
		m.Respawn()
	})
}

func TestPersistenceMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPersistenceMetrics(reg)

	m.Observe("save", time.Millisecond, 512, nil)
	m.Observe("load", time.Millisecond, 0, errors.New("нет файла"))

	assert.Equal(t, 512.0, testutil.ToFloat64(m.snapshotBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("load")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.errors.WithLabelValues("save")))
}
