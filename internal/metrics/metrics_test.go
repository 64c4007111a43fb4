package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCounting(t *testing.T) {
	m := New(Config{Enabled: true})

	m.Inc(MetricRenewSuccess)
	m.Add(MetricRenewQueued, 5)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.Counters[MetricRenewSuccess])
	assert.Equal(t, uint64(5), snap.Counters[MetricRenewQueued])
	assert.Equal(t, uint64(0), snap.Counters[MetricLogout])
}

func TestMetricsDisabledIsNoop(t *testing.T) {
	m := New(Config{})
	m.Inc(MetricRenewSuccess)
	assert.Empty(t, m.Snapshot().Counters)

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.Inc(MetricRenewSuccess)
		nilMetrics.Snapshot()
	})
}

func TestMetricsConcurrentIncrements(t *testing.T) {
	m := New(Config{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricRequestRetried)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(8000), m.Snapshot().Counters[MetricRequestRetried])
}

func TestMetricNames(t *testing.T) {
	for id := MetricID(0); id < MetricIDCount; id++ {
		assert.NotEmpty(t, Name(id), "metric %d has no name", id)
	}
	assert.Equal(t, "unknown", Name(MetricIDCount))
}
