package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncAPIRequest("search", "ok")
	m.IncAPIRequest("search", "ok")
	m.IncFavourite("add")
	m.IncStorageFailure("write")
	m.IncStaleResult()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.apiRequests.WithLabelValues("search", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.favourites.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageFailures.WithLabelValues("write")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleResults))
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := New(reg)
	second := New(reg)

	first.IncFavourite("remove")
	assert.Equal(t, 1.0, testutil.ToFloat64(second.favourites.WithLabelValues("remove")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncAPIRequest("lookup", "error")
		m.IncFavourite("add")
		m.IncStorageFailure("read")
		m.IncStaleResult()
	})
}
