package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the counters exported on /metrics.
type Metrics struct {
	apiRequests     *prometheus.CounterVec
	favourites      *prometheus.CounterVec
	storageFailures *prometheus.CounterVec
	staleResults    prometheus.Counter
}

func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	apiRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_mealdb_requests_total",
		Help: "Recipe API requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	favourites := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_favourites_mutations_total",
		Help: "Favourites mutations that changed the set.",
	}, []string{"op"})
	storageFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_storage_failures_total",
		Help: "Durable storage failures by operation.",
	}, []string{"op"})
	staleResults := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recipebox_stale_results_total",
		Help: "Fetch results discarded because a newer request superseded them.",
	})

	apiRequests = registerCounterVec(registerer, apiRequests)
	favourites = registerCounterVec(registerer, favourites)
	storageFailures = registerCounterVec(registerer, storageFailures)
	staleResults = registerCounter(registerer, staleResults)

	return &Metrics{
		apiRequests:     apiRequests,
		favourites:      favourites,
		storageFailures: storageFailures,
		staleResults:    staleResults,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) IncAPIRequest(endpoint, outcome string) {
	if m == nil || m.apiRequests == nil {
		return
	}
	m.apiRequests.WithLabelValues(endpoint, outcome).Inc()
}

func (m *Metrics) IncFavourite(op string) {
	if m == nil || m.favourites == nil {
		return
	}
	m.favourites.WithLabelValues(op).Inc()
}

func (m *Metrics) IncStorageFailure(op string) {
	if m == nil || m.storageFailures == nil {
		return
	}
	m.storageFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) IncStaleResult() {
	if m == nil || m.staleResults == nil {
		return
	}
	m.staleResults.Inc()
}

func registerCounterVec(registerer prometheus.Registerer, counter *prometheus.CounterVec) *prometheus.CounterVec {
	if err := registerer.Register(counter); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return counter
}

func registerCounter(registerer prometheus.Registerer, counter prometheus.Counter) prometheus.Counter {
	if err := registerer.Register(counter); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
	}
	return counter
}
