package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "idm_client"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the collectors the identity client updates.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// RequestsTotal counts HTTP requests to the service.
	// Labels: method, status (numeric code, or "error" when no response arrived)
	RequestsTotal *prometheus.CounterVec

	// RequestDuration tracks request latency in seconds.
	// Labels: method
	RequestDuration *prometheus.HistogramVec

	// Materializations counts resource fetches by kind.
	// Labels: kind, result (ok, error)
	Materializations *prometheus.CounterVec

	// CacheHits counts GETs answered from the response cache.
	CacheHits prometheus.Counter

	// CacheMisses counts GETs that went to the service.
	CacheMisses prometheus.Counter

	// CacheEvictions counts cache entries dropped by writes, expiry or size.
	CacheEvictions prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "HTTP requests sent to the identity service.",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of identity service requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Materializations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "materializations_total",
			Help:      "Resources fetched from the identity service, by kind.",
		}, []string{"kind", "result"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_hits_total",
			Help:      "GET requests served from the response cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_misses_total",
			Help:      "GET requests not found in the response cache.",
		}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_evictions_total",
			Help:      "Response cache entries removed.",
		}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.RequestsTotal, m.RequestDuration, m.Materializations,
		m.CacheHits, m.CacheMisses, m.CacheEvictions,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, err
		}
	}
	return m, nil
}

// ObserveRequest records one request. status 0 means no response arrived.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := ResultError
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.RequestsTotal.WithLabelValues(method, label).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveMaterialization records one fetch of a resource of kind.
func (m *Metrics) ObserveMaterialization(kind string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.Materializations.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) CacheEvict() {
	if m != nil {
		m.CacheEvictions.Inc()
	}
}

// WriteFile writes every metric gathered by g to path in the Prometheus text format.
func WriteFile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
