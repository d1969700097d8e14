package cache

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// cacheMetrics mirrors Statistics as Prometheus collectors.
type cacheMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	puts      *prometheus.CounterVec
	deletes   prometheus.Counter
	evictions prometheus.Counter
	size      prometheus.Gauge
}

func newCacheMetrics(reg prometheus.Registerer, name string) (*cacheMetrics, error) {
	labels := prometheus.Labels{"cache": name}
	m := &cacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cachemgr",
			Subsystem:   "cache",
			Name:        "hits_total",
			ConstLabels: labels,
			Help:        "Total number of cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cachemgr",
			Subsystem:   "cache",
			Name:        "misses_total",
			ConstLabels: labels,
			Help:        "Total number of cache misses",
		}),
		puts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "cachemgr",
			Subsystem:   "cache",
			Name:        "puts_total",
			ConstLabels: labels,
			Help:        "Total number of successful puts by outcome",
		}, []string{"outcome"}),
		deletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cachemgr",
			Subsystem:   "cache",
			Name:        "deletes_total",
			ConstLabels: labels,
			Help:        "Total number of entries removed by delete",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cachemgr",
			Subsystem:   "cache",
			Name:        "evictions_total",
			ConstLabels: labels,
			Help:        "Total number of LRU evictions",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "cachemgr",
			Subsystem:   "cache",
			Name:        "entries",
			ConstLabels: labels,
			Help:        "Current number of entries in the cache",
		}),
	}

	collectors := []prometheus.Collector{m.hits, m.misses, m.puts, m.deletes, m.evictions, m.size}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			for _, done := range collectors[:i] {
				reg.Unregister(done)
			}
			return nil, err
		}
	}
	return m, nil
}

func (m *cacheMetrics) unregister(reg prometheus.Registerer) {
	for _, c := range []prometheus.Collector{m.hits, m.misses, m.puts, m.deletes, m.evictions, m.size} {
		reg.Unregister(c)
	}
}

// isAlreadyRegistered reports whether err came from registering a duplicate collector.
func isAlreadyRegistered(err error) bool {
	var are prometheus.AlreadyRegisteredError
	return errors.As(err, &are)
}
