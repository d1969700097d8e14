package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type options struct {
	buckets       int
	hash          HashFunc
	logger        *zap.Logger
	registerer    prometheus.Registerer
	metricsName   string
	optimisticGet bool
}

// Option configures a Cache at creation.
type Option func(*options)

// WithBuckets fixes the hash bucket count. Values below 1 select the
// default of 2*capacity+1.
func WithBuckets(n int) Option {
	return func(o *options) { o.buckets = n }
}

// WithHash replaces the key hash. A nil hash keeps Murmur3.
func WithHash(h HashFunc) Option {
	return func(o *options) {
		if h != nil {
			o.hash = h
		}
	}
}

// WithLogger sets the logger for lifecycle and eviction events.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics registers the cache's Prometheus collectors on reg, labelled
// with name.
func WithMetrics(reg prometheus.Registerer, name string) Option {
	return func(o *options) {
		o.registerer = reg
		o.metricsName = name
	}
}

// WithOptimisticGet makes Get probe under the read lock before taking the
// write lock to promote.
func WithOptimisticGet(enabled bool) Option {
	return func(o *options) { o.optimisticGet = enabled }
}

func defaultOptions() *options {
	return &options{
		hash:        Murmur3,
		logger:      zap.NewNop(),
		metricsName: "default",
	}
}
