// Package metrics exports digest statistics to Prometheus.
package metrics

import (
	"errors"

	"github.com/delaneyj/digestparty/scope"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "digestparty").
	Namespace string

	// Subsystem is the metrics subsystem (default: "scope").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for digest duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is where the metrics are registered.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

type Option func(*Config)

func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registerer. Registering two collectors
// with the same names on one registerer panics.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "digestparty",
		Subsystem: "scope",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Result label values of digests_total.
const (
	ResultOK    = "ok"
	ResultTTL   = "ttl"
	ResultError = "error"
)

// Collector is a scope.DigestObserver that records every digest it sees.
//
// Metrics collected:
//   - digestparty_scope_digests_total: digests by result
//   - digestparty_scope_digest_duration_seconds: digest wall time
//   - digestparty_scope_digest_passes: tree passes per digest
//   - digestparty_scope_watch_evaluations_total: watch function calls
//   - digestparty_scope_dirty_watchers_total: listener invocations
//   - digestparty_scope_async_tasks_total: drained async tasks
//   - digestparty_scope_post_digest_tasks_total: drained post digest tasks
//   - digestparty_scope_recovered_errors_total: failures recovered inside digests
type Collector struct {
	digests         *prometheus.CounterVec
	duration        prometheus.Histogram
	passes          prometheus.Histogram
	evaluations     prometheus.Counter
	dirtyWatchers   prometheus.Counter
	asyncTasks      prometheus.Counter
	postDigestTasks prometheus.Counter
	errors          prometheus.Counter
}

var _ scope.DigestObserver = (*Collector)(nil)

// New registers the digest metrics and returns a collector to pass to
// scope.WithObserver.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Collector{
		digests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "digests_total",
			Help:        "Total number of digests by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "digest_duration_seconds",
			Help:        "Digest duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		passes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "digest_passes",
			Help:        "Tree passes needed per digest",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.LinearBuckets(1, 1, scope.DefaultTTL),
		}),

		evaluations:     counter("watch_evaluations_total", "Total number of watch function evaluations"),
		dirtyWatchers:   counter("dirty_watchers_total", "Total number of watchers found dirty"),
		asyncTasks:      counter("async_tasks_total", "Total number of async tasks drained"),
		postDigestTasks: counter("post_digest_tasks_total", "Total number of post digest tasks drained"),
		errors:          counter("recovered_errors_total", "Total number of failures recovered during digests"),
	}
}

func (c *Collector) DigestStarted(*scope.Scope) {}

func (c *Collector) DigestFinished(_ *scope.Scope, stats scope.DigestStats, err error) {
	c.digests.WithLabelValues(result(err)).Inc()
	c.duration.Observe(stats.Duration.Seconds())
	c.passes.Observe(float64(stats.Passes))
	c.evaluations.Add(float64(stats.Evaluations))
	c.dirtyWatchers.Add(float64(stats.DirtyWatchers))
	c.asyncTasks.Add(float64(stats.AsyncTasks))
	c.postDigestTasks.Add(float64(stats.PostDigestTasks))
	c.errors.Add(float64(stats.Errors))
}

func result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, scope.ErrDigestTTL):
		return ResultTTL
	default:
		return ResultError
	}
}
