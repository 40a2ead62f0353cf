package facekit

import (
	"golang.org/x/time/rate"

	"github.com/facekit/facekit/config"
	"github.com/facekit/facekit/history"
	"github.com/facekit/facekit/match"
)

type options struct {
	logger           *Logger
	metrics          MetricsCollector
	matcher          match.Matcher
	sinks            []history.Sink
	thresholds       config.Thresholds
	maxFaces         int
	matchConcurrency int
	historyCapacity  int
	publishRate      rate.Limit
	publishBurst     int
}

// Option configures a Recognizer.
type Option func(*options)

func defaultOptions() options {
	cfg := config.Default()

	return options{
		logger:          NoopLogger(),
		metrics:         NoopMetricsCollector{},
		thresholds:      cfg.Thresholds,
		maxFaces:        cfg.MaxFaces,
		historyCapacity: cfg.History.Capacity,
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector. Defaults to a no-op collector.
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *options) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithMatcher replaces the default brute-force matcher, e.g. with the
// approximate HNSW matcher for large galleries.
func WithMatcher(m match.Matcher) Option {
	return func(o *options) {
		if m != nil {
			o.matcher = m
		}
	}
}

// WithHistorySink adds a sink receiving completed runs in addition to
// the built-in memory ring, e.g. a durable archive.
func WithHistorySink(sink history.Sink) Option {
	return func(o *options) {
		if sink != nil {
			o.sinks = append(o.sinks, sink)
		}
	}
}

// WithHistoryCapacity bounds the built-in in-memory run log.
func WithHistoryCapacity(capacity int) Option {
	return func(o *options) {
		if capacity > 0 {
			o.historyCapacity = capacity
		}
	}
}

// WithThresholds sets the kind-specific distance cutoffs.
func WithThresholds(t config.Thresholds) Option {
	return func(o *options) {
		o.thresholds = t
	}
}

// WithMaxFaces caps how many detected faces one run processes.
func WithMaxFaces(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxFaces = n
		}
	}
}

// WithMatchConcurrency bounds the per-face matching worker pool.
// 0 (the default) runs one worker per face.
func WithMatchConcurrency(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.matchConcurrency = n
		}
	}
}

// WithPublishRateLimit caps how often new galleries may be published.
func WithPublishRateLimit(r rate.Limit, burst int) Option {
	return func(o *options) {
		o.publishRate = r
		o.publishBurst = burst
	}
}

// WithConfig applies a loaded configuration. Individual options given
// after WithConfig still override it.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.thresholds = cfg.Thresholds
		o.maxFaces = cfg.MaxFaces
		o.matchConcurrency = cfg.MatchConcurrency

		if cfg.History.Capacity > 0 {
			o.historyCapacity = cfg.History.Capacity
		}
	}
}
