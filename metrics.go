package facekit

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational
// metrics. Implement this interface to integrate with monitoring systems
// like Prometheus.
type MetricsCollector interface {
	// RecordRecognize is called after each recognition run.
	// detected and recognized are the run totals; err is nil on success.
	RecordRecognize(detected, recognized int, duration time.Duration, err error)

	// RecordEnroll is called after each enrollment preparation.
	RecordEnroll(duration time.Duration, err error)

	// RecordPublish is called after each gallery publish.
	// entries is the size of the published gallery.
	RecordPublish(entries int, duration time.Duration, err error)

	// RecordHistoryAppend is called after each history append attempt.
	RecordHistoryAppend(err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRecognize(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordEnroll(time.Duration, error)              {}
func (NoopMetricsCollector) RecordPublish(int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordHistoryAppend(error)                      {}

// BasicMetricsCollector provides simple in-memory metrics collection,
// useful for debugging without external dependencies.
type BasicMetricsCollector struct {
	RecognizeCount      atomic.Int64
	RecognizeErrors     atomic.Int64
	RecognizeTotalNanos atomic.Int64
	FacesDetected       atomic.Int64
	FacesRecognized     atomic.Int64
	EnrollCount         atomic.Int64
	EnrollErrors        atomic.Int64
	PublishCount        atomic.Int64
	PublishErrors       atomic.Int64
	HistoryAppends      atomic.Int64
	HistoryErrors       atomic.Int64
}

// RecordRecognize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecognize(detected, recognized int, duration time.Duration, err error) {
	b.RecognizeCount.Add(1)
	b.RecognizeTotalNanos.Add(duration.Nanoseconds())

	if err != nil {
		b.RecognizeErrors.Add(1)
		return
	}

	b.FacesDetected.Add(int64(detected))
	b.FacesRecognized.Add(int64(recognized))
}

// RecordEnroll implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEnroll(duration time.Duration, err error) {
	b.EnrollCount.Add(1)

	if err != nil {
		b.EnrollErrors.Add(1)
	}
}

// RecordPublish implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPublish(entries int, duration time.Duration, err error) {
	b.PublishCount.Add(1)

	if err != nil {
		b.PublishErrors.Add(1)
	}
}

// RecordHistoryAppend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordHistoryAppend(err error) {
	b.HistoryAppends.Add(1)

	if err != nil {
		b.HistoryErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RecognizeCount:    b.RecognizeCount.Load(),
		RecognizeErrors:   b.RecognizeErrors.Load(),
		RecognizeAvgNanos: b.avgRecognizeNanos(),
		FacesDetected:     b.FacesDetected.Load(),
		FacesRecognized:   b.FacesRecognized.Load(),
		EnrollCount:       b.EnrollCount.Load(),
		EnrollErrors:      b.EnrollErrors.Load(),
		PublishCount:      b.PublishCount.Load(),
		PublishErrors:     b.PublishErrors.Load(),
		HistoryAppends:    b.HistoryAppends.Load(),
		HistoryErrors:     b.HistoryErrors.Load(),
	}
}

func (b *BasicMetricsCollector) avgRecognizeNanos() int64 {
	count := b.RecognizeCount.Load()
	if count == 0 {
		return 0
	}

	return b.RecognizeTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RecognizeCount    int64
	RecognizeErrors   int64
	RecognizeAvgNanos int64
	FacesDetected     int64
	FacesRecognized   int64
	EnrollCount       int64
	EnrollErrors      int64
	PublishCount      int64
	PublishErrors     int64
	HistoryAppends    int64
	HistoryErrors     int64
}
