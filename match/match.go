// Package match finds the nearest gallery entry for a query descriptor.
//
// The default Linear matcher is an exact scan; HNSW is an approximate
// drop-in behind the same interface for large galleries.
package match

import (
	"context"
	"fmt"

	"github.com/facekit/facekit/descriptor"
	"github.com/facekit/facekit/gallery"
)

// Match is the outcome of matching one query against a gallery.
//
// Known is true exactly when EntryID is set, i.e. the nearest entry was
// within the threshold. HasDistance is false only when no candidate was
// scanned (empty gallery, or a filter rejecting every entry).
type Match struct {
	EntryID     string
	Distance    float64
	HasDistance bool
	Known       bool
}

// Options configures a single match call.
type Options struct {
	// Threshold is the kind-specific distance cutoff. A face is known
	// iff its nearest distance is at or below the threshold.
	Threshold float64

	// Filter restricts candidates to entry positions it accepts.
	// Nil means all entries are candidates.
	Filter gallery.Filter
}

// Matcher resolves a query descriptor against a gallery snapshot.
//
// Implementations must treat the gallery as read-only, must not retain
// the query, and must report an empty gallery as an unmatched result,
// not an error.
type Matcher interface {
	Match(ctx context.Context, query descriptor.Descriptor, g *gallery.Gallery, opts Options) (Match, error)
}

// metricFor returns the distance function for a gallery kind, honoring
// the configured histogram metric.
func metricFor(kind descriptor.Kind, histogramMetric descriptor.Metric) (descriptor.DistanceFunc, error) {
	m := descriptor.MetricEuclidean
	if kind == descriptor.KindHistogram {
		m = histogramMetric
	}

	return descriptor.Provider(m)
}

func validHistogramMetric(m descriptor.Metric) error {
	if m != descriptor.MetricChiSquare && m != descriptor.MetricBhattacharyya {
		return fmt.Errorf("metric %s is not a histogram metric", m)
	}

	return nil
}
