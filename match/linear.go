package match

import (
	"context"

	"github.com/facekit/facekit/descriptor"
	"github.com/facekit/facekit/gallery"
)

// LinearOptions configures the Linear matcher.
type LinearOptions struct {
	// HistogramMetric selects the metric for histogram galleries,
	// chi-square or Bhattacharyya. Defaults to chi-square.
	HistogramMetric descriptor.Metric
}

// Linear is the exact brute-force matcher: one pass over every candidate
// entry, keeping the minimum distance. Ties go to the lower entry id.
type Linear struct {
	histogramMetric descriptor.Metric
}

// NewLinear creates a Linear matcher.
func NewLinear(optFns ...func(o *LinearOptions)) (*Linear, error) {
	opts := LinearOptions{
		HistogramMetric: descriptor.MetricChiSquare,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := validHistogramMetric(opts.HistogramMetric); err != nil {
		return nil, err
	}

	return &Linear{histogramMetric: opts.HistogramMetric}, nil
}

// Match scans the gallery for the entry nearest to query.
func (l *Linear) Match(ctx context.Context, query descriptor.Descriptor, g *gallery.Gallery, opts Options) (Match, error) {
	if g.Len() == 0 {
		return Match{}, nil
	}

	if err := query.Validate(g.Kind(), g.Dim()); err != nil {
		return Match{}, err
	}

	dist, err := metricFor(g.Kind(), l.histogramMetric)
	if err != nil {
		return Match{}, err
	}

	if err := ctx.Err(); err != nil {
		return Match{}, err
	}

	var (
		best    float64
		bestPos = -1
	)

	// Entries are ordered by id, so keeping the first strict minimum
	// resolves distance ties to the lower id.
	for pos := 0; pos < g.Len(); pos++ {
		if opts.Filter != nil && !opts.Filter(pos) {
			continue
		}

		d := dist(query.Values, g.Entry(pos).Descriptor.Values)
		if bestPos == -1 || d < best {
			best = d
			bestPos = pos
		}
	}

	if bestPos == -1 {
		return Match{}, nil
	}

	m := Match{
		Distance:    best,
		HasDistance: true,
	}

	if best <= opts.Threshold {
		m.EntryID = g.Entry(bestPos).ID
		m.Known = true
	}

	return m, nil
}
