package match

import (
	"context"
	"sync"

	"github.com/coder/hnsw"

	"github.com/facekit/facekit/descriptor"
	"github.com/facekit/facekit/gallery"
)

// HNSWOptions configures the HNSW matcher.
type HNSWOptions struct {
	// HistogramMetric selects the metric for histogram galleries.
	// Defaults to chi-square.
	HistogramMetric descriptor.Metric

	// M is the maximum number of graph neighbors per node.
	M int

	// EfSearch is the candidate list size during search.
	EfSearch int

	// CandidateK is how many approximate neighbors to pull before the
	// exact re-rank. Larger values trade speed for recall.
	CandidateK int
}

// HNSW is an approximate matcher backed by a hierarchical navigable
// small-world graph. It satisfies the same contract as Linear: candidates
// returned by the graph are re-ranked with the exact metric and ties go
// to the lower entry id.
//
// The graph is rebuilt lazily whenever the matched gallery's version
// differs from the cached one. Filtered matches fall back to the exact
// scan, since graph traversal cannot honor a candidate predicate.
type HNSW struct {
	histogramMetric descriptor.Metric
	m               int
	efSearch        int
	candidateK      int

	fallback *Linear

	mu      sync.Mutex
	version uint64
	graph   *hnsw.Graph[int]
	indexed *gallery.Gallery
}

// NewHNSW creates an HNSW matcher.
func NewHNSW(optFns ...func(o *HNSWOptions)) (*HNSW, error) {
	opts := HNSWOptions{
		HistogramMetric: descriptor.MetricChiSquare,
		M:               16,
		EfSearch:        32,
		CandidateK:      16,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := validHistogramMetric(opts.HistogramMetric); err != nil {
		return nil, err
	}

	fallback, err := NewLinear(func(o *LinearOptions) {
		o.HistogramMetric = opts.HistogramMetric
	})
	if err != nil {
		return nil, err
	}

	return &HNSW{
		histogramMetric: opts.HistogramMetric,
		m:               opts.M,
		efSearch:        opts.EfSearch,
		candidateK:      opts.CandidateK,
		fallback:        fallback,
	}, nil
}

// Match resolves query against g using the graph index.
func (h *HNSW) Match(ctx context.Context, query descriptor.Descriptor, g *gallery.Gallery, opts Options) (Match, error) {
	if g.Len() == 0 {
		return Match{}, nil
	}

	if opts.Filter != nil {
		return h.fallback.Match(ctx, query, g, opts)
	}

	if err := query.Validate(g.Kind(), g.Dim()); err != nil {
		return Match{}, err
	}

	dist, err := metricFor(g.Kind(), h.histogramMetric)
	if err != nil {
		return Match{}, err
	}

	graph, err := h.graphFor(g, dist)
	if err != nil {
		return Match{}, err
	}

	if err := ctx.Err(); err != nil {
		return Match{}, err
	}

	k := h.candidateK
	if k > g.Len() {
		k = g.Len()
	}

	nodes := graph.Search(query.Values, k)
	if len(nodes) == 0 {
		return Match{}, nil
	}

	// Exact re-rank of the approximate candidates. Positions order by
	// entry id, so the strict minimum keeps the lower id on ties.
	var (
		best    float64
		bestPos = -1
	)

	for _, n := range nodes {
		d := dist(query.Values, g.Entry(n.Key).Descriptor.Values)
		if bestPos == -1 || d < best || (d == best && n.Key < bestPos) {
			best = d
			bestPos = n.Key
		}
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

// graphFor returns the cached graph for g, rebuilding when the gallery
// version changed since the last match.
func (h *HNSW) graphFor(g *gallery.Gallery, dist descriptor.DistanceFunc) (*hnsw.Graph[int], error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.graph != nil && h.version == g.Version() && h.indexed == g {
		return h.graph, nil
	}

	graph := hnsw.NewGraph[int]()
	graph.M = h.m
	graph.Ml = 1.0 / float64(h.m)
	graph.EfSearch = h.efSearch
	graph.Distance = func(a, b []float32) float32 {
		return float32(dist(a, b))
	}

	for pos := 0; pos < g.Len(); pos++ {
		graph.Add(hnsw.MakeNode(pos, g.Entry(pos).Descriptor.Values))
	}

	h.graph = graph
	h.version = g.Version()
	h.indexed = g

	return graph, nil
}
