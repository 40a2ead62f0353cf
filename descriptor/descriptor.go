// Package descriptor defines the numeric feature vectors produced by an
// external face embedder, together with the distance metrics used to
// compare them.
//
// A Descriptor is opaque to the rest of the system except for its Kind,
// which selects the distance metric and the confidence model applied to it.
package descriptor

import (
	"fmt"
	"slices"
)

// Kind identifies the family of descriptors a gallery is built from.
// Galleries are homogeneous in Kind; mixing kinds is a configuration error.
type Kind int

const (
	// KindEmbedding is a deep-feature vector (dlib/facenet style).
	// Distances are bounded dissimilarities compared with Euclidean.
	KindEmbedding Kind = iota

	// KindHistogram is a local-binary-pattern histogram (LBPH style).
	// Distances are unbounded and compared with chi-square by default.
	KindHistogram
)

func (k Kind) String() string {
	switch k {
	case KindEmbedding:
		return "embedding"
	case KindHistogram:
		return "histogram"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Valid reports whether k is a known descriptor kind.
func (k Kind) Valid() bool {
	return k == KindEmbedding || k == KindHistogram
}

// Metric returns the distance metric bound to the kind.
func (k Kind) Metric() Metric {
	if k == KindHistogram {
		return MetricChiSquare
	}
	return MetricEuclidean
}

// Descriptor is a fixed-shape feature vector for one detected face.
type Descriptor struct {
	Kind   Kind
	Values []float32
}

// New creates a descriptor from a copy of values.
func New(kind Kind, values []float32) Descriptor {
	return Descriptor{Kind: kind, Values: slices.Clone(values)}
}

// Dim returns the dimensionality of the descriptor.
func (d Descriptor) Dim() int {
	return len(d.Values)
}

// IsZero reports whether the descriptor carries no values.
func (d Descriptor) IsZero() bool {
	return len(d.Values) == 0
}

// Clone returns a deep copy of the descriptor.
func (d Descriptor) Clone() Descriptor {
	return Descriptor{Kind: d.Kind, Values: slices.Clone(d.Values)}
}

// Validate checks the descriptor against an expected kind and dimension.
// A dim of 0 skips the dimension check.
func (d Descriptor) Validate(kind Kind, dim int) error {
	if d.Kind != kind {
		return &KindMismatchError{Expected: kind, Actual: d.Kind}
	}
	if d.IsZero() {
		return ErrEmptyDescriptor
	}
	if dim > 0 && d.Dim() != dim {
		return &DimensionMismatchError{Expected: dim, Actual: d.Dim()}
	}
	return nil
}
