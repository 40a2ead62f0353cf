package descriptor

import (
	"fmt"
	"math"
)

// Metric represents a distance metric over descriptor values.
type Metric int

const (
	// MetricEuclidean is the L2 distance, used for embedding descriptors.
	MetricEuclidean Metric = iota

	// MetricChiSquare is the chi-square histogram distance.
	MetricChiSquare

	// MetricBhattacharyya is the Bhattacharyya histogram distance.
	MetricBhattacharyya
)

func (m Metric) String() string {
	switch m {
	case MetricEuclidean:
		return "euclidean"
	case MetricChiSquare:
		return "chi-square"
	case MetricBhattacharyya:
		return "bhattacharyya"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// DistanceFunc computes the distance between two vectors of equal length.
// Smaller means more similar for every metric in this package.
type DistanceFunc func(a, b []float32) float64

// Provider returns the distance function for the given metric.
func Provider(m Metric) (DistanceFunc, error) {
	switch m {
	case MetricEuclidean:
		return Euclidean, nil
	case MetricChiSquare:
		return ChiSquare, nil
	case MetricBhattacharyya:
		return Bhattacharyya, nil
	default:
		return nil, fmt.Errorf("unsupported distance metric: %d", m)
	}
}

// Euclidean returns the L2 distance between a and b.
func Euclidean(a, b []float32) float64 {
	var sum float64

	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}

	return math.Sqrt(sum)
}

// ChiSquare returns the chi-square distance between two histograms.
// Bins where both values are zero contribute nothing.
func ChiSquare(a, b []float32) float64 {
	var sum float64

	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		if x+y == 0 {
			continue
		}

		d := x - y
		sum += (d * d) / (x + y)
	}

	return sum / 2
}

// Bhattacharyya returns the Bhattacharyya distance between two histograms.
// Both inputs are treated as unnormalized frequency counts.
func Bhattacharyya(a, b []float32) float64 {
	var sumA, sumB, sumAB float64

	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		sumA += x
		sumB += y
		sumAB += math.Sqrt(x * y)
	}

	if sumA == 0 || sumB == 0 {
		if sumA == sumB {
			return 0
		}

		return 1
	}

	v := 1 - sumAB/math.Sqrt(sumA*sumB)
	if v < 0 {
		v = 0
	}

	return math.Sqrt(v)
}
