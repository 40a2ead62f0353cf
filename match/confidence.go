package match

import "github.com/facekit/facekit/descriptor"

// Confidence converts a raw match distance into a 0–100 score.
//
// Histogram distances are unbounded, so the score is the distance's
// remaining headroom under the threshold: (threshold-distance)/threshold
// scaled to 100, and 0 at or above the threshold. Embedding distances
// are bounded dissimilarities, scored as (1-distance) scaled to 100.
//
// The score is monotone non-increasing in distance for a fixed threshold
// and kind.
func Confidence(distance, threshold float64, kind descriptor.Kind) float64 {
	var c float64

	switch kind {
	case descriptor.KindHistogram:
		if threshold <= 0 || distance >= threshold {
			return 0
		}

		c = (threshold - distance) / threshold * 100
	default:
		c = (1 - distance) * 100
	}

	if c < 0 {
		return 0
	}

	if c > 100 {
		return 100
	}

	return c
}
