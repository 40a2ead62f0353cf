package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/facekit/facekit/descriptor"
)

func TestConfidence(t *testing.T) {
	testCases := []struct {
		name      string
		distance  float64
		threshold float64
		kind      descriptor.Kind
		expected  float64
	}{
		{"histogram zero distance", 0, 100, descriptor.KindHistogram, 100},
		{"histogram half threshold", 50, 100, descriptor.KindHistogram, 50},
		{"histogram at threshold", 100, 100, descriptor.KindHistogram, 0},
		{"histogram above threshold", 150, 100, descriptor.KindHistogram, 0},
		{"histogram zero threshold", 10, 0, descriptor.KindHistogram, 0},
		{"embedding exact match", 0, 0.6, descriptor.KindEmbedding, 100},
		{"embedding close match", 0.05, 0.6, descriptor.KindEmbedding, 95},
		{"embedding far", 0.9, 0.6, descriptor.KindEmbedding, 10},
		{"embedding clamped at zero", 1.5, 0.6, descriptor.KindEmbedding, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, Confidence(tc.distance, tc.threshold, tc.kind), 1e-9)
		})
	}
}

func TestConfidenceMonotone(t *testing.T) {
	// For a fixed threshold and kind, confidence never increases as the
	// distance grows.
	for _, kind := range []descriptor.Kind{descriptor.KindEmbedding, descriptor.KindHistogram} {
		t.Run(kind.String(), func(t *testing.T) {
			threshold := 0.6
			if kind == descriptor.KindHistogram {
				threshold = 100
			}

			prev := Confidence(0, threshold, kind)
			assert.LessOrEqual(t, prev, 100.0)
			assert.GreaterOrEqual(t, prev, 0.0)

			for i := 1; i <= 400; i++ {
				d := float64(i) * threshold / 100

				c := Confidence(d, threshold, kind)
				assert.LessOrEqual(t, c, prev, "distance %f", d)
				assert.GreaterOrEqual(t, c, 0.0)

				prev = c
			}
		})
	}
}
