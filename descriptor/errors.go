package descriptor

import (
	"errors"
	"fmt"
)

// ErrEmptyDescriptor is returned when a descriptor carries no values.
var ErrEmptyDescriptor = errors.New("empty descriptor")

// DimensionMismatchError occurs when a descriptor's dimensionality does
// not match the expected dimensionality.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// KindMismatchError occurs when a descriptor's kind does not match the
// expected kind.
type KindMismatchError struct {
	Expected Kind
	Actual   Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("descriptor kind mismatch: expected %s, got %s", e.Expected, e.Actual)
}
