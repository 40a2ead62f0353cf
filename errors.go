package facekit

import (
	"errors"
	"fmt"
)

var (
	// ErrImageDecode is returned when the source image cannot be
	// decoded. The whole call fails; no run is recorded.
	ErrImageDecode = errors.New("image decode failed")

	// ErrDetectorUnavailable is returned when the detector collaborator
	// is missing or unreachable.
	ErrDetectorUnavailable = errors.New("face detector unavailable")

	// ErrNoFaceDetected is returned by enrollment when the image
	// contains no face.
	ErrNoFaceDetected = errors.New("no face detected")

	// ErrMultipleFacesDetected is returned by enrollment when the image
	// contains more than one face. Enrollment never guesses which face
	// was meant.
	ErrMultipleFacesDetected = errors.New("multiple faces detected")
)

// MultipleFacesError reports how many faces an enrollment image
// contained. It unwraps to ErrMultipleFacesDetected.
type MultipleFacesError struct {
	Count int
}

func (e *MultipleFacesError) Error() string {
	return fmt.Sprintf("multiple faces detected: %d, enrollment needs exactly one", e.Count)
}

func (e *MultipleFacesError) Unwrap() error {
	return ErrMultipleFacesDetected
}
