package gallery

import (
	"errors"
	"fmt"

	"github.com/facekit/facekit/descriptor"
)

// ErrEmptyID is returned when an entry has no id.
var ErrEmptyID = errors.New("entry id must not be empty")

// DuplicateIDError occurs when two entries share an id.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate entry id: %q", e.ID)
}

// EmptyLabelError occurs when an entry carries no label.
type EmptyLabelError struct {
	ID string
}

func (e *EmptyLabelError) Error() string {
	return fmt.Sprintf("entry %q has an empty label", e.ID)
}

// MixedKindError occurs when an entry's descriptor kind differs from the
// gallery's kind. Galleries are kind-homogeneous.
type MixedKindError struct {
	ID       string
	Expected descriptor.Kind
	Actual   descriptor.Kind
}

func (e *MixedKindError) Error() string {
	return fmt.Sprintf("entry %q has descriptor kind %s, gallery is %s", e.ID, e.Actual, e.Expected)
}
