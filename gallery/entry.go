// Package gallery holds enrolled face descriptors in immutable, versioned
// snapshots. Readers always see a complete, consistent gallery; updates
// build a replacement and publish it with an atomic pointer swap.
package gallery

import (
	"slices"

	"github.com/facekit/facekit/descriptor"
)

// Attribute is a single key/value pair attached to an entry.
type Attribute struct {
	Key   string
	Value string
}

// Attributes is an ordered attribute list. Order is preserved as given at
// enrollment and is stable across snapshots.
type Attributes []Attribute

// Get returns the value for key and whether it is present. The first
// occurrence wins.
func (a Attributes) Get(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}

	return "", false
}

// Clone returns a copy of the attribute list.
func (a Attributes) Clone() Attributes {
	return slices.Clone(a)
}

// Entry is one enrolled identity: a stable id, a display label, the face
// descriptor captured at enrollment, and optional attributes.
type Entry struct {
	ID         string
	Label      string
	Descriptor descriptor.Descriptor
	Attributes Attributes
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	return Entry{
		ID:         e.ID,
		Label:      e.Label,
		Descriptor: e.Descriptor.Clone(),
		Attributes: e.Attributes.Clone(),
	}
}
