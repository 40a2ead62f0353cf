package gallery

import (
	"fmt"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/facekit/facekit/descriptor"
)

// Gallery is an immutable snapshot of enrolled entries. All entries share
// one descriptor kind and dimensionality. A gallery never changes after
// Build returns; updates produce a new gallery with a higher version.
type Gallery struct {
	version uint64
	kind    descriptor.Kind
	dim     int
	entries []Entry

	// attrIndex maps attribute key -> value -> bitmap of entry positions.
	attrIndex map[string]map[string]*roaring.Bitmap
}

// Build validates entries and constructs an immutable gallery.
//
// Validation enforces: a valid homogeneous descriptor kind, uniform
// dimensionality, unique non-empty ids, and non-empty labels. Entries are
// deep-copied and sorted by id, so later mutation of the caller's slice
// cannot leak into the snapshot.
func Build(entries []Entry, kind descriptor.Kind, version uint64) (*Gallery, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid descriptor kind: %s", kind)
	}

	g := &Gallery{
		version:   version,
		kind:      kind,
		entries:   make([]Entry, 0, len(entries)),
		attrIndex: make(map[string]map[string]*roaring.Bitmap),
	}

	seen := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		if e.ID == "" {
			return nil, ErrEmptyID
		}

		if _, ok := seen[e.ID]; ok {
			return nil, &DuplicateIDError{ID: e.ID}
		}

		seen[e.ID] = struct{}{}

		if e.Label == "" {
			return nil, &EmptyLabelError{ID: e.ID}
		}

		if e.Descriptor.Kind != kind {
			return nil, &MixedKindError{ID: e.ID, Expected: kind, Actual: e.Descriptor.Kind}
		}

		if e.Descriptor.IsZero() {
			return nil, descriptor.ErrEmptyDescriptor
		}

		if g.dim == 0 {
			g.dim = e.Descriptor.Dim()
		} else if e.Descriptor.Dim() != g.dim {
			return nil, &descriptor.DimensionMismatchError{Expected: g.dim, Actual: e.Descriptor.Dim()}
		}

		g.entries = append(g.entries, e.Clone())
	}

	slices.SortFunc(g.entries, func(a, b Entry) int {
		return strings.Compare(a.ID, b.ID)
	})

	for pos, e := range g.entries {
		for _, attr := range e.Attributes {
			values, ok := g.attrIndex[attr.Key]
			if !ok {
				values = make(map[string]*roaring.Bitmap)
				g.attrIndex[attr.Key] = values
			}

			bm, ok := values[attr.Value]
			if !ok {
				bm = roaring.New()
				values[attr.Value] = bm
			}

			bm.Add(uint32(pos))
		}
	}

	return g, nil
}

// Version returns the snapshot version. Versions increase monotonically
// across publishes on one handle.
func (g *Gallery) Version() uint64 {
	return g.version
}

// Kind returns the descriptor kind shared by all entries.
func (g *Gallery) Kind() descriptor.Kind {
	return g.kind
}

// Dim returns the descriptor dimensionality, or 0 for an empty gallery.
func (g *Gallery) Dim() int {
	return g.dim
}

// Len returns the number of entries.
func (g *Gallery) Len() int {
	return len(g.entries)
}

// Entry returns the entry at position pos. Entries are ordered by id.
// The returned entry must be treated as read-only.
func (g *Gallery) Entry(pos int) Entry {
	return g.entries[pos]
}

// Entries returns the entries ordered by id. The returned slice must be
// treated as read-only.
func (g *Gallery) Entries() []Entry {
	return g.entries
}

// Lookup returns the entry with the given id.
func (g *Gallery) Lookup(id string) (Entry, bool) {
	pos, ok := slices.BinarySearchFunc(g.entries, id, func(e Entry, id string) int {
		return strings.Compare(e.ID, id)
	})
	if !ok {
		return Entry{}, false
	}

	return g.entries[pos], true
}

// Filter is a candidate predicate over entry positions.
type Filter func(pos int) bool

// AttributeFilter returns a filter accepting only entries carrying the
// given attribute value. Unknown keys or values yield a filter that
// rejects every entry.
func (g *Gallery) AttributeFilter(key, value string) Filter {
	values, ok := g.attrIndex[key]
	if !ok {
		return func(int) bool { return false }
	}

	bm, ok := values[value]
	if !ok {
		return func(int) bool { return false }
	}

	return func(pos int) bool {
		return bm.Contains(uint32(pos))
	}
}
