// Package blobstore abstracts durable storage for immutable blobs:
// gallery snapshots and archived recognition runs. Backends exist for
// memory (tests), the local filesystem, and S3-compatible object stores.
package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// errors.Is(err, ErrNotFound). The default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for immutable data blobs. Blobs are written
// whole and atomically; a reader never observes a partial blob.
type Store interface {
	// Put writes a blob atomically, replacing any existing blob with
	// the same name.
	Put(ctx context.Context, name string, data []byte) error

	// Get reads a whole blob. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs with the given prefix,
	// sorted lexically.
	List(ctx context.Context, prefix string) ([]string, error)
}
