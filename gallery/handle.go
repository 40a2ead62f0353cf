package gallery

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/facekit/facekit/descriptor"
)

// HandleOptions configures a Handle.
type HandleOptions struct {
	// PublishRate caps how often new galleries may be published. Zero
	// means unlimited. Rebuilds triggered by bulk re-enrollment can be
	// expensive upstream; the limiter backpressures them.
	PublishRate rate.Limit

	// PublishBurst is the limiter burst size. Defaults to 1 when a rate
	// is set.
	PublishBurst int
}

// Handle is the single mutable cell of the gallery model. It holds the
// current snapshot and swaps in replacements atomically. Snapshot never
// blocks, regardless of concurrent publishes.
type Handle struct {
	current atomic.Pointer[Gallery]

	publishMu sync.Mutex
	version   uint64
	limiter   *rate.Limiter
}

// NewHandle creates a handle holding an empty embedding gallery at
// version 0.
func NewHandle(optFns ...func(o *HandleOptions)) *Handle {
	opts := HandleOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	h := &Handle{}

	if opts.PublishRate > 0 {
		burst := opts.PublishBurst
		if burst <= 0 {
			burst = 1
		}

		h.limiter = rate.NewLimiter(opts.PublishRate, burst)
	}

	empty, _ := Build(nil, descriptor.KindEmbedding, 0)
	h.current.Store(empty)

	return h
}

// Snapshot returns the current gallery. The returned gallery is immutable
// and remains valid after later publishes.
func (h *Handle) Snapshot() *Gallery {
	return h.current.Load()
}

// Publish builds a new gallery from entries and swaps it in. Publishes
// are serialized; the last writer wins. Readers holding an older snapshot
// are unaffected.
//
// The returned gallery is the newly published snapshot.
func (h *Handle) Publish(ctx context.Context, entries []Entry, kind descriptor.Kind) (*Gallery, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	g, err := Build(entries, kind, h.version+1)
	if err != nil {
		return nil, err
	}

	h.version++
	h.current.Store(g)

	return g, nil
}
