package gallery

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facekit/facekit/descriptor"
)

func TestHandlePublish(t *testing.T) {
	ctx := context.Background()

	t.Run("starts empty at version 0", func(t *testing.T) {
		h := NewHandle()

		g := h.Snapshot()
		assert.Equal(t, uint64(0), g.Version())
		assert.Equal(t, 0, g.Len())
	})

	t.Run("versions increase monotonically", func(t *testing.T) {
		h := NewHandle()

		g1, err := h.Publish(ctx, []Entry{embedEntry("emp-1", "Alice", 1, 0)}, descriptor.KindEmbedding)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), g1.Version())

		g2, err := h.Publish(ctx, []Entry{embedEntry("emp-2", "Bob", 0, 1)}, descriptor.KindEmbedding)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), g2.Version())

		assert.Equal(t, uint64(2), h.Snapshot().Version())
	})

	t.Run("failed publish leaves current snapshot intact", func(t *testing.T) {
		h := NewHandle()

		_, err := h.Publish(ctx, []Entry{embedEntry("emp-1", "Alice", 1, 0)}, descriptor.KindEmbedding)
		require.NoError(t, err)

		_, err = h.Publish(ctx, []Entry{embedEntry("emp-2", "", 1, 0)}, descriptor.KindEmbedding)
		require.Error(t, err)

		g := h.Snapshot()
		assert.Equal(t, uint64(1), g.Version())
		assert.Equal(t, 1, g.Len())
	})
}

func TestHandleSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	h := NewHandle()

	_, err := h.Publish(ctx, []Entry{embedEntry("emp-1", "Alice", 1, 0)}, descriptor.KindEmbedding)
	require.NoError(t, err)

	// A reader takes a snapshot, then a publish lands mid-read. The
	// reader must keep seeing the old gallery in full.
	old := h.Snapshot()
	require.Equal(t, uint64(1), old.Version())
	require.Equal(t, 1, old.Len())

	_, err = h.Publish(ctx, []Entry{
		embedEntry("emp-1", "Alice", 1, 0),
		embedEntry("emp-2", "Bob", 0, 1),
	}, descriptor.KindEmbedding)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), old.Version())
	assert.Equal(t, 1, old.Len())
	assert.Equal(t, "Alice", old.Entry(0).Label)

	fresh := h.Snapshot()
	assert.Equal(t, uint64(2), fresh.Version())
	assert.Equal(t, 2, fresh.Len())
}

func TestHandleConcurrentPublishAndSnapshot(t *testing.T) {
	ctx := context.Background()
	h := NewHandle()

	const (
		writers   = 4
		publishes = 25
		readers   = 8
	)

	var wg sync.WaitGroup

	for w := 0; w < writers; w++ {
		wg.Add(1)

		go func(w int) {
			defer wg.Done()

			for i := 0; i < publishes; i++ {
				entries := []Entry{embedEntry(fmt.Sprintf("emp-%d-%d", w, i), "Someone", 1, 0)}

				_, err := h.Publish(ctx, entries, descriptor.KindEmbedding)
				assert.NoError(t, err)
			}
		}(w)
	}

	for r := 0; r < readers; r++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			var last uint64

			for i := 0; i < writers*publishes; i++ {
				g := h.Snapshot()

				// A snapshot is always internally consistent and
				// versions never move backwards for one reader.
				assert.GreaterOrEqual(t, g.Version(), last)
				last = g.Version()

				for pos := 0; pos < g.Len(); pos++ {
					assert.NotEmpty(t, g.Entry(pos).ID)
				}
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, uint64(writers*publishes), h.Snapshot().Version())
}
