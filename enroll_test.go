package facekit_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	facekit "github.com/facekit/facekit"
	"github.com/facekit/facekit/blobstore"
	"github.com/facekit/facekit/config"
	"github.com/facekit/facekit/descriptor"
	"github.com/facekit/facekit/gallery"
	"github.com/facekit/facekit/history"
	"github.com/facekit/facekit/imageproc"
	"github.com/facekit/facekit/match"
)

func TestPrepareEntry(t *testing.T) {
	ctx := context.Background()
	img := pngBytes(t, 200, 200)

	emb := &stubEmbedder{
		kind: descriptor.KindEmbedding,
		vecs: map[int][]float32{0: {1, 0, 0}},
	}

	t.Run("exactly one face succeeds", func(t *testing.T) {
		r, err := facekit.New(&stubDetector{boxes: makeBoxes(1)}, emb)
		require.NoError(t, err)

		desc, box, err := r.PrepareEntry(ctx, img)
		require.NoError(t, err)

		assert.Equal(t, descriptor.KindEmbedding, desc.Kind)
		assert.Equal(t, []float32{1, 0, 0}, desc.Values)
		assert.Equal(t, 0, box.Left)
	})

	t.Run("zero faces rejected", func(t *testing.T) {
		r, err := facekit.New(&stubDetector{}, emb)
		require.NoError(t, err)

		_, _, err = r.PrepareEntry(ctx, img)
		require.ErrorIs(t, err, facekit.ErrNoFaceDetected)
	})

	t.Run("two faces rejected with count", func(t *testing.T) {
		r, err := facekit.New(&stubDetector{boxes: makeBoxes(2)}, emb)
		require.NoError(t, err)

		_, _, err = r.PrepareEntry(ctx, img)
		require.ErrorIs(t, err, facekit.ErrMultipleFacesDetected)

		var multiErr *facekit.MultipleFacesError
		require.ErrorAs(t, err, &multiErr)
		assert.Equal(t, 2, multiErr.Count)
	})

	t.Run("undersized image rejected", func(t *testing.T) {
		r, err := facekit.New(&stubDetector{boxes: makeBoxes(1)}, emb)
		require.NoError(t, err)

		_, _, err = r.PrepareEntry(ctx, pngBytes(t, 64, 64))

		var tooSmall *imageproc.TooSmallError
		require.ErrorAs(t, err, &tooSmall)
	})

	t.Run("undecodable image rejected", func(t *testing.T) {
		r, err := facekit.New(&stubDetector{boxes: makeBoxes(1)}, emb)
		require.NoError(t, err)

		_, _, err = r.PrepareEntry(ctx, []byte("junk"))
		require.ErrorIs(t, err, facekit.ErrImageDecode)
	})
}

func TestHistoryAndStats(t *testing.T) {
	ctx := context.Background()

	det := &stubDetector{boxes: makeBoxes(1)}
	emb := &stubEmbedder{
		kind: descriptor.KindEmbedding,
		vecs: map[int][]float32{0: {0.95, 0, 0}},
	}

	metrics := &facekit.BasicMetricsCollector{}
	archive, err := history.NewArchive(blobstore.NewMemoryStore())
	require.NoError(t, err)

	r, err := facekit.New(det, emb,
		facekit.WithLogger(facekit.NewTextLogger(slog.LevelError)),
		facekit.WithMetrics(metrics),
		facekit.WithHistorySink(archive),
		facekit.WithHistoryCapacity(10),
	)
	require.NoError(t, err)

	_, err = r.Publish(ctx, []gallery.Entry{aliceEntry()}, descriptor.KindEmbedding)
	require.NoError(t, err)

	img := pngBytes(t, 64, 48)

	for i := 0; i < 3; i++ {
		_, err := r.Recognize(ctx, img)
		require.NoError(t, err)
	}

	t.Run("recent runs newest first", func(t *testing.T) {
		recent := r.Recent(2)
		require.Len(t, recent, 2)
		assert.Equal(t, 1, recent[0].TotalRecognized)
	})

	t.Run("archive received every run", func(t *testing.T) {
		names, err := archive.List(ctx)
		require.NoError(t, err)
		assert.Len(t, names, 3)

		loaded, err := archive.Load(ctx, names[0])
		require.NoError(t, err)
		assert.Equal(t, "emp-1", loaded.Faces[0].EntryID)
	})

	t.Run("stats reflect state", func(t *testing.T) {
		stats := r.Stats()

		assert.Equal(t, uint64(1), stats.GalleryVersion)
		assert.Equal(t, 1, stats.GallerySize)
		assert.Equal(t, descriptor.KindEmbedding, stats.GalleryKind)
		assert.Equal(t, 3, stats.RunsRetained)
		assert.Equal(t, uint64(3), stats.RunsAppended)
		assert.Equal(t, 50, stats.MaxFaces)
	})

	t.Run("metrics recorded", func(t *testing.T) {
		s := metrics.GetStats()

		assert.Equal(t, int64(3), s.RecognizeCount)
		assert.Equal(t, int64(0), s.RecognizeErrors)
		assert.Equal(t, int64(3), s.FacesDetected)
		assert.Equal(t, int64(3), s.FacesRecognized)
		assert.Equal(t, int64(1), s.PublishCount)
		assert.Equal(t, int64(3), s.HistoryAppends)
		assert.Equal(t, int64(0), s.HistoryErrors)
	})
}

// rejectingStore fails every write, simulating an unavailable archive
// backend.
type rejectingStore struct{}

func (rejectingStore) Put(context.Context, string, []byte) error { return errors.New("store down") }
func (rejectingStore) Get(context.Context, string) ([]byte, error) {
	return nil, blobstore.ErrNotFound
}
func (rejectingStore) Delete(context.Context, string) error { return errors.New("store down") }
func (rejectingStore) List(context.Context, string) ([]string, error) {
	return nil, errors.New("store down")
}

func TestHistoryFailureIsRecovered(t *testing.T) {
	ctx := context.Background()

	det := &stubDetector{boxes: makeBoxes(1)}
	emb := &stubEmbedder{
		kind: descriptor.KindEmbedding,
		vecs: map[int][]float32{0: {1, 0, 0}},
	}

	metrics := &facekit.BasicMetricsCollector{}

	// An archive over a store path that rejects writes.
	archive, err := history.NewArchive(rejectingStore{})
	require.NoError(t, err)

	r, err := facekit.New(det, emb,
		facekit.WithMetrics(metrics),
		facekit.WithHistorySink(archive),
	)
	require.NoError(t, err)

	run, err := r.Recognize(ctx, pngBytes(t, 64, 48))
	require.NoError(t, err)
	require.NotNil(t, run)

	// The failing archive is counted but never fails the call, and the
	// memory ring still recorded the run.
	assert.Equal(t, int64(1), metrics.GetStats().HistoryErrors)
	assert.Len(t, r.Recent(0), 1)
}

func TestGalleryPersistence(t *testing.T) {
	ctx := context.Background()

	det := &stubDetector{boxes: makeBoxes(1)}
	emb := &stubEmbedder{
		kind: descriptor.KindEmbedding,
		vecs: map[int][]float32{0: {0.95, 0, 0}},
	}

	store := blobstore.NewMemoryStore()

	r1, err := facekit.New(det, emb)
	require.NoError(t, err)

	_, err = r1.Publish(ctx, []gallery.Entry{aliceEntry(), bobEntry()}, descriptor.KindEmbedding)
	require.NoError(t, err)

	require.NoError(t, r1.SaveGallery(ctx, store, "snapshots/current"))

	// A fresh process restores and recognizes against the same entries.
	r2, err := facekit.New(det, emb)
	require.NoError(t, err)

	g, err := r2.RestoreGallery(ctx, store, "snapshots/current")
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())

	run, err := r2.Recognize(ctx, pngBytes(t, 64, 48))
	require.NoError(t, err)
	assert.Equal(t, "emp-1", run.Faces[0].EntryID)
}

func TestSetThresholds(t *testing.T) {
	ctx := context.Background()

	det := &stubDetector{boxes: makeBoxes(1)}
	emb := &stubEmbedder{
		kind: descriptor.KindEmbedding,
		vecs: map[int][]float32{0: {0, 0.5, 0}},
	}

	r, err := facekit.New(det, emb)
	require.NoError(t, err)

	_, err = r.Publish(ctx, []gallery.Entry{aliceEntry()}, descriptor.KindEmbedding)
	require.NoError(t, err)

	img := pngBytes(t, 64, 48)

	// Distance to Alice is ~1.12, over the default 0.6 cutoff.
	run, err := r.Recognize(ctx, img)
	require.NoError(t, err)
	assert.False(t, run.Faces[0].Known)

	require.NoError(t, r.SetThresholds(config.Thresholds{Embedding: 1.5, Histogram: 100}))
	assert.InDelta(t, 1.5, r.Thresholds().Embedding, 1e-9)

	run, err = r.Recognize(ctx, img)
	require.NoError(t, err)
	assert.True(t, run.Faces[0].Known)

	t.Run("invalid thresholds rejected", func(t *testing.T) {
		assert.Error(t, r.SetThresholds(config.Thresholds{Embedding: 0, Histogram: 100}))
	})
}

func TestWithHNSWMatcher(t *testing.T) {
	ctx := context.Background()

	det := &stubDetector{boxes: makeBoxes(1)}
	emb := &stubEmbedder{
		kind: descriptor.KindEmbedding,
		vecs: map[int][]float32{0: {0.95, 0, 0}},
	}

	ann, err := match.NewHNSW()
	require.NoError(t, err)

	r, err := facekit.New(det, emb, facekit.WithMatcher(ann))
	require.NoError(t, err)

	_, err = r.Publish(ctx, []gallery.Entry{aliceEntry(), bobEntry()}, descriptor.KindEmbedding)
	require.NoError(t, err)

	run, err := r.Recognize(ctx, pngBytes(t, 64, 48))
	require.NoError(t, err)

	require.Len(t, run.Faces, 1)
	assert.Equal(t, "emp-1", run.Faces[0].EntryID)
	assert.GreaterOrEqual(t, run.Faces[0].Confidence, 90.0)
}
