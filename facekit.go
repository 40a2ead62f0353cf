package facekit

import (
	"context"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/facekit/facekit/blobstore"
	"github.com/facekit/facekit/config"
	"github.com/facekit/facekit/descriptor"
	"github.com/facekit/facekit/gallery"
	"github.com/facekit/facekit/history"
	"github.com/facekit/facekit/imageproc"
	"github.com/facekit/facekit/match"
	"github.com/facekit/facekit/model"
	"github.com/facekit/facekit/snapshot"
)

// Detector finds faces in an image. Implementations wrap an external
// detection backend (dlib, OpenCV, a remote service).
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]model.BoundingBox, error)
}

// Embedder extracts a descriptor for one face region. Implementations
// wrap an external embedding backend and must produce descriptors of one
// fixed kind and dimensionality.
type Embedder interface {
	Embed(ctx context.Context, img image.Image, box model.BoundingBox) (descriptor.Descriptor, error)
}

// Recognizer orchestrates the recognition pipeline: decode, detect,
// embed, match against a single gallery snapshot, aggregate, and record
// history. It is safe for concurrent use.
type Recognizer struct {
	detector Detector
	embedder Embedder

	handle  *gallery.Handle
	matcher match.Matcher

	memory *history.Memory
	sink   history.Sink

	thresholds atomic.Pointer[config.Thresholds]

	maxFaces         int
	matchConcurrency int

	logger  *Logger
	metrics MetricsCollector
}

// New creates a Recognizer around the given collaborators. A nil
// detector is allowed at construction; recognition then fails with
// ErrDetectorUnavailable until one is present.
func New(detector Detector, embedder Embedder, optFns ...Option) (*Recognizer, error) {
	opts := defaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	matcher := opts.matcher
	if matcher == nil {
		var err error

		matcher, err = match.NewLinear()
		if err != nil {
			return nil, err
		}
	}

	memory := history.NewMemory(opts.historyCapacity)

	var sink history.Sink = memory
	if len(opts.sinks) > 0 {
		sink = append(history.MultiSink{memory}, opts.sinks...)
	}

	r := &Recognizer{
		detector:         detector,
		embedder:         embedder,
		matcher:          matcher,
		memory:           memory,
		sink:             sink,
		maxFaces:         opts.maxFaces,
		matchConcurrency: opts.matchConcurrency,
		logger:           opts.logger,
		metrics:          opts.metrics,
	}

	r.handle = gallery.NewHandle(func(o *gallery.HandleOptions) {
		o.PublishRate = opts.publishRate
		o.PublishBurst = opts.publishBurst
	})

	thresholds := opts.thresholds
	r.thresholds.Store(&thresholds)

	return r, nil
}

// RecognizeOptions configures a single recognition call.
type RecognizeOptions struct {
	// MaxFaces overrides the configured per-run face cap.
	MaxFaces int

	// Threshold overrides the configured distance cutoff for the
	// gallery's kind. 0 keeps the configured value.
	Threshold float64

	// AttributeKey/AttributeValue restrict matching to gallery entries
	// carrying the given attribute, e.g. one department.
	AttributeKey   string
	AttributeValue string
}

// Recognize runs the full pipeline over one encoded image and returns
// the per-face results as a run record.
//
// All faces in the run are matched against the same gallery snapshot,
// taken once at the start; a publish landing mid-run does not mix
// versions. Per-face embedding or matching failures degrade the face to
// unknown and never abort the run. The run is appended to history
// best-effort; append failures are logged, not returned.
func (r *Recognizer) Recognize(ctx context.Context, imageData []byte, optFns ...func(o *RecognizeOptions)) (*model.RecognitionRun, error) {
	start := time.Now()

	run, err := r.recognize(ctx, imageData, start, optFns...)

	duration := time.Since(start)

	var detected, recognized int
	var runID string
	var version uint64

	if run != nil {
		detected = run.TotalDetected
		recognized = run.TotalRecognized
		runID = run.ID
		version = run.GalleryVersion
	}

	r.metrics.RecordRecognize(detected, recognized, duration, err)
	r.logger.LogRecognize(ctx, runID, detected, recognized, version, duration, err)

	if err != nil {
		return nil, err
	}

	return run, nil
}

func (r *Recognizer) recognize(ctx context.Context, imageData []byte, start time.Time, optFns ...func(o *RecognizeOptions)) (*model.RecognitionRun, error) {
	opts := RecognizeOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	if r.detector == nil {
		return nil, ErrDetectorUnavailable
	}

	img, _, err := imageproc.Decode(imageData)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageDecode, err)
	}

	img = imageproc.Downscale(img)

	boxes, err := r.detector.Detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetectorUnavailable, err)
	}

	// One snapshot for the whole run.
	g := r.handle.Snapshot()

	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = r.thresholds.Load().For(g.Kind())
	}

	var filter gallery.Filter
	if opts.AttributeKey != "" {
		filter = g.AttributeFilter(opts.AttributeKey, opts.AttributeValue)
	}

	maxFaces := opts.MaxFaces
	if maxFaces <= 0 {
		maxFaces = r.maxFaces
	}

	run := &model.RecognitionRun{
		ID:             uuid.NewString(),
		Timestamp:      start.UTC(),
		GalleryVersion: g.Version(),
	}

	if len(boxes) > maxFaces {
		r.logger.LogTruncation(ctx, run.ID, len(boxes), maxFaces)
		run.Warnings = append(run.Warnings, fmt.Sprintf("detected %d faces, processing first %d", len(boxes), maxFaces))
		boxes = boxes[:maxFaces]
	}

	run.TotalDetected = len(boxes)
	run.Faces = make([]model.MatchResult, len(boxes))

	eg, egCtx := errgroup.WithContext(ctx)
	if r.matchConcurrency > 0 {
		eg.SetLimit(r.matchConcurrency)
	}

	for i, box := range boxes {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			run.Faces[i] = r.matchFace(egCtx, run.ID, img, i, box, g, threshold, filter)

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return run, err
	}

	if err := ctx.Err(); err != nil {
		return run, err
	}

	for _, f := range run.Faces {
		if f.Known {
			run.TotalRecognized++
		}
	}

	run.Duration = time.Since(start)

	// Best-effort history append, skipped when the caller is gone.
	if ctx.Err() == nil {
		appendErr := r.sink.Append(ctx, run)
		r.metrics.RecordHistoryAppend(appendErr)
		r.logger.LogHistoryAppend(ctx, run.ID, appendErr)
	}

	return run, nil
}

// matchFace embeds and matches one face. Failures degrade the face to
// unknown with no distance.
func (r *Recognizer) matchFace(ctx context.Context, runID string, img image.Image, index int, box model.BoundingBox, g *gallery.Gallery, threshold float64, filter gallery.Filter) model.MatchResult {
	result := model.MatchResult{
		Observation: model.FaceObservation{Index: index, Box: box},
	}

	if r.embedder == nil {
		r.logger.LogFaceDegraded(ctx, runID, index, "embed", fmt.Errorf("no embedder configured"))
		return result
	}

	desc, err := r.embedder.Embed(ctx, img, box)
	if err != nil {
		r.logger.LogFaceDegraded(ctx, runID, index, "embed", err)
		return result
	}

	result.Observation.Descriptor = desc

	m, err := r.matcher.Match(ctx, desc, g, match.Options{
		Threshold: threshold,
		Filter:    filter,
	})
	if err != nil {
		r.logger.LogFaceDegraded(ctx, runID, index, "match", err)
		return result
	}

	result.Distance = m.Distance
	result.HasDistance = m.HasDistance

	if m.Known {
		result.Known = true
		result.EntryID = m.EntryID
		result.Confidence = match.Confidence(m.Distance, threshold, g.Kind())

		if e, ok := g.Lookup(m.EntryID); ok {
			result.Label = e.Label
			result.Attributes = e.Attributes
		}
	}

	return result
}

// PrepareEntry extracts the enrollment descriptor from an image that
// must contain exactly one face. Zero faces fail with ErrNoFaceDetected;
// more than one fail with ErrMultipleFacesDetected. The caller attaches
// id, label, and attributes, then publishes.
func (r *Recognizer) PrepareEntry(ctx context.Context, imageData []byte) (descriptor.Descriptor, model.BoundingBox, error) {
	start := time.Now()

	desc, box, err := r.prepareEntry(ctx, imageData)

	r.metrics.RecordEnroll(time.Since(start), err)
	r.logger.LogEnroll(ctx, time.Since(start), err)

	return desc, box, err
}

func (r *Recognizer) prepareEntry(ctx context.Context, imageData []byte) (descriptor.Descriptor, model.BoundingBox, error) {
	if r.detector == nil {
		return descriptor.Descriptor{}, model.BoundingBox{}, ErrDetectorUnavailable
	}

	if r.embedder == nil {
		return descriptor.Descriptor{}, model.BoundingBox{}, fmt.Errorf("no embedder configured")
	}

	img, _, err := imageproc.Decode(imageData)
	if err != nil {
		return descriptor.Descriptor{}, model.BoundingBox{}, fmt.Errorf("%w: %w", ErrImageDecode, err)
	}

	if err := imageproc.ValidateMinSize(img); err != nil {
		return descriptor.Descriptor{}, model.BoundingBox{}, err
	}

	img = imageproc.Downscale(img)

	boxes, err := r.detector.Detect(ctx, img)
	if err != nil {
		return descriptor.Descriptor{}, model.BoundingBox{}, fmt.Errorf("%w: %w", ErrDetectorUnavailable, err)
	}

	switch {
	case len(boxes) == 0:
		return descriptor.Descriptor{}, model.BoundingBox{}, ErrNoFaceDetected
	case len(boxes) > 1:
		return descriptor.Descriptor{}, model.BoundingBox{}, &MultipleFacesError{Count: len(boxes)}
	}

	desc, err := r.embedder.Embed(ctx, img, boxes[0])
	if err != nil {
		return descriptor.Descriptor{}, model.BoundingBox{}, fmt.Errorf("embed enrollment face: %w", err)
	}

	return desc, boxes[0], nil
}

// Publish builds a new gallery from entries and atomically swaps it in.
// In-flight recognition keeps its snapshot; later calls see the new
// gallery.
func (r *Recognizer) Publish(ctx context.Context, entries []gallery.Entry, kind descriptor.Kind) (*gallery.Gallery, error) {
	start := time.Now()

	g, err := r.handle.Publish(ctx, entries, kind)

	duration := time.Since(start)
	r.metrics.RecordPublish(len(entries), duration, err)

	var version uint64
	if g != nil {
		version = g.Version()
	}

	r.logger.LogPublish(ctx, version, len(entries), duration, err)

	return g, err
}

// Gallery returns the current gallery snapshot.
func (r *Recognizer) Gallery() *gallery.Gallery {
	return r.handle.Snapshot()
}

// SetThresholds replaces the distance cutoffs at runtime. In-flight
// runs keep the threshold they started with.
func (r *Recognizer) SetThresholds(t config.Thresholds) error {
	if t.Embedding <= 0 || t.Histogram <= 0 {
		return fmt.Errorf("thresholds must be positive, got %+v", t)
	}

	r.thresholds.Store(&t)

	return nil
}

// Thresholds returns the current distance cutoffs.
func (r *Recognizer) Thresholds() config.Thresholds {
	return *r.thresholds.Load()
}

// Recent returns up to limit recorded runs, newest first.
func (r *Recognizer) Recent(limit int) []*model.RecognitionRun {
	return r.memory.Recent(limit)
}

// SaveGallery persists the current gallery snapshot to a blobstore.
func (r *Recognizer) SaveGallery(ctx context.Context, store blobstore.Store, name string) error {
	return snapshot.Save(ctx, store, name, r.handle.Snapshot())
}

// RestoreGallery loads a persisted gallery and publishes it as a new
// version.
func (r *Recognizer) RestoreGallery(ctx context.Context, store blobstore.Store, name string) (*gallery.Gallery, error) {
	res, err := snapshot.Load(ctx, store, name)
	if err != nil {
		return nil, err
	}

	return r.Publish(ctx, res.Entries, res.Kind)
}

// Stats describes the current state of the recognizer.
type Stats struct {
	GalleryVersion uint64
	GallerySize    int
	GalleryKind    descriptor.Kind
	RunsRetained   int
	RunsAppended   uint64
	Thresholds     config.Thresholds
	MaxFaces       int
}

// Stats returns a point-in-time view of gallery and history state.
func (r *Recognizer) Stats() Stats {
	g := r.handle.Snapshot()

	return Stats{
		GalleryVersion: g.Version(),
		GallerySize:    g.Len(),
		GalleryKind:    g.Kind(),
		RunsRetained:   r.memory.Len(),
		RunsAppended:   r.memory.TotalAppended(),
		Thresholds:     *r.thresholds.Load(),
		MaxFaces:       r.maxFaces,
	}
}
