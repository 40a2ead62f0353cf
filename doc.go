// Package facekit is an embeddable face recognition core: it matches
// faces detected in a photograph against a versioned gallery of enrolled
// descriptors and reports per-face identity, confidence, and location.
//
// Detection and embedding are external collaborators behind the Detector
// and Embedder interfaces; facekit owns everything after them. The
// gallery is immutable per version and replaced by atomic publish, so
// recognition always runs against one consistent snapshot.
//
// Basic usage:
//
//	r, err := facekit.New(detector, embedder,
//		facekit.WithLogger(facekit.NewTextLogger(slog.LevelInfo)),
//	)
//	if err != nil { ... }
//
//	desc, _, err := r.PrepareEntry(ctx, enrollmentJPEG)
//	if err != nil { ... }
//
//	_, err = r.Publish(ctx, []gallery.Entry{{
//		ID:         "emp-1",
//		Label:      "Alice",
//		Descriptor: desc,
//	}}, desc.Kind)
//	if err != nil { ... }
//
//	run, err := r.Recognize(ctx, groupPhotoJPEG)
package facekit
