// Package model defines the shared result types produced by a recognition
// run and consumed by history sinks.
package model

import (
	"time"

	"github.com/facekit/facekit/descriptor"
	"github.com/facekit/facekit/gallery"
)

// BoundingBox locates a face in the source image, in pixels.
type BoundingBox struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Width returns the box width in pixels.
func (b BoundingBox) Width() int {
	return b.Right - b.Left
}

// Height returns the box height in pixels.
func (b BoundingBox) Height() int {
	return b.Bottom - b.Top
}

// FaceObservation is one detected face: its position in detection order,
// its location, and the descriptor extracted for it. The descriptor is
// zero when embedding failed for this face.
type FaceObservation struct {
	Index      int                   `json:"index"`
	Box        BoundingBox           `json:"box"`
	Descriptor descriptor.Descriptor `json:"-"`
}

// MatchResult is the outcome of matching one observed face against a
// gallery snapshot.
//
// Known is true exactly when EntryID is set. Confidence is 0 for unknown
// faces. HasDistance is false when no distance was computed, i.e. the
// gallery was empty or embedding failed for the face.
type MatchResult struct {
	Observation FaceObservation    `json:"observation"`
	EntryID     string             `json:"entry_id,omitempty"`
	Label       string             `json:"label,omitempty"`
	Attributes  gallery.Attributes `json:"-"`
	Known       bool               `json:"known"`
	Confidence  float64            `json:"confidence"`
	Distance    float64            `json:"distance,omitempty"`
	HasDistance bool               `json:"has_distance"`
}

// RecognitionRun is the aggregate record of one recognition call.
// Faces are ordered by observation index.
type RecognitionRun struct {
	ID              string        `json:"id"`
	Timestamp       time.Time     `json:"timestamp"`
	GalleryVersion  uint64        `json:"gallery_version"`
	TotalDetected   int           `json:"total_detected"`
	TotalRecognized int           `json:"total_recognized"`
	Faces           []MatchResult `json:"faces"`
	Duration        time.Duration `json:"duration"`
	Warnings        []string      `json:"warnings,omitempty"`
}
