// Package imageproc decodes and normalizes source photographs before
// detection. Oversized images are downscaled so detection cost stays
// bounded regardless of camera resolution.
package imageproc

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// MaxWidth and MaxHeight cap the working image size. Larger images
	// are downscaled preserving aspect ratio before detection.
	MaxWidth  = 1920
	MaxHeight = 1080

	// MinDimension is the smallest usable enrollment image edge.
	MinDimension = 100
)

// Decode parses image bytes into an image. The format name is the
// registered codec that matched (jpeg, png, gif, bmp, tiff, webp).
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	return img, format, nil
}

// Downscale returns img scaled to fit within MaxWidth x MaxHeight,
// preserving aspect ratio. Images already within bounds are returned
// unchanged.
func Downscale(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if w <= MaxWidth && h <= MaxHeight {
		return img
	}

	scale := float64(MaxWidth) / float64(w)
	if s := float64(MaxHeight) / float64(h); s < scale {
		scale = s
	}

	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)

	if dw < 1 {
		dw = 1
	}

	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)

	return dst
}

// TooSmallError occurs when an image is below the minimum usable size.
type TooSmallError struct {
	Width  int
	Height int
}

func (e *TooSmallError) Error() string {
	return fmt.Sprintf("image %dx%d is below the %dx%d minimum", e.Width, e.Height, MinDimension, MinDimension)
}

// ValidateMinSize checks that both image edges meet MinDimension.
func ValidateMinSize(img image.Image) error {
	b := img.Bounds()
	if b.Dx() < MinDimension || b.Dy() < MinDimension {
		return &TooSmallError{Width: b.Dx(), Height: b.Dy()}
	}

	return nil
}
