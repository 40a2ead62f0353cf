package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		img, format, err := Decode(pngBytes(t, 8, 6))
		require.NoError(t, err)

		assert.Equal(t, "png", format)
		assert.Equal(t, 8, img.Bounds().Dx())
		assert.Equal(t, 6, img.Bounds().Dy())
	})

	t.Run("garbage bytes fail", func(t *testing.T) {
		_, _, err := Decode([]byte("not an image"))
		require.Error(t, err)
	})

	t.Run("empty input fails", func(t *testing.T) {
		_, _, err := Decode(nil)
		require.Error(t, err)
	})
}

func TestDownscale(t *testing.T) {
	t.Run("small image unchanged", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 640, 480))
		assert.Same(t, image.Image(img), Downscale(img))
	})

	t.Run("wide image capped at max width", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 3840, 1000))

		out := Downscale(img)
		assert.Equal(t, 1920, out.Bounds().Dx())
		assert.Equal(t, 500, out.Bounds().Dy())
	})

	t.Run("tall image capped at max height", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 1000, 2160))

		out := Downscale(img)
		assert.Equal(t, 500, out.Bounds().Dx())
		assert.Equal(t, 1080, out.Bounds().Dy())
	})

	t.Run("aspect ratio preserved for 4k", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 3840, 2160))

		out := Downscale(img)
		assert.Equal(t, 1920, out.Bounds().Dx())
		assert.Equal(t, 1080, out.Bounds().Dy())
	})
}

func TestValidateMinSize(t *testing.T) {
	assert.NoError(t, ValidateMinSize(image.NewRGBA(image.Rect(0, 0, 100, 100))))

	err := ValidateMinSize(image.NewRGBA(image.Rect(0, 0, 99, 200)))

	var tooSmall *TooSmallError
	require.ErrorAs(t, err, &tooSmall)
	assert.Equal(t, 99, tooSmall.Width)
}
