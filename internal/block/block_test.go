package block

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressRoundtrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("face descriptor payload "), 256)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			framed, err := Compress(compressible, c)
			require.NoError(t, err)

			out, err := Decompress(framed, c)
			require.NoError(t, err)
			assert.Equal(t, compressible, out)

			if c != CompressionNone {
				assert.Less(t, len(framed), len(compressible))
			}
		})
	}
}

func TestCompressIncompressibleStoredRaw(t *testing.T) {
	// High-entropy payload the compressors cannot shrink.
	data := make([]byte, 512)
	state := uint32(0x9e3779b9)

	for i := range data {
		state = state*1664525 + 1013904223
		data[i] = byte(state >> 24)
	}

	for _, c := range []Compression{CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			framed, err := Compress(data, c)
			require.NoError(t, err)

			out, err := Decompress(framed, c)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestCompressEmpty(t *testing.T) {
	framed, err := Compress(nil, CompressionZSTD)
	require.NoError(t, err)

	out, err := Decompress(framed, CompressionZSTD)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDecompressErrors(t *testing.T) {
	t.Run("short header", func(t *testing.T) {
		_, err := Decompress([]byte{1, 2, 3}, CompressionLZ4)
		require.Error(t, err)
	})

	t.Run("truncated payload", func(t *testing.T) {
		framed, err := Compress(bytes.Repeat([]byte("abc"), 200), CompressionZSTD)
		require.NoError(t, err)

		_, err = Decompress(framed[:len(framed)-4], CompressionZSTD)
		require.Error(t, err)
	})
}

func TestCompressionValid(t *testing.T) {
	assert.True(t, CompressionNone.Valid())
	assert.True(t, CompressionLZ4.Valid())
	assert.True(t, CompressionZSTD.Valid())
	assert.False(t, Compression(9).Valid())
}
