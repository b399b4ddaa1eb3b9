package lsb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanicar/zksteg/errs"
	"github.com/zanicar/zksteg/raster"
)

func TestBytesToBits_BigEndianMSBFirst(t *testing.T) {
	bits := BytesToBits([]byte{0b10110010})
	assert.Equal(t, []byte{1, 0, 1, 1, 0, 0, 1, 0}, bits)
}

func TestBitsToBytes_RoundTrip(t *testing.T) {
	data := []byte("roundtrip me")
	bits := BytesToBits(data)
	assert.Equal(t, data, BitsToBytes(bits))
}

func TestBitsToBytes_Empty(t *testing.T) {
	assert.Empty(t, BitsToBytes(BytesToBits(nil)))
}

func TestEmbedExtract_RoundTrip(t *testing.T) {
	img := raster.NewImage(32, 32)
	positions := []raster.Position{
		{X: 0, Y: 0, Channel: 0},
		{X: 1, Y: 0, Channel: 1},
		{X: 2, Y: 0, Channel: 2},
		{X: 0, Y: 1, Channel: 0},
	}
	bits := []byte{1, 0, 1, 1}
	require.NoError(t, EmbedBits(img, positions, bits))
	assert.Equal(t, bits, ExtractBits(img, positions))
}

func TestEmbedBits_LengthMismatch(t *testing.T) {
	img := raster.NewImage(32, 32)
	err := EmbedBits(img, []raster.Position{{X: 0, Y: 0, Channel: 0}}, []byte{1, 0})
	require.ErrorIs(t, err, errs.ErrLengthMismatch)
}

func TestEmbedBits_UnconditionalWrite(t *testing.T) {
	img := raster.NewImage(32, 32)
	img.Set(0, 0, 0, 0xFF)
	require.NoError(t, EmbedBits(img, []raster.Position{{X: 0, Y: 0, Channel: 0}}, []byte{0}))
	assert.Equal(t, byte(0xFE), img.At(0, 0, 0))
}
