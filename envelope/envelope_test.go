package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanicar/zksteg/errs"
	"github.com/zanicar/zksteg/raster"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := raster.NewImage(32, 32)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, 0, byte(x))
			img.Set(x, y, 1, byte(y))
			img.Set(x, y, 2, byte(x^y))
		}
	}
	out, err := img.Encode()
	require.NoError(t, err)
	return out
}

func TestCapacityBits_WorkedExample(t *testing.T) {
	assert.Equal(t, uint32(64*64*3-512), CapacityBits(64, 64))
}

func TestCapacityBits_BelowReserved(t *testing.T) {
	assert.Equal(t, uint32(0), CapacityBits(1, 1))
}

func TestWriteRead_RoundTrip(t *testing.T) {
	png := samplePNG(t)
	d := Descriptor{
		AnchorX:     3,
		AnchorY:     7,
		PayloadBits: 128,
		CarrierSHA:  [32]byte{1, 2, 3},
		Meta:        []byte("hello"),
	}
	out, err := Write(png, d)
	require.NoError(t, err)

	got, err := Read(out, CapacityBits(32, 32))
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestWrite_ReplacesExistingEnvelope(t *testing.T) {
	png := samplePNG(t)
	first := Descriptor{AnchorX: 1, AnchorY: 1, PayloadBits: 8, Meta: []byte("a")}
	second := Descriptor{AnchorX: 2, AnchorY: 2, PayloadBits: 16, Meta: []byte("b")}

	stage1, err := Write(png, first)
	require.NoError(t, err)
	stage2, err := Write(stage1, second)
	require.NoError(t, err)

	got, err := Read(stage2, CapacityBits(32, 32))
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestRead_NoEnvelope(t *testing.T) {
	png := samplePNG(t)
	_, err := Read(png, CapacityBits(32, 32))
	require.ErrorIs(t, err, errs.ErrNoEnvelope)
}

func TestRead_PayloadExceedsCapacity(t *testing.T) {
	png := samplePNG(t)
	d := Descriptor{PayloadBits: 1 << 30}
	out, err := Write(png, d)
	require.NoError(t, err)
	_, err = Read(out, CapacityBits(32, 32))
	require.ErrorIs(t, err, errs.ErrEnvelopeInconsistent)
}

func TestRead_CorruptCRC(t *testing.T) {
	png := samplePNG(t)
	d := Descriptor{AnchorX: 1, AnchorY: 1, PayloadBits: 8}
	out, err := Write(png, d)
	require.NoError(t, err)

	// flip a byte inside the zkPF chunk's data region to break its CRC.
	idx := -1
	for i := 0; i+4 <= len(out); i++ {
		if string(out[i:i+4]) == ChunkType {
			idx = i + 4 // first data byte (tag "ZKSG")
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	out[idx] ^= 0xFF

	_, err = Read(out, CapacityBits(32, 32))
	require.ErrorIs(t, err, errs.ErrEnvelopeCorrupt)
}

func TestVerifyCarrier_DetectsTamper(t *testing.T) {
	img := raster.NewImage(32, 32)
	positions := []raster.Position{{X: 4, Y: 4, Channel: 1}}
	hash := NormalizedCarrierHash(img, positions)
	d := Descriptor{CarrierSHA: hash}

	require.NoError(t, VerifyCarrier(img, positions, d))

	tampered := img.Clone()
	tampered.Set(10, 10, 0, tampered.At(10, 10, 0)^0x10)
	err := VerifyCarrier(tampered, positions, d)
	require.ErrorIs(t, err, errs.ErrCarrierMismatch)
}

func TestNormalizedCarrierHash_IgnoresSelectedLSBs(t *testing.T) {
	img := raster.NewImage(32, 32)
	positions := []raster.Position{{X: 5, Y: 5, Channel: 2}}
	h1 := NormalizedCarrierHash(img, positions)

	flipped := img.Clone()
	flipped.Set(5, 5, 2, flipped.At(5, 5, 2)^0x01)
	h2 := NormalizedCarrierHash(flipped, positions)

	assert.Equal(t, h1, h2, "flipping a selected LSB must not change the normalized hash")
}
