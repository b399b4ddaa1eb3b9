package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanicar/zksteg/errs"
)

func TestDecodeEncode_RoundTrip(t *testing.T) {
	img := NewImage(40, 40)
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, 0, byte(x*3))
			img.Set(x, y, 1, byte(y*5))
			img.Set(x, y, 2, byte(x+y))
		}
	}
	encoded, err := img.Encode()
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, img.Width, decoded.Width)
	assert.Equal(t, img.Height, decoded.Height)
	assert.Equal(t, img.Pix, decoded.Pix)
}

func TestDecode_RejectsUndersizedImage(t *testing.T) {
	img := NewImage(16, 16)
	encoded, err := img.Encode()
	require.NoError(t, err)

	_, err = Decode(encoded)
	require.ErrorIs(t, err, errs.ErrUnsupportedFormat)
}

func TestDecodeEncode_RoundTrip_PartialAlpha(t *testing.T) {
	// Regression: Decode used to read pixels via .At(...).RGBA(), which
	// alpha-premultiplies before truncating to 8 bits. For any pixel with
	// alpha < 255 that loses information, so a second Decode(Encode(img))
	// would disagree with the first and break the carrier-binding hash.
	img := NewImage(40, 40)
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, 0, 200)
			img.Set(x, y, 1, 137)
			img.Set(x, y, 2, 61)
		}
	}
	img.Alpha = make([][]byte, 40)
	for y := range img.Alpha {
		img.Alpha[y] = make([]byte, 40)
		for x := range img.Alpha[y] {
			img.Alpha[y][x] = byte((x + y*3) % 256)
		}
	}

	encoded, err := img.Encode()
	require.NoError(t, err)
	decoded, err := Decode(encoded)
	require.NoError(t, err)

	assert.Equal(t, img.Pix, decoded.Pix, "non-premultiplied RGB must survive an alpha<255 round trip exactly")
	assert.Equal(t, img.Alpha, decoded.Alpha)

	reencoded, err := decoded.Encode()
	require.NoError(t, err)
	redecoded, err := Decode(reencoded)
	require.NoError(t, err)
	assert.Equal(t, decoded.Pix, redecoded.Pix, "Decode->Encode->Decode must be idempotent")
}

func TestClone_IsIndependent(t *testing.T) {
	img := NewImage(32, 32)
	img.Set(1, 1, 0, 10)
	clone := img.Clone()
	clone.Set(1, 1, 0, 20)
	assert.Equal(t, byte(10), img.At(1, 1, 0))
	assert.Equal(t, byte(20), clone.At(1, 1, 0))
}

func TestClone_CopiesAlphaPlane(t *testing.T) {
	img := NewImage(32, 32)
	img.Alpha = make([][]byte, 32)
	for y := range img.Alpha {
		img.Alpha[y] = make([]byte, 32)
	}
	img.Alpha[2][2] = 200
	clone := img.Clone()
	clone.Alpha[2][2] = 5
	assert.Equal(t, byte(200), img.Alpha[2][2])
	assert.Equal(t, byte(5), clone.Alpha[2][2])
}
