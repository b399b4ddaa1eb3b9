package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zanicar/zksteg/raster"
)

func TestExtractAnchor_Deterministic(t *testing.T) {
	img := raster.NewImage(64, 64)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if x > 40 && y > 40 {
				img.Set(x, y, 0, byte((x*y)%256))
			}
		}
	}
	x1, y1 := ExtractAnchor(img)
	x2, y2 := ExtractAnchor(img)
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)
}

func TestExtractAnchor_PrefersHighGradientRegion(t *testing.T) {
	img := raster.NewImage(64, 64)
	for y := 48; y < 64; y++ {
		for x := 48; x < 64; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, 0, 255)
				img.Set(x, y, 1, 255)
				img.Set(x, y, 2, 255)
			}
		}
	}
	x, y := ExtractAnchor(img)
	assert.GreaterOrEqual(t, int(x), 40)
	assert.GreaterOrEqual(t, int(y), 40)
}

func TestExtractAnchor_FlatImageIsStable(t *testing.T) {
	img := raster.NewImage(40, 40)
	x1, y1 := ExtractAnchor(img)
	x2, y2 := ExtractAnchor(img)
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)
}

func TestExtractAnchor_NeverMutatesImage(t *testing.T) {
	img := raster.NewImage(40, 40)
	img.Set(10, 10, 0, 99)
	before := img.Clone()
	ExtractAnchor(img)
	assert.Equal(t, before.Pix, img.Pix)
}
