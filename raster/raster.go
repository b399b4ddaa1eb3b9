// Copyright 2018 Zanicar. All rights reserved.
// Utilizes a BSD-3 license. Refer to the included LICENSE file for details.

// Package raster holds the carrier pixel buffer and the coordinate types
// shared by every stage of the embedding pipeline, plus the PNG decode/
// encode boundary the core is allowed to cross (§6 of the codec spec:
// 8-bit truecolour, with or without alpha).
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/zanicar/zksteg/errs"
)

// MinSide and MaxSide bound the admissible width/height of an Image (§3).
const (
	MinSide = 32
	MaxSide = 1<<16 - 1
)

// Position is a single bit slot: a pixel coordinate plus an RGB channel
// index. Two Positions are equal iff all three fields match.
type Position struct {
	X, Y    uint16
	Channel uint8
}

// Image is the three-dimensional raster described in §3: height * width *
// 3 (R,G,B) bytes, plus an optional untouched alpha plane that is carried
// across unexamined by every core component.
type Image struct {
	Width, Height int
	// Pix holds channel bytes in [y][x][channel] order, channel in {0,1,2}
	// for R,G,B respectively.
	Pix [][][3]byte
	// Alpha is nil for an Image made by NewImage. Decode always fills it
	// with Height*Width bytes (0xFF for sources without an alpha plane),
	// carried through untouched.
	Alpha [][]byte
}

// NewImage allocates a zeroed Image of the given dimensions. width and
// height must already satisfy MinSide <= n <= MaxSide; callers decoding
// from PNG get that validation via Decode.
func NewImage(width, height int) *Image {
	pix := make([][][3]byte, height)
	for y := range pix {
		pix[y] = make([][3]byte, width)
	}
	return &Image{Width: width, Height: height, Pix: pix}
}

// At returns the byte at the given channel of pixel (x, y).
func (img *Image) At(x, y int, ch uint8) byte {
	return img.Pix[y][x][ch]
}

// Set writes the byte at the given channel of pixel (x, y).
func (img *Image) Set(x, y int, ch uint8, v byte) {
	img.Pix[y][x][ch] = v
}

// Clone returns a deep copy, used wherever a component must not mutate the
// caller's buffer (embed operates on a copy until all pre-flight checks
// have passed — see §7's "no observable mutation on failure").
func (img *Image) Clone() *Image {
	out := NewImage(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		copy(out.Pix[y], img.Pix[y])
	}
	if img.Alpha != nil {
		out.Alpha = make([][]byte, img.Height)
		for y := 0; y < img.Height; y++ {
			out.Alpha[y] = append([]byte(nil), img.Alpha[y]...)
		}
	}
	return out
}

// Decode parses PNG bytes into an Image. Only 8-bit truecolour (NRGBA/RGBA
// without a palette, colour depth 8) and truecolour-with-alpha inputs are
// accepted; anything else yields ErrUnsupportedFormat. Any alpha channel is
// stripped into img.Alpha and is never examined by the codec.
func Decode(pngBytes []byte) (*Image, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, fmt.Errorf("raster: decode config: %w", err)
	}
	switch cfg.ColorModel {
	case color.NRGBAModel, color.RGBAModel:
	default:
		return nil, fmt.Errorf("%w: color model %T", errs.ErrUnsupportedFormat, cfg.ColorModel)
	}

	src, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, fmt.Errorf("raster: decode: %w", err)
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width < MinSide || width > MaxSide || height < MinSide || height > MaxSide {
		return nil, fmt.Errorf("%w: dimensions %dx%d out of [%d,%d]", errs.ErrUnsupportedFormat, width, height, MinSide, MaxSide)
	}

	img := NewImage(width, height)
	img.Alpha = make([][]byte, height)
	for y := 0; y < height; y++ {
		img.Alpha[y] = make([]byte, width)
	}

	// Read raw .Pix bytes rather than calling .At(...).RGBA(): that method
	// returns alpha-premultiplied 16-bit channels, and for *image.NRGBA
	// (what png.Decode produces for colour type 6, truecolour+alpha) the
	// premultiply-then-truncate round trip is lossy whenever alpha < 255,
	// so Decode->Encode->Decode would not be idempotent and the carrier
	// hash recomputed on extract would never match (I4/I5). Both accepted
	// source types expose the same 4-byte-per-pixel, non-premultiplied
	// R,G,B,A layout directly.
	switch s := src.(type) {
	case *image.NRGBA:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := s.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
				img.Pix[y][x][0] = s.Pix[i+0]
				img.Pix[y][x][1] = s.Pix[i+1]
				img.Pix[y][x][2] = s.Pix[i+2]
				img.Alpha[y][x] = s.Pix[i+3]
			}
		}
	case *image.RGBA:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := s.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
				img.Pix[y][x][0] = s.Pix[i+0]
				img.Pix[y][x][1] = s.Pix[i+1]
				img.Pix[y][x][2] = s.Pix[i+2]
				img.Alpha[y][x] = s.Pix[i+3]
			}
		}
	default:
		return nil, fmt.Errorf("%w: decoded type %T", errs.ErrUnsupportedFormat, src)
	}

	return img, nil
}

// Encode serializes an Image back to 8-bit truecolour(+alpha) PNG bytes.
// The alpha plane, if present, is written back unchanged.
func (img *Image) Encode() ([]byte, error) {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			a := byte(0xFF)
			if img.Alpha != nil {
				a = img.Alpha[y][x]
			}
			px := img.Pix[y][x]
			out.SetNRGBA(x, y, color.NRGBA{R: px[0], G: px[1], B: px[2], A: a})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("raster: encode: %w", err)
	}
	return buf.Bytes(), nil
}
