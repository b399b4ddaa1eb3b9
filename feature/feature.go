// Copyright 2018 Zanicar. All rights reserved.
// Utilizes a BSD-3 license. Refer to the included LICENSE file for details.

// Package feature implements C3, the feature extractor: a pure, stateless
// function that picks a texture-rich anchor coordinate from the image
// itself, so the same image always yields the same starting point for the
// chaos position generator.
package feature

import (
	"golang.org/x/exp/slices"

	"github.com/zanicar/zksteg/raster"
)

// window is a candidate anchor window and its gradient-magnitude score.
type window struct {
	x, y  int
	score int64
}

// ExtractAnchor converts img to grayscale, computes a first-order gradient
// magnitude field, slides a square window of side min(16, width/4,
// height/4) across it in steps of side/4, and returns the centre of the
// highest-scoring window. Ties break on the lexicographically smallest
// (y, x). The function is pure: it never mutates img and never consults
// anything but img's pixels.
func ExtractAnchor(img *raster.Image) (x, y uint16) {
	width, height := img.Width, img.Height

	gray := make([][]int, height)
	for yy := 0; yy < height; yy++ {
		gray[yy] = make([]int, width)
		for xx := 0; xx < width; xx++ {
			px := img.Pix[yy][xx]
			gray[yy][xx] = (int(px[0]) + int(px[1]) + int(px[2])) / 3
		}
	}

	grad := make([][]int64, height)
	for yy := 0; yy < height; yy++ {
		grad[yy] = make([]int64, width)
	}
	for yy := 0; yy < height; yy++ {
		for xx := 0; xx < width; xx++ {
			var g int64
			if xx+1 < width {
				g += int64(absInt(gray[yy][xx+1] - gray[yy][xx]))
			}
			if yy+1 < height {
				g += int64(absInt(gray[yy+1][xx] - gray[yy][xx]))
			}
			grad[yy][xx] = g
		}
	}

	side := 16
	if width/4 < side {
		side = width / 4
	}
	if height/4 < side {
		side = height / 4
	}
	if side < 1 {
		side = 1
	}
	step := side / 4
	if step < 1 {
		step = 1
	}

	var candidates []window
	for wy := 0; wy+side <= height; wy += step {
		for wx := 0; wx+side <= width; wx += step {
			var sum int64
			for yy := wy; yy < wy+side; yy++ {
				for xx := wx; xx < wx+side; xx++ {
					sum += grad[yy][xx]
				}
			}
			candidates = append(candidates, window{x: wx + side/2, y: wy + side/2, score: sum})
		}
	}

	if len(candidates) == 0 {
		return 0, 0
	}

	slices.SortFunc(candidates, func(a, b window) int {
		switch {
		case a.score != b.score:
			if a.score > b.score {
				return -1
			}
			return 1
		case a.y != b.y:
			return a.y - b.y
		default:
			return a.x - b.x
		}
	})

	best := candidates[0]
	return uint16(best.x), uint16(best.y)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
