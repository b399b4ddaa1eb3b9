// Copyright 2018 Zanicar. All rights reserved.
// Utilizes a BSD-3 license. Refer to the included LICENSE file for details.

// Package chaosmap implements C2, the chaos position generator: a coupled
// Arnold-cat-map / logistic-map mixer that emits a finite, collision-free
// sequence of (x, y, channel) Positions, deterministically, from a
// keyderive.ChaosParameters bundle.
package chaosmap

import (
	"fmt"

	"github.com/zanicar/zksteg/errs"
	"github.com/zanicar/zksteg/keyderive"
	"github.com/zanicar/zksteg/raster"
)

// safetyMargin is the 0.9 factor bounding the worst-case expected number
// of rejection iterations (§4.2). reservedBits mirrors envelope.go's
// ReservedBytes*8: the generator's hard cap must never reject a payload
// the envelope itself advertises as fitting (capacity_bits =
// width*height*3 - reservedBits, §8 P7), so maxN below takes whichever
// bound is larger. For any image above a few thousand pixels the reserved
// bound dominates (it excludes a fixed 512 bits rather than a fixed 10%),
// which is what makes payload_bits == capacity_bits(image) succeed per
// §8 scenario 3; the 0.9 margin still does useful work as a floor for
// tiny images, where the fixed reservation would otherwise eat an
// oversized fraction of the raster.
const (
	safetyMargin = 0.9
	reservedBits = 64 * 8
)

// packPosition folds a Position into a single uint64 seen-set key. X and Y
// are each bounded to uint16 and Channel to {0,1,2}, so the packing is
// lossless: distinct Positions always pack to distinct keys, which a hash
// fold cannot guarantee at the extreme end of the spec's 65535x65535
// dimension range (where x*y*3 approaches 2^34, large enough for a 64-bit
// hash's birthday bound to bite). Collision-free dedup is an invariant
// (§4.2), not an optimization, so exactness wins over a borrowed hash.
func packPosition(p raster.Position) uint64 {
	return uint64(p.X)<<24 | uint64(p.Y)<<8 | uint64(p.Channel)
}

// Generate emits n unique Positions inside a width x height image,
// starting from anchor, driven by params. It fails with
// errs.ErrCapacityExceeded if n exceeds max(the 0.9-margin bound, the
// envelope's reserved-bytes capacity), or with errs.ErrCapacityExhausted
// if any single bit's retry loop exceeds retry_bound = max(16, n)
// consecutive collisions.
func Generate(params keyderive.ChaosParameters, anchorX, anchorY uint16, width, height int, n int) ([]raster.Position, error) {
	totalBits := float64(width) * float64(height) * 3
	marginBound := int(totalBits * safetyMargin)
	capacityBound := int(totalBits) - reservedBits
	maxN := marginBound
	if capacityBound > maxN {
		maxN = capacityBound
	}
	if n > maxN {
		return nil, fmt.Errorf("%w: n=%d max=%d", errs.ErrCapacityExceeded, n, maxN)
	}

	retryBound := n
	if retryBound < 16 {
		retryBound = 16
	}

	positions := make([]raster.Position, 0, n)
	seen := make(map[uint64]struct{}, n)

	cx, cy := int(anchorX), int(anchorY)
	x := params.LogisticX0
	r := params.LogisticR
	attempts := uint64(0)
	seedMod3 := params.ChannelSeedMod3()

	for len(positions) < n {
		retries := 0
		for {
			for i := 0; i < params.ArnoldIterations; i++ {
				cx, cy = arnoldStep(cx, cy, width, height)
			}

			x = logisticStep(r, x)
			dx := int(10*x) - 5
			yPrime := logisticStep(r, x)
			dy := int(10*yPrime) - 5
			x = yPrime

			px := mod(cx+dx, width)
			py := mod(cy+dy, height)
			ch := uint8((seedMod3 + attempts) % 3)
			attempts++

			candidate := raster.Position{X: uint16(px), Y: uint16(py), Channel: ch}
			key := packPosition(candidate)
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				positions = append(positions, candidate)
				break
			}

			retries++
			if retries > retryBound {
				return nil, fmt.Errorf("%w: after %d retries at position %d", errs.ErrCapacityExhausted, retries, len(positions))
			}
		}
	}

	return positions, nil
}

// arnoldStep applies the discrete Arnold cat map (x,y) -> ((2x+y) mod w,
// (x+y) mod h) once. This spec fixes this orientation; the transposed
// form (x+y, x+2y) is a distinct, incompatible generator (see spec's Open
// Questions) and is never used here.
func arnoldStep(x, y, width, height int) (int, int) {
	nx := mod(2*x+y, width)
	ny := mod(x+y, height)
	return nx, ny
}

// logisticStep advances the logistic map x <- r*x*(1-x) by one iteration
// using plain float64 arithmetic. Go's spec guarantees IEEE-754 binary64
// semantics for +,-,* without implicit fused-multiply-add or extended
// precision, so this single line is bit-identical across platforms (§4.2,
// §9's "legacy constructs requiring redesign").
func logisticStep(r, x float64) float64 {
	return r * x * (1 - x)
}

// mod is Euclidean modulo: always in [0, m).
func mod(a, m int) int {
	v := a % m
	if v < 0 {
		v += m
	}
	return v
}
