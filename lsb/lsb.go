// Copyright 2018 Zanicar. All rights reserved.
// Utilizes a BSD-3 license. Refer to the included LICENSE file for details.

// Package lsb implements C4, the LSB codec: unconditional, position-order
// deterministic mutation/reading of the least significant bit of selected
// pixel channels.
package lsb

import (
	"fmt"

	"github.com/zanicar/zksteg/errs"
	"github.com/zanicar/zksteg/raster"
)

// EmbedBits writes one bit of bits at each corresponding position of
// imgMut, in order. len(positions) must equal len(bits); otherwise
// errs.ErrLengthMismatch is returned and imgMut is left untouched. Every
// write is unconditional: b' = (b & 0xFE) | (bit & 0x01), so there is no
// branch on whether the bit value already matches.
func EmbedBits(imgMut *raster.Image, positions []raster.Position, bits []byte) error {
	if len(positions) != len(bits) {
		return fmt.Errorf("%w: positions=%d bits=%d", errs.ErrLengthMismatch, len(positions), len(bits))
	}
	for i, pos := range positions {
		b := imgMut.At(int(pos.X), int(pos.Y), pos.Channel)
		b = (b & 0xFE) | (bits[i] & 0x01)
		imgMut.Set(int(pos.X), int(pos.Y), pos.Channel, b)
	}
	return nil
}

// ExtractBits reads the LSB at each position, in order, never mutating
// img.
func ExtractBits(img *raster.Image, positions []raster.Position) []byte {
	out := make([]byte, len(positions))
	for i, pos := range positions {
		out[i] = img.At(int(pos.X), int(pos.Y), pos.Channel) & 0x01
	}
	return out
}

// BytesToBits expands a byte string into its big-endian bit stream:
// bit(8k+j) = (B>>(7-j)) & 1 for byte B at index k, j = 0..7 (§4.4).
func BytesToBits(data []byte) []byte {
	bits := make([]byte, len(data)*8)
	for k, b := range data {
		for j := 0; j < 8; j++ {
			bits[8*k+j] = (b >> uint(7-j)) & 1
		}
	}
	return bits
}

// BitsToBytes reassembles a big-endian bit stream (as produced by
// BytesToBits) into bytes. len(bits) must be a multiple of 8.
func BitsToBytes(bits []byte) []byte {
	out := make([]byte, len(bits)/8)
	for k := range out {
		var b byte
		for j := 0; j < 8; j++ {
			b = (b << 1) | (bits[8*k+j] & 1)
		}
		out[k] = b
	}
	return out
}
