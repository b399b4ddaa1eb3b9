// Copyright 2018 Zanicar. All rights reserved.
// Utilizes a BSD-3 license. Refer to the included LICENSE file for details.

// Package envelope implements C5: reading and writing the custom "zkPF"
// PNG ancillary chunk that carries the metadata a recipient needs to
// invert the embedding, and computing/verifying the carrier-binding hash
// that ties that metadata to the raster it travels with.
package envelope

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/zanicar/zksteg/errs"
	"github.com/zanicar/zksteg/raster"
)

const (
	// ChunkType is the PNG chunk type. Lowercase first letter marks it
	// ancillary (safe to ignore); uppercase second letter marks it
	// public-registered-style (safe to copy) - see §4.5.
	ChunkType = "zkPF"
	// Tag identifies zksteg's envelope payload within the chunk data.
	Tag = "ZKSG"
	// Version is the only format version this package writes or accepts.
	Version = 1

	pngMagicLen  = 8
	iendType     = "IEND"
	fixedDataLen = 4 /*tag*/ + 1 /*version*/ + 2 /*anchor_x*/ + 2 /*anchor_y*/ + 4 /*payload_bits*/ + 32 /*carrier_sha*/ + 4 /*meta_len*/

	// ReservedBytes is the minimum space (spec: "reserved >= 64 bytes")
	// held back from the raw per-channel-LSB bit budget for the envelope
	// itself, expressed directly in bits below per §8 P7's worked formula.
	ReservedBytes = 64
)

// CapacityBits returns max_payload_bits(image) = floor(width*height*3) -
// ReservedBytes*8, per §8 P7. This is the same formula the spec's worked
// scenarios use (e.g. 64x64: 64*64*3 - 512 = 11776); §3's byte-oriented
// L_max = floor(width*height*3/8) - ReservedBytes equals CapacityBits/8
// (integer division) for every geometry, because ReservedBytes*8 is a
// multiple of 8. Counted in bits, the two differ by width*height*3 mod 8,
// which is zero only when width*height is a multiple of 8; this
// implementation takes P7's bit formula as authoritative.
//
// chaosmap.Generate's own hard cap mirrors ReservedBytes for exactly this
// reason: a payload sized to CapacityBits must always be embeddable, so
// the generator's n-limit can never fall below what this function
// advertises (see chaosmap.Generate's maxN).
func CapacityBits(width, height int) uint32 {
	total := int64(width) * int64(height) * 3
	reserved := int64(ReservedBytes) * 8
	if total < reserved {
		return 0
	}
	return uint32(total - reserved)
}

// Descriptor is the envelope record described in spec §3/§4.5.
type Descriptor struct {
	AnchorX, AnchorY uint16
	PayloadBits      uint32
	CarrierSHA       [32]byte
	Meta             []byte
}

// NormalizedCarrierHash computes SHA-256 over img's R,G,B planes in
// row-major (y, x, channel) order, with the LSB of every channel named in
// positions forced to 0. Alpha is never included - it carries no embedded
// bits and is excluded from the binding by design. The normalized hash
// does not depend on the payload bits themselves, only on every
// non-selected bit of the carrier plus the selected positions' identities.
func NormalizedCarrierHash(img *raster.Image, positions []raster.Position) [32]byte {
	cleared := make(map[raster.Position]struct{}, len(positions))
	for _, p := range positions {
		cleared[p] = struct{}{}
	}

	h := sha256.New()
	var row [3]byte
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			px := img.Pix[y][x]
			row[0], row[1], row[2] = px[0], px[1], px[2]
			for ch := uint8(0); ch < 3; ch++ {
				if _, ok := cleared[raster.Position{X: uint16(x), Y: uint16(y), Channel: ch}]; ok {
					row[ch] &^= 0x01
				}
			}
			h.Write(row[:])
		}
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// encode serializes a Descriptor into the chunk DATA field (without the
// length/type/crc framing).
func (d Descriptor) encode() []byte {
	data := make([]byte, 0, fixedDataLen+len(d.Meta))
	data = append(data, Tag...)
	data = append(data, Version)
	data = binary.BigEndian.AppendUint16(data, d.AnchorX)
	data = binary.BigEndian.AppendUint16(data, d.AnchorY)
	data = binary.BigEndian.AppendUint32(data, d.PayloadBits)
	data = append(data, d.CarrierSHA[:]...)
	data = binary.BigEndian.AppendUint32(data, uint32(len(d.Meta)))
	data = append(data, d.Meta...)
	return data
}

// decode parses a chunk DATA field into a Descriptor.
func decode(data []byte) (Descriptor, error) {
	if len(data) < fixedDataLen {
		return Descriptor{}, fmt.Errorf("%w: short envelope data", errs.ErrEnvelopeCorrupt)
	}
	if string(data[0:4]) != Tag || data[4] != Version {
		return Descriptor{}, fmt.Errorf("%w: tag=%q version=%d", errs.ErrUnknownEnvelope, data[0:4], data[4])
	}
	d := Descriptor{
		AnchorX:     binary.BigEndian.Uint16(data[5:7]),
		AnchorY:     binary.BigEndian.Uint16(data[7:9]),
		PayloadBits: binary.BigEndian.Uint32(data[9:13]),
	}
	copy(d.CarrierSHA[:], data[13:45])
	metaLen := binary.BigEndian.Uint32(data[45:49])
	if uint64(len(data)) != uint64(fixedDataLen)+uint64(metaLen) {
		return Descriptor{}, fmt.Errorf("%w: meta_len=%d actual=%d", errs.ErrEnvelopeCorrupt, metaLen, len(data)-fixedDataLen)
	}
	d.Meta = append([]byte(nil), data[49:]...)
	return d, nil
}

// chunk is a parsed (length, type, data) PNG chunk; the CRC is recomputed
// on demand rather than stored, since Write always regenerates it.
type chunk struct {
	typ  string
	data []byte
}

// parseChunks splits PNG bytes (after the 8-byte magic) into chunks. It
// returns errs.ErrMalformedPNG if the stream is truncated or never
// reaches IEND.
func parseChunks(pngBytes []byte) ([]chunk, error) {
	if len(pngBytes) < pngMagicLen {
		return nil, fmt.Errorf("%w: too short", errs.ErrMalformedPNG)
	}
	var chunks []chunk
	off := pngMagicLen
	for {
		if off+8 > len(pngBytes) {
			return nil, fmt.Errorf("%w: truncated chunk header", errs.ErrMalformedPNG)
		}
		length := binary.BigEndian.Uint32(pngBytes[off : off+4])
		typ := string(pngBytes[off+4 : off+8])
		dataStart := off + 8
		dataEnd := dataStart + int(length)
		if dataEnd+4 > len(pngBytes) {
			return nil, fmt.Errorf("%w: truncated chunk data", errs.ErrMalformedPNG)
		}
		chunks = append(chunks, chunk{typ: typ, data: pngBytes[dataStart:dataEnd]})
		off = dataEnd + 4
		if typ == iendType {
			return chunks, nil
		}
		if off >= len(pngBytes) {
			return nil, fmt.Errorf("%w: missing IEND", errs.ErrMalformedPNG)
		}
	}
}

func serializeChunks(chunks []chunk) []byte {
	out := make([]byte, 0, pngMagicLen)
	out = append(out, "\x89PNG\x0D\x0A\x1A\x0A"...)
	for _, c := range chunks {
		out = binary.BigEndian.AppendUint32(out, uint32(len(c.data)))
		out = append(out, c.typ...)
		out = append(out, c.data...)
		crcInput := append([]byte(c.typ), c.data...)
		out = binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(crcInput))
	}
	return out
}

// Write inserts a zkPF chunk encoding descriptor immediately before IEND,
// first removing any pre-existing zkPF chunks (§6: "Any pre-existing zkPF
// chunks are removed by embed before writing the new one").
func Write(pngBytes []byte, descriptor Descriptor) ([]byte, error) {
	chunks, err := parseChunks(pngBytes)
	if err != nil {
		return nil, err
	}

	filtered := chunks[:0:0]
	for _, c := range chunks {
		if c.typ == ChunkType {
			continue
		}
		filtered = append(filtered, c)
	}

	envChunk := chunk{typ: ChunkType, data: descriptor.encode()}

	out := make([]chunk, 0, len(filtered)+1)
	for _, c := range filtered {
		if c.typ == iendType {
			out = append(out, envChunk)
		}
		out = append(out, c)
	}

	return serializeChunks(out), nil
}

// Read locates the last zkPF chunk in pngBytes (per §6, extract consumes
// the last one present) and validates it: CRC must match (checked while
// parsing, since parseChunks trusts chunk framing but Read recomputes and
// compares CRCs itself), tag/version must be recognised, and
// payload_bits must not exceed capacityBits. carrier_sha is NOT checked
// here - that requires the decoded raster and positions, which only the
// orchestration layer has; callers must call VerifyCarrier separately.
func Read(pngBytes []byte, capacityBits uint32) (Descriptor, error) {
	if len(pngBytes) < pngMagicLen {
		return Descriptor{}, fmt.Errorf("%w: too short", errs.ErrMalformedPNG)
	}

	off := pngMagicLen
	var last *chunk
	var lastCRCOK bool
	for {
		if off+8 > len(pngBytes) {
			return Descriptor{}, fmt.Errorf("%w: truncated chunk header", errs.ErrMalformedPNG)
		}
		length := binary.BigEndian.Uint32(pngBytes[off : off+4])
		typ := string(pngBytes[off+4 : off+8])
		dataStart := off + 8
		dataEnd := dataStart + int(length)
		if dataEnd+4 > len(pngBytes) {
			return Descriptor{}, fmt.Errorf("%w: truncated chunk data", errs.ErrMalformedPNG)
		}
		storedCRC := binary.BigEndian.Uint32(pngBytes[dataEnd : dataEnd+4])

		if typ == ChunkType {
			data := pngBytes[dataStart:dataEnd]
			crcInput := append([]byte(typ), data...)
			got := crc32.ChecksumIEEE(crcInput)
			c := chunk{typ: typ, data: data}
			last = &c
			lastCRCOK = got == storedCRC
		}

		off = dataEnd + 4
		if typ == iendType {
			break
		}
		if off >= len(pngBytes) {
			return Descriptor{}, fmt.Errorf("%w: missing IEND", errs.ErrMalformedPNG)
		}
	}

	if last == nil {
		return Descriptor{}, errs.ErrNoEnvelope
	}
	if !lastCRCOK {
		return Descriptor{}, errs.ErrEnvelopeCorrupt
	}

	d, err := decode(last.data)
	if err != nil {
		return Descriptor{}, err
	}
	if d.PayloadBits > capacityBits {
		return Descriptor{}, fmt.Errorf("%w: payload_bits=%d capacity=%d", errs.ErrEnvelopeInconsistent, d.PayloadBits, capacityBits)
	}
	return d, nil
}

// VerifyCarrier recomputes the normalized carrier hash over img at
// positions and compares it against d.CarrierSHA (§4.5's read-side
// validation rule, I5).
func VerifyCarrier(img *raster.Image, positions []raster.Position, d Descriptor) error {
	got := NormalizedCarrierHash(img, positions)
	if got != d.CarrierSHA {
		return errs.ErrCarrierMismatch
	}
	return nil
}
