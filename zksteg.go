// Copyright 2018 Zanicar. All rights reserved.
// Utilizes a BSD-3 license. Refer to the included LICENSE file for details.

// Package zksteg wires the five leaf components (keyderive, chaosmap,
// feature, lsb, envelope) into the programmatic contract described in
// spec §6: Embed, Extract, and CapacityBits. It is the only package that
// touches every stage of the pipeline; each leaf package remains usable
// on its own.
package zksteg

import (
	"fmt"

	"github.com/dchest/siphash"
	"github.com/google/uuid"

	"github.com/zanicar/zksteg/chaosmap"
	"github.com/zanicar/zksteg/envelope"
	"github.com/zanicar/zksteg/errs"
	"github.com/zanicar/zksteg/feature"
	"github.com/zanicar/zksteg/internal/zklog"
	"github.com/zanicar/zksteg/keyderive"
	"github.com/zanicar/zksteg/lsb"
	"github.com/zanicar/zksteg/raster"
)

// fingerprintKey returns a short SipHash-2-4 digest of key for log
// correlation, so operators can tell two calls used the same
// steganographic key without the key itself ever reaching a log line.
// The hash key is fixed and public: this is an identification aid, not a
// secrecy boundary.
func fingerprintKey(key []byte) uint64 {
	return siphash.Hash(0x7a6b73746567636f, 0x6465636c6f67666e, key)
}

// Codec is the interface that groups the basic Embedder and Extractor
// methods, generalizing the teacher's Stegano/Concealer/Revealer trio
// from simple byte-stream concealment to keyed, chaos-driven embedding.
type Codec interface {
	Embedder
	Extractor
}

// Embedder is the interface wrapping the basic Embed method. Embed must
// not retain or mutate pngBytes.
type Embedder interface {
	Embed(pngBytes, payload, key []byte, anchor *Anchor, meta []byte) (stegoPNG []byte, descriptor envelope.Descriptor, err error)
}

// Extractor is the interface wrapping the basic Extract method.
type Extractor interface {
	Extract(stegoPNG, key []byte) (payload []byte, descriptor envelope.Descriptor, err error)
}

// Anchor is an explicit starting coordinate for the chaos position
// generator, overriding feature.ExtractAnchor.
type Anchor struct {
	X, Y uint16
}

// ZKSteg is the default Codec implementation.
type ZKSteg struct{}

// New returns a ready-to-use ZKSteg codec.
func New() *ZKSteg { return &ZKSteg{} }

var (
	_ Codec = &ZKSteg{}
)

// CapacityBits returns max_payload_bits for a decoded carrier image (§6,
// §8 P7).
func CapacityBits(img *raster.Image) uint32 {
	return envelope.CapacityBits(img.Width, img.Height)
}

// Embed hides payload inside the PNG at pngBytes, keyed by key, and
// returns the mutated stego PNG plus the envelope descriptor that was
// written into it. If anchor is nil, the starting coordinate is derived
// from the image itself (C3). meta is copied into the envelope verbatim
// and is never interpreted.
//
// On any error, pngBytes is left untouched: all pre-flight checks (format,
// capacity, key) run against a freshly decoded raster before any mutation
// begins (§7's "no observable mutation on failure").
func (z *ZKSteg) Embed(pngBytes, payload, key []byte, anchor *Anchor, meta []byte) ([]byte, envelope.Descriptor, error) {
	callID := uuid.NewString()
	log := zklog.L().With().Str("call_id", callID).Str("op", "embed").Uint64("key_fp", fingerprintKey(key)).Logger()

	img, err := raster.Decode(pngBytes)
	if err != nil {
		return nil, envelope.Descriptor{}, err
	}

	capacity := CapacityBits(img)
	payloadBits := uint32(len(payload)) * 8
	if payloadBits > capacity {
		return nil, envelope.Descriptor{}, fmt.Errorf("%w: payload_bits=%d capacity=%d", errs.ErrCapacityExceeded, payloadBits, capacity)
	}

	var anchorX, anchorY uint16
	if anchor != nil {
		anchorX, anchorY = anchor.X, anchor.Y
	} else {
		anchorX, anchorY = feature.ExtractAnchor(img)
	}

	params, err := keyderive.DeriveParameters(key, anchorX, anchorY)
	if err != nil {
		return nil, envelope.Descriptor{}, err
	}

	positions, err := chaosmap.Generate(params, anchorX, anchorY, img.Width, img.Height, int(payloadBits))
	if err != nil {
		return nil, envelope.Descriptor{}, err
	}

	log.Info().Int("width", img.Width).Int("height", img.Height).
		Uint32("payload_bits", payloadBits).Uint16("anchor_x", anchorX).Uint16("anchor_y", anchorY).
		Msg("embed: positions generated")

	mutated := img.Clone()
	bits := lsb.BytesToBits(payload)
	if err := lsb.EmbedBits(mutated, positions, bits); err != nil {
		return nil, envelope.Descriptor{}, err
	}

	carrierSHA := envelope.NormalizedCarrierHash(mutated, positions)
	descriptor := envelope.Descriptor{
		AnchorX:     anchorX,
		AnchorY:     anchorY,
		PayloadBits: payloadBits,
		CarrierSHA:  carrierSHA,
		Meta:        meta,
	}

	stegoPixels, err := mutated.Encode()
	if err != nil {
		return nil, envelope.Descriptor{}, err
	}

	stegoPNG, err := envelope.Write(stegoPixels, descriptor)
	if err != nil {
		return nil, envelope.Descriptor{}, err
	}

	log.Info().Msg("embed: envelope written")
	return stegoPNG, descriptor, nil
}

// Extract recovers the payload embedded in stegoPNG under key, validating
// the envelope and the carrier-binding hash (I5) before returning
// anything. No payload bytes are returned on any failure.
func (z *ZKSteg) Extract(stegoPNG, key []byte) ([]byte, envelope.Descriptor, error) {
	callID := uuid.NewString()
	log := zklog.L().With().Str("call_id", callID).Str("op", "extract").Uint64("key_fp", fingerprintKey(key)).Logger()

	img, err := raster.Decode(stegoPNG)
	if err != nil {
		return nil, envelope.Descriptor{}, err
	}

	capacity := CapacityBits(img)
	descriptor, err := envelope.Read(stegoPNG, capacity)
	if err != nil {
		return nil, envelope.Descriptor{}, err
	}

	params, err := keyderive.DeriveParameters(key, descriptor.AnchorX, descriptor.AnchorY)
	if err != nil {
		return nil, envelope.Descriptor{}, err
	}

	positions, err := chaosmap.Generate(params, descriptor.AnchorX, descriptor.AnchorY, img.Width, img.Height, int(descriptor.PayloadBits))
	if err != nil {
		return nil, envelope.Descriptor{}, err
	}

	if err := envelope.VerifyCarrier(img, positions, descriptor); err != nil {
		log.Warn().Msg("extract: carrier mismatch")
		return nil, envelope.Descriptor{}, err
	}

	bits := lsb.ExtractBits(img, positions)
	payload := lsb.BitsToBytes(bits)

	log.Info().Int("payload_bytes", len(payload)).Msg("extract: payload recovered")
	return payload, descriptor, nil
}
