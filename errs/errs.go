// Copyright 2018 Zanicar. All rights reserved.
// Utilizes a BSD-3 license. Refer to the included LICENSE file for details.

// Package errs collects the sentinel errors of the codec's error taxonomy
// (spec §7) in one leaf package so every component - and the orchestration
// layer that wires them together - can return and errors.Is-compare the
// same values without import cycles.
package errs

import "errors"

var (
	// ErrKeyTooShort: key has length 0.
	ErrKeyTooShort = errors.New("zksteg: key too short")
	// ErrUnsupportedFormat: PNG is not 8-bit truecolour (+/- alpha).
	ErrUnsupportedFormat = errors.New("zksteg: unsupported png format")
	// ErrCapacityExceeded: payload_bits > capacity_bits(image).
	ErrCapacityExceeded = errors.New("zksteg: capacity exceeded")
	// ErrCapacityExhausted: position generator failed retry_bound
	// consecutive times for one bit.
	ErrCapacityExhausted = errors.New("zksteg: capacity exhausted during position generation")
	// ErrMalformedPNG: chunk parsing failed or IEND not found.
	ErrMalformedPNG = errors.New("zksteg: malformed png")
	// ErrEnvelopeCorrupt: chunk CRC mismatch.
	ErrEnvelopeCorrupt = errors.New("zksteg: envelope corrupt")
	// ErrUnknownEnvelope: tag/version unrecognised.
	ErrUnknownEnvelope = errors.New("zksteg: unknown envelope")
	// ErrEnvelopeInconsistent: fields out of range relative to image geometry.
	ErrEnvelopeInconsistent = errors.New("zksteg: envelope inconsistent")
	// ErrCarrierMismatch: normalized carrier hash does not match carrier_sha.
	ErrCarrierMismatch = errors.New("zksteg: carrier mismatch")
	// ErrNoEnvelope: no zkPF chunk present.
	ErrNoEnvelope = errors.New("zksteg: no envelope present")
	// ErrLengthMismatch: internal - position and bit counts disagree.
	ErrLengthMismatch = errors.New("zksteg: position/bit length mismatch")
)
