// Copyright 2018 Zanicar. All rights reserved.
// Utilizes a BSD-3 license. Refer to the included LICENSE file for details.

// Package keyderive implements C1, the key-to-chaos-parameter derivation:
// a stateless, branch-free (beyond the hash itself) mapping from a key
// string and an anchor coordinate to the parameter bundle the chaos maps
// in package chaosmap consume.
package keyderive

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/zanicar/zksteg/errs"
)

// ChaosParameters is the bundle described in spec §3: all four fields are
// pure functions of the key (and anchor) and never depend on the payload.
type ChaosParameters struct {
	// LogisticR lies in [3.57, 4.0), the chaotic regime of the logistic map.
	LogisticR float64
	// LogisticX0 lies strictly in (0, 1), never at a fixed point.
	LogisticX0 float64
	// ArnoldIterations is in [1, 10].
	ArnoldIterations int
	// ChannelSeed seeds the deterministic channel-index stream.
	ChannelSeed [16]byte
}

const (
	logisticRBase  = 3.57
	logisticRSpan  = 0.43
	fiftyThreeBits = 1 << 53
)

// DeriveParameters computes H = SHA-256(key || be16(anchorX) || be16(anchorY))
// and partitions H into the four ChaosParameters fields exactly as §4.1
// specifies. It fails with ErrKeyTooShort if key is empty; no other input
// is rejected.
func DeriveParameters(key []byte, anchorX, anchorY uint16) (ChaosParameters, error) {
	if len(key) == 0 {
		return ChaosParameters{}, errs.ErrKeyTooShort
	}

	buf := make([]byte, 0, len(key)+4)
	buf = append(buf, key...)
	buf = binary.BigEndian.AppendUint16(buf, anchorX)
	buf = binary.BigEndian.AppendUint16(buf, anchorY)
	h := sha256.Sum256(buf)

	u32 := binary.BigEndian.Uint32(h[0:4])
	logisticR := logisticRBase + (float64(u32)/math.Exp2(32))*logisticRSpan

	u64 := binary.BigEndian.Uint64(h[4:12])
	numerator := float64((u64%fiftyThreeBits)+1)
	logisticX0 := numerator / (fiftyThreeBits + 2)

	arnoldIterations := int(h[12]%10) + 1

	var channelSeed [16]byte
	copy(channelSeed[:], h[16:32])

	return ChaosParameters{
		LogisticR:        logisticR,
		LogisticX0:       logisticX0,
		ArnoldIterations: arnoldIterations,
		ChannelSeed:      channelSeed,
	}, nil
}

// ChannelSeedMod3 reduces the 128-bit ChannelSeed modulo 3. Because the
// channel counter in §4.2 only ever advances by +1 and is only ever read
// mod 3, a generator only needs this residue plus a same-width attempt
// counter to reproduce the full 128-bit counter's behaviour mod 3.
func (p ChaosParameters) ChannelSeedMod3() uint64 {
	var rem uint64
	for _, b := range p.ChannelSeed {
		rem = (rem*256 + uint64(b)) % 3
	}
	return rem
}
