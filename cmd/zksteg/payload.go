// Copyright 2018 Zanicar. All rights reserved.
// Utilizes a BSD-3 license. Refer to the included LICENSE file for details.

package main

import (
	crand "crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// compressPayload mirrors the teacher's -zip flag (which used
// compress/zlib); this demo reaches for the pack's zstd implementation
// instead, since that is the ecosystem's compression library of choice
// across the retrieved corpus.
func compressPayload(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	defer enc.Close()
	out := enc.EncodeAll(data, nil)
	log.Debug().Int("in", len(data)).Int("out", len(out)).Msg("compress: zstd")
	return out, nil
}

func decompressPayload(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	log.Debug().Int("in", len(data)).Int("out", len(out)).Msg("decompress: zstd")
	return out, nil
}

// aeadKey expands a passphrase into a chacha20poly1305 key via
// HKDF-SHA-256, replacing the teacher's bare sha256.Sum256(key) ->
// crypto/aes.NewCipher construction with the pack's x/crypto HKDF +
// ChaCha20-Poly1305 stack.
func aeadKey(passphrase []byte) ([]byte, error) {
	kdf := hkdf.New(sha256.New, passphrase, []byte("zksteg-demo-salt"), []byte("zksteg-demo-aead"))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}
	return key, nil
}

// encryptPayload encrypts data under a key derived from passphrase,
// prefixing the nonce (this is a demo convenience format, never seen by
// the core - the core's Non-goal explicitly excludes payload encryption).
func encryptPayload(data, passphrase []byte) ([]byte, error) {
	key, err := aeadKey(passphrase)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("new aead: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := crand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	out := aead.Seal(nonce, nonce, data, nil)
	log.Debug().Int("in", len(data)).Int("out", len(out)).Msg("encrypt: chacha20poly1305")
	return out, nil
}

func decryptPayload(data, passphrase []byte) ([]byte, error) {
	key, err := aeadKey(passphrase)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("new aead: %w", err)
	}
	if len(data) < aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ct := data[:aead.NonceSize()], data[aead.NonceSize():]
	out, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("aead open: %w", err)
	}
	log.Debug().Int("in", len(data)).Int("out", len(out)).Msg("decrypt: chacha20poly1305")
	return out, nil
}
