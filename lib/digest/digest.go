// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Length is the length of a hex-encoded digest.
const Length = 2 * sha256.Size

// Digest returns the lowercase hex-encoded SHA-256 digest of input.
func Digest(input []byte) string {
	return Format(Sum(input))
}

// Sum returns the SHA-256 digest of input.
func Sum(input []byte) [32]byte {
	return sha256.Sum256(input)
}

// HashFile computes the SHA-256 digest of the file at path. The file
// is streamed through the hash function so memory use does not depend
// on file size.
func HashFile(path string) ([32]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return [32]byte{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return [32]byte{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var sum [32]byte
	copy(sum[:], hasher.Sum(nil))
	return sum, nil
}

// Format returns the lowercase hex encoding of a digest.
func Format(sum [32]byte) string {
	return hex.EncodeToString(sum[:])
}

// Parse parses a hex-encoded digest. Uppercase hex is accepted here;
// use [Validate] to require the canonical lowercase form.
func Parse(hexString string) ([32]byte, error) {
	var sum [32]byte
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return sum, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(sum) {
		return sum, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(sum))
	}
	copy(sum[:], decoded)
	return sum, nil
}

// Validate returns an error unless value is exactly 64 lowercase hex
// characters.
func Validate(value string) error {
	if len(value) != Length {
		return fmt.Errorf("digest %q is %d characters, want %d", value, len(value), Length)
	}
	for i := 0; i < len(value); i++ {
		character := value[i]
		if (character < '0' || character > '9') && (character < 'a' || character > 'f') {
			return fmt.Errorf("digest %q has non-lowercase-hex character %q at offset %d", value, character, i)
		}
	}
	return nil
}
