// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// majorTypeMap is the initial-byte prefix of a CBOR map header
// (major type 5).
const majorTypeMap = 5 << 5

// EncodingError reports a value that has no canonical encoding.
// Path locates the offending value inside the tree using dotted field
// names ("fields.adresseMac"); the root value has an empty path.
type EncodingError struct {
	Path   string
	Reason string
}

func (e *EncodingError) Error() string {
	if e.Path == "" {
		return "codec: cannot canonicalize value: " + e.Reason
	}
	return fmt.Sprintf("codec: cannot canonicalize value at %s: %s", e.Path, e.Reason)
}

// Canonicalize returns the canonical encoding of value.
//
// The accepted vocabulary is strings, booleans, integers, byte
// strings, and maps with string keys (map[string]any or
// map[string]string) nesting any of those. Map keys must be
// non-empty and are written in ascending lexicographic order at every
// level. Canonicalize never consults the clock, randomness, or map
// iteration order, so every replica produces the same bytes for the
// same logical value.
func Canonicalize(value any) ([]byte, error) {
	return appendCanonical(nil, value, "", make(map[uintptr]bool))
}

// appendCanonical validates value and appends its encoding to buf.
// Maps are assembled here so their keys follow string order; scalars
// go through encMode, which gives them their smallest encoding.
func appendCanonical(buf []byte, value any, path string, visiting map[uintptr]bool) ([]byte, error) {
	switch typed := value.(type) {
	case []byte:
		if typed == nil {
			return nil, &EncodingError{Path: path, Reason: "nil byte string"}
		}
		return appendScalar(buf, typed, path)

	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return appendScalar(buf, typed, path)

	case map[string]string:
		if typed == nil {
			return nil, &EncodingError{Path: path, Reason: "nil map"}
		}
		var err error
		if buf, err = appendMapHeader(buf, len(typed), path); err != nil {
			return nil, err
		}
		for _, key := range slices.Sorted(maps.Keys(typed)) {
			if key == "" {
				return nil, &EncodingError{Path: path, Reason: "empty map key"}
			}
			if buf, err = appendScalar(buf, key, path); err != nil {
				return nil, err
			}
			if buf, err = appendScalar(buf, typed[key], joinPath(path, key)); err != nil {
				return nil, err
			}
		}
		return buf, nil

	case map[string]any:
		if typed == nil {
			return nil, &EncodingError{Path: path, Reason: "nil map"}
		}
		pointer := reflect.ValueOf(typed).Pointer()
		if visiting[pointer] {
			return nil, &EncodingError{Path: path, Reason: "cyclic map"}
		}
		visiting[pointer] = true
		defer delete(visiting, pointer)

		var err error
		if buf, err = appendMapHeader(buf, len(typed), path); err != nil {
			return nil, err
		}
		for _, key := range slices.Sorted(maps.Keys(typed)) {
			if key == "" {
				return nil, &EncodingError{Path: path, Reason: "empty map key"}
			}
			if buf, err = appendScalar(buf, key, path); err != nil {
				return nil, err
			}
			if buf, err = appendCanonical(buf, typed[key], joinPath(path, key), visiting); err != nil {
				return nil, err
			}
		}
		return buf, nil

	case nil:
		return nil, &EncodingError{Path: path, Reason: "nil value"}

	default:
		return nil, &EncodingError{Path: path, Reason: fmt.Sprintf("unsupported type %T", value)}
	}
}

func appendScalar(buf []byte, value any, path string) ([]byte, error) {
	encoded, err := encMode.Marshal(value)
	if err != nil {
		return nil, &EncodingError{Path: path, Reason: err.Error()}
	}
	return append(buf, encoded...), nil
}

// appendMapHeader writes the header of a definite-length map with
// count entries. The header shares its argument encoding with an
// unsigned integer, so the minimal integer form is reused with the
// major type swapped.
func appendMapHeader(buf []byte, count int, path string) ([]byte, error) {
	header, err := encMode.Marshal(uint64(count))
	if err != nil {
		return nil, &EncodingError{Path: path, Reason: err.Error()}
	}
	header[0] |= majorTypeMap
	return append(buf, header...), nil
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// IsCanonical reports whether data is a single CBOR item exactly as
// [Canonicalize] would write it: map keys in ascending lexicographic
// order, smallest integer encodings, definite lengths, and nothing
// outside the record vocabulary. A mismatch names the first differing
// byte.
func IsCanonical(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("codec: empty input")
	}

	var value any
	if err := decMode.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("codec: decoding: %w", err)
	}

	reencoded, err := Canonicalize(value)
	if err != nil {
		return fmt.Errorf("codec: not canonical: %w", err)
	}
	if bytes.Equal(data, reencoded) {
		return nil
	}

	offset := 0
	limit := min(len(data), len(reencoded))
	for offset < limit && data[offset] == reencoded[offset] {
		offset++
	}
	return fmt.Errorf("codec: not canonical: first difference at byte %d (original %d bytes, canonical %d bytes)",
		offset, len(data), len(reencoded))
}
