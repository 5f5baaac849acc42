// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode writes Core Deterministic CBOR (RFC 8949 §4.2): smallest
// integer encodings and no indefinite lengths. Canonicalize uses it
// for scalars and orders map keys itself.
var encMode cbor.EncMode

// decMode is the CBOR decoder. Duplicate map keys are rejected: a
// stored value with two entries for one field has no single logical
// meaning.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: building CBOR encode mode: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Record fields always have string names. Without this the
		// decoder picks map[interface{}]interface{} for any-typed
		// targets, which the record layer cannot consume.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		DupMapKey:      cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("codec: building CBOR decode mode: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding. Unlike
// [Canonicalize], it does not restrict the value vocabulary.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes one CBOR item from data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder and Decoder are re-exported so snapshot streaming does not
// import fxamacker/cbor itself.
type (
	Encoder = cbor.Encoder
	Decoder = cbor.Decoder
)

// NewEncoder streams deterministic items to w.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder reads a sequence of items from r with the same
// duplicate-key rules as [Unmarshal].
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}

// Diagnose renders data in RFC 8949 §8 diagnostic notation, as shown
// by "registry state inspect".
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
