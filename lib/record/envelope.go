// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/bureau-foundation/registry/lib/codec"
)

// SchemaVersion is the envelope version written by [Encode].
const SchemaVersion = 1

// Envelope keys.
const (
	envelopeVersion = "v"
	envelopeKind    = "kind"
	envelopeFields  = "fields"
)

// envelope is the decoded shape of a stored value.
type envelope struct {
	Version int            `cbor:"v"`
	Kind    Kind           `cbor:"kind"`
	Fields  map[string]any `cbor:"fields"`
}

// Encode validates r and returns its canonical stored form.
func Encode(r Record) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return codec.Canonicalize(map[string]any{
		envelopeVersion: SchemaVersion,
		envelopeKind:    string(r.Kind()),
		envelopeFields:  r.Fields(),
	})
}

// Decode parses a stored value. It accepts the version-1 CBOR
// envelope and version-0 flat JSON objects.
func Decode(data []byte) (Record, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty value")
	}
	if data[0] == '{' {
		return decodeLegacy(data)
	}

	var stored envelope
	if err := codec.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	if stored.Version != SchemaVersion {
		return nil, fmt.Errorf("unsupported schema version %d", stored.Version)
	}
	if stored.Fields == nil {
		return nil, fmt.Errorf("envelope has no fields")
	}
	return FromFields(stored.Kind, stored.Fields)
}

// FromFields builds the variant for kind from its persisted fields.
// Every field value must be a string, unknown fields are rejected,
// and asset fields must carry docType = "asset".
func FromFields(kind Kind, fields map[string]any) (Record, error) {
	text, err := textFields(kind, fields)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindHash:
		if err := onlyFields(kind, text, FieldHash); err != nil {
			return nil, err
		}
		result := HashRecord{Hash: text[FieldHash]}
		if err := result.Validate(); err != nil {
			return nil, err
		}
		return result, nil

	case KindAsset:
		if err := onlyFields(kind, text, FieldID, FieldCloudProviderID, FieldRadioFingerprint,
			FieldMACAddress, FieldManufacturerID, FieldDocType); err != nil {
			return nil, err
		}
		if docType := text[FieldDocType]; docType != DocTypeAsset {
			return nil, &ValidationError{Kind: kind, Field: FieldDocType, Reason: fmt.Sprintf("is %q, want %q", docType, DocTypeAsset)}
		}
		return assetFromText(text)

	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}

// decodeLegacy reads a version-0 value. Those values carry no kind
// tag, so the variant is inferred from the fields present: a lone
// "hash" field is a hash record, anything with an "id" is an asset.
// Assets created outside genesis in version 0 were stored without
// docType, so its absence is tolerated here.
func decodeLegacy(data []byte) (Record, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decoding legacy JSON value: %w", err)
	}

	if _, ok := fields[FieldHash]; ok && len(fields) == 1 {
		return FromFields(KindHash, fields)
	}
	if _, ok := fields[FieldID]; ok {
		if _, ok := fields[FieldDocType]; !ok {
			fields[FieldDocType] = DocTypeAsset
		}
		return FromFields(KindAsset, fields)
	}
	return nil, fmt.Errorf("legacy JSON value has neither %q nor %q", FieldHash, FieldID)
}

func assetFromText(text map[string]string) (Record, error) {
	result := AssetRecord{
		ID:               text[FieldID],
		CloudProviderID:  text[FieldCloudProviderID],
		RadioFingerprint: text[FieldRadioFingerprint],
		MACAddress:       text[FieldMACAddress],
		ManufacturerID:   text[FieldManufacturerID],
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func textFields(kind Kind, fields map[string]any) (map[string]string, error) {
	text := make(map[string]string, len(fields))
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		value, ok := fields[name].(string)
		if !ok {
			return nil, &ValidationError{Kind: kind, Field: name, Reason: fmt.Sprintf("has type %T, want string", fields[name])}
		}
		text[name] = value
	}
	return text, nil
}

func onlyFields(kind Kind, text map[string]string, allowed ...string) error {
	for _, name := range slices.Sorted(maps.Keys(text)) {
		if !slices.Contains(allowed, name) {
			return &ValidationError{Kind: kind, Field: name, Reason: "is not a known field"}
		}
	}
	return nil
}
