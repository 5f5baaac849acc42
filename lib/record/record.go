// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"fmt"
	"unicode/utf8"
)

// Kind discriminates the record variants.
type Kind string

const (
	// KindHash identifies a [HashRecord].
	KindHash Kind = "hash"

	// KindAsset identifies an [AssetRecord].
	KindAsset Kind = "asset"
)

// DocTypeAsset is the docType tag written on every stored asset.
const DocTypeAsset = "asset"

// Persisted field names.
const (
	FieldHash             = "hash"
	FieldID               = "id"
	FieldCloudProviderID  = "idCloudProvider"
	FieldRadioFingerprint = "empreinteRadio"
	FieldMACAddress       = "adresseMac"
	FieldManufacturerID   = "idFabricant"
	FieldDocType          = "docType"
)

// Record is implemented only by the variants in this package.
type Record interface {
	// Kind returns the variant tag.
	Kind() Kind

	// Key returns the store key the record is addressed by.
	Key() string

	// Fields returns the persisted fields as a fresh map. Callers may
	// modify the result.
	Fields() map[string]any

	// Attribute returns the value of a persisted field by name.
	Attribute(name string) (string, bool)

	// Validate reports missing or malformed fields.
	Validate() error

	sealed()
}

// ValidationError reports a record that cannot be stored.
type ValidationError struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s record: field %q %s", e.Kind, e.Field, e.Reason)
}

// HashRecord is a content address on its own.
type HashRecord struct {
	Hash string `json:"hash"`
}

func (HashRecord) Kind() Kind { return KindHash }

func (r HashRecord) Key() string { return r.Hash }

func (r HashRecord) Fields() map[string]any {
	return map[string]any{FieldHash: r.Hash}
}

func (r HashRecord) Attribute(name string) (string, bool) {
	if name == FieldHash {
		return r.Hash, true
	}
	return "", false
}

func (r HashRecord) Validate() error {
	return requireText(KindHash, FieldHash, r.Hash)
}

func (HashRecord) sealed() {}

// AssetRecord is a registered device.
type AssetRecord struct {
	ID               string `json:"id"`
	CloudProviderID  string `json:"idCloudProvider"`
	RadioFingerprint string `json:"empreinteRadio"`
	MACAddress       string `json:"adresseMac"`
	ManufacturerID   string `json:"idFabricant"`
}

func (AssetRecord) Kind() Kind { return KindAsset }

func (r AssetRecord) Key() string { return r.ID }

func (r AssetRecord) Fields() map[string]any {
	return map[string]any{
		FieldID:               r.ID,
		FieldCloudProviderID:  r.CloudProviderID,
		FieldRadioFingerprint: r.RadioFingerprint,
		FieldMACAddress:       r.MACAddress,
		FieldManufacturerID:   r.ManufacturerID,
		FieldDocType:          DocTypeAsset,
	}
}

func (r AssetRecord) Attribute(name string) (string, bool) {
	switch name {
	case FieldID:
		return r.ID, true
	case FieldCloudProviderID:
		return r.CloudProviderID, true
	case FieldRadioFingerprint:
		return r.RadioFingerprint, true
	case FieldMACAddress:
		return r.MACAddress, true
	case FieldManufacturerID:
		return r.ManufacturerID, true
	case FieldDocType:
		return DocTypeAsset, true
	default:
		return "", false
	}
}

func (r AssetRecord) Validate() error {
	for _, field := range []struct{ name, value string }{
		{FieldID, r.ID},
		{FieldCloudProviderID, r.CloudProviderID},
		{FieldRadioFingerprint, r.RadioFingerprint},
		{FieldMACAddress, r.MACAddress},
		{FieldManufacturerID, r.ManufacturerID},
	} {
		if err := requireText(KindAsset, field.name, field.value); err != nil {
			return err
		}
	}
	return nil
}

// String matches the ledger's historical textual form of a device.
func (r AssetRecord) String() string {
	return fmt.Sprintf("AssetRecord{id='%s', idCloudProvider='%s', empreinteRadio='%s', adresseMac='%s', idFabricant='%s'}",
		r.ID, r.CloudProviderID, r.RadioFingerprint, r.MACAddress, r.ManufacturerID)
}

func (AssetRecord) sealed() {}

func requireText(kind Kind, field, value string) error {
	if value == "" {
		return &ValidationError{Kind: kind, Field: field, Reason: "is required"}
	}
	if !utf8.ValidString(value) {
		return &ValidationError{Kind: kind, Field: field, Reason: "is not valid UTF-8"}
	}
	return nil
}
