// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package record defines the registry's record model and its stored
// form.
//
// A [Record] is one of a closed set of tagged variants:
//
//   - [HashRecord] (kind "hash") holds a single content address. Its
//     store key is the address itself.
//   - [AssetRecord] (kind "asset") describes a registered IoT device:
//     serial number, cloud provider, radio fingerprint, MAC address,
//     and manufacturer. Its store key is the caller-supplied serial
//     number. Stored asset records always carry the document type
//     discriminator docType = "asset".
//
// Persisted field names are part of the ledger format and predate
// this package ("empreinteRadio", "adresseMac", "idFabricant"); the
// Go field names are their English equivalents.
//
// # Stored form
//
// [Encode] wraps a record's fields in a versioned envelope and
// canonicalizes it with lib/codec:
//
//	{"fields": {"adresseMac": ..., "id": "SN-1", ...}, "kind": "asset", "v": 1}
//
// [Decode] accepts that envelope and also the schema-version-0 form:
// flat JSON objects such as {"hash":"…"} written by earlier ledger
// code with a sorted-key JSON encoder. Version 0 is read-only; every
// write produces version 1.
package record
