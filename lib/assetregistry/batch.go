// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetregistry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/registry/lib/record"
)

// batchItem is one object in an import file. Field names are the
// persisted ones; docType may be given but must then be "asset".
type batchItem struct {
	record.AssetRecord
	DocType *string `json:"docType"`
}

// ParseBatch parses an import file: a JSON array of asset objects,
// extended with // line comments, /* block comments */, and trailing
// commas. Unknown fields are rejected. Validation of the assets
// themselves is left to [Registry.CreateBatch].
//
//	[
//	  // warehouse 3
//	  {"id": "SN-3", "idCloudProvider": "cloud_provider_1",
//	   "empreinteRadio": "empreinte3", "adresseMac": "00:0a:95:9d:68:18",
//	   "idFabricant": "fabricant_2"},
//	]
func ParseBatch(data []byte) ([]record.AssetRecord, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()

	var items []batchItem
	if err := decoder.Decode(&items); err != nil {
		return nil, fmt.Errorf("parsing asset batch: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("parsing asset batch: trailing data after the array")
	}

	assets := make([]record.AssetRecord, 0, len(items))
	for i, item := range items {
		if item.DocType != nil && *item.DocType != record.DocTypeAsset {
			return nil, fmt.Errorf("asset batch entry %d: docType is %q, want %q", i, *item.DocType, record.DocTypeAsset)
		}
		assets = append(assets, item.AssetRecord)
	}
	return assets, nil
}
