// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/bureau-foundation/registry/lib/assetregistry"
	"github.com/bureau-foundation/registry/lib/codec"
	"github.com/bureau-foundation/registry/lib/kv"
	"github.com/bureau-foundation/registry/lib/registry"
	"github.com/bureau-foundation/registry/lib/statedigest"
)

var compressions = []Compression{CompressionNone, CompressionLZ4, CompressionZstd}

func seededAssets(t *testing.T) *kv.Memory {
	t.Helper()
	store := kv.NewMemory()
	if err := assetregistry.New(nil).Initialize(context.Background(), store); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return store
}

func export(t *testing.T, store kv.Store, compression Compression) []byte {
	t.Helper()
	var buffer bytes.Buffer
	if _, err := Export(context.Background(), store, &buffer, Options{Compression: compression}); err != nil {
		t.Fatalf("Export(%s): %v", compression, err)
	}
	return buffer.Bytes()
}

func TestExportImportPreservesFingerprint(t *testing.T) {
	ctx := context.Background()
	source := seededAssets(t)
	want, err := statedigest.Compute(ctx, source)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for _, compression := range compressions {
		t.Run(compression.String(), func(t *testing.T) {
			data := export(t, source, compression)
			if data[len(magic)+1] != byte(compression) {
				t.Errorf("header compression byte = %d, want %d", data[len(magic)+1], compression)
			}

			target := kv.NewMemory()
			got, err := Import(ctx, target, bytes.NewReader(data), nil)
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			if got != want {
				t.Errorf("Import result = %+v, want %+v", got, want)
			}

			restored, err := statedigest.Compute(ctx, target)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if restored != want {
				t.Errorf("restored store fingerprint %s, want %s", restored.Fingerprint, want.Fingerprint)
			}

			asset, err := assetregistry.New(nil).Read(ctx, target, "SN-2")
			if err != nil {
				t.Fatalf("Read restored asset: %v", err)
			}
			if asset.MACAddress != "00:0a:95:9d:68:17" {
				t.Errorf("restored SN-2 MAC = %s", asset.MACAddress)
			}
		})
	}
}

func TestExportEmptyStore(t *testing.T) {
	data := export(t, kv.NewMemory(), CompressionZstd)
	contents, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(contents.Pairs) != 0 || contents.Result.Count != 0 {
		t.Errorf("empty snapshot holds %d pairs", len(contents.Pairs))
	}
}

func TestImportRefusesExistingKeys(t *testing.T) {
	ctx := context.Background()
	data := export(t, seededAssets(t), CompressionLZ4)

	target := kv.NewMemory()
	if err := target.Put(ctx, "SN-2", []byte("local")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	_, err := Import(ctx, target, bytes.NewReader(data), nil)
	var existsErr *registry.AlreadyExistsError
	if !errors.As(err, &existsErr) {
		t.Fatalf("Import error = %v, want *AlreadyExistsError", err)
	}
	if existsErr.Key != "SN-2" {
		t.Errorf("AlreadyExistsError.Key = %q, want SN-2", existsErr.Key)
	}
	if target.Len() != 1 {
		t.Errorf("refused import wrote %d keys", target.Len()-1)
	}
}

func TestReadRejectsCorruption(t *testing.T) {
	good := export(t, seededAssets(t), CompressionNone)

	flipped := bytes.Clone(good)
	flipped[len(flipped)/2] ^= 0x01

	badVersion := bytes.Clone(good)
	badVersion[len(magic)] = 9

	badCompression := bytes.Clone(good)
	badCompression[len(magic)+1] = 7

	// A trailer that claims one pair more than the stream holds.
	var wrongCount bytes.Buffer
	wrongCount.WriteString(magic)
	wrongCount.Write([]byte{version, byte(CompressionNone)})
	encoder := codec.NewEncoder(&wrongCount)
	hasher := statedigest.NewHasher()
	if err := hasher.Add("SN-1", []byte("x")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	sum := hasher.Sum()
	encoder.Encode(frame{Key: "SN-1", Value: []byte("x")})
	encoder.Encode(frame{End: &trailer{Count: 2, Fingerprint: sum[:]}})

	// Keys out of order.
	var unordered bytes.Buffer
	unordered.WriteString(magic)
	unordered.Write([]byte{version, byte(CompressionNone)})
	encoder = codec.NewEncoder(&unordered)
	encoder.Encode(frame{Key: "b", Value: []byte("x")})
	encoder.Encode(frame{Key: "a", Value: []byte("x")})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("NOTSNAP"), good[len(magic):]...)},
		{"bad version", badVersion},
		{"bad compression", badCompression},
		{"truncated", good[:len(good)-4]},
		{"header only", good[:headerLength]},
		{"flipped bit", flipped},
		{"trailing data", append(bytes.Clone(good), good[headerLength:]...)},
		{"wrong count", wrongCount.Bytes()},
		{"unordered keys", unordered.Bytes()},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(test.data))
			if !errors.Is(err, ErrCorrupt) {
				t.Errorf("Read error = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestParseCompression(t *testing.T) {
	for _, compression := range compressions {
		parsed, err := ParseCompression(compression.String())
		if err != nil {
			t.Fatalf("ParseCompression(%s): %v", compression, err)
		}
		if parsed != compression {
			t.Errorf("ParseCompression(%s) = %s", compression, parsed)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("ParseCompression(gzip) should fail")
	}
	if _, err := Export(context.Background(), kv.NewMemory(), &bytes.Buffer{}, Options{Compression: 9}); err == nil {
		t.Error("Export with an unknown compression should fail")
	}
}
