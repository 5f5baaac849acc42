// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/registry/cmd/registry/cli"
	"github.com/bureau-foundation/registry/lib/config"
	"github.com/bureau-foundation/registry/lib/digest"
	"github.com/bureau-foundation/registry/lib/hashregistry"
	"github.com/bureau-foundation/registry/lib/kv"
	"github.com/bureau-foundation/registry/lib/ledger"
	"github.com/bureau-foundation/registry/lib/record"
	"github.com/bureau-foundation/registry/lib/registry"
)

func memorySession(namespace string) *session {
	return &session{
		config: config.Default(),
		ledger: &ledger.Ledger{Namespace: namespace, Location: "memory", Store: kv.NewMemory()},
		logger: slog.New(slog.DiscardHandler),
	}
}

func TestRunDigest(t *testing.T) {
	var output bytes.Buffer
	if err := runDigest([]string{"empreinte1"}, digestParams{}, &output); err != nil {
		t.Fatalf("runDigest: %v", err)
	}
	if got, want := strings.TrimSpace(output.String()), digest.Digest([]byte("empreinte1")); got != want {
		t.Errorf("digest = %s, want %s", got, want)
	}

	path := filepath.Join(t.TempDir(), "value")
	if err := os.WriteFile(path, []byte("empreinte1"), 0o644); err != nil {
		t.Fatal(err)
	}
	var fromFile bytes.Buffer
	if err := runDigest(nil, digestParams{File: path}, &fromFile); err != nil {
		t.Fatalf("runDigest --file: %v", err)
	}
	if fromFile.String() != output.String() {
		t.Errorf("file digest = %q, want %q", fromFile.String(), output.String())
	}

	if err := runDigest([]string{"x"}, digestParams{File: path}, &output); err == nil {
		t.Error("runDigest with both a value and --file should fail")
	}
	if err := runDigest(nil, digestParams{}, &output); err == nil {
		t.Error("runDigest with nothing to hash should fail")
	}
}

func TestHashCommands(t *testing.T) {
	ctx := context.Background()
	s := memorySession(ledger.Hashes)
	params := &hashParams{}
	var output bytes.Buffer

	if err := runHashInit(ctx, s, nil, params, &output); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := runHashInit(ctx, s, nil, params, &output); !registry.IsAlreadyExists(err) {
		t.Errorf("second init error = %v, want AlreadyExists", err)
	}

	output.Reset()
	if err := runHashStore(ctx, s, []string{"abc123"}, params, &output); err != nil {
		t.Fatalf("store: %v", err)
	}
	stored := strings.TrimSpace(output.String())
	if stored != digest.Digest([]byte("abc123")) {
		t.Errorf("store printed %q, want the digest of abc123", stored)
	}
	if err := runHashStore(ctx, s, []string{"abc123"}, params, &output); !registry.IsAlreadyExists(err) {
		t.Errorf("duplicate store error = %v, want AlreadyExists", err)
	}

	output.Reset()
	if err := runHashVerify(ctx, s, []string{"abc123"}, params, &output); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if want := "match " + stored + " found\n"; output.String() != want {
		t.Errorf("verify = %q, want %q", output.String(), want)
	}
	output.Reset()
	if err := runHashVerify(ctx, s, []string{"never stored"}, params, &output); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !strings.HasSuffix(output.String(), " not found\n") {
		t.Errorf("verify = %q, want not found", output.String())
	}

	output.Reset()
	if err := runHashExists(ctx, s, []string{stored}, params, &output); err != nil {
		t.Errorf("exists: %v", err)
	}
	absent := digest.Digest([]byte("absent"))
	err := runHashExists(ctx, s, []string{absent}, params, &output)
	var exitError *cli.ExitError
	if !errors.As(err, &exitError) || exitError.Code != 1 {
		t.Errorf("exists on an absent digest = %v, want exit code 1", err)
	}
	if !strings.Contains(output.String(), absent+" not found") {
		t.Errorf("exists output = %q, want the absent digest reported", output.String())
	}
	output.Reset()
	err = runHashExists(ctx, s, []string{"abc123"}, params, &output)
	if !errors.As(err, &exitError) || exitError.Code != 1 {
		t.Errorf("exists on a malformed digest = %v, want exit code 1", err)
	}
	if !strings.Contains(output.String(), "abc123 not found") {
		t.Errorf("exists output = %q, want abc123 reported absent", output.String())
	}

	output.Reset()
	if err := runHashRead(ctx, s, []string{stored}, params, &output); err != nil {
		t.Fatalf("read: %v", err)
	}
	if output.String() != "hash: "+stored+"\n" {
		t.Errorf("read = %q", output.String())
	}
	if err := runHashRead(ctx, s, []string{absent}, params, &output); !registry.IsNotFound(err) {
		t.Errorf("read of an absent digest = %v, want NotFound", err)
	}

	output.Reset()
	if err := runHashList(ctx, s, nil, params, &output); err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != len(hashregistry.Seeds())+1 {
		t.Errorf("list printed %d lines, want %d:\n%s", len(lines), len(hashregistry.Seeds())+1, output.String())
	}
}

func TestHashListJSON(t *testing.T) {
	ctx := context.Background()
	s := memorySession(ledger.Hashes)
	if err := s.ledger.Store.Put(ctx, "zz-broken", []byte{0xff}); err != nil {
		t.Fatal(err)
	}
	if err := runHashStore(ctx, s, []string{"abc123"}, &hashParams{}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	params := &hashParams{JSONOutput: cli.JSONOutput{OutputJSON: true}}
	var output bytes.Buffer
	if err := runHashList(ctx, s, nil, params, &output); err != nil {
		t.Fatalf("list: %v", err)
	}

	var items []listItem
	if err := json.Unmarshal(output.Bytes(), &items); err != nil {
		t.Fatalf("decoding list output: %v\n%s", err, output.String())
	}
	if len(items) != 2 {
		t.Fatalf("list returned %d items, want 2", len(items))
	}
	// Hex digests sort before "zz-broken".
	if items[0].Kind != record.KindHash || items[0].Fields[record.FieldHash] != digest.Digest([]byte("abc123")) {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].Key != "zz-broken" || items[1].Error == "" {
		t.Errorf("items[1] = %+v, want an undecodable entry", items[1])
	}
}

func TestAssetCommands(t *testing.T) {
	ctx := context.Background()
	s := memorySession(ledger.Assets)
	var output bytes.Buffer

	if err := runAssetInit(ctx, s, &assetParams{}, &output); err != nil {
		t.Fatalf("init: %v", err)
	}

	create := &createParams{
		ID:               "SN-3",
		CloudProvider:    "cloud_provider_1",
		RadioFingerprint: "empreinte3",
		MAC:              "00:0a:95:9d:68:18",
		Manufacturer:     "fabricant_2",
	}
	output.Reset()
	if err := runAssetCreate(ctx, s, create, &output); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(output.String(), "created AssetRecord{id='SN-3'") {
		t.Errorf("create output = %q", output.String())
	}
	if err := runAssetCreate(ctx, s, create, &output); !registry.IsAlreadyExists(err) {
		t.Errorf("duplicate create error = %v, want AlreadyExists", err)
	}
	incomplete := *create
	incomplete.ID, incomplete.MAC = "SN-4", ""
	var validationError *record.ValidationError
	if err := runAssetCreate(ctx, s, &incomplete, &output); !errors.As(err, &validationError) {
		t.Errorf("create without --mac error = %v, want ValidationError", err)
	}

	output.Reset()
	if err := runAssetRead(ctx, s, &assetParams{JSONOutput: cli.JSONOutput{OutputJSON: true}}, "SN-3", &output); err != nil {
		t.Fatalf("read: %v", err)
	}
	var asset record.AssetRecord
	if err := json.Unmarshal(output.Bytes(), &asset); err != nil {
		t.Fatalf("decoding read output: %v", err)
	}
	if asset != create.asset() {
		t.Errorf("read = %+v, want %+v", asset, create.asset())
	}

	output.Reset()
	if err := runAssetFind(ctx, s, &lookupParams{MAC: "00:0a:95:9d:68:16"}, &output); err != nil {
		t.Fatalf("find --mac: %v", err)
	}
	if !strings.Contains(output.String(), "id='SN-1'") {
		t.Errorf("find --mac = %q, want SN-1", output.String())
	}
	output.Reset()
	if err := runAssetFind(ctx, s, &lookupParams{RadioFingerprint: "empreinte3"}, &output); err != nil {
		t.Fatalf("find --radio-fingerprint: %v", err)
	}
	if !strings.Contains(output.String(), "id='SN-3'") {
		t.Errorf("find --radio-fingerprint = %q, want SN-3", output.String())
	}
	if err := runAssetFind(ctx, s, &lookupParams{MAC: "ff:ff:ff:ff:ff:ff"}, &output); !registry.IsNotFound(err) {
		t.Errorf("find of an unknown MAC = %v, want NotFound", err)
	}
	if err := runAssetFind(ctx, s, &lookupParams{}, &output); err == nil {
		t.Error("find without a selector should fail")
	}
	if err := runAssetFind(ctx, s, &lookupParams{MAC: "a", RadioFingerprint: "b"}, &output); err == nil {
		t.Error("find with both selectors should fail")
	}
}

func TestAssetExists(t *testing.T) {
	ctx := context.Background()
	s := memorySession(ledger.Assets)
	if err := runAssetInit(ctx, s, &assetParams{}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		params lookupParams
		args   []string
		found  bool
	}{
		{"id present", lookupParams{}, []string{"SN-2"}, true},
		{"id absent", lookupParams{}, []string{"SN-9"}, false},
		{"mac present", lookupParams{MAC: "00:0a:95:9d:68:17"}, nil, true},
		{"mac absent", lookupParams{MAC: "00:00:00:00:00:00"}, nil, false},
		{"fingerprint present", lookupParams{RadioFingerprint: "empreinte1"}, nil, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var output bytes.Buffer
			err := runAssetExists(ctx, s, &test.params, test.args, &output)
			if test.found {
				if err != nil {
					t.Errorf("exists = %v, want nil", err)
				}
				return
			}
			var exitError *cli.ExitError
			if !errors.As(err, &exitError) || exitError.Code != 1 {
				t.Errorf("exists = %v, want exit code 1", err)
			}
		})
	}

	if err := runAssetExists(ctx, s, &lookupParams{MAC: "x"}, []string{"SN-1"}, &bytes.Buffer{}); err == nil {
		t.Error("exists with an id and --mac should fail")
	}
}

func TestAssetImport(t *testing.T) {
	ctx := context.Background()
	s := memorySession(ledger.Assets)
	if err := runAssetInit(ctx, s, &assetParams{}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	batch := []byte(`[
		// New sensors from the second shipment.
		{"id": "SN-3", "idCloudProvider": "cp", "empreinteRadio": "e3", "adresseMac": "m3", "idFabricant": "f"},
		{"id": "SN-4", "idCloudProvider": "cp", "empreinteRadio": "e4", "adresseMac": "m4", "idFabricant": "f"}
	]`)
	var output bytes.Buffer
	if err := runAssetImport(ctx, s, &assetParams{}, batch, &output); err != nil {
		t.Fatalf("import: %v", err)
	}
	if output.String() != "imported 2 assets\n" {
		t.Errorf("import output = %q", output.String())
	}

	// SN-5 is new but SN-1 exists: nothing is written.
	rejected := []byte(`[
		{"id": "SN-5", "idCloudProvider": "cp", "empreinteRadio": "e5", "adresseMac": "m5", "idFabricant": "f"},
		{"id": "SN-1", "idCloudProvider": "cp", "empreinteRadio": "e1", "adresseMac": "m1", "idFabricant": "f"}
	]`)
	if err := runAssetImport(ctx, s, &assetParams{}, rejected, &output); !registry.IsAlreadyExists(err) {
		t.Fatalf("import error = %v, want AlreadyExists", err)
	}
	value, err := s.ledger.Store.Get(ctx, "SN-5")
	if err != nil {
		t.Fatal(err)
	}
	if value != nil {
		t.Error("rejected batch wrote SN-5")
	}

	output.Reset()
	if err := runAssetList(ctx, s, &assetParams{}, &output); err != nil {
		t.Fatalf("list: %v", err)
	}
	if lines := strings.Count(output.String(), "\n"); lines != 4 {
		t.Errorf("list printed %d lines, want 4:\n%s", lines, output.String())
	}
}

func TestStateInspect(t *testing.T) {
	ctx := context.Background()
	s := memorySession(ledger.Assets)
	if err := runAssetInit(ctx, s, &assetParams{}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	legacy := `{"hash":"abc123"}`
	if err := s.ledger.Store.Put(ctx, "legacy", []byte(legacy)); err != nil {
		t.Fatal(err)
	}
	if err := s.ledger.Store.Put(ctx, "garbage", []byte{0xff, 0x00}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		key       string
		format    string
		canonical bool
		kind      record.Kind
		broken    bool
	}{
		{"SN-1", "cbor", true, record.KindAsset, false},
		{"legacy", "legacy json", false, record.KindHash, false},
		{"garbage", "cbor", false, "", true},
	}
	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			var output bytes.Buffer
			params := &stateParams{JSONOutput: cli.JSONOutput{OutputJSON: true}}
			if err := runStateInspect(ctx, s, params, test.key, &output); err != nil {
				t.Fatalf("inspect: %v", err)
			}
			var result inspection
			if err := json.Unmarshal(output.Bytes(), &result); err != nil {
				t.Fatalf("decoding inspect output: %v", err)
			}
			if result.Format != test.format || result.Canonical != test.canonical || result.Kind != test.kind {
				t.Errorf("inspect = %+v", result)
			}
			if (result.DecodeError != "") != test.broken {
				t.Errorf("DecodeError = %q, want broken=%v", result.DecodeError, test.broken)
			}
		})
	}

	var text bytes.Buffer
	if err := runStateInspect(ctx, s, &stateParams{}, "SN-1", &text); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"key:        SN-1", "canonical:  yes", `"docType": "asset"`} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("inspect output missing %q:\n%s", want, text.String())
		}
	}

	if err := runStateInspect(ctx, s, &stateParams{}, "SN-9", &text); !registry.IsNotFound(err) {
		t.Errorf("inspect of an absent key = %v, want NotFound", err)
	}
}

func TestStateDigestMatchesAcrossReplicas(t *testing.T) {
	ctx := context.Background()
	digests := make([]string, 2)
	for i := range digests {
		s := memorySession(ledger.Hashes)
		if err := runHashInit(ctx, s, nil, &hashParams{}, &bytes.Buffer{}); err != nil {
			t.Fatal(err)
		}
		if err := runHashStore(ctx, s, []string{"abc123"}, &hashParams{}, &bytes.Buffer{}); err != nil {
			t.Fatal(err)
		}
		var output bytes.Buffer
		if err := runStateDigest(ctx, s, &stateParams{}, &output); err != nil {
			t.Fatalf("digest: %v", err)
		}
		digests[i] = output.String()
	}
	if digests[0] != digests[1] {
		t.Errorf("replica digests differ:\n%s%s", digests[0], digests[1])
	}
	if !strings.HasSuffix(digests[0], "  5 entries\n") {
		t.Errorf("digest output = %q, want 5 entries", digests[0])
	}
}

func TestSnapshotExportImport(t *testing.T) {
	ctx := context.Background()
	source := memorySession(ledger.Assets)
	if err := runAssetInit(ctx, source, &assetParams{}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "assets.snap")

	var exported bytes.Buffer
	if err := runSnapshotExport(ctx, source, &exportParams{Compression: "lz4"}, path, &exported); err != nil {
		t.Fatalf("export: %v", err)
	}

	target := memorySession(ledger.Assets)
	var imported bytes.Buffer
	if err := runSnapshotImport(ctx, target, &importParams{}, path, &imported); err != nil {
		t.Fatalf("import: %v", err)
	}
	if strings.TrimPrefix(exported.String(), "exported") != strings.TrimPrefix(imported.String(), "imported") {
		t.Errorf("export and import disagree:\n%s%s", exported.String(), imported.String())
	}

	if err := runSnapshotImport(ctx, target, &importParams{}, path, &imported); !registry.IsAlreadyExists(err) {
		t.Errorf("second import error = %v, want AlreadyExists", err)
	}

	badPath := filepath.Join(t.TempDir(), "bad.snap")
	if err := runSnapshotExport(ctx, source, &exportParams{Compression: "gzip"}, badPath, &exported); err == nil {
		t.Error("export with an unknown compression should fail")
	}
	if _, err := os.Stat(badPath); !os.IsNotExist(err) {
		t.Errorf("failed export left %s behind", badPath)
	}
}

func TestRootEndToEnd(t *testing.T) {
	directory := t.TempDir()
	configPath := filepath.Join(directory, "registry.yaml")
	configYAML := "store:\n  backend: sqlite\n  sqlite:\n    directory: " + filepath.Join(directory, "ledgers") + "\nlog:\n  level: error\n"
	if err := os.WriteFile(configPath, []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	execute := func(args ...string) error {
		return Root().Execute(ctx, append(args, "--config", configPath), nil)
	}

	if err := execute("hash", "init"); err != nil {
		t.Fatalf("hash init: %v", err)
	}
	if err := execute("hash", "store", "abc123"); err != nil {
		t.Fatalf("hash store: %v", err)
	}
	// A separate invocation sees the persisted record.
	if err := execute("hash", "exists", digest.Digest([]byte("abc123"))); err != nil {
		t.Errorf("hash exists: %v", err)
	}
	if err := execute("hash", "store", "abc123"); !registry.IsAlreadyExists(err) {
		t.Errorf("duplicate hash store = %v, want AlreadyExists", err)
	}

	if err := execute("asset", "init"); err != nil {
		t.Fatalf("asset init: %v", err)
	}
	if err := execute("asset", "find", "--mac", "00:0a:95:9d:68:17"); err != nil {
		t.Errorf("asset find: %v", err)
	}
	if err := execute("state", "digest", "devices"); err == nil {
		t.Error("state digest of an unknown namespace should fail")
	}

	if _, err := os.Stat(ledger.SQLitePath(filepath.Join(directory, "ledgers"), ledger.Assets)); err != nil {
		t.Errorf("asset database: %v", err)
	}
}

func TestRootUnknownCommand(t *testing.T) {
	err := Root().Execute(context.Background(), []string{"hsah"}, nil)
	if err == nil || !strings.Contains(err.Error(), `did you mean "hash"`) {
		t.Errorf("error = %v, want a suggestion for hash", err)
	}
}
