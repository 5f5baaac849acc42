// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package natskv_test

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/bureau-foundation/registry/lib/kv"
	"github.com/bureau-foundation/registry/lib/kv/kvtest"
	"github.com/bureau-foundation/registry/lib/kv/natskv"
	"github.com/bureau-foundation/registry/lib/testutil"
)

func openTestStore(t *testing.T, srv *server.Server) *natskv.Store {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := natskv.Open(ctx, natskv.Config{
		URL:    srv.ClientURL(),
		Bucket: testutil.UniqueID("test"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestConformance(t *testing.T) {
	srv := testutil.JetStreamServer(t)
	kvtest.Run(t, func(t *testing.T) kv.Store { return openTestStore(t, srv) })
}

func TestOpenValidatesConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := natskv.Open(ctx, natskv.Config{Bucket: "b"}); err == nil {
		t.Error("Open without URL should fail")
	}
	if _, err := natskv.Open(ctx, natskv.Config{URL: "nats://127.0.0.1:1"}); err == nil {
		t.Error("Open without Bucket should fail")
	}
}

func TestForeignKeysIgnored(t *testing.T) {
	srv := testutil.JetStreamServer(t)
	ctx := context.Background()

	store, err := natskv.Open(ctx, natskv.Config{URL: srv.ClientURL(), Bucket: "shared"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	if err := store.Put(ctx, "SN-1", []byte("device")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Another writer puts a key that is not hex.
	conn, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()
	js, err := jetstream.New(conn)
	if err != nil {
		t.Fatalf("jetstream.New: %v", err)
	}
	bucket, err := js.KeyValue(ctx, "shared")
	if err != nil {
		t.Fatalf("KeyValue: %v", err)
	}
	if _, err := bucket.Put(ctx, "not.hex", []byte("x")); err != nil {
		t.Fatalf("foreign Put: %v", err)
	}

	pairs, err := kv.Collect(ctx, store, "", "")
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Key != "SN-1" {
		t.Errorf("Collect = %+v, want only SN-1", pairs)
	}
}

func TestSharedBucketAcrossClients(t *testing.T) {
	srv := testutil.JetStreamServer(t)
	ctx := context.Background()

	writer, err := natskv.Open(ctx, natskv.Config{URL: srv.ClientURL(), Bucket: "ledger"})
	if err != nil {
		t.Fatalf("Open writer: %v", err)
	}
	defer writer.Close()
	reader, err := natskv.Open(ctx, natskv.Config{URL: srv.ClientURL(), Bucket: "ledger"})
	if err != nil {
		t.Fatalf("Open reader: %v", err)
	}
	defer reader.Close()

	if err := writer.Put(ctx, "SN-2", []byte("device")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	value, err := reader.Get(ctx, "SN-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(value) != "device" {
		t.Errorf("Get = %q, want %q", value, "device")
	}
}
