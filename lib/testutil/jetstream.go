// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// JetStreamServer starts an embedded NATS server on a random loopback
// port with JetStream storage under a test temp directory.
func JetStreamServer(t *testing.T) *server.Server {
	t.Helper()

	srv, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoLog:     true,
		NoSigs:    true,
	})
	if err != nil {
		t.Fatalf("creating NATS server: %v", err)
	}

	go srv.Start()
	t.Cleanup(srv.Shutdown)

	if !srv.ReadyForConnections(10 * time.Second) {
		t.Fatal("embedded NATS server not ready for connections")
	}
	for range 100 {
		if srv.JetStreamEnabled() {
			return srv
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("embedded NATS server not ready for JetStream")
	return nil
}
