// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot writes a store's complete contents to a portable
// file and loads such a file into an empty (or disjoint) store.
//
// A snapshot is a 9-byte header followed by a CBOR sequence:
//
//	"REGSNAP" | version (1 byte, currently 1) | compression (1 byte)
//	{"k": key, "v": value}          one frame per pair, ascending keys
//	...
//	{"end": {"count": n, "fingerprint": h}}
//
// Everything after the header is compressed as a single stream when
// the compression byte is not zero. The trailer carries the pair count
// and the [statedigest] fingerprint of the pairs, so a reader detects
// truncation, reordering, and corruption before touching the target
// store. Values are copied byte for byte: a snapshot of a replica
// restores to a store with the same fingerprint.
package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/registry/lib/codec"
	"github.com/bureau-foundation/registry/lib/kv"
	"github.com/bureau-foundation/registry/lib/registry"
	"github.com/bureau-foundation/registry/lib/statedigest"
)

const (
	magic   = "REGSNAP"
	version = 1

	headerLength = len(magic) + 2
)

// ErrCorrupt is wrapped by every error that reports a malformed or
// inconsistent snapshot.
var ErrCorrupt = errors.New("snapshot: corrupt")

// Options configures [Export].
type Options struct {
	Compression Compression

	// Logger receives a summary line. Nil discards it.
	Logger *slog.Logger
}

type frame struct {
	Key   string   `cbor:"k,omitempty"`
	Value []byte   `cbor:"v,omitempty"`
	End   *trailer `cbor:"end,omitempty"`
}

type trailer struct {
	Count       uint64 `cbor:"count"`
	Fingerprint []byte `cbor:"fingerprint"`
}

// Export writes every pair in store to w.
func Export(ctx context.Context, store kv.Store, w io.Writer, options Options) (statedigest.Result, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// The compressors write nothing until the first frame, so the
	// header still lands first.
	compressor, err := newCompressor(w, options.Compression)
	if err != nil {
		return statedigest.Result{}, err
	}
	header := append([]byte(magic), version, byte(options.Compression))
	if _, err := w.Write(header); err != nil {
		compressor.Close()
		return statedigest.Result{}, fmt.Errorf("writing snapshot header: %w", err)
	}
	encoder := codec.NewEncoder(compressor)
	hasher := statedigest.NewHasher()

	err = store.Scan(ctx, "", "", func(key string, value []byte) error {
		if err := hasher.Add(key, value); err != nil {
			return err
		}
		return encoder.Encode(frame{Key: key, Value: value})
	})
	if err != nil {
		compressor.Close()
		return statedigest.Result{}, fmt.Errorf("writing snapshot frames: %w", err)
	}

	result := hasher.Result()
	end := frame{End: &trailer{Count: result.Count, Fingerprint: result.Fingerprint[:]}}
	if err := encoder.Encode(end); err != nil {
		compressor.Close()
		return statedigest.Result{}, fmt.Errorf("writing snapshot trailer: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return statedigest.Result{}, fmt.Errorf("flushing snapshot: %w", err)
	}

	logger.Info("snapshot exported",
		"pairs", result.Count,
		"fingerprint", result.Fingerprint.String(),
		"compression", options.Compression.String(),
	)
	return result, nil
}

// Contents is a fully read and verified snapshot.
type Contents struct {
	Compression Compression
	Pairs       []kv.Pair
	Result      statedigest.Result
}

// Read reads and verifies a whole snapshot without writing anywhere.
func Read(r io.Reader) (*Contents, error) {
	header := make([]byte, headerLength)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrCorrupt, err)
	}
	if !bytes.Equal(header[:len(magic)], []byte(magic)) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorrupt, header[:len(magic)])
	}
	if header[len(magic)] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, header[len(magic)])
	}
	compression := Compression(header[len(magic)+1])

	stream, release, err := newDecompressor(r, compression)
	if err != nil {
		return nil, err
	}
	defer release()

	decoder := codec.NewDecoder(stream)
	hasher := statedigest.NewHasher()
	contents := &Contents{Compression: compression}

	for {
		var item frame
		if err := decoder.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: truncated before trailer after %d pairs", ErrCorrupt, hasher.Count())
			}
			return nil, fmt.Errorf("%w: frame %d: %v", ErrCorrupt, hasher.Count(), err)
		}

		if item.End != nil {
			if item.Key != "" || item.Value != nil {
				return nil, fmt.Errorf("%w: trailer carries a pair", ErrCorrupt)
			}
			if err := verifyTrailer(item.End, hasher.Result()); err != nil {
				return nil, err
			}
			break
		}

		if err := hasher.Add(item.Key, item.Value); err != nil {
			return nil, fmt.Errorf("%w: frame %d: %v", ErrCorrupt, hasher.Count(), err)
		}
		if item.Value == nil {
			item.Value = []byte{}
		}
		contents.Pairs = append(contents.Pairs, kv.Pair{Key: item.Key, Value: item.Value})
	}

	var extra frame
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: data after trailer", ErrCorrupt)
	}

	contents.Result = hasher.Result()
	return contents, nil
}

func verifyTrailer(end *trailer, computed statedigest.Result) error {
	if end.Count != computed.Count {
		return fmt.Errorf("%w: trailer count %d, read %d pairs", ErrCorrupt, end.Count, computed.Count)
	}
	if !bytes.Equal(end.Fingerprint, computed.Fingerprint[:]) {
		return fmt.Errorf("%w: fingerprint mismatch (trailer %x, computed %s)", ErrCorrupt, end.Fingerprint, computed.Fingerprint)
	}
	return nil
}

// Import loads a snapshot into store. The whole snapshot is read and
// verified, and every key is checked to be absent from store, before
// the first write. A key already present fails the import with
// [registry.AlreadyExistsError] and nothing is written.
func Import(ctx context.Context, store kv.Store, r io.Reader, logger *slog.Logger) (statedigest.Result, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	contents, err := Read(r)
	if err != nil {
		return statedigest.Result{}, err
	}

	for _, pair := range contents.Pairs {
		existing, err := store.Get(ctx, pair.Key)
		if err != nil {
			return statedigest.Result{}, &registry.StoreError{Op: "get", Key: pair.Key, Err: err}
		}
		if len(existing) > 0 {
			return statedigest.Result{}, &registry.AlreadyExistsError{Key: pair.Key}
		}
	}

	for _, pair := range contents.Pairs {
		if err := store.Put(ctx, pair.Key, pair.Value); err != nil {
			return statedigest.Result{}, &registry.StoreError{Op: "put", Key: pair.Key, Err: err}
		}
	}

	logger.Info("snapshot imported",
		"pairs", contents.Result.Count,
		"fingerprint", contents.Result.Fingerprint.String(),
		"compression", contents.Compression.String(),
	)
	return contents.Result, nil
}
