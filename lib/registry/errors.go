// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/registry/lib/codec"
)

// ErrEmptyKey is returned by Create for the empty key, which is
// reserved as the open bound of a range scan.
var ErrEmptyKey = errors.New("registry: empty key")

// EncodingError reports a record with no canonical encoding.
type EncodingError = codec.EncodingError

// AlreadyExistsError is returned by Create when the key is already
// present. The stored value is left untouched.
type AlreadyExistsError struct {
	Key string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("registry: %s already exists", e.Key)
}

// NotFoundError is returned when a key is absent or no record carries
// the wanted attribute value. Exactly one of Key and Attribute is set.
type NotFoundError struct {
	Key       string
	Attribute string
	Value     string
}

func (e *NotFoundError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("registry: no record with %s = %q", e.Attribute, e.Value)
	}
	return fmt.Sprintf("registry: %s does not exist", e.Key)
}

// StoreError wraps a failure of the underlying store unmodified.
type StoreError struct {
	// Op is "get", "put", or "scan".
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("registry: store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("registry: store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// DecodeError reports a stored value that is not a valid record.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("registry: decoding value at %q: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsAlreadyExists reports whether err is or wraps an *AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var existsErr *AlreadyExistsError
	return errors.As(err, &existsErr)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}
