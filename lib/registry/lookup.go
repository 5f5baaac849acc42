// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"

	"github.com/bureau-foundation/registry/lib/kv"
	"github.com/bureau-foundation/registry/lib/record"
)

// FindByAttribute returns the first record, in ascending key order,
// whose attribute name equals value. Entries that fail to decode never
// match.
func (r *Registry) FindByAttribute(ctx context.Context, store kv.Store, name, value string) (record.Record, error) {
	entries, err := r.ListAll(ctx, store)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.Record == nil {
			continue
		}
		if got, ok := entry.Record.Attribute(name); ok && got == value {
			return entry.Record, nil
		}
	}
	return nil, &NotFoundError{Attribute: name, Value: value}
}

// ExistsByAttribute reports whether any record's attribute name equals
// value.
func (r *Registry) ExistsByAttribute(ctx context.Context, store kv.Store, name, value string) (bool, error) {
	_, err := r.FindByAttribute(ctx, store, name, value)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
