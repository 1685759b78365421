package blobstore

import (
	"context"
	"fmt"

	"github.com/hupe1980/vecfleet/codec"
)

// DocumentStore wraps a Store with codec-based JSON document access.
// This is the contract the config coordinator consumes.
type DocumentStore struct {
	store Store
	codec codec.Codec
}

// NewDocumentStore creates a DocumentStore on top of any Store.
// If c is nil, codec.Default is used.
func NewDocumentStore(store Store, c codec.Codec) *DocumentStore {
	if c == nil {
		c = codec.Default
	}
	return &DocumentStore{store: store, codec: c}
}

// GetJSON reads and decodes the named document into v.
// Returns ErrNotFound if the document does not exist.
func (d *DocumentStore) GetJSON(ctx context.Context, name string, v any) error {
	data, err := d.store.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := d.codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// PutJSON encodes v and atomically replaces the named document.
func (d *DocumentStore) PutJSON(ctx context.Context, name string, v any) error {
	data, err := d.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return d.store.Put(ctx, name, data)
}

// Store returns the underlying Store.
func (d *DocumentStore) Store() Store {
	return d.store
}

// Codec returns the codec used for document encoding.
func (d *DocumentStore) Codec() codec.Codec {
	return d.codec
}
