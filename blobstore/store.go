package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a key does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for reading and writing small documents in a
// remote key-value object store.
//
// Writes are last-writer-wins whole-document replacements. The contract
// deliberately excludes compare-and-swap: commodity object stores do not
// offer it uniformly, and the coordination layer above detects concurrent
// writers through a version counter instead.
type Store interface {
	// Get returns the full content of the named document.
	// Returns ErrNotFound if the document does not exist.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put atomically replaces the named document.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, name string) error

	// List returns all document names matching the prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
