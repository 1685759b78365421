// Package blobstore provides the storage abstraction the fleet coordination
// layer runs on.
//
// Store is a plain key-value contract over an object store: read, write,
// delete, list. No conditional writes or locks are assumed; optimistic
// concurrency is implemented above this layer via document version comparison.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory, for tests
//   - LocalStore: local filesystem with atomic replace
//   - s3.Store: Amazon S3
//   - minio.Store: MinIO and S3-compatible endpoints (R2, GCS interop)
//   - dynamo.Store: DynamoDB table, for fleets without an object bucket
//
// # Custom Implementations
//
// Implement the Store interface to support custom storage backends:
//
//	type Store interface {
//	    Get(ctx, name) ([]byte, error)   // ErrNotFound if absent
//	    Put(ctx, name, data) error       // Atomic replace
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
