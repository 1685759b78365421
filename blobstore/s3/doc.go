// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// Coordination documents are small, so reads and writes use plain
// GetObject/PutObject calls. S3 PUT is atomic per key: readers see either
// the previous document or the new one, never a partial write.
package s3
