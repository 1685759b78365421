// Package minio provides a blobstore.Store implementation for MinIO and
// S3-compatible endpoints (Cloudflare R2, GCS interoperability mode).
package minio
