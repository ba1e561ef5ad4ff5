// Package blobstore abstracts where immutable table files live.
//
// Built-in implementations:
//
//   - LocalStore: local file system, blobs are memory-mapped
//   - MemoryStore: in-process map, for tests
//   - s3.Store: Amazon S3 with ranged reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// Blobs implement io.ReaderAt and Size, so an sstable can be opened directly
// on any of them.
package blobstore
