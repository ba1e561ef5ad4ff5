// Package minio provides a MinIO implementation of blobstore.BlobStore for
// S3-compatible object stores.
package minio
