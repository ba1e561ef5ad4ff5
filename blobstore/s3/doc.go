// Package s3 provides an S3 implementation of blobstore.BlobStore.
//
//	store, err := s3.New(ctx, "my-bucket", s3.WithPrefix("tables/"))
//	blob, err := store.Open(ctx, "shard-0.sst")
//	table, err := sstable.Open(ctx, blob)
//
// Reads are ranged GETs, so only the footer, the block index and the blocks
// a query touches are fetched. Uploads use the multipart upload manager.
package s3
