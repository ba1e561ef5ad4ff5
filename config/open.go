package config

import (
	"context"
	"fmt"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/termexp/blobstore"
	miniostore "github.com/hupe1980/termexp/blobstore/minio"
	s3store "github.com/hupe1980/termexp/blobstore/s3"
	"github.com/hupe1980/termexp/kv"
	"github.com/hupe1980/termexp/kv/badgerkv"
	"github.com/hupe1980/termexp/kv/dynamo"
	"github.com/hupe1980/termexp/kv/sstable"
	"github.com/hupe1980/termexp/resource"
)

// OpenTables opens the table of every configured shard, in order. On error
// the tables opened so far are closed.
//
// Remote tables keep using ctx for their reads, so it must outlive them.
func (c *Config) OpenTables(ctx context.Context, rc *resource.Controller) ([]kv.Table, error) {
	tables := make([]kv.Table, 0, len(c.Shards))
	for i, s := range c.Shards {
		t, err := s.Open(ctx, rc)
		if err != nil {
			CloseTables(tables)
			return nil, fmt.Errorf("shard %d: %w", i, err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// CloseTables closes the tables that implement io.Closer.
func CloseTables(tables []kv.Table) {
	for _, t := range tables {
		if c, ok := t.(io.Closer); ok {
			_ = c.Close()
		}
	}
}

// Open opens the table described by s.
func (s ShardConfig) Open(ctx context.Context, rc *resource.Controller) (kv.Table, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	withController := func(o *sstable.ReadOptions) { o.Controller = rc }

	switch s.Backend {
	case BackendMemory:
		return kv.NewMemTable(), nil
	case BackendBadger:
		return badgerkv.Open(s.Path)
	case BackendSSTable:
		return sstable.OpenFile(ctx, s.Path, withController)
	case BackendS3:
		store, err := s3store.New(ctx, s.Bucket, s3store.WithPrefix(s.Prefix), s3store.WithRegion(s.Region))
		if err != nil {
			return nil, err
		}
		return OpenBlobTable(ctx, store, s.Object, rc)
	case BackendMinIO:
		client, err := minio.New(s.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(s.AccessKey, s.SecretKey, ""),
			Secure: s.UseSSL,
			Region: s.Region,
		})
		if err != nil {
			return nil, err
		}
		return OpenBlobTable(ctx, miniostore.NewStore(client, s.Bucket, s.Prefix), s.Object, rc)
	case BackendDynamo:
		var cfgOpts []func(*awsconfig.LoadOptions) error
		if s.Region != "" {
			cfgOpts = append(cfgOpts, awsconfig.WithRegion(s.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, cfgOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return dynamo.New(ctx, dynamodb.NewFromConfig(cfg), s.Table, s.Namespace, func(o *dynamo.Options) {
			o.ConsistentRead = s.ConsistentRead
		}), nil
	}
	return nil, fmt.Errorf("unknown backend %q", s.Backend)
}

// OpenBlobTable opens the sstable stored as blob name in store. The blob is
// closed with the table.
func OpenBlobTable(ctx context.Context, store blobstore.BlobStore, name string, rc *resource.Controller) (*sstable.Table, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", name, err)
	}
	t, err := sstable.Open(ctx, blob, func(o *sstable.ReadOptions) {
		o.Controller = rc
		o.Closer = blob
	})
	if err != nil {
		_ = blob.Close()
		return nil, err
	}
	return t, nil
}

// UploadTable writes every entry of table as an sstable blob named name.
// Writes are throttled by rc. A failed upload deletes the partial blob.
func UploadTable(ctx context.Context, store blobstore.BlobStore, name string, table kv.Table, rc *resource.Controller, optFns ...func(*sstable.Options)) (uint64, error) {
	w, err := store.Create(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create blob %s: %w", name, err)
	}

	n, err := sstable.Copy(resource.NewRateLimitedWriter(ctx, w, rc), table, optFns...)
	if err != nil {
		_ = w.Close()
		_ = store.Delete(ctx, name)
		return 0, fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		_ = store.Delete(ctx, name)
		return 0, fmt.Errorf("upload %s: %w", name, err)
	}
	return n, nil
}
