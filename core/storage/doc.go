// Package storage wraps the MinIO client for S3 compatible object storage.
//
// The Client interface covers the operations the state store needs and is
// mocked in core/storage/mocks. NewClient applies strict transport timeouts;
// EnsureBucket creates the configured bucket on first use.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	if err != nil {
//	    return err
//	}
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
