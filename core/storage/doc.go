// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client so that reconciliation pass reports can be
// archived to AWS S3 or a self-hosted MinIO instance.
//
// # Client Interface
//
// The Client interface is intentionally small (bucket checks and uploads) and
// is mocked in core/storage/mocks for unit tests.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
