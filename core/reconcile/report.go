package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"ecomm-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// ReportArchiver writes pass summaries as JSON objects to object storage.
// Objects are named <prefix>/<adapter>/<started_at>.json.
type ReportArchiver struct {
	client storage.Client
	bucket string
	prefix string
}

// NewReportArchiver creates an archiver for the given bucket and prefix.
func NewReportArchiver(client storage.Client, bucket, prefix string) *ReportArchiver {
	return &ReportArchiver{client: client, bucket: bucket, prefix: prefix}
}

// ObjectName returns the object key used for a summary.
func (a *ReportArchiver) ObjectName(summary *PassSummary) string {
	stamp := summary.StartedAt.UTC().Format("20060102T150405.000Z")
	return path.Join(a.prefix, summary.Adapter, stamp+".json")
}

// Archive implements Archiver.
func (a *ReportArchiver) Archive(ctx context.Context, summary *PassSummary) error {
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode pass summary: %w", err)
	}

	name := a.ObjectName(summary)
	_, err = a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to upload pass summary %s: %w", name, err)
	}
	return nil
}
