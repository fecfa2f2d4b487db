package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"betpool/internal/domain"
)

// ArchiveImpl implements domain.Archiver by querying the journal and
// snapshot stores for aged rows, serializing them to JSONL, and uploading
// the result to object storage.
//
// Deletion of the archived rows from the primary store is intentionally NOT
// performed here; the pipeline runs it as a separate, explicit step after
// the upload has succeeded.
type ArchiveImpl struct {
	writer    domain.BlobWriter
	records   domain.RecordStore
	snapshots domain.SnapshotStore
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, records domain.RecordStore, snapshots domain.SnapshotStore) *ArchiveImpl {
	return &ArchiveImpl{
		writer:    writer,
		records:   records,
		snapshots: snapshots,
	}
}

// ArchiveRecords queries all journal records before the cutoff, serializes
// them to JSONL, and uploads the file under archive/records/ at a key unique
// to this cutoff. The count of archived rows is returned.
func (a *ArchiveImpl) ArchiveRecords(ctx context.Context, before time.Time) (int64, error) {
	recs, err := a.records.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive records query: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(recs)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive records marshal: %w", err)
	}

	path := archivePath("records", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive records upload: %w", err)
	}

	return int64(len(recs)), nil
}

// ArchiveSnapshots queries all market snapshots before the cutoff,
// serializes them to JSONL, and uploads the file under archive/snapshots/ at
// a key unique to this cutoff. The count of archived rows is returned.
func (a *ArchiveImpl) ArchiveSnapshots(ctx context.Context, before time.Time) (int64, error) {
	snaps, err := a.snapshots.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive snapshots query: %w", err)
	}
	if len(snaps) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(snaps)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive snapshots marshal: %w", err)
	}

	path := archivePath("snapshots", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive snapshots upload: %w", err)
	}

	return int64(len(snaps)), nil
}

// archivePath builds the object key for an archive file, partitioned by the
// year-month of the cutoff and named after the full cutoff timestamp. Each
// run writes a distinct object, so a later run in the same month never
// overwrites what an earlier run exported (and what pruning may since have
// removed from the primary store).
//
//	archive/records/2025-01/20250114T060000Z.jsonl
//	archive/snapshots/2025-01/20250114T060000Z.jsonl
func archivePath(kind string, before time.Time) string {
	b := before.UTC()
	return fmt.Sprintf("archive/%s/%s/%s.jsonl", kind, b.Format("2006-01"), b.Format("20060102T150405Z"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
