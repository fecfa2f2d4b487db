// Package pipeline contains background workers that run alongside the
// settlement engine.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"betpool/internal/domain"
)

// Archiver moves aged journal rows from the database to object storage.
type Archiver struct {
	blobArchiver  domain.Archiver
	records       domain.RecordStore
	snapshots     domain.SnapshotStore
	retentionDays int
	deleteAfter   bool
	logger        *slog.Logger
	now           func() time.Time
}

// NewArchiver creates a new Archiver. When deleteAfter is true, archived
// rows are deleted from the primary store once the upload has succeeded.
func NewArchiver(
	blobArchiver domain.Archiver,
	records domain.RecordStore,
	snapshots domain.SnapshotStore,
	retentionDays int,
	deleteAfter bool,
	logger *slog.Logger,
) *Archiver {
	return &Archiver{
		blobArchiver:  blobArchiver,
		records:       records,
		snapshots:     snapshots,
		retentionDays: retentionDays,
		deleteAfter:   deleteAfter,
		logger:        logger,
		now:           time.Now,
	}
}

// Run executes a single archive run. It calculates the cutoff from
// retentionDays and archives journal records and market snapshots older than
// the cutoff.
func (a *Archiver) Run(ctx context.Context) error {
	cutoff := a.now().UTC().Add(-time.Duration(a.retentionDays) * 24 * time.Hour)
	a.logger.Info("starting archive run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", a.retentionDays),
	)

	recordsArchived, err := a.blobArchiver.ArchiveRecords(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving records before %v: %w", cutoff, err)
	}

	snapsArchived, err := a.blobArchiver.ArchiveSnapshots(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving snapshots before %v: %w", cutoff, err)
	}

	if a.deleteAfter {
		if recordsArchived > 0 {
			deleted, err := a.records.DeleteBefore(ctx, cutoff)
			if err != nil {
				return fmt.Errorf("pruning records before %v: %w", cutoff, err)
			}
			a.logger.Info("pruned archived records", slog.Int64("deleted", deleted))
		}
		if snapsArchived > 0 {
			deleted, err := a.snapshots.DeleteBefore(ctx, cutoff)
			if err != nil {
				return fmt.Errorf("pruning snapshots before %v: %w", cutoff, err)
			}
			a.logger.Info("pruned archived snapshots", slog.Int64("deleted", deleted))
		}
	}

	a.logger.Info("archive run complete",
		slog.Int64("records_archived", recordsArchived),
		slog.Int64("snapshots_archived", snapsArchived),
	)

	return nil
}

// RunInterval runs the archiver on a fixed interval until the context is
// cancelled. A failed run is logged and the ticker keeps going.
func (a *Archiver) RunInterval(ctx context.Context, interval time.Duration) error {
	a.logger.Info("archiver started", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("archiver stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := a.Run(ctx); err != nil {
				a.logger.Error("archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}
