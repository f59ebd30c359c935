package scanner

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/config"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/errors"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/events"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/logger"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/metrics"
)

// Manager orchestrates the full scan pipeline for one drive:
// walk -> clip grouping -> reconcile.
type Manager struct {
	db *gorm.DB
}

// NewManager returns a scan manager bound to the database
func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// ScanDrive runs the pipeline for a registered drive. The drive must exist
// and have a mounted path; those are the only fatal errors. Per-file
// failures surface only in the result counters.
func (m *Manager) ScanDrive(ctx context.Context, driveID string, opts ScanOptions) (*ReconcileResult, error) {
	var drive database.StorageDrive
	if err := m.db.Where("id = ?", driveID).First(&drive).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("drive", driveID)
		}
		return nil, errors.NewDatabaseError("load drive", err)
	}
	if drive.Path == "" {
		return nil, errors.NewValidationError("drive has no mount path set", "path")
	}

	cfg := config.Get()
	if len(opts.IgnorePatterns) == 0 {
		opts.IgnorePatterns = cfg.Scanner.IgnorePatterns
	}

	events.Publish(events.Event{
		Type:   events.EventScanStarted,
		Source: "scanner",
		Target: drive.ID,
		Data:   map[string]interface{}{"path": drive.Path},
	})

	start := time.Now()

	extractor := NewExtractor(cfg.Scanner.FastHashThreshold)
	walker := NewWalker(extractor)

	scan, err := walker.Scan(drive.Path, opts)
	if err != nil {
		events.Publish(events.Event{
			Type:    events.EventScanFailed,
			Source:  "scanner",
			Target:  drive.ID,
			Message: err.Error(),
		})
		return nil, err
	}

	groups := GroupClips(scan.Files)

	var thumbnailer *Thumbnailer
	if opts.GenerateThumbnails {
		outDir := opts.ThumbnailsDir
		if outDir == "" {
			outDir = cfg.Thumbnails.OutputDir
		}
		thumbnailer = NewThumbnailer(outDir, cfg.Thumbnails.FFmpegPath, cfg.Thumbnails.RedlinePath,
			cfg.Thumbnails.Width, cfg.Thumbnails.Height)
	}

	reconciler := NewReconciler(m.db, thumbnailer, cfg.Scanner.VideoThumbnailLimit)
	result, err := reconciler.Reconcile(ctx, &drive, groups, scan)
	if err != nil {
		return result, errors.NewDatabaseError("reconcile scan", err)
	}

	elapsed := time.Since(start)
	metrics.ScanDuration.Observe(elapsed.Seconds())

	logger.Info("Scan completed for drive %s: created=%d updated=%d failed=%d thumbnails=%d in %s",
		drive.Name, result.Created, result.Updated, result.Failed, result.ThumbnailsGenerated, elapsed.Round(time.Second))

	events.Publish(events.Event{
		Type:   events.EventScanCompleted,
		Source: "scanner",
		Target: drive.ID,
		Data: map[string]interface{}{
			"created":  result.Created,
			"updated":  result.Updated,
			"failed":   result.Failed,
			"duration": elapsed.String(),
		},
	})

	return result, nil
}
