package scanner

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/logger"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/metrics"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/utils"
)

// ReconcileResult carries the aggregate counts for one reconciliation run.
// Returned by value from Reconcile; there is no shared counter state.
type ReconcileResult struct {
	Created             int `json:"created"`
	Updated             int `json:"updated"`
	Skipped             int `json:"skipped"`
	Failed              int `json:"failed"`
	ThumbnailsGenerated int `json:"thumbnails_generated"`
}

// videoThumbnailBudget caps video thumbnail generation per scan run to
// bound processing time. Images are unlimited.
const defaultVideoThumbnailBudget = 100

// siblingBatchSize caps IN-list sizes for batched sibling updates
const siblingBatchSize = 100

// Reconciler applies a scan result to the catalog: create/update/skip per
// file, keyed by the deterministic asset ID.
type Reconciler struct {
	db          *gorm.DB
	thumbnailer *Thumbnailer
	videoBudget int
}

// NewReconciler returns a reconciler. thumbnailer may be nil when
// thumbnail generation is disabled. videoBudget <= 0 uses the default cap.
func NewReconciler(db *gorm.DB, thumbnailer *Thumbnailer, videoBudget int) *Reconciler {
	if videoBudget <= 0 {
		videoBudget = defaultVideoThumbnailBudget
	}
	return &Reconciler{db: db, thumbnailer: thumbnailer, videoBudget: videoBudget}
}

// Reconcile processes clip groups for one drive. Per-file failures are
// swallowed into the failed counter; only drive-level problems return an
// error. After all groups, the drive's lastScanned, space totals, and file
// count are persisted.
func (r *Reconciler) Reconcile(ctx context.Context, drive *database.StorageDrive, groups []*ClipGroup, scan *ScanResult) (*ReconcileResult, error) {
	result := &ReconcileResult{Failed: len(scan.Failures)}
	videoBudgetLeft := r.videoBudget

	for _, group := range groups {
		r.reconcileGroup(ctx, drive, group, result, &videoBudgetLeft)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"last_scanned": now,
		"file_count":   int64(scan.Summary.TotalFiles),
		"status":       database.DriveStatusActive,
	}
	if scan.DriveInfo.TotalBytes > 0 {
		updates["total_bytes"] = scan.DriveInfo.TotalBytes
		updates["used_bytes"] = scan.DriveInfo.UsedBytes
		updates["free_bytes"] = scan.DriveInfo.FreeBytes
	}
	if scan.DriveInfo.Filesystem != "" {
		updates["filesystem"] = scan.DriveInfo.Filesystem
	}
	if err := r.db.Model(&database.StorageDrive{}).Where("id = ?", drive.ID).Updates(updates).Error; err != nil {
		return result, err
	}

	metrics.AssetsReconciled.WithLabelValues("created").Add(float64(result.Created))
	metrics.AssetsReconciled.WithLabelValues("updated").Add(float64(result.Updated))
	metrics.AssetsReconciled.WithLabelValues("skipped").Add(float64(result.Skipped))
	metrics.AssetsReconciled.WithLabelValues("failed").Add(float64(result.Failed))

	return result, nil
}

// reconcileGroup upserts every member of a clip group, then generates one
// thumbnail for the representative and propagates it to all siblings in
// batched updates.
func (r *Reconciler) reconcileGroup(ctx context.Context, drive *database.StorageDrive, group *ClipGroup, result *ReconcileResult, videoBudgetLeft *int) {
	assetIDs := make([]string, 0, len(group.Members))

	for _, rec := range group.Members {
		assetID, err := r.upsertAsset(drive, rec)
		if err != nil {
			logger.Warn("Failed to catalog %s: %v", rec.RelPath, err)
			result.Failed++
			continue
		}
		assetIDs = append(assetIDs, assetID.id)
		if assetID.created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	if r.thumbnailer == nil || len(assetIDs) == 0 {
		return
	}

	rep := group.Representative()
	switch rep.MediaType {
	case database.MediaTypeVideo:
		if *videoBudgetLeft <= 0 {
			return
		}
	case database.MediaTypeImage:
		// unlimited
	default:
		return
	}

	repID := utils.AssetID(drive.ID, rep.RelPath, rep.Hash)
	thumbPath, err := r.thumbnailer.Generate(ctx, repID, rep)
	if err != nil {
		// Thumbnail failure never unwinds the catalog insertion
		logger.Warn("Thumbnail generation failed for %s: %v", rep.RelPath, err)
		return
	}

	if rep.MediaType == database.MediaTypeVideo {
		*videoBudgetLeft--
	}
	result.ThumbnailsGenerated++
	metrics.ThumbnailsGenerated.WithLabelValues(string(rep.MediaType)).Inc()

	// One batched write per chunk of siblings instead of N single-row
	// updates; chunked to respect parameter-count limits
	for start := 0; start < len(assetIDs); start += siblingBatchSize {
		end := start + siblingBatchSize
		if end > len(assetIDs) {
			end = len(assetIDs)
		}
		if err := r.db.Model(&database.MediaAsset{}).
			Where("id IN ?", assetIDs[start:end]).
			Update("thumbnail_path", thumbPath).Error; err != nil {
			logger.Warn("Failed to propagate thumbnail to clip siblings: %v", err)
		}
	}
}

type upsertOutcome struct {
	id      string
	created bool
}

// upsertAsset creates or refreshes the catalog row for one file record.
// Lookup tries the deterministic ID first, then the legacy
// (drive, path, hash) triple for records created before the ID scheme.
func (r *Reconciler) upsertAsset(drive *database.StorageDrive, rec *FileRecord) (*upsertOutcome, error) {
	assetID := utils.AssetID(drive.ID, rec.RelPath, rec.Hash)
	now := time.Now()

	var existing database.MediaAsset
	err := r.db.Where("id = ?", assetID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		err = r.db.Where("drive_id = ? AND path = ? AND hash = ?", drive.ID, rec.RelPath, rec.Hash).
			First(&existing).Error
	}

	if err == nil {
		// Shallow merge: extractor keys overwrite, prior unknown keys survive
		merged := existing.Metadata
		if merged == nil {
			merged = database.JSONMap{}
		}
		for k, v := range rec.Metadata {
			merged[k] = v
		}

		updates := map[string]interface{}{
			"last_seen":  now,
			"size_bytes": rec.Size,
			"metadata":   merged,
			"clip_key":   rec.ClipKey,
			"status":     database.AssetStatusActive,
		}
		if updateErr := r.db.Model(&database.MediaAsset{}).Where("id = ?", existing.ID).Updates(updates).Error; updateErr != nil {
			return nil, updateErr
		}
		return &upsertOutcome{id: existing.ID}, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	modified := rec.Modified
	asset := database.MediaAsset{
		ID:           assetID,
		Type:         rec.MediaType,
		Filename:     rec.Filename,
		Path:         rec.RelPath,
		Extension:    rec.Extension,
		SizeBytes:    rec.Size,
		DriveID:      drive.ID,
		DriveName:    drive.Name,
		Hash:         rec.Hash,
		FileModified: &modified,
		IngestedAt:   now,
		LastSeen:     now,
		Metadata:     database.JSONMap(rec.Metadata),
		ProjectID:    drive.ProjectID,
		Status:       database.AssetStatusActive,
		ClipKey:      rec.ClipKey,
	}
	if createErr := r.db.Create(&asset).Error; createErr != nil {
		return nil, createErr
	}
	return &upsertOutcome{id: assetID, created: true}, nil
}
