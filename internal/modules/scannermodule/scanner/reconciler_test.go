package scanner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/utils"
)

var testDBCounter int

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBCounter++
	dsn := fmt.Sprintf("file:reconciler_test_%d?mode=memory&cache=shared", testDBCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func testDrive(t *testing.T, db *gorm.DB) *database.StorageDrive {
	t.Helper()
	drive := &database.StorageDrive{
		ID:       utils.GenerateUUID(),
		Name:     "archive-01",
		Path:     "/mnt/archive-01",
		Location: "Unknown",
		Status:   database.DriveStatusActive,
	}
	require.NoError(t, db.Create(drive).Error)
	return drive
}

func testRecords(n int) []*FileRecord {
	recs := make([]*FileRecord, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, &FileRecord{
			RelPath:   fmt.Sprintf("footage/clip%d.mov", i),
			Filename:  fmt.Sprintf("clip%d.mov", i),
			Extension: "mov",
			Size:      int64(1000 * (i + 1)),
			Modified:  time.Now().Add(-time.Hour),
			MediaType: database.MediaTypeVideo,
			Hash:      fmt.Sprintf("hash-%d", i),
			Metadata:  map[string]interface{}{"codec": "prores"},
		})
	}
	return recs
}

func scanResultFor(recs []*FileRecord) *ScanResult {
	return &ScanResult{
		Files: recs,
		Summary: ScanSummary{
			TotalFiles: len(recs),
			ByType:     map[database.MediaType]int{database.MediaTypeVideo: len(recs)},
		},
		DriveInfo: DriveInfo{TotalBytes: 1 << 40, UsedBytes: 1 << 30, FreeBytes: (1 << 40) - (1 << 30)},
	}
}

func TestReconcileFreshScan(t *testing.T) {
	db := newTestDB(t)
	drive := testDrive(t, db)
	recs := testRecords(3)

	reconciler := NewReconciler(db, nil, 0)
	result, err := reconciler.Reconcile(context.Background(), drive, GroupClips(recs), scanResultFor(recs))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 0, result.Failed)

	var reloaded database.StorageDrive
	require.NoError(t, db.Where("id = ?", drive.ID).First(&reloaded).Error)
	assert.Equal(t, int64(3), reloaded.FileCount)
	assert.NotNil(t, reloaded.LastScanned)
	assert.Equal(t, int64(1<<40), reloaded.TotalBytes)
}

func TestReconcileIdempotentRescan(t *testing.T) {
	db := newTestDB(t)
	drive := testDrive(t, db)
	recs := testRecords(3)

	reconciler := NewReconciler(db, nil, 0)
	_, err := reconciler.Reconcile(context.Background(), drive, GroupClips(recs), scanResultFor(recs))
	require.NoError(t, err)

	// Same unchanged file set again
	second, err := reconciler.Reconcile(context.Background(), drive, GroupClips(testRecords(3)), scanResultFor(testRecords(3)))
	require.NoError(t, err)

	assert.Equal(t, 0, second.Created, "unchanged files never create new rows")
	assert.Equal(t, 3, second.Updated)

	var count int64
	db.Model(&database.MediaAsset{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestReconcileLegacyTripleLookup(t *testing.T) {
	db := newTestDB(t)
	drive := testDrive(t, db)

	// A record created before the deterministic ID scheme: random ID,
	// matching (drive, path, hash) triple
	legacy := database.MediaAsset{
		ID:        utils.GenerateUUID(),
		Type:      database.MediaTypeVideo,
		Filename:  "clip0.mov",
		Path:      "footage/clip0.mov",
		Extension: "mov",
		DriveID:   drive.ID,
		Hash:      "hash-0",
		IngestedAt: time.Now().Add(-24 * time.Hour),
		LastSeen:  time.Now().Add(-24 * time.Hour),
		Status:    database.AssetStatusActive,
		Metadata:  database.JSONMap{"operator": "jane"},
	}
	require.NoError(t, db.Create(&legacy).Error)

	recs := testRecords(1)
	reconciler := NewReconciler(db, nil, 0)
	result, err := reconciler.Reconcile(context.Background(), drive, GroupClips(recs), scanResultFor(recs))
	require.NoError(t, err)

	assert.Equal(t, 0, result.Created, "legacy row is found by the triple lookup")
	assert.Equal(t, 1, result.Updated)

	var reloaded database.MediaAsset
	require.NoError(t, db.Where("id = ?", legacy.ID).First(&reloaded).Error)
	// Shallow merge: extractor keys overwrite, prior keys survive
	assert.Equal(t, "prores", reloaded.Metadata["codec"])
	assert.Equal(t, "jane", reloaded.Metadata["operator"])
}

func TestReconcileCountsScanFailures(t *testing.T) {
	db := newTestDB(t)
	drive := testDrive(t, db)

	recs := testRecords(4)
	scan := scanResultFor(recs)
	scan.Failures = []FileFailure{{Path: "/mnt/archive-01/bad.mov", Error: "permission denied"}}

	reconciler := NewReconciler(db, nil, 0)
	result, err := reconciler.Reconcile(context.Background(), drive, GroupClips(recs), scan)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Created)
	assert.Equal(t, 1, result.Failed)
}

func TestAssetIDMatchesReconcilerKey(t *testing.T) {
	db := newTestDB(t)
	drive := testDrive(t, db)
	recs := testRecords(1)

	reconciler := NewReconciler(db, nil, 0)
	_, err := reconciler.Reconcile(context.Background(), drive, GroupClips(recs), scanResultFor(recs))
	require.NoError(t, err)

	expected := utils.AssetID(drive.ID, "footage/clip0.mov", "hash-0")
	var asset database.MediaAsset
	require.NoError(t, db.Where("id = ?", expected).First(&asset).Error)
	assert.Equal(t, drive.ID, asset.DriveID)
}
