package drivemodule

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/errors"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/utils"
)

var testDBCounter int

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBCounter++
	dsn := fmt.Sprintf("file:drive_test_%d?mode=memory&cache=shared", testDBCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestRegisterDrive(t *testing.T) {
	db := newTestDB(t)
	mount := t.TempDir()

	drive, err := RegisterDrive(db, mount, "archive-07", "WX1234")
	require.NoError(t, err)

	assert.True(t, utils.IsValidUUID(drive.ID))
	assert.Equal(t, "archive-07", drive.Name)
	assert.Equal(t, database.DriveStatusActive, drive.Status)
	assert.Equal(t, "Unknown", drive.Location)
	assert.Greater(t, drive.TotalBytes, int64(0), "probe fills space totals")

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(drive.QRPayload), &payload))
	assert.Equal(t, drive.ID, payload["id"])
	assert.Equal(t, "archive-07", payload["label"])
}

func TestRegisterDriveDefaultsNameFromPath(t *testing.T) {
	db := newTestDB(t)
	mount := t.TempDir()

	drive, err := RegisterDrive(db, mount, "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, drive.Name)
}

func TestRegisterDriveDuplicateSerialConflicts(t *testing.T) {
	db := newTestDB(t)

	_, err := RegisterDrive(db, t.TempDir(), "first", "WX1234")
	require.NoError(t, err)

	_, err = RegisterDrive(db, t.TempDir(), "second", "WX1234")
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
}

func TestRegisterDriveValidation(t *testing.T) {
	db := newTestDB(t)
	_, err := RegisterDrive(db, "", "name", "")
	assert.True(t, errors.IsValidation(err))
}

func TestDeleteDriveRequiresForceWhileAssetsExist(t *testing.T) {
	db := newTestDB(t)
	drive, err := RegisterDrive(db, t.TempDir(), "archive-07", "")
	require.NoError(t, err)

	asset := database.MediaAsset{
		ID:       utils.GenerateUUID(),
		Type:     database.MediaTypeVideo,
		Filename: "clip.mov",
		Path:     "footage/clip.mov",
		DriveID:  drive.ID,
		Status:   database.AssetStatusActive,
	}
	require.NoError(t, db.Create(&asset).Error)

	err = DeleteDrive(db, drive.ID, false)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	require.NoError(t, DeleteDrive(db, drive.ID, true))

	var reloaded database.MediaAsset
	require.NoError(t, db.Where("id = ?", asset.ID).First(&reloaded).Error)
	assert.Equal(t, database.AssetStatusDeleted, reloaded.Status, "forced delete soft-deletes assets")

	var count int64
	db.Model(&database.StorageDrive{}).Where("id = ?", drive.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDeleteDriveVacatesLocation(t *testing.T) {
	db := newTestDB(t)
	drive, err := RegisterDrive(db, t.TempDir(), "archive-07", "")
	require.NoError(t, err)

	loc := database.PhysicalLocation{
		ID: utils.GenerateUUID(), Bay: 1, Shelf: 1, Position: 1,
		Status: database.LocationStatusOccupied, OccupiedBy: drive.ID,
	}
	require.NoError(t, db.Create(&loc).Error)

	require.NoError(t, DeleteDrive(db, drive.ID, false))

	var reloaded database.PhysicalLocation
	require.NoError(t, db.Where("id = ?", loc.ID).First(&reloaded).Error)
	assert.Equal(t, database.LocationStatusEmpty, reloaded.Status)
	assert.Empty(t, reloaded.OccupiedBy)
}

func TestDeleteDriveNotFound(t *testing.T) {
	db := newTestDB(t)
	assert.True(t, errors.IsNotFound(DeleteDrive(db, "missing", false)))
}

func TestRecordHealthCheckMirrorsDrive(t *testing.T) {
	db := newTestDB(t)
	drive, err := RegisterDrive(db, t.TempDir(), "archive-07", "")
	require.NoError(t, err)

	check := &database.DriveHealthCheck{
		CheckType:    "smart",
		SmartStatus:  "PASSED",
		TemperatureC: 38,
		Passed:       true,
	}
	require.NoError(t, RecordHealthCheck(db, drive.ID, check))

	var reloaded database.StorageDrive
	require.NoError(t, db.Where("id = ?", drive.ID).First(&reloaded).Error)
	assert.Equal(t, "PASSED", reloaded.SmartStatus)
	assert.Equal(t, 38, reloaded.TemperatureC)
	assert.Equal(t, database.DriveStatusActive, reloaded.Status)

	// A failed check flags the drive as damaged
	failing := &database.DriveHealthCheck{
		CheckType:      "smart",
		SmartStatus:    "FAILING",
		Passed:         false,
		Recommendation: "migrate contents and retire",
	}
	require.NoError(t, RecordHealthCheck(db, drive.ID, failing))

	require.NoError(t, db.Where("id = ?", drive.ID).First(&reloaded).Error)
	assert.Equal(t, database.DriveStatusDamaged, reloaded.Status)

	var checks []database.DriveHealthCheck
	require.NoError(t, db.Where("drive_id = ?", drive.ID).Find(&checks).Error)
	assert.Len(t, checks, 2)
}
