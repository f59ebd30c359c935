package archivemodule

import (
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
	dsn := fmt.Sprintf("file:archive_test_%d?mode=memory&cache=shared", testDBCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func makeDrives(t *testing.T, db *gorm.DB) (string, string) {
	t.Helper()
	src := &database.StorageDrive{ID: utils.GenerateUUID(), Name: "src", Status: database.DriveStatusActive}
	dst := &database.StorageDrive{ID: utils.GenerateUUID(), Name: "dst", Status: database.DriveStatusActive}
	require.NoError(t, db.Create(src).Error)
	require.NoError(t, db.Create(dst).Error)
	return src.ID, dst.ID
}

func TestCreateJobPlansWithItems(t *testing.T) {
	db := newTestDB(t)
	src, dst := makeDrives(t, db)

	job, err := CreateJob(db, src, dst, []string{"asset-1", "asset-2"})
	require.NoError(t, err)
	assert.Equal(t, database.ArchiveJobPlanned, job.Status)
	assert.Equal(t, database.VerificationPending, job.VerificationStatus)

	var items []database.ArchiveJobItem
	require.NoError(t, db.Where("job_id = ?", job.ID).Find(&items).Error)
	assert.Len(t, items, 2)

	var logs []database.ArchiveJobLog
	require.NoError(t, db.Where("job_id = ?", job.ID).Find(&logs).Error)
	assert.Len(t, logs, 1, "planning appends a log row")
}

func TestCreateJobValidation(t *testing.T) {
	db := newTestDB(t)
	src, _ := makeDrives(t, db)

	_, err := CreateJob(db, src, src, nil)
	assert.True(t, errors.IsValidation(err), "source and target must differ")

	_, err = CreateJob(db, src, "missing-drive", nil)
	assert.True(t, errors.IsNotFound(err))
}

func TestJobStatusStateMachine(t *testing.T) {
	db := newTestDB(t)
	src, dst := makeDrives(t, db)
	job, err := CreateJob(db, src, dst, nil)
	require.NoError(t, err)

	// planned -> completed skips in-progress, must be rejected
	_, err = TransitionJob(db, job.ID, database.ArchiveJobCompleted, "")
	assert.True(t, errors.IsConflict(err))

	_, err = TransitionJob(db, job.ID, database.ArchiveJobInProgress, "copy started")
	require.NoError(t, err)

	done, err := TransitionJob(db, job.ID, database.ArchiveJobCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, database.ArchiveJobCompleted, done.Status)

	// Terminal states never transition again
	_, err = TransitionJob(db, job.ID, database.ArchiveJobInProgress, "")
	assert.True(t, errors.IsConflict(err))

	var reloaded database.ArchiveJob
	require.NoError(t, db.Where("id = ?", job.ID).First(&reloaded).Error)
	assert.NotNil(t, reloaded.StartedAt)
	assert.NotNil(t, reloaded.CompletedAt)
}

func TestJobCancellableFromPlanned(t *testing.T) {
	db := newTestDB(t)
	src, dst := makeDrives(t, db)
	job, err := CreateJob(db, src, dst, nil)
	require.NoError(t, err)

	cancelled, err := TransitionJob(db, job.ID, database.ArchiveJobCancelled, "not needed")
	require.NoError(t, err)
	assert.Equal(t, database.ArchiveJobCancelled, cancelled.Status)
}

func TestVerificationStateMachine(t *testing.T) {
	db := newTestDB(t)
	src, dst := makeDrives(t, db)
	job, err := CreateJob(db, src, dst, nil)
	require.NoError(t, err)

	// pending -> passed skips in-progress, must be rejected
	_, err = TransitionVerification(db, job.ID, database.VerificationPassed)
	assert.True(t, errors.IsConflict(err))

	_, err = TransitionVerification(db, job.ID, database.VerificationInProgress)
	require.NoError(t, err)
	verified, err := TransitionVerification(db, job.ID, database.VerificationPassed)
	require.NoError(t, err)
	assert.Equal(t, database.VerificationPassed, verified.VerificationStatus)
}

func TestVerificationSkippable(t *testing.T) {
	db := newTestDB(t)
	src, dst := makeDrives(t, db)
	job, err := CreateJob(db, src, dst, nil)
	require.NoError(t, err)

	skipped, err := TransitionVerification(db, job.ID, database.VerificationSkipped)
	require.NoError(t, err)
	assert.Equal(t, database.VerificationSkipped, skipped.VerificationStatus)
}

func TestUpdateItem(t *testing.T) {
	db := newTestDB(t)
	src, dst := makeDrives(t, db)
	job, err := CreateJob(db, src, dst, []string{"asset-1"})
	require.NoError(t, err)

	require.NoError(t, UpdateItem(db, job.ID, "asset-1", "copied", ""))

	var item database.ArchiveJobItem
	require.NoError(t, db.Where("job_id = ? AND asset_id = ?", job.ID, "asset-1").First(&item).Error)
	assert.Equal(t, "copied", item.Status)

	assert.True(t, errors.IsNotFound(UpdateItem(db, job.ID, "asset-9", "copied", "")))
	assert.True(t, errors.IsValidation(UpdateItem(db, job.ID, "asset-1", "bogus", "")))
}

func TestLogsAppendOnly(t *testing.T) {
	db := newTestDB(t)
	src, dst := makeDrives(t, db)
	job, err := CreateJob(db, src, dst, nil)
	require.NoError(t, err)

	_, err = TransitionJob(db, job.ID, database.ArchiveJobInProgress, "")
	require.NoError(t, err)
	_, err = TransitionJob(db, job.ID, database.ArchiveJobFailed, "target unplugged")
	require.NoError(t, err)

	var logs []database.ArchiveJobLog
	require.NoError(t, db.Where("job_id = ?", job.ID).Order("id").Find(&logs).Error)
	require.Len(t, logs, 3)
	assert.Equal(t, "error", logs[2].Level)
	assert.Contains(t, logs[2].Message, "target unplugged")
}
