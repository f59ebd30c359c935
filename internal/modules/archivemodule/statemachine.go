// Package archivemodule tracks archive/restore jobs between drives: a
// validated status state machine, per-item progress, a verification
// sub-state, and append-only job logs.
package archivemodule

import (
	"time"

	"gorm.io/gorm"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/errors"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/events"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/utils"
)

// statusTransitions is the allowed job state machine:
// planned -> in-progress -> {completed, failed, cancelled};
// planned may also be cancelled directly.
var statusTransitions = map[database.ArchiveJobStatus][]database.ArchiveJobStatus{
	database.ArchiveJobPlanned:    {database.ArchiveJobInProgress, database.ArchiveJobCancelled},
	database.ArchiveJobInProgress: {database.ArchiveJobCompleted, database.ArchiveJobFailed, database.ArchiveJobCancelled},
}

// verificationTransitions is the verification sub-state machine:
// pending -> in-progress -> {passed, failed}; pending may be skipped.
var verificationTransitions = map[database.VerificationStatus][]database.VerificationStatus{
	database.VerificationPending:    {database.VerificationInProgress, database.VerificationSkipped},
	database.VerificationInProgress: {database.VerificationPassed, database.VerificationFailed},
}

func transitionAllowed[S comparable](table map[S][]S, from, to S) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CreateJob plans a new archive job with its item list
func CreateJob(db *gorm.DB, sourceDriveID, targetDriveID string, assetIDs []string) (*database.ArchiveJob, error) {
	if sourceDriveID == "" || targetDriveID == "" {
		return nil, errors.NewValidationError("source and target drives are required", "source_drive_id/target_drive_id")
	}
	if sourceDriveID == targetDriveID {
		return nil, errors.NewValidationError("source and target drives must differ", "target_drive_id")
	}

	for _, driveID := range []string{sourceDriveID, targetDriveID} {
		var drive database.StorageDrive
		if err := db.Where("id = ?", driveID).First(&drive).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, errors.NewNotFoundError("drive", driveID)
			}
			return nil, errors.NewDatabaseError("load drive", err)
		}
	}

	job := &database.ArchiveJob{
		ID:                 utils.GenerateUUID(),
		SourceDriveID:      sourceDriveID,
		TargetDriveID:      targetDriveID,
		Status:             database.ArchiveJobPlanned,
		VerificationStatus: database.VerificationPending,
	}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(job).Error; err != nil {
			return err
		}
		for _, assetID := range assetIDs {
			item := database.ArchiveJobItem{
				JobID:   job.ID,
				AssetID: assetID,
				Status:  "pending",
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		return appendLog(tx, job.ID, "info", "job planned")
	})
	if txErr != nil {
		return nil, errors.NewDatabaseError("create archive job", txErr)
	}

	events.Publish(events.Event{
		Type:   events.EventArchiveJobCreated,
		Source: "archive",
		Target: job.ID,
		Data:   map[string]interface{}{"items": len(assetIDs)},
	})

	return job, nil
}

// TransitionJob moves the job to a new status, validating against the
// state machine. Terminal states never transition again.
func TransitionJob(db *gorm.DB, jobID string, to database.ArchiveJobStatus, message string) (*database.ArchiveJob, error) {
	var job database.ArchiveJob
	if err := db.Where("id = ?", jobID).First(&job).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("archive job", jobID)
		}
		return nil, errors.NewDatabaseError("load archive job", err)
	}

	if !transitionAllowed(statusTransitions, job.Status, to) {
		return nil, errors.NewConflictError(
			"invalid status transition from "+string(job.Status)+" to "+string(to), jobID)
	}

	now := time.Now()
	updates := map[string]interface{}{"status": to}
	switch to {
	case database.ArchiveJobInProgress:
		updates["started_at"] = now
	case database.ArchiveJobCompleted, database.ArchiveJobFailed, database.ArchiveJobCancelled:
		updates["completed_at"] = now
	}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&database.ArchiveJob{}).Where("id = ?", jobID).Updates(updates).Error; err != nil {
			return err
		}
		logMsg := "status -> " + string(to)
		if message != "" {
			logMsg += ": " + message
		}
		level := "info"
		if to == database.ArchiveJobFailed {
			level = "error"
		}
		return appendLog(tx, jobID, level, logMsg)
	})
	if txErr != nil {
		return nil, errors.NewDatabaseError("transition archive job", txErr)
	}

	job.Status = to

	eventType := events.EventArchiveJobStatus
	if to == database.ArchiveJobCompleted {
		eventType = events.EventArchiveJobCompleted
	}
	events.Publish(events.Event{
		Type:    eventType,
		Source:  "archive",
		Target:  jobID,
		Message: string(to),
	})

	return &job, nil
}

// TransitionVerification moves the verification sub-state
func TransitionVerification(db *gorm.DB, jobID string, to database.VerificationStatus) (*database.ArchiveJob, error) {
	var job database.ArchiveJob
	if err := db.Where("id = ?", jobID).First(&job).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("archive job", jobID)
		}
		return nil, errors.NewDatabaseError("load archive job", err)
	}

	if !transitionAllowed(verificationTransitions, job.VerificationStatus, to) {
		return nil, errors.NewConflictError(
			"invalid verification transition from "+string(job.VerificationStatus)+" to "+string(to), jobID)
	}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&database.ArchiveJob{}).Where("id = ?", jobID).
			Update("verification_status", to).Error; err != nil {
			return err
		}
		level := "info"
		if to == database.VerificationFailed {
			level = "error"
		}
		return appendLog(tx, jobID, level, "verification -> "+string(to))
	})
	if txErr != nil {
		return nil, errors.NewDatabaseError("transition verification", txErr)
	}

	job.VerificationStatus = to
	return &job, nil
}

// UpdateItem sets the per-asset status within a job
func UpdateItem(db *gorm.DB, jobID string, assetID, status, itemError string) error {
	switch status {
	case "pending", "copied", "verified", "failed":
	default:
		return errors.NewValidationError("unknown item status", "status")
	}

	res := db.Model(&database.ArchiveJobItem{}).
		Where("job_id = ? AND asset_id = ?", jobID, assetID).
		Updates(map[string]interface{}{"status": status, "error": itemError})
	if res.Error != nil {
		return errors.NewDatabaseError("update job item", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NewNotFoundError("archive job item", assetID)
	}
	return nil
}

// appendLog writes one append-only log row. Logs are never updated or
// deleted by application code.
func appendLog(db *gorm.DB, jobID, level, message string) error {
	return db.Create(&database.ArchiveJobLog{
		JobID:   jobID,
		Level:   level,
		Message: message,
	}).Error
}

// AppendLog exposes log appending for handlers
func AppendLog(db *gorm.DB, jobID, level, message string) error {
	return appendLog(db, jobID, level, message)
}
