package drivemodule

import (
	"encoding/json"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/errors"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/events"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/metrics"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/modules/scannermodule/scanner"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/utils"
)

// RegisterDrive creates a drive record from a mount path. Registration
// runs the drive-info probe for space totals, not a full scan.
func RegisterDrive(db *gorm.DB, path, name, serial string) (*database.StorageDrive, error) {
	if path == "" {
		return nil, errors.NewValidationError("path is required", "path")
	}

	info, err := scanner.ProbeDrive(path)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = filepath.Base(path)
	}

	if serial != "" {
		var existing database.StorageDrive
		if err := db.Where("serial_no = ?", serial).First(&existing).Error; err == nil {
			return nil, errors.NewConflictError("a drive with this serial number is already registered", serial)
		}
	}

	drive := &database.StorageDrive{
		ID:         utils.GenerateUUID(),
		Name:       name,
		Path:       path,
		SerialNo:   serial,
		Filesystem: info.Filesystem,
		TotalBytes: info.TotalBytes,
		UsedBytes:  info.UsedBytes,
		FreeBytes:  info.FreeBytes,
		Location:   "Unknown",
		Status:     database.DriveStatusActive,
	}
	drive.QRPayload = buildQRPayload(drive)

	if err := db.Create(drive).Error; err != nil {
		return nil, errors.NewDatabaseError("register drive", err)
	}

	metrics.DrivesRegistered.WithLabelValues(string(database.DriveStatusActive)).Inc()
	events.Publish(events.Event{
		Type:   events.EventDriveRegistered,
		Source: "drives",
		Target: drive.ID,
		Data:   map[string]interface{}{"name": drive.Name, "path": drive.Path},
	})

	return drive, nil
}

// qrPayload is the JSON stored on the drive record for label printing.
// Image rendering is an external collaborator; the catalog only owns the
// payload content.
type qrPayload struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Path      string `json:"path,omitempty"`
	Serial    string `json:"serial,omitempty"`
	Location  string `json:"location,omitempty"`
	Cataloged string `json:"cataloged,omitempty"`
}

func buildQRPayload(drive *database.StorageDrive) string {
	p := qrPayload{
		ID:       drive.ID,
		Label:    drive.Name,
		Path:     drive.Path,
		Serial:   drive.SerialNo,
		Location: drive.Location,
	}
	if drive.LastScanned != nil {
		p.Cataloged = drive.LastScanned.Format(time.RFC3339)
	}
	data, _ := json.Marshal(p)
	return string(data)
}

// RefreshQRPayload rebuilds and persists the drive's QR payload after
// location or scan changes.
func RefreshQRPayload(db *gorm.DB, drive *database.StorageDrive) error {
	payload := buildQRPayload(drive)
	if err := db.Model(&database.StorageDrive{}).Where("id = ?", drive.ID).
		Update("qr_payload", payload).Error; err != nil {
		return err
	}
	drive.QRPayload = payload
	return nil
}

// DeleteDrive removes a drive. While the drive still owns assets the
// delete must be forced; a forced delete soft-deletes the assets first.
func DeleteDrive(db *gorm.DB, driveID string, force bool) error {
	var drive database.StorageDrive
	if err := db.Where("id = ?", driveID).First(&drive).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NewNotFoundError("drive", driveID)
		}
		return errors.NewDatabaseError("load drive", err)
	}

	var assetCount int64
	if err := db.Model(&database.MediaAsset{}).
		Where("drive_id = ? AND status <> ?", driveID, database.AssetStatusDeleted).
		Count(&assetCount).Error; err != nil {
		return errors.NewDatabaseError("count assets", err)
	}

	if assetCount > 0 && !force {
		return errors.NewConflictError("drive still owns cataloged assets, use force to delete", driveID)
	}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		if assetCount > 0 {
			if err := tx.Model(&database.MediaAsset{}).Where("drive_id = ?", driveID).
				Update("status", database.AssetStatusDeleted).Error; err != nil {
				return err
			}
		}
		// Vacate the shelf slot if one references this drive
		if err := tx.Model(&database.PhysicalLocation{}).
			Where("occupied_by = ?", driveID).
			Updates(map[string]interface{}{
				"status":      database.LocationStatusEmpty,
				"occupied_by": "",
			}).Error; err != nil {
			return err
		}
		return tx.Delete(&database.StorageDrive{}, "id = ?", driveID).Error
	})
	if txErr != nil {
		return errors.NewDatabaseError("delete drive", txErr)
	}

	events.Publish(events.Event{
		Type:   events.EventDriveRemoved,
		Source: "drives",
		Target: driveID,
	})
	return nil
}

// RecordHealthCheck stores a health snapshot and mirrors the headline
// fields onto the drive record.
func RecordHealthCheck(db *gorm.DB, driveID string, check *database.DriveHealthCheck) error {
	var drive database.StorageDrive
	if err := db.Where("id = ?", driveID).First(&drive).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NewNotFoundError("drive", driveID)
		}
		return errors.NewDatabaseError("load drive", err)
	}

	check.DriveID = driveID
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(check).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{
			"smart_status":  check.SmartStatus,
			"temperature_c": check.TemperatureC,
		}
		if !check.Passed {
			updates["status"] = database.DriveStatusDamaged
		}
		return tx.Model(&database.StorageDrive{}).Where("id = ?", driveID).Updates(updates).Error
	})
}
