package drivemodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/errors"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/modules/locationmodule"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/utils"
)

type registerDriveRequest struct {
	Path   string `json:"path" binding:"required"`
	Label  string `json:"label"`
	Serial string `json:"serial"`
}

func (m *Module) handleRegisterDrive(c *gin.Context) {
	var req registerDriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "path is required", "path")
		return
	}

	drive, err := RegisterDrive(m.db, req.Path, req.Label, req.Serial)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, drive)
}

func (m *Module) handleListDrives(c *gin.Context) {
	query := m.db.Model(&database.StorageDrive{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if projectID := c.Query("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}

	var drives []database.StorageDrive
	if err := query.Order("name").Find(&drives).Error; err != nil {
		errors.HandleDatabaseError(c, "list drives", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drives": drives, "total": len(drives)})
}

func (m *Module) handleGetDrive(c *gin.Context) {
	drive, ok := m.loadDrive(c)
	if !ok {
		return
	}

	var assetCount int64
	m.db.Model(&database.MediaAsset{}).
		Where("drive_id = ? AND status <> ?", drive.ID, database.AssetStatusDeleted).
		Count(&assetCount)

	c.JSON(http.StatusOK, gin.H{"drive": drive, "asset_count": assetCount})
}

type updateDriveRequest struct {
	Name      *string               `json:"name"`
	Path      *string               `json:"path"`
	Status    *database.DriveStatus `json:"status"`
	Notes     *string               `json:"notes"`
	ProjectID *string               `json:"project_id"`
	DriveType *string               `json:"drive_type"`
}

func (m *Module) handleUpdateDrive(c *gin.Context) {
	drive, ok := m.loadDrive(c)
	if !ok {
		return
	}

	var req updateDriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "invalid update payload", "body")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Path != nil {
		updates["path"] = *req.Path
	}
	if req.Status != nil {
		switch *req.Status {
		case database.DriveStatusActive, database.DriveStatusOffline,
			database.DriveStatusArchived, database.DriveStatusDamaged:
			updates["status"] = *req.Status
		default:
			errors.HandleValidationError(c, "unknown drive status", "status")
			return
		}
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.DriveType != nil {
		updates["drive_type"] = *req.DriveType
	}
	if req.ProjectID != nil {
		if *req.ProjectID == "" {
			updates["project_id"] = nil
		} else {
			if !utils.IsValidUUID(*req.ProjectID) {
				errors.HandleValidationError(c, "project_id must be a UUID", "project_id")
				return
			}
			updates["project_id"] = *req.ProjectID
		}
	}

	if len(updates) > 0 {
		if err := m.db.Model(&database.StorageDrive{}).Where("id = ?", drive.ID).Updates(updates).Error; err != nil {
			errors.HandleDatabaseError(c, "update drive", err)
			return
		}
	}

	if err := m.db.Where("id = ?", drive.ID).First(drive).Error; err != nil {
		errors.HandleDatabaseError(c, "reload drive", err)
		return
	}
	c.JSON(http.StatusOK, drive)
}

func (m *Module) handleDeleteDrive(c *gin.Context) {
	force := c.Query("force") == "true"
	if err := DeleteDrive(m.db, c.Param("id"), force); err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type assignLocationRequest struct {
	Bay      int `json:"bay" binding:"required,min=1"`
	Shelf    int `json:"shelf" binding:"required,min=1"`
	Position int `json:"position" binding:"required,min=1"`
}

// handleAssignLocation composes with the location allocator: the slot and
// the drive's location field update together.
func (m *Module) handleAssignLocation(c *gin.Context) {
	drive, ok := m.loadDrive(c)
	if !ok {
		return
	}

	var req assignLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "bay, shelf, and position are required", "bay/shelf/position")
		return
	}

	allocator := locationmodule.NewAllocator(m.db)
	loc, err := allocator.Assign(drive.ID, req.Bay, req.Shelf, req.Position)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	drive.Location = loc.LocationID()
	if err := RefreshQRPayload(m.db, drive); err != nil {
		errors.HandleDatabaseError(c, "refresh qr payload", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drive_id":    drive.ID,
		"location_id": loc.LocationID(),
		"status":      loc.Status,
	})
}

type healthCheckRequest struct {
	CheckType          string  `json:"check_type"`
	SmartStatus        string  `json:"smart_status"`
	ReallocatedSectors int     `json:"reallocated_sectors"`
	PendingSectors     int     `json:"pending_sectors"`
	ReadSpeedMBps      float64 `json:"read_speed_mbps"`
	TemperatureC       int     `json:"temperature_c"`
	Passed             bool    `json:"passed"`
	Recommendation     string  `json:"recommendation"`
}

func (m *Module) handleHealthCheck(c *gin.Context) {
	var req healthCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "invalid health check payload", "body")
		return
	}

	check := &database.DriveHealthCheck{
		CheckType:          req.CheckType,
		SmartStatus:        req.SmartStatus,
		ReallocatedSectors: req.ReallocatedSectors,
		PendingSectors:     req.PendingSectors,
		ReadSpeedMBps:      req.ReadSpeedMBps,
		TemperatureC:       req.TemperatureC,
		Passed:             req.Passed,
		Recommendation:     req.Recommendation,
	}
	if err := RecordHealthCheck(m.db, c.Param("id"), check); err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, check)
}

// handleQRPayload returns the stored label payload. Rendering the QR image
// is the label printer integration's job.
func (m *Module) handleQRPayload(c *gin.Context) {
	drive, ok := m.loadDrive(c)
	if !ok {
		return
	}

	if drive.QRPayload == "" {
		if err := RefreshQRPayload(m.db, drive); err != nil {
			errors.HandleDatabaseError(c, "build qr payload", err)
			return
		}
	}

	c.Data(http.StatusOK, "application/json", []byte(drive.QRPayload))
}

type movementRequest struct {
	Action     string `json:"action" binding:"required,oneof=checkin checkout"`
	ToLocation string `json:"to_location"`
	Actor      string `json:"actor"`
	Notes      string `json:"notes"`
}

func (m *Module) handleRecordMovement(c *gin.Context) {
	drive, ok := m.loadDrive(c)
	if !ok {
		return
	}

	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "action must be checkin or checkout", "action")
		return
	}

	movement := &database.DriveMovement{
		DriveID:      drive.ID,
		Action:       req.Action,
		FromLocation: drive.Location,
		ToLocation:   req.ToLocation,
		Actor:        req.Actor,
		Notes:        req.Notes,
	}
	if err := m.db.Create(movement).Error; err != nil {
		errors.HandleDatabaseError(c, "record movement", err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

func (m *Module) handleListMovements(c *gin.Context) {
	var movements []database.DriveMovement
	if err := m.db.Where("drive_id = ?", c.Param("id")).
		Order("created_at DESC").Limit(200).Find(&movements).Error; err != nil {
		errors.HandleDatabaseError(c, "list movements", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements, "total": len(movements)})
}

func (m *Module) loadDrive(c *gin.Context) (*database.StorageDrive, bool) {
	var drive database.StorageDrive
	if err := m.db.Where("id = ?", c.Param("id")).First(&drive).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			errors.HandleNotFound(c, "drive", c.Param("id"))
			return nil, false
		}
		errors.HandleDatabaseError(c, "load drive", err)
		return nil, false
	}
	return &drive, true
}
