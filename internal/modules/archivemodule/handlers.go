package archivemodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/errors"
)

type createJobRequest struct {
	SourceDriveID string   `json:"source_drive_id" binding:"required"`
	TargetDriveID string   `json:"target_drive_id" binding:"required"`
	AssetIDs      []string `json:"asset_ids"`
}

func (m *Module) handleCreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "source_drive_id and target_drive_id are required", "source_drive_id/target_drive_id")
		return
	}

	job, err := CreateJob(m.db, req.SourceDriveID, req.TargetDriveID, req.AssetIDs)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

func (m *Module) handleListJobs(c *gin.Context) {
	query := m.db.Model(&database.ArchiveJob{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var jobs []database.ArchiveJob
	if err := query.Order("created_at DESC").Limit(200).Find(&jobs).Error; err != nil {
		errors.HandleDatabaseError(c, "list archive jobs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "total": len(jobs)})
}

func (m *Module) handleGetJob(c *gin.Context) {
	var job database.ArchiveJob
	if err := m.db.Preload("Items").Where("id = ?", c.Param("id")).First(&job).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			errors.HandleNotFound(c, "archive job", c.Param("id"))
			return
		}
		errors.HandleDatabaseError(c, "load archive job", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type transitionRequest struct {
	Status  database.ArchiveJobStatus `json:"status" binding:"required"`
	Message string                    `json:"message"`
}

func (m *Module) handleTransition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "status is required", "status")
		return
	}

	job, err := TransitionJob(m.db, c.Param("id"), req.Status, req.Message)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type verifyRequest struct {
	Status database.VerificationStatus `json:"status" binding:"required"`
}

func (m *Module) handleVerify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "status is required", "status")
		return
	}

	job, err := TransitionVerification(m.db, c.Param("id"), req.Status)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

type updateItemRequest struct {
	AssetID string `json:"asset_id" binding:"required"`
	Status  string `json:"status" binding:"required"`
	Error   string `json:"error"`
}

func (m *Module) handleUpdateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "asset_id and status are required", "asset_id/status")
		return
	}

	if err := UpdateItem(m.db, c.Param("id"), req.AssetID, req.Status, req.Error); err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

type appendLogRequest struct {
	Level   string `json:"level"`
	Message string `json:"message" binding:"required"`
}

// handleAppendLog records an operator note on the job's log trail
func (m *Module) handleAppendLog(c *gin.Context) {
	var req appendLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "message is required", "message")
		return
	}

	level := req.Level
	switch level {
	case "":
		level = "info"
	case "info", "warn", "error":
	default:
		errors.HandleValidationError(c, "level must be info, warn, or error", "level")
		return
	}

	var job database.ArchiveJob
	if err := m.db.Where("id = ?", c.Param("id")).First(&job).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			errors.HandleNotFound(c, "archive job", c.Param("id"))
			return
		}
		errors.HandleDatabaseError(c, "load archive job", err)
		return
	}

	if err := AppendLog(m.db, job.ID, level, req.Message); err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"logged": true})
}

func (m *Module) handleListLogs(c *gin.Context) {
	var logs []database.ArchiveJobLog
	if err := m.db.Where("job_id = ?", c.Param("id")).
		Order("id").Find(&logs).Error; err != nil {
		errors.HandleDatabaseError(c, "list job logs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "total": len(logs)})
}
