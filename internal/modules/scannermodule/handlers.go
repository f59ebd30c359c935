package scannermodule

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/errors"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/modules/scannermodule/scanner"
)

// scanRequest is the body for POST /api/drives/:id/scan
type scanRequest struct {
	IncludeTypes       []database.MediaType `json:"include_types,omitempty"`
	ExcludeTypes       []database.MediaType `json:"exclude_types,omitempty"`
	GenerateThumbnails bool                 `json:"generate_thumbnails"`
	ThumbnailsDir      string               `json:"thumbnails_dir,omitempty"`
}

func (m *Module) handleScanDrive(c *gin.Context) {
	driveID := c.Param("id")

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		errors.HandleValidationError(c, "invalid scan options", "body")
		return
	}

	result, err := m.GetScanManager().ScanDrive(c.Request.Context(), driveID, scanner.ScanOptions{
		IncludeTypes:       req.IncludeTypes,
		ExcludeTypes:       req.ExcludeTypes,
		GenerateThumbnails: req.GenerateThumbnails,
		ThumbnailsDir:      req.ThumbnailsDir,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (m *Module) handleGetAsset(c *gin.Context) {
	var asset database.MediaAsset
	if err := m.db.Where("id = ?", c.Param("id")).First(&asset).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			errors.HandleNotFound(c, "asset", c.Param("id"))
			return
		}
		errors.HandleDatabaseError(c, "load asset", err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

// handleSearchAssets filters assets by free-text query, media type, drive,
// and project.
func (m *Module) handleSearchAssets(c *gin.Context) {
	query := m.db.Model(&database.MediaAsset{}).Where("status <> ?", database.AssetStatusDeleted)

	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("filename LIKE ? OR path LIKE ?", like, like)
	}
	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}
	if driveID := c.Query("drive_id"); driveID != "" {
		query = query.Where("drive_id = ?", driveID)
	}
	if projectID := c.Query("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}

	limit := 100
	if l, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil && l > 0 && l <= 1000 {
		limit = l
	}
	offset := 0
	if o, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && o >= 0 {
		offset = o
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		errors.HandleDatabaseError(c, "count assets", err)
		return
	}

	var assets []database.MediaAsset
	if err := query.Order("filename").Limit(limit).Offset(offset).Find(&assets).Error; err != nil {
		errors.HandleDatabaseError(c, "search assets", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assets": assets,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// typeAggregate is one row of the by-type report
type typeAggregate struct {
	Type       database.MediaType `json:"type"`
	Count      int64              `json:"count"`
	TotalBytes int64              `json:"total_bytes"`
}

// handleAssetReport returns by-type count and byte aggregates, computed at
// query time.
func (m *Module) handleAssetReport(c *gin.Context) {
	query := m.db.Model(&database.MediaAsset{}).Where("status <> ?", database.AssetStatusDeleted)
	if driveID := c.Query("drive_id"); driveID != "" {
		query = query.Where("drive_id = ?", driveID)
	}

	var rows []typeAggregate
	if err := query.
		Select("type, COUNT(*) as count, COALESCE(SUM(size_bytes), 0) as total_bytes").
		Group("type").
		Order("type").
		Scan(&rows).Error; err != nil {
		errors.HandleDatabaseError(c, "asset report", err)
		return
	}

	var totalCount, totalBytes int64
	for _, row := range rows {
		totalCount += row.Count
		totalBytes += row.TotalBytes
	}

	c.JSON(http.StatusOK, gin.H{
		"by_type":     rows,
		"total_count": totalCount,
		"total_bytes": totalBytes,
	})
}
