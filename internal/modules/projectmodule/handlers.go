package projectmodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/errors"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/utils"
)

type createProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Client      string `json:"client"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
}

func (m *Module) handleCreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "name is required", "name")
		return
	}

	project := &database.Project{
		ID:          utils.GenerateUUID(),
		Name:        req.Name,
		Client:      req.Client,
		Description: req.Description,
		Notes:       req.Notes,
	}
	if err := m.db.Create(project).Error; err != nil {
		errors.HandleDatabaseError(c, "create project", err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (m *Module) handleListProjects(c *gin.Context) {
	query := m.db.Model(&database.Project{})
	if client := c.Query("client"); client != "" {
		query = query.Where("client = ?", client)
	}

	var projects []database.Project
	if err := query.Order("name").Find(&projects).Error; err != nil {
		errors.HandleDatabaseError(c, "list projects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "total": len(projects)})
}

// projectAggregates holds the on-demand membership sums for one project
type projectAggregates struct {
	DriveCount int64                        `json:"drive_count"`
	AssetCount int64                        `json:"asset_count"`
	TotalBytes int64                        `json:"total_bytes"`
	ByType     map[database.MediaType]int64 `json:"by_type"`
}

func (m *Module) handleGetProject(c *gin.Context) {
	project, ok := m.loadProject(c)
	if !ok {
		return
	}

	agg, err := m.computeAggregates(project.ID)
	if err != nil {
		errors.HandleDatabaseError(c, "project aggregates", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project, "aggregates": agg})
}

func (m *Module) computeAggregates(projectID string) (*projectAggregates, error) {
	agg := &projectAggregates{ByType: make(map[database.MediaType]int64)}

	if err := m.db.Model(&database.StorageDrive{}).
		Where("project_id = ?", projectID).Count(&agg.DriveCount).Error; err != nil {
		return nil, err
	}

	assetQuery := m.db.Model(&database.MediaAsset{}).
		Where("project_id = ? AND status <> ?", projectID, database.AssetStatusDeleted)

	if err := assetQuery.Count(&agg.AssetCount).Error; err != nil {
		return nil, err
	}

	type typeRow struct {
		Type       database.MediaType
		Count      int64
		TotalBytes int64
	}
	var rows []typeRow
	if err := m.db.Model(&database.MediaAsset{}).
		Where("project_id = ? AND status <> ?", projectID, database.AssetStatusDeleted).
		Select("type, COUNT(*) as count, COALESCE(SUM(size_bytes), 0) as total_bytes").
		Group("type").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		agg.ByType[row.Type] = row.Count
		agg.TotalBytes += row.TotalBytes
	}

	return agg, nil
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Client      *string `json:"client"`
	Description *string `json:"description"`
	Notes       *string `json:"notes"`
}

func (m *Module) handleUpdateProject(c *gin.Context) {
	project, ok := m.loadProject(c)
	if !ok {
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "invalid update payload", "body")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if *req.Name == "" {
			errors.HandleValidationError(c, "name cannot be empty", "name")
			return
		}
		updates["name"] = *req.Name
	}
	if req.Client != nil {
		updates["client"] = *req.Client
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := m.db.Model(&database.Project{}).Where("id = ?", project.ID).Updates(updates).Error; err != nil {
			errors.HandleDatabaseError(c, "update project", err)
			return
		}
	}

	if err := m.db.Where("id = ?", project.ID).First(project).Error; err != nil {
		errors.HandleDatabaseError(c, "reload project", err)
		return
	}
	c.JSON(http.StatusOK, project)
}

type addAssetsRequest struct {
	AssetIDs []string `json:"asset_ids" binding:"required,min=1"`
}

// handleAddAssets attaches existing assets to the project by foreign key
func (m *Module) handleAddAssets(c *gin.Context) {
	project, ok := m.loadProject(c)
	if !ok {
		return
	}

	var req addAssetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "asset_ids is required", "asset_ids")
		return
	}

	updated := 0
	for start := 0; start < len(req.AssetIDs); start += 100 {
		end := start + 100
		if end > len(req.AssetIDs) {
			end = len(req.AssetIDs)
		}
		res := m.db.Model(&database.MediaAsset{}).
			Where("id IN ?", req.AssetIDs[start:end]).
			Update("project_id", project.ID)
		if res.Error != nil {
			errors.HandleDatabaseError(c, "assign assets", res.Error)
			return
		}
		updated += int(res.RowsAffected)
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": project.ID,
		"requested":  len(req.AssetIDs),
		"updated":    updated,
	})
}

type addDrivesRequest struct {
	DriveIDs []string `json:"drive_ids" binding:"required,min=1"`
}

func (m *Module) handleAddDrives(c *gin.Context) {
	project, ok := m.loadProject(c)
	if !ok {
		return
	}

	var req addDrivesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "drive_ids is required", "drive_ids")
		return
	}

	res := m.db.Model(&database.StorageDrive{}).
		Where("id IN ?", req.DriveIDs).
		Update("project_id", project.ID)
	if res.Error != nil {
		errors.HandleDatabaseError(c, "assign drives", res.Error)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": project.ID,
		"requested":  len(req.DriveIDs),
		"updated":    res.RowsAffected,
	})
}

func (m *Module) loadProject(c *gin.Context) (*database.Project, bool) {
	var project database.Project
	if err := m.db.Where("id = ?", c.Param("id")).First(&project).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			errors.HandleNotFound(c, "project", c.Param("id"))
			return nil, false
		}
		errors.HandleDatabaseError(c, "load project", err)
		return nil, false
	}
	return &project, true
}
