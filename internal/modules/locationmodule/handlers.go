package locationmodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/errors"
)

type createLocationRequest struct {
	Bay      int    `json:"bay" binding:"required,min=1"`
	Shelf    int    `json:"shelf" binding:"required,min=1"`
	Position int    `json:"position" binding:"required,min=1"`
	Section  string `json:"section"`
	Notes    string `json:"notes"`
}

func (m *Module) handleCreateLocation(c *gin.Context) {
	var req createLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "bay, shelf, and position are required", "bay/shelf/position")
		return
	}

	loc, err := m.GetAllocator().Create(req.Bay, req.Shelf, req.Position, req.Section, req.Notes)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, locationResponse(loc))
}

type batchCreateRequest struct {
	Bays      int    `json:"bays" binding:"required,min=1"`
	Shelves   int    `json:"shelves" binding:"required,min=1"`
	Positions int    `json:"positions" binding:"required,min=1"`
	Section   string `json:"section"`
}

func (m *Module) handleBatchCreate(c *gin.Context) {
	var req batchCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "bays, shelves, and positions are required", "bays/shelves/positions")
		return
	}

	result, err := m.GetAllocator().BatchCreate(req.Bays, req.Shelves, req.Positions, req.Section)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (m *Module) handleListLocations(c *gin.Context) {
	query := m.db.Model(&database.PhysicalLocation{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if bay := c.Query("bay"); bay != "" {
		query = query.Where("bay = ?", bay)
	}

	var locations []database.PhysicalLocation
	if err := query.Order("bay, shelf, position").Find(&locations).Error; err != nil {
		errors.HandleDatabaseError(c, "list locations", err)
		return
	}

	out := make([]gin.H, 0, len(locations))
	for i := range locations {
		out = append(out, locationResponse(&locations[i]))
	}
	c.JSON(http.StatusOK, gin.H{"locations": out, "total": len(out)})
}

func (m *Module) handleGetLocation(c *gin.Context) {
	loc, ok := m.loadLocation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, locationResponse(loc))
}

type updateLocationRequest struct {
	Section *string                  `json:"section"`
	Notes   *string                  `json:"notes"`
	Status  *database.LocationStatus `json:"status"`
}

// handleUpdateLocation edits section/notes and allows the maintenance
// transition. Occupancy changes go through assign/release, never here.
func (m *Module) handleUpdateLocation(c *gin.Context) {
	loc, ok := m.loadLocation(c)
	if !ok {
		return
	}

	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleValidationError(c, "invalid update payload", "body")
		return
	}

	updates := map[string]interface{}{}
	if req.Section != nil {
		updates["section"] = *req.Section
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.Status != nil {
		switch *req.Status {
		case database.LocationStatusMaintenance:
			updates["status"] = database.LocationStatusMaintenance
		case database.LocationStatusEmpty:
			if loc.Status != database.LocationStatusMaintenance && loc.Status != database.LocationStatusReserved {
				errors.HandleValidationError(c, "use release to vacate an occupied location", "status")
				return
			}
			updates["status"] = database.LocationStatusEmpty
		default:
			errors.HandleValidationError(c, "status can only be set to MAINTENANCE or EMPTY here", "status")
			return
		}
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, locationResponse(loc))
		return
	}

	if err := m.db.Model(&database.PhysicalLocation{}).Where("id = ?", loc.ID).Updates(updates).Error; err != nil {
		errors.HandleDatabaseError(c, "update location", err)
		return
	}

	if err := m.db.Where("id = ?", loc.ID).First(loc).Error; err == nil {
		c.JSON(http.StatusOK, locationResponse(loc))
	} else {
		c.JSON(http.StatusOK, gin.H{"updated": true})
	}
}

func (m *Module) handleRelease(c *gin.Context) {
	loc, err := m.GetAllocator().Release(c.Param("id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, locationResponse(loc))
}

func (m *Module) handleReserve(c *gin.Context) {
	loc, err := m.GetAllocator().Reserve(c.Param("id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, locationResponse(loc))
}

// handleSummary returns occupancy counts by status and by bay
func (m *Module) handleSummary(c *gin.Context) {
	type statusRow struct {
		Status database.LocationStatus `json:"status"`
		Count  int64                   `json:"count"`
	}
	var byStatus []statusRow
	if err := m.db.Model(&database.PhysicalLocation{}).
		Select("status, COUNT(*) as count").Group("status").Scan(&byStatus).Error; err != nil {
		errors.HandleDatabaseError(c, "location summary", err)
		return
	}

	type bayRow struct {
		Bay      int   `json:"bay"`
		Total    int64 `json:"total"`
		Occupied int64 `json:"occupied"`
	}
	var byBay []bayRow
	if err := m.db.Model(&database.PhysicalLocation{}).
		Select("bay, COUNT(*) as total, SUM(CASE WHEN status = 'OCCUPIED' THEN 1 ELSE 0 END) as occupied").
		Group("bay").Order("bay").Scan(&byBay).Error; err != nil {
		errors.HandleDatabaseError(c, "location summary", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"by_status": byStatus, "by_bay": byBay})
}

func (m *Module) loadLocation(c *gin.Context) (*database.PhysicalLocation, bool) {
	var loc database.PhysicalLocation
	if err := m.db.Where("id = ?", c.Param("id")).First(&loc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			errors.HandleNotFound(c, "location", c.Param("id"))
			return nil, false
		}
		errors.HandleDatabaseError(c, "load location", err)
		return nil, false
	}
	return &loc, true
}

// locationResponse decorates a location with its derived label
func locationResponse(loc *database.PhysicalLocation) gin.H {
	return gin.H{
		"id":          loc.ID,
		"location_id": loc.LocationID(),
		"bay":         loc.Bay,
		"shelf":       loc.Shelf,
		"position":    loc.Position,
		"status":      loc.Status,
		"occupied_by": loc.OccupiedBy,
		"section":     loc.Section,
		"notes":       loc.Notes,
		"created_at":  loc.CreatedAt,
		"updated_at":  loc.UpdatedAt,
	}
}
