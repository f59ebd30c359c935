// Package drivemodule implements the storage drive registry: registration
// with a space probe, CRUD, QR label payloads, health snapshots, and
// movement audit records.
package drivemodule

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/modules/modulemanager"
)

// Auto-register the module when imported
func init() {
	modulemanager.Register(&Module{})
}

const (
	ModuleID   = "system.drives"
	ModuleName = "Drive Registry"
)

// Module implements drive registry functionality
type Module struct {
	db *gorm.DB
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return true }

// Migrate performs any necessary database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&database.StorageDrive{},
		&database.DriveHealthCheck{},
		&database.DriveMovement{},
	)
}

// Init initializes the drive module
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}
	return nil
}

// RegisterRoutes registers drive endpoints
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/drives", m.handleListDrives)
		api.POST("/drives", m.handleRegisterDrive)
		api.GET("/drives/:id", m.handleGetDrive)
		api.PUT("/drives/:id", m.handleUpdateDrive)
		api.DELETE("/drives/:id", m.handleDeleteDrive)
		api.POST("/drives/:id/assign-location", m.handleAssignLocation)
		api.POST("/drives/:id/health-check", m.handleHealthCheck)
		api.GET("/drives/:id/qr", m.handleQRPayload)
		api.POST("/drives/:id/movements", m.handleRecordMovement)
		api.GET("/drives/:id/movements", m.handleListMovements)
	}
}
