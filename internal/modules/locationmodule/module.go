package locationmodule

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
	ModuleID   = "system.locations"
	ModuleName = "Location Allocator"
)

// Module implements physical location management
type Module struct {
	db        *gorm.DB
	allocator *Allocator
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return true }

// Migrate performs any necessary database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.PhysicalLocation{})
}

// Init initializes the location module
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}
	m.allocator = NewAllocator(m.db)
	return nil
}

// GetAllocator returns the location allocator
func (m *Module) GetAllocator() *Allocator {
	if m.allocator == nil {
		m.allocator = NewAllocator(database.GetDB())
	}
	return m.allocator
}

// RegisterRoutes registers location endpoints
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/locations", m.handleListLocations)
		api.POST("/locations", m.handleCreateLocation)
		api.POST("/locations/batch", m.handleBatchCreate)
		api.GET("/locations/summary", m.handleSummary)
		api.GET("/locations/:id", m.handleGetLocation)
		api.PUT("/locations/:id", m.handleUpdateLocation)
		api.POST("/locations/:id/release", m.handleRelease)
		api.POST("/locations/:id/reserve", m.handleReserve)
	}
}
