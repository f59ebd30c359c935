// Package projectmodule groups drives and assets by client engagement.
// Aggregates are computed at query time so they always reflect current
// membership, never a cached snapshot.
package projectmodule

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
	ModuleID   = "system.projects"
	ModuleName = "Projects"
)

// Module implements project management
type Module struct {
	db *gorm.DB
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return false }

// Migrate performs any necessary database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.Project{})
}

// Init initializes the project module
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}
	return nil
}

// RegisterRoutes registers project endpoints
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/projects", m.handleListProjects)
		api.POST("/projects", m.handleCreateProject)
		api.GET("/projects/:id", m.handleGetProject)
		api.PUT("/projects/:id", m.handleUpdateProject)
		api.POST("/projects/:id/assets", m.handleAddAssets)
		api.POST("/projects/:id/drives", m.handleAddDrives)
	}
}
