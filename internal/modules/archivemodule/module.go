package archivemodule

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
	ModuleID   = "system.archive"
	ModuleName = "Archive Jobs"
)

// Module implements archive job tracking
type Module struct {
	db *gorm.DB
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return false }

// Migrate performs any necessary database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&database.ArchiveJob{},
		&database.ArchiveJobItem{},
		&database.ArchiveJobLog{},
	)
}

// Init initializes the archive module
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}
	return nil
}

// RegisterRoutes registers archive job endpoints
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.GET("/archive-jobs", m.handleListJobs)
		api.POST("/archive-jobs", m.handleCreateJob)
		api.GET("/archive-jobs/:id", m.handleGetJob)
		api.POST("/archive-jobs/:id/status", m.handleTransition)
		api.POST("/archive-jobs/:id/verify", m.handleVerify)
		api.POST("/archive-jobs/:id/items", m.handleUpdateItem)
		api.GET("/archive-jobs/:id/logs", m.handleListLogs)
		api.POST("/archive-jobs/:id/logs", m.handleAppendLog)
	}
}
