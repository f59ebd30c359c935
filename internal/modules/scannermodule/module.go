package scannermodule

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/config"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/logger"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/modules/modulemanager"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/modules/scannermodule/scanner"
)

// Auto-register the module when imported
func init() {
	modulemanager.Register(&Module{})
}

const (
	// ModuleID is the unique identifier for the scanner module
	ModuleID = "system.scanner"

	// ModuleName is the display name for the scanner module
	ModuleName = "Drive Scanner"
)

// Module implements drive scanning and catalog reconciliation
type Module struct {
	db           *gorm.DB
	scanManager  *scanner.Manager
	mountWatcher *scanner.MountWatcher
}

// ID returns the unique module identifier
func (m *Module) ID() string {
	return ModuleID
}

// Name returns the module display name
func (m *Module) Name() string {
	return ModuleName
}

// Core returns whether this is a core module
func (m *Module) Core() bool {
	return true
}

// Migrate performs any necessary database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.MediaAsset{})
}

// Init initializes the scanner module
func (m *Module) Init() error {
	if m.db == nil {
		m.db = database.GetDB()
	}

	m.scanManager = scanner.NewManager(m.db)

	if config.Get().Scanner.WatchMounts {
		watcher, err := scanner.NewMountWatcher(m.db)
		if err != nil {
			logger.Warn("Mount watching unavailable: %v", err)
		} else {
			m.mountWatcher = watcher
			if err := watcher.Start(); err != nil {
				logger.Warn("Failed to start mount watcher: %v", err)
			}
		}
	}

	return nil
}

// GetScanManager returns the underlying scan manager
func (m *Module) GetScanManager() *scanner.Manager {
	if m.scanManager == nil {
		m.scanManager = scanner.NewManager(database.GetDB())
	}
	return m.scanManager
}

// GetMountWatcher returns the mount watcher, or nil when disabled
func (m *Module) GetMountWatcher() *scanner.MountWatcher {
	return m.mountWatcher
}

// RegisterRoutes registers scanner and asset query endpoints
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/drives/:id/scan", m.handleScanDrive)
		api.GET("/assets/search", m.handleSearchAssets)
		api.GET("/assets/report", m.handleAssetReport)
		api.GET("/assets/:id", m.handleGetAsset)
	}
}
