package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/config"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/logger"
)

var DB *gorm.DB

// Initialize sets up the database connection from the loaded configuration
// and migrates the schema.
func Initialize() error {
	cfg := config.Get()

	var (
		db  *gorm.DB
		err error
	)

	switch cfg.Database.Type {
	case "postgres":
		db, err = connectPostgres(&cfg.Database)
	case "sqlite":
		db, err = connectSQLite(&cfg.Database)
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	DB = db

	if err := Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Database initialized (type=%s)", cfg.Database.Type)
	return nil
}

// Migrate creates or updates the schema for all catalog models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&StorageDrive{},
		&MediaAsset{},
		&PhysicalLocation{},
		&Project{},
		&ArchiveJob{},
		&ArchiveJobItem{},
		&ArchiveJobLog{},
		&DriveHealthCheck{},
		&DriveMovement{},
	)
}

func connectPostgres(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port)

	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger(cfg),
	})
}

func connectSQLite(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(cfg.DataDir, "vaultkeeper.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	return gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormLogger(cfg),
	})
}

func gormLogger(cfg *config.DatabaseConfig) gormlogger.Interface {
	level := gormlogger.Warn
	if cfg.LogQueries {
		level = gormlogger.Info
	}
	return gormlogger.Default.LogMode(level)
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// SetDB overrides the database instance, used by tests
func SetDB(db *gorm.DB) {
	DB = db
}

// HealthCheck pings the database and reports latency
func HealthCheck() (time.Duration, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return 0, err
	}
	start := time.Now()
	if err := sqlDB.Ping(); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
