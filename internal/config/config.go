package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server" json:"server"`

	// Database configuration
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Scanner configuration
	Scanner ScannerConfig `yaml:"scanner" json:"scanner"`

	// Thumbnail configuration
	Thumbnails ThumbnailConfig `yaml:"thumbnails" json:"thumbnails"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string        `yaml:"host" json:"host" env:"VAULTKEEPER_HOST" default:"0.0.0.0"`
	Port         int           `yaml:"port" json:"port" env:"VAULTKEEPER_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" env:"VAULTKEEPER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" env:"VAULTKEEPER_WRITE_TIMEOUT" default:"5m"`
	EnableCORS   bool          `yaml:"enable_cors" json:"enable_cors" env:"VAULTKEEPER_ENABLE_CORS" default:"true"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type            string        `yaml:"type" json:"type" env:"DATABASE_TYPE" default:"sqlite"`
	Host            string        `yaml:"host" json:"host" env:"POSTGRES_HOST" default:"localhost"`
	Port            int           `yaml:"port" json:"port" env:"POSTGRES_PORT" default:"5432"`
	Username        string        `yaml:"username" json:"username" env:"POSTGRES_USER" default:"vaultkeeper"`
	Password        string        `yaml:"password" json:"-" env:"POSTGRES_PASSWORD"`
	Database        string        `yaml:"database" json:"database" env:"POSTGRES_DB" default:"vaultkeeper"`
	DataDir         string        `yaml:"data_dir" json:"data_dir" env:"VAULTKEEPER_DATA_DIR" default:"./vaultkeeper-data"`
	DatabasePath    string        `yaml:"database_path" json:"database_path" env:"VAULTKEEPER_DATABASE_PATH"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns" env:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" default:"2h"`
	LogQueries      bool          `yaml:"log_queries" json:"log_queries" env:"DB_LOG_QUERIES" default:"false"`
}

// ScannerConfig holds drive scanner configuration
type ScannerConfig struct {
	BatchSize           int      `yaml:"batch_size" json:"batch_size" env:"VAULTKEEPER_BATCH_SIZE" default:"100"`
	FastHashThreshold   int64    `yaml:"fast_hash_threshold" json:"fast_hash_threshold" env:"VAULTKEEPER_FAST_HASH_THRESHOLD" default:"536870912"`
	IgnorePatterns      []string `yaml:"ignore_patterns" json:"ignore_patterns" env:"VAULTKEEPER_IGNORE_PATTERNS"`
	WatchMounts         bool     `yaml:"watch_mounts" json:"watch_mounts" env:"VAULTKEEPER_WATCH_MOUNTS" default:"true"`
	VideoThumbnailLimit int      `yaml:"video_thumbnail_limit" json:"video_thumbnail_limit" env:"VAULTKEEPER_VIDEO_THUMBNAIL_LIMIT" default:"100"`
}

// ThumbnailConfig holds thumbnail generation configuration
type ThumbnailConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled" env:"VAULTKEEPER_THUMBNAILS" default:"false"`
	OutputDir  string `yaml:"output_dir" json:"output_dir" env:"VAULTKEEPER_THUMBNAILS_DIR"`
	FFmpegPath string `yaml:"ffmpeg_path" json:"ffmpeg_path" env:"VAULTKEEPER_FFMPEG_PATH" default:"ffmpeg"`
	RedlinePath string `yaml:"redline_path" json:"redline_path" env:"VAULTKEEPER_REDLINE_PATH" default:"REDline"`
	Width      int    `yaml:"width" json:"width" env:"VAULTKEEPER_THUMBNAIL_WIDTH" default:"320"`
	Height     int    `yaml:"height" json:"height" env:"VAULTKEEPER_THUMBNAIL_HEIGHT" default:"240"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"LOG_LEVEL" default:"info"`
	Format string `yaml:"format" json:"format" env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" env:"VAULTKEEPER_METRICS" default:"true"`
	Path    string `yaml:"path" json:"path" env:"VAULTKEEPER_METRICS_PATH" default:"/metrics"`
}

// ConfigManager manages application configuration
type ConfigManager struct {
	config     *Config
	configPath string
	mu         sync.RWMutex
}

var (
	globalConfigManager *ConfigManager
	configOnce          sync.Once
)

// GetConfigManager returns the global configuration manager instance
func GetConfigManager() *ConfigManager {
	configOnce.Do(func() {
		globalConfigManager = NewConfigManager()
	})
	return globalConfigManager
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config: DefaultConfig(),
	}
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			EnableCORS:   true,
		},
		Database: DatabaseConfig{
			Type:            "sqlite",
			DataDir:         "./vaultkeeper-data",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 2 * time.Hour,
		},
		Scanner: ScannerConfig{
			BatchSize:           100,
			FastHashThreshold:   512 * 1024 * 1024, // 512MB
			IgnorePatterns:      []string{"**/.*", "**/Thumbs.db", "**/.DS_Store", "**/System Volume Information/**"},
			WatchMounts:         true,
			VideoThumbnailLimit: 100,
		},
		Thumbnails: ThumbnailConfig{
			Enabled:     false,
			FFmpegPath:  "ffmpeg",
			RedlinePath: "REDline",
			Width:       320,
			Height:      240,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func (cm *ConfigManager) LoadConfig(configPath string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.configPath = configPath

	// Start with default configuration
	newConfig := DefaultConfig()

	// Load from file if it exists
	if configPath != "" && fileExists(configPath) {
		if err := loadFromFile(configPath, newConfig); err != nil {
			return fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Override with environment variables
	if err := loadStructFromEnv(reflect.ValueOf(newConfig).Elem()); err != nil {
		return fmt.Errorf("failed to load config from environment: %w", err)
	}

	// Validate configuration
	if err := validateConfig(newConfig); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	// Apply derived configurations
	applyDerivedConfig(newConfig)

	cm.config = newConfig
	return nil
}

// GetConfig returns the current configuration (thread-safe)
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	// Return a copy to prevent external modifications
	configCopy := *cm.config
	return &configCopy
}

// Helper methods

func loadFromFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
}

func loadStructFromEnv(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		// Handle nested structs recursively
		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		defaultTag := fieldType.Tag.Get("default")

		envValue := os.Getenv(envTag)
		if envValue == "" && defaultTag != "" && isZero(field) {
			envValue = defaultTag
		}

		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

func isZero(field reflect.Value) bool {
	return field.IsZero()
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(duration))
		} else {
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(intVal)
		}
	case reflect.Float32, reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			values := strings.Split(value, ",")
			for i, v := range values {
				values[i] = strings.TrimSpace(v)
			}
			field.Set(reflect.ValueOf(values))
		}
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

func validateConfig(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Type != "sqlite" && config.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", config.Database.Type)
	}

	if config.Scanner.BatchSize < 1 {
		return fmt.Errorf("invalid scanner batch size: %d", config.Scanner.BatchSize)
	}

	if config.Scanner.FastHashThreshold < 1024*1024 {
		return fmt.Errorf("fast hash threshold too small: %d", config.Scanner.FastHashThreshold)
	}

	return nil
}

func applyDerivedConfig(config *Config) {
	if config.Database.DatabasePath == "" && config.Database.Type == "sqlite" {
		config.Database.DatabasePath = filepath.Join(config.Database.DataDir, "vaultkeeper.db")
	}

	if config.Thumbnails.OutputDir == "" {
		config.Thumbnails.OutputDir = filepath.Join(config.Database.DataDir, "thumbnails")
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Global convenience functions

// Get returns the current global configuration
func Get() *Config {
	return GetConfigManager().GetConfig()
}

// Load loads configuration from the specified path
func Load(configPath string) error {
	return GetConfigManager().LoadConfig(configPath)
}
