package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MediaType enum for media_assets.type and scan filters
type MediaType string

const (
	MediaTypeVideo    MediaType = "video"
	MediaTypeAudio    MediaType = "audio"
	MediaTypeImage    MediaType = "image"
	MediaTypeDocument MediaType = "document"
	MediaTypeProject  MediaType = "project"
	MediaTypeOther    MediaType = "other"
)

func (mt MediaType) Value() (driver.Value, error) {
	return string(mt), nil
}

func (mt *MediaType) Scan(value interface{}) error {
	if value == nil {
		*mt = ""
		return nil
	}
	switch s := value.(type) {
	case string:
		*mt = MediaType(s)
	case []byte:
		*mt = MediaType(s)
	default:
		return fmt.Errorf("cannot scan %T into MediaType", value)
	}
	return nil
}

// DriveStatus enum for storage_drives.status
type DriveStatus string

const (
	DriveStatusActive   DriveStatus = "active"
	DriveStatusOffline  DriveStatus = "offline"
	DriveStatusArchived DriveStatus = "archived"
	DriveStatusDamaged  DriveStatus = "damaged"
)

// AssetStatus enum for media_assets.status (soft delete)
type AssetStatus string

const (
	AssetStatusActive   AssetStatus = "active"
	AssetStatusArchived AssetStatus = "archived"
	AssetStatusDeleted  AssetStatus = "deleted"
)

// LocationStatus enum for physical_locations.status
type LocationStatus string

const (
	LocationStatusEmpty       LocationStatus = "EMPTY"
	LocationStatusOccupied    LocationStatus = "OCCUPIED"
	LocationStatusReserved    LocationStatus = "RESERVED"
	LocationStatusMaintenance LocationStatus = "MAINTENANCE"
)

// ArchiveJobStatus enum for archive_jobs.status
type ArchiveJobStatus string

const (
	ArchiveJobPlanned    ArchiveJobStatus = "planned"
	ArchiveJobInProgress ArchiveJobStatus = "in-progress"
	ArchiveJobCompleted  ArchiveJobStatus = "completed"
	ArchiveJobFailed     ArchiveJobStatus = "failed"
	ArchiveJobCancelled  ArchiveJobStatus = "cancelled"
)

// VerificationStatus enum for archive_jobs.verification_status
type VerificationStatus string

const (
	VerificationPending    VerificationStatus = "pending"
	VerificationInProgress VerificationStatus = "in-progress"
	VerificationPassed     VerificationStatus = "passed"
	VerificationFailed     VerificationStatus = "failed"
	VerificationSkipped    VerificationStatus = "skipped"
)

// JSONMap stores arbitrary key/value metadata as a JSON text column
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into JSONMap", value)
	}
	if len(data) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// =============================================================================
// STORAGE DRIVES
// =============================================================================

// StorageDrive represents a physical archive drive registered in the catalog
type StorageDrive struct {
	ID         string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name       string `gorm:"not null;index" json:"name"`
	Path       string `json:"path"` // mount point when connected
	SerialNo   string `gorm:"index" json:"serial_number,omitempty"`
	VolumeUUID string `gorm:"index" json:"volume_uuid,omitempty"`
	Filesystem string `json:"filesystem,omitempty"`
	DriveType  string `json:"drive_type,omitempty"` // HDD, SSD, LTO, etc.

	TotalBytes int64 `json:"total_bytes"`
	UsedBytes  int64 `json:"used_bytes"`
	FreeBytes  int64 `json:"free_bytes"`
	FileCount  int64 `json:"file_count"`

	// Physical shelf location as "B{bay}-S{shelf}-P{position}", or "Unknown"
	Location string      `gorm:"default:Unknown" json:"location"`
	Status   DriveStatus `gorm:"type:text;not null;index;default:active" json:"status"`

	// Latest health snapshot
	SmartStatus  string `json:"smart_status,omitempty"`
	TemperatureC int    `json:"temperature_c,omitempty"`
	PowerOnHours int    `json:"power_on_hours,omitempty"`

	ProjectID   *string    `gorm:"type:varchar(36);index" json:"project_id,omitempty"`
	QRPayload   string     `gorm:"type:text" json:"qr_payload,omitempty"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	LastScanned *time.Time `json:"last_scanned,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// =============================================================================
// MEDIA ASSETS
// =============================================================================

// MediaAsset represents one cataloged file on a storage drive. The primary
// key is derived deterministically from (drive, path, hash) so re-scans of
// unchanged files resolve to the same row.
type MediaAsset struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Type      MediaType `gorm:"type:text;not null;index" json:"type"`
	Filename  string    `gorm:"not null;index" json:"filename"`
	Path      string    `gorm:"not null;index" json:"path"` // drive-relative path
	Extension string    `json:"extension"`
	SizeBytes int64     `json:"size_bytes"`

	DriveID   string `gorm:"type:varchar(36);not null;index" json:"drive_id"`
	DriveName string `json:"drive_name"` // denormalized for search results

	Hash string `gorm:"index" json:"hash"`

	FileCreated  *time.Time `json:"file_created,omitempty"`
	FileModified *time.Time `json:"file_modified,omitempty"`
	IngestedAt   time.Time  `json:"ingested_at"`
	LastSeen     time.Time  `gorm:"not null" json:"last_seen"`

	Metadata JSONMap `gorm:"type:text" json:"metadata,omitempty"`

	ProjectID *string     `gorm:"type:varchar(36);index" json:"project_id,omitempty"`
	Status    AssetStatus `gorm:"type:text;not null;index;default:active" json:"status"`

	ThumbnailPath string `json:"thumbnail_path,omitempty"`

	// Camera clip grouping key ("A001_C001"); empty for singleton files
	ClipKey string `gorm:"index" json:"clip_key,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// =============================================================================
// PHYSICAL LOCATIONS
// =============================================================================

// PhysicalLocation represents one shelf slot in the archive room. The
// bay/shelf/position triple carries a composite unique index so two rows can
// never describe the same slot.
type PhysicalLocation struct {
	ID       string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Bay      int    `gorm:"not null;uniqueIndex:idx_bay_shelf_position" json:"bay"`
	Shelf    int    `gorm:"not null;uniqueIndex:idx_bay_shelf_position" json:"shelf"`
	Position int    `gorm:"not null;uniqueIndex:idx_bay_shelf_position" json:"position"`

	Status     LocationStatus `gorm:"type:text;not null;index;default:EMPTY" json:"status"`
	OccupiedBy string         `gorm:"type:varchar(36);index" json:"occupied_by,omitempty"`
	Section    string         `json:"section,omitempty"`
	Notes      string         `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LocationID returns the human-readable slot label, e.g. "B1-S2-P3"
func (l *PhysicalLocation) LocationID() string {
	return fmt.Sprintf("B%d-S%d-P%d", l.Bay, l.Shelf, l.Position)
}

// =============================================================================
// PROJECTS
// =============================================================================

// Project groups drives and assets by client engagement. Aggregates (drive
// count, asset count, bytes by type) are computed by query at read time.
type Project struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"not null;index" json:"name"`
	Client      string    `gorm:"index" json:"client,omitempty"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// =============================================================================
// ARCHIVE JOBS
// =============================================================================

// ArchiveJob tracks a planned or running copy of assets between drives
type ArchiveJob struct {
	ID            string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	SourceDriveID string           `gorm:"type:varchar(36);not null;index" json:"source_drive_id"`
	TargetDriveID string           `gorm:"type:varchar(36);not null;index" json:"target_drive_id"`
	Status        ArchiveJobStatus `gorm:"type:text;not null;index;default:planned" json:"status"`

	VerificationStatus VerificationStatus `gorm:"type:text;not null;default:pending" json:"verification_status"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Items []ArchiveJobItem `gorm:"foreignKey:JobID" json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArchiveJobItem tracks one asset within an archive job
type ArchiveJobItem struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	JobID   string `gorm:"type:varchar(36);not null;index" json:"job_id"`
	AssetID string `gorm:"type:varchar(36);not null;index" json:"asset_id"`
	Status  string `gorm:"not null;default:pending" json:"status"` // pending, copied, verified, failed
	Error   string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArchiveJobLog is an append-only log line attached to a job. Rows are never
// updated or deleted by application code.
type ArchiveJobLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JobID     string    `gorm:"type:varchar(36);not null;index" json:"job_id"`
	Level     string    `gorm:"not null" json:"level"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// =============================================================================
// DRIVE HEALTH AND MOVEMENT AUDIT
// =============================================================================

// DriveHealthCheck records one health snapshot for a drive
type DriveHealthCheck struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	DriveID            string `gorm:"type:varchar(36);not null;index" json:"drive_id"`
	CheckType          string `json:"check_type"` // smart, read-speed, surface
	SmartStatus        string `json:"smart_status,omitempty"`
	ReallocatedSectors int    `json:"reallocated_sectors"`
	PendingSectors     int    `json:"pending_sectors"`
	ReadSpeedMBps      float64 `json:"read_speed_mbps,omitempty"`
	TemperatureC       int    `json:"temperature_c,omitempty"`
	Passed             bool   `json:"passed"`
	Recommendation     string `gorm:"type:text" json:"recommendation,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// DriveMovement is an audit row recording a drive checkin or checkout
type DriveMovement struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DriveID      string    `gorm:"type:varchar(36);not null;index" json:"drive_id"`
	Action       string    `gorm:"not null" json:"action"` // checkin, checkout
	FromLocation string    `json:"from_location,omitempty"`
	ToLocation   string    `json:"to_location,omitempty"`
	Actor        string    `json:"actor,omitempty"`
	Notes        string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
