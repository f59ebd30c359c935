// Package locationmodule manages the Bay-Shelf-Position addressing space
// for physical drive storage: slot creation, assignment, release, and
// reservation, with one-occupant-per-slot enforced by a database unique
// index.
package locationmodule

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/errors"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/events"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/utils"
)

// Allocator implements the location state machine:
// EMPTY <-> OCCUPIED, EMPTY <-> RESERVED, any -> MAINTENANCE.
type Allocator struct {
	db *gorm.DB
}

// NewAllocator returns an allocator bound to the database
func NewAllocator(db *gorm.DB) *Allocator {
	return &Allocator{db: db}
}

// Create inserts a new EMPTY location at the given address. A second
// create at the same (bay, shelf, position) fails with ConflictError; the
// unique index is the arbiter, not an application-level check.
func (a *Allocator) Create(bay, shelf, position int, section, notes string) (*database.PhysicalLocation, error) {
	if bay < 1 || shelf < 1 || position < 1 {
		return nil, errors.NewValidationError("bay, shelf, and position must be positive", "bay/shelf/position")
	}

	loc := &database.PhysicalLocation{
		ID:       utils.GenerateUUID(),
		Bay:      bay,
		Shelf:    shelf,
		Position: position,
		Status:   database.LocationStatusEmpty,
		Section:  section,
		Notes:    notes,
	}

	if err := a.db.Create(loc).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, errors.NewConflictError("location already exists at this address", loc.LocationID())
		}
		return nil, errors.NewDatabaseError("create location", err)
	}
	return loc, nil
}

// BatchResult summarizes a batch location create
type BatchResult struct {
	Created int      `json:"created"`
	Failed  int      `json:"failed"`
	Total   int      `json:"total"`
	Errors  []string `json:"errors,omitempty"`
}

// BatchCreate creates a grid of locations. Per-address conflicts are
// counted, not fatal.
func (a *Allocator) BatchCreate(bays, shelves, positions int, section string) (*BatchResult, error) {
	if bays < 1 || shelves < 1 || positions < 1 {
		return nil, errors.NewValidationError("bays, shelves, and positions must be positive", "bays/shelves/positions")
	}
	if bays*shelves*positions > 10000 {
		return nil, errors.NewValidationError("batch too large (max 10000 slots)", "bays/shelves/positions")
	}

	result := &BatchResult{Total: bays * shelves * positions}
	for b := 1; b <= bays; b++ {
		for s := 1; s <= shelves; s++ {
			for p := 1; p <= positions; p++ {
				if _, err := a.Create(b, s, p, section, ""); err != nil {
					result.Failed++
					if len(result.Errors) < 20 {
						result.Errors = append(result.Errors, fmt.Sprintf("B%d-S%d-P%d: %v", b, s, p, err))
					}
					continue
				}
				result.Created++
			}
		}
	}
	return result, nil
}

// Assign places a drive at an address, creating the location on demand.
// Occupied-by-another-drive fails with ConflictError and mutates nothing.
// The location and drive updates run in one transaction so the two-entity
// update is atomic from the caller's point of view.
func (a *Allocator) Assign(driveID string, bay, shelf, position int) (*database.PhysicalLocation, error) {
	var drive database.StorageDrive
	if err := a.db.Where("id = ?", driveID).First(&drive).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("drive", driveID)
		}
		return nil, errors.NewDatabaseError("load drive", err)
	}

	var loc database.PhysicalLocation
	err := a.db.Where("bay = ? AND shelf = ? AND position = ?", bay, shelf, position).First(&loc).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		created, createErr := a.Create(bay, shelf, position, "", "")
		if createErr != nil {
			return nil, createErr
		}
		loc = *created
	case err != nil:
		return nil, errors.NewDatabaseError("load location", err)
	}

	if loc.Status == database.LocationStatusOccupied && loc.OccupiedBy != driveID {
		return nil, errors.NewConflictError("location is occupied by another drive", loc.LocationID())
	}
	if loc.Status == database.LocationStatusMaintenance {
		return nil, errors.NewConflictError("location is under maintenance", loc.LocationID())
	}

	locationID := loc.LocationID()
	txErr := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&database.PhysicalLocation{}).Where("id = ?", loc.ID).Updates(map[string]interface{}{
			"status":      database.LocationStatusOccupied,
			"occupied_by": driveID,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&database.StorageDrive{}).Where("id = ?", driveID).
			Update("location", locationID).Error
	})
	if txErr != nil {
		return nil, errors.NewDatabaseError("assign location", txErr)
	}

	loc.Status = database.LocationStatusOccupied
	loc.OccupiedBy = driveID

	events.Publish(events.Event{
		Type:   events.EventLocationAssigned,
		Source: "locations",
		Target: loc.ID,
		Data:   map[string]interface{}{"drive_id": driveID, "location": locationID},
	})

	return &loc, nil
}

// Release transitions OCCUPIED -> EMPTY, clearing the occupant and the
// drive's location field.
func (a *Allocator) Release(locationID string) (*database.PhysicalLocation, error) {
	var loc database.PhysicalLocation
	if err := a.db.Where("id = ?", locationID).First(&loc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("location", locationID)
		}
		return nil, errors.NewDatabaseError("load location", err)
	}

	if loc.Status != database.LocationStatusOccupied {
		return nil, errors.NewValidationError("location is not occupied", "status")
	}

	driveID := loc.OccupiedBy
	txErr := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&database.PhysicalLocation{}).Where("id = ?", loc.ID).Updates(map[string]interface{}{
			"status":      database.LocationStatusEmpty,
			"occupied_by": "",
		}).Error; err != nil {
			return err
		}
		if driveID == "" {
			return nil
		}
		return tx.Model(&database.StorageDrive{}).Where("id = ?", driveID).
			Update("location", "Unknown").Error
	})
	if txErr != nil {
		return nil, errors.NewDatabaseError("release location", txErr)
	}

	loc.Status = database.LocationStatusEmpty
	loc.OccupiedBy = ""

	events.Publish(events.Event{
		Type:   events.EventLocationReleased,
		Source: "locations",
		Target: loc.ID,
		Data:   map[string]interface{}{"drive_id": driveID},
	})

	return &loc, nil
}

// Reserve transitions EMPTY -> RESERVED, holding a slot without an
// occupant.
func (a *Allocator) Reserve(locationID string) (*database.PhysicalLocation, error) {
	var loc database.PhysicalLocation
	if err := a.db.Where("id = ?", locationID).First(&loc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("location", locationID)
		}
		return nil, errors.NewDatabaseError("load location", err)
	}

	if loc.Status != database.LocationStatusEmpty {
		return nil, errors.NewConflictError("only empty locations can be reserved", loc.LocationID())
	}

	if err := a.db.Model(&database.PhysicalLocation{}).Where("id = ?", loc.ID).
		Update("status", database.LocationStatusReserved).Error; err != nil {
		return nil, errors.NewDatabaseError("reserve location", err)
	}

	loc.Status = database.LocationStatusReserved
	return &loc, nil
}

// isUniqueViolation detects unique-index violations across sqlite and
// postgres drivers without importing either.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
