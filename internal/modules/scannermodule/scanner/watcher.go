package scanner

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gorm.io/gorm"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/events"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/logger"
)

// MountWatcher watches the parent directories of registered drive mounts
// and flips drive status between active and offline as mounts come and go.
type MountWatcher struct {
	db      *gorm.DB
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	watched map[string]bool // parent dirs currently watched
	done    chan struct{}
}

// NewMountWatcher creates a watcher; call Start to begin monitoring
func NewMountWatcher(db *gorm.DB) (*MountWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &MountWatcher{
		db:      db,
		watcher: w,
		watched: make(map[string]bool),
		done:    make(chan struct{}),
	}, nil
}

// Start registers watches for all known drive mounts and begins the event
// loop.
func (mw *MountWatcher) Start() error {
	var drives []database.StorageDrive
	if err := mw.db.Where("path <> ''").Find(&drives).Error; err != nil {
		return err
	}
	for i := range drives {
		mw.WatchDrive(&drives[i])
	}

	go mw.loop()
	return nil
}

// WatchDrive adds the drive's mount parent to the watch set
func (mw *MountWatcher) WatchDrive(drive *database.StorageDrive) {
	if drive.Path == "" {
		return
	}
	parent := filepath.Dir(drive.Path)

	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.watched[parent] {
		return
	}
	if err := mw.watcher.Add(parent); err != nil {
		logger.Warn("Cannot watch mount parent %s: %v", parent, err)
		return
	}
	mw.watched[parent] = true
}

// Stop shuts the watcher down
func (mw *MountWatcher) Stop() error {
	close(mw.done)
	return mw.watcher.Close()
}

func (mw *MountWatcher) loop() {
	for {
		select {
		case event, ok := <-mw.watcher.Events:
			if !ok {
				return
			}
			mw.handleEvent(event)
		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Mount watcher error: %v", err)
		case <-mw.done:
			return
		}
	}
}

func (mw *MountWatcher) handleEvent(event fsnotify.Event) {
	var drive database.StorageDrive
	if err := mw.db.Where("path = ?", event.Name).First(&drive).Error; err != nil {
		return // not a registered mount
	}

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		mw.setStatus(&drive, database.DriveStatusOffline, events.EventDriveOffline)
	case event.Op&fsnotify.Create != 0:
		// Only flip online when the path is actually a directory again
		if info, err := os.Stat(drive.Path); err == nil && info.IsDir() {
			mw.setStatus(&drive, database.DriveStatusActive, events.EventDriveOnline)
		}
	}
}

func (mw *MountWatcher) setStatus(drive *database.StorageDrive, status database.DriveStatus, eventType events.EventType) {
	if drive.Status == status {
		return
	}
	if err := mw.db.Model(&database.StorageDrive{}).Where("id = ?", drive.ID).
		Update("status", status).Error; err != nil {
		logger.Warn("Cannot update drive status for %s: %v", drive.Name, err)
		return
	}
	logger.Info("Drive %s is now %s", drive.Name, status)
	events.Publish(events.Event{
		Type:   eventType,
		Source: "scanner",
		Target: drive.ID,
	})
}
