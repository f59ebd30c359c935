// Package events provides a lightweight in-process event bus for catalog
// notifications: scan lifecycle, asset changes, drive and location activity.
package events

import (
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Scan events
	EventScanStarted   EventType = "scan.started"
	EventScanProgress  EventType = "scan.progress"
	EventScanCompleted EventType = "scan.completed"
	EventScanFailed    EventType = "scan.failed"

	// Asset events
	EventAssetCreated EventType = "asset.created"
	EventAssetUpdated EventType = "asset.updated"
	EventAssetRemoved EventType = "asset.removed"

	// Drive events
	EventDriveRegistered EventType = "drive.registered"
	EventDriveOffline    EventType = "drive.offline"
	EventDriveOnline     EventType = "drive.online"
	EventDriveRemoved    EventType = "drive.removed"

	// Location events
	EventLocationAssigned EventType = "location.assigned"
	EventLocationReleased EventType = "location.released"

	// Archive job events
	EventArchiveJobCreated   EventType = "archive.job.created"
	EventArchiveJobStatus    EventType = "archive.job.status"
	EventArchiveJobCompleted EventType = "archive.job.completed"

	// System events
	EventSystemStarted EventType = "system.started"
	EventSystemStopped EventType = "system.stopped"
)

// Event represents a system event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"` // module name
	Target    string                 `json:"target"` // entity ID if applicable
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventHandler represents a function that handles events
type EventHandler func(event Event)

// EventFilter limits which events a subscription receives. An empty filter
// matches everything.
type EventFilter struct {
	Types   []EventType `json:"types,omitempty"`
	Sources []string    `json:"sources,omitempty"`
}

// Matches reports whether the event passes the filter
func (f EventFilter) Matches(event Event) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if t == event.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Sources) > 0 {
		found := false
		for _, s := range f.Sources {
			if s == event.Source {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Subscription represents an event subscription
type Subscription struct {
	ID         string       `json:"id"`
	Filter     EventFilter  `json:"filter"`
	Handler    EventHandler `json:"-"`
	Subscriber string       `json:"subscriber"`
	Created    time.Time    `json:"created"`
}
