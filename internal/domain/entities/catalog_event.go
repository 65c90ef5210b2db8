package entities

import (
	"time"

	"github.com/google/uuid"
)

// CatalogEventType represents the type of catalog event
type CatalogEventType string

const (
	// CatalogEventTypeReloaded is published when the facility catalog has
	// been replaced (converted, re-read from file, or re-seeded).
	CatalogEventTypeReloaded CatalogEventType = "catalog_reloaded"

	// CatalogEventTypeIndexed is published after a search index sync.
	CatalogEventTypeIndexed CatalogEventType = "catalog_indexed"
)

// CatalogEvent notifies in-process consumers (cache invalidation, warming)
// that the facility catalog changed. It never reaches clients; pushing
// facility status to users is out of scope.
type CatalogEvent struct {
	ID        string           `json:"id"`
	EventType CatalogEventType `json:"event_type"`
	Source    string           `json:"source"`
	Count     int              `json:"count"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewCatalogEvent creates a new catalog event
func NewCatalogEvent(eventType CatalogEventType, source string, count int) *CatalogEvent {
	return &CatalogEvent{
		ID:        uuid.New().String(),
		EventType: eventType,
		Source:    source,
		Count:     count,
		Timestamp: time.Now(),
	}
}
