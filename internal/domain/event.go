package domain

import (
	"errors"
	"fmt"
	"time"
)

// Event errors
var (
	ErrEventNotFound    = errors.New("audit event not found")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrStoreUnavailable = errors.New("audit store unavailable")
)

// Event type constants
const (
	EventTypeCreate = "CREATE"
	EventTypeUpdate = "UPDATE"
	EventTypeDelete = "DELETE"
	EventTypeRead   = "READ"
	EventTypeError  = "ERROR"
)

// ValidEventTypes returns list of valid event types
func ValidEventTypes() []string {
	return []string{EventTypeCreate, EventTypeUpdate, EventTypeDelete, EventTypeRead, EventTypeError}
}

// Event is an immutable audit record. Records are only created through
// ingestion and only removed by the retention sweep.
type Event struct {
	ID        string                 `json:"id"`
	EventType string                 `json:"event_type"`
	Entity    string                 `json:"entity"`
	EntityID  int64                  `json:"entity_id"`
	Details   string                 `json:"details"`
	Service   string                 `json:"service"`
	Timestamp time.Time              `json:"timestamp"`
	UserID    *int64                 `json:"user_id,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	UserAgent string                 `json:"user_agent,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`

	// Seq is the store-assigned insertion sequence. It is the stable
	// secondary sort key for records sharing a timestamp and is not part
	// of the wire format.
	Seq int64 `json:"-"`
}

// FullDescription renders a one-line summary for operator-facing output.
func (e *Event) FullDescription() string {
	return fmt.Sprintf("%s %s #%d: %s", e.EventType, e.Entity, e.EntityID, e.Details)
}

func (e *Event) IsError() bool {
	return e.EventType == EventTypeError
}

// IsCriticalOperation reports whether the event belongs to the set that
// dashboards highlight.
func (e *Event) IsCriticalOperation() bool {
	switch e.EventType {
	case EventTypeCreate, EventTypeDelete, EventTypeError:
		return true
	}
	return false
}

// EventFilter is a conjunction of optional criteria. Zero values mean
// "no constraint"; Entity and EntityID are applied together.
type EventFilter struct {
	Entity    string
	EntityID  int64
	Service   string
	EventType string
	Start     *time.Time
	End       *time.Time
}
