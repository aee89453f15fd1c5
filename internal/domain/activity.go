package domain

import (
	"encoding/json"
	"time"
)

// Activity log levels.
const (
	ActivityLevelInfo    = "info"
	ActivityLevelWarning = "warning"
	ActivityLevelError   = "error"
)

// ActivityEntry is one row of the persisted sync activity log.
type ActivityEntry struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Event     string          `json:"event"`
	Message   string          `json:"message"`
	Context   json.RawMessage `json:"context,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewActivityEntry(level, event, message string, context json.RawMessage) *ActivityEntry {
	return &ActivityEntry{
		Level:   level,
		Event:   event,
		Message: message,
		Context: context,
	}
}
