package domain

import "time"

// Batch lifecycle event types published to the message bus.
const (
	EventSyncStarted   = "sync_started"
	EventSyncCompleted = "sync_completed"
	EventSyncCancelled = "sync_cancelled"
	EventSyncFailed    = "sync_failed"
)

// SyncEvent announces a batch lifecycle transition.
type SyncEvent struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	BatchID    string     `json:"batch_id"`
	Stats      Statistics `json:"stats"`
	OccurredAt time.Time  `json:"occurred_at"`
}

func NewSyncEvent(id, eventType, batchID string, stats Statistics) *SyncEvent {
	return &SyncEvent{
		ID:         id,
		Type:       eventType,
		BatchID:    batchID,
		Stats:      stats,
		OccurredAt: time.Now().UTC(),
	}
}
