package domain

import "time"

// Worker control states stored in sync options.
const (
	WorkerStateRunning   = "running"
	WorkerStatePaused    = "paused"
	WorkerStateCancelled = "cancelled"
	WorkerStateStopped   = "stopped"
)

// SyncJob is one unit of background work: process the next queue item
// of the given batch.
type SyncJob struct {
	ID        int64
	BatchID   string
	CreatedAt time.Time
}

func NewSyncJob(batchID string) *SyncJob {
	return &SyncJob{
		BatchID: batchID,
	}
}
