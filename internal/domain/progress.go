package domain

import "time"

// Sync batch stages as shown to operators.
const (
	StageIdle      = "idle"
	StageRunning   = "running"
	StagePaused    = "paused"
	StageFinished  = "finished"
	StageCancelled = "cancelled"
)

// ProgressSnapshot is the operator-facing view of the active batch.
type ProgressSnapshot struct {
	BatchID   string     `json:"batch_id"`
	Stage     string     `json:"stage"`
	Stats     Statistics `json:"stats"`
	Percent   float64    `json:"percent"`
	Message   string     `json:"message,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewProgressSnapshot derives percent from the statistics.
func NewProgressSnapshot(batchID, stage string, stats Statistics, startedAt time.Time) *ProgressSnapshot {
	p := &ProgressSnapshot{
		BatchID:   batchID,
		Stage:     stage,
		Stats:     stats,
		StartedAt: startedAt,
		UpdatedAt: time.Now().UTC(),
	}
	if stats.Total > 0 {
		processed := stats.Total - stats.Pending
		p.Percent = float64(processed) / float64(stats.Total) * 100
	}
	return p
}
