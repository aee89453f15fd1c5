package domain

import "time"

// Queue item statuses.
const (
	QueueStatusPending = "pending"
	QueueStatusSynced  = "synced"
	QueueStatusSkipped = "skipped"
	QueueStatusFailed  = "failed"
)

// QueueItem is one product waiting in the sync queue. Slug is the natural
// key the detail fetch uses; CategorySlug is an optional assignment hint
// carried over from the remote list.
type QueueItem struct {
	ID           int64      `json:"id"`
	BatchID      string     `json:"batch_id"`
	Slug         string     `json:"slug"`
	RemoteID     int64      `json:"remote_id"`
	ProductCode  string     `json:"product_code"`
	Title        string     `json:"title"`
	CategorySlug string     `json:"category_slug,omitempty"`
	Status       string     `json:"status"`
	Attempts     int        `json:"attempts"`
	LastError    string     `json:"last_error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func NewQueueItem(batchID string, entry ProductListEntry) *QueueItem {
	return &QueueItem{
		BatchID:      batchID,
		Slug:         entry.Slug,
		RemoteID:     entry.RemoteID,
		ProductCode:  entry.ProductCode,
		Title:        entry.Title,
		CategorySlug: entry.CategorySlug,
		Status:       QueueStatusPending,
	}
}

// Statistics aggregates queue item counts for one batch.
type Statistics struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Synced  int64 `json:"synced"`
	Skipped int64 `json:"skipped"`
	Failed  int64 `json:"failed"`
}

// Done reports whether no pending items remain.
func (s Statistics) Done() bool {
	return s.Pending == 0
}
