package usecase

import "github.com/shahadul878/planet-2.0/internal/domain"

// SYNC USECASE

// StartBatchReq asks for a new sync batch.
type StartBatchReq struct {
	Method string // background or step; empty uses the configured default
}

// StartBatchRes reports the created batch.
type StartBatchRes struct {
	BatchID           string `json:"batch_id"`
	Method            string `json:"method"`
	Total             int    `json:"total"`
	Skipped           int    `json:"skipped"` // list entries dropped for lacking a slug
	CategoriesCreated int    `json:"categories_created"`
	CategoriesUpdated int    `json:"categories_updated"`
}

// StepResult describes what one processing step did.
type StepResult struct {
	BatchID  string            `json:"batch_id"`
	ItemID   int64             `json:"item_id,omitempty"`
	Slug     string            `json:"slug,omitempty"`
	Name     string            `json:"name,omitempty"`
	Status   string            `json:"status,omitempty"` // synced, skipped, failed, requeued
	Message  string            `json:"message,omitempty"`
	Done     bool              `json:"done"`     // the batch has no pending items left
	Requeued int64             `json:"requeued"` // failed items returned to pending by the automatic retry
	Stats    domain.Statistics `json:"stats"`
}

// DebugInfo is the operator-facing diagnostic snapshot.
type DebugInfo struct {
	ActiveBatch string            `json:"active_batch"`
	Method      string            `json:"method,omitempty"`
	WorkerState string            `json:"worker_state,omitempty"`
	JobsPending int64             `json:"jobs_pending"`
	Stats       domain.Statistics `json:"stats"`
	LastSyncAt  string            `json:"last_sync_at,omitempty"`
}

// ListQueueReq pages through queue items of the active batch.
type ListQueueReq struct {
	Status string
	Limit  int
	Offset int
}

// ListQueueRes is one page of queue items.
type ListQueueRes struct {
	BatchID string              `json:"batch_id"`
	Items   []*domain.QueueItem `json:"items"`
}

// CATEGORY RECONCILER

// ReconcileCategoriesRes summarizes one top-level category pass.
type ReconcileCategoriesRes struct {
	TotalRemote int `json:"total_remote"`
	Created     int `json:"created"`
	Updated     int `json:"updated"`
	Adopted     int `json:"adopted"` // rows matched by name that received a remote id
	Errors      int `json:"errors"`  // per-category failures, counted but not fatal
}

// CategoryComparison lines up remote top-level categories against the
// local taxonomy for the operator dashboard.
type CategoryComparison struct {
	Rows    []CategoryComparisonRow   `json:"rows"`
	Summary CategoryComparisonSummary `json:"summary"`
}

type CategoryComparisonRow struct {
	RemoteID int64  `json:"remote_id"`
	Name     string `json:"name"`
	Status   string `json:"status"` // matched, name_match or missing
	LocalID  int64  `json:"local_id,omitempty"`
}

type CategoryComparisonSummary struct {
	TotalRemote int `json:"total_remote"`
	Matched     int `json:"matched"`
	NameMatch   int `json:"name_match"` // matched by name but not yet stamped with a remote id
	Missing     int `json:"missing"`
}

// Comparison row statuses.
const (
	ComparisonMatched   = "matched"
	ComparisonNameMatch = "name_match"
	ComparisonMissing   = "missing"
)

// PRODUCT RECONCILER

// Reconcile outcome statuses.
const (
	ReconcileCreated = "created"
	ReconcileUpdated = "updated"
	ReconcileSkipped = "skipped"
)

// ReconcileItemRes reports what happened to one queue item.
type ReconcileItemRes struct {
	Status    string
	ProductID int64
	Title     string
}

// ORPHAN USECASE

// OrphanReq asks for an orphan handling pass.
type OrphanReq struct {
	Action string // empty uses the configured default
	DryRun bool   // detect and report without applying the action
}

// INFRASTRUCTURE

// CopyImagesReq asks to mirror remote image URLs into local storage.
type CopyImagesReq struct {
	ProductCode string
	URLs        []string
}

// CopyImagesRes maps each copied source URL to its local public URL.
// Sources that failed to copy are absent.
type CopyImagesRes struct {
	URLBySource map[string]string
}

// MAPPERS

func NewReconcileItemRes(status string, productID int64, title string) *ReconcileItemRes {
	return &ReconcileItemRes{
		Status:    status,
		ProductID: productID,
		Title:     title,
	}
}

func NewCopyImagesReq(productCode string, urls []string) *CopyImagesReq {
	return &CopyImagesReq{
		ProductCode: productCode,
		URLs:        urls,
	}
}

func NewCopyImagesRes(urlBySource map[string]string) *CopyImagesRes {
	return &CopyImagesRes{
		URLBySource: urlBySource,
	}
}

func NewListQueueRes(batchID string, items []*domain.QueueItem) *ListQueueRes {
	return &ListQueueRes{
		BatchID: batchID,
		Items:   items,
	}
}
