package usecase

import (
	"context"

	"github.com/shahadul878/planet-2.0/internal/domain"
)

type SyncUC interface {
	StartBatch(ctx context.Context, req *StartBatchReq) (*StartBatchRes, error)
	StepOne(ctx context.Context, batchID string) (*StepResult, error)
	StepNext(ctx context.Context) (*StepResult, error)
	RetryFailed(ctx context.Context) (int64, error)
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Cancel(ctx context.Context) error
	Progress(ctx context.Context) (*domain.ProgressSnapshot, error)
	ListQueue(ctx context.Context, req *ListQueueReq) (*ListQueueRes, error)
	RecentActivity(ctx context.Context, level string, limit int) ([]*domain.ActivityEntry, error)
	ClearActivity(ctx context.Context) error
	ActiveBatch(ctx context.Context) (string, error)
	Debug(ctx context.Context) (*DebugInfo, error)
}

type ProductUC interface {
	ReconcileItem(ctx context.Context, item *domain.QueueItem) (*ReconcileItemRes, error)
}

type CategoryUC interface {
	ReconcileTopLevel(ctx context.Context) (*ReconcileCategoriesRes, error)
	Compare(ctx context.Context) (*CategoryComparison, error)
}

type OrphanUC interface {
	Handle(ctx context.Context, req *OrphanReq) (*domain.OrphanReport, error)
	Sweep(ctx context.Context, entries []domain.ProductListEntry) (*domain.OrphanReport, error)
}
