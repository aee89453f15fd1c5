package usecase

import (
	"context"
	"time"

	"github.com/shahadul878/planet-2.0/internal/domain"
)

type QueueRepository interface {
	Enqueue(ctx context.Context, items []*domain.QueueItem) error
	ClaimNext(ctx context.Context, batchID string) (*domain.QueueItem, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSkipped(ctx context.Context, id int64, reason string) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	RequeueForRetry(ctx context.Context, id int64, errMsg string) error
	Stats(ctx context.Context, batchID string) (domain.Statistics, error)
	ResetFailed(ctx context.Context, batchID string) (int64, error)
	SkipPending(ctx context.Context, batchID, reason string) (int64, error)
	DeleteBatch(ctx context.Context, batchID string) error
	DeleteStalePending(ctx context.Context, olderThan time.Duration) (int64, error)
	List(ctx context.Context, batchID, status string, limit, offset int) ([]*domain.QueueItem, error)
}

type JobRepository interface {
	Push(ctx context.Context, job *domain.SyncJob) error
	Claim(ctx context.Context) (*domain.SyncJob, error)
	PendingCount(ctx context.Context) (int64, error)
	DeleteByBatch(ctx context.Context, batchID string) error
}

type ProductRepository interface {
	Upsert(ctx context.Context, product *domain.Product) (*domain.Product, bool, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Product, error)
	FindByCode(ctx context.Context, code string) (*domain.Product, error)
	AdoptRemote(ctx context.Context, id int64, remoteID int64, slug string) error
	FindOrphans(ctx context.Context, liveSlugs []string, liveRemoteIDs []int64) ([]*domain.Product, error)
	UpdateStatus(ctx context.Context, ids []int64, status string) error
	Delete(ctx context.Context, ids []int64) error
	ReplaceCategories(ctx context.Context, productID int64, categoryIDs []int64) error
}

type CategoryRepository interface {
	Upsert(ctx context.Context, category *domain.Category) (*domain.Category, error)
	FindByRemoteID(ctx context.Context, remoteID int64) (*domain.Category, error)
	FindByName(ctx context.Context, name string, level int) (*domain.Category, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Category, error)
	AdoptRemoteID(ctx context.Context, id int64, remoteID int64) error
	List(ctx context.Context) ([]*domain.Category, error)
}

type ActivityRepository interface {
	Append(ctx context.Context, entry *domain.ActivityEntry) error
	Recent(ctx context.Context, level string, limit int) ([]*domain.ActivityEntry, error)
	Clear(ctx context.Context) (int64, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

type OptionRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	SetIfAbsent(ctx context.Context, key, value string) (bool, error)
}

// CacheRepository serves the progress snapshot cache and distributed locks.
type CacheRepository interface {
	GetProgress(ctx context.Context) (*domain.ProgressSnapshot, error)
	SetProgress(ctx context.Context, snapshot *domain.ProgressSnapshot) error
	DeleteProgress(ctx context.Context) error
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name string) error
}

// ResponseCache stores raw remote API response bodies keyed by endpoint.
type ResponseCache interface {
	GetResponse(ctx context.Context, endpoint string) ([]byte, error)
	SetResponse(ctx context.Context, endpoint string, body []byte) error
	InvalidateResponses(ctx context.Context) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}
