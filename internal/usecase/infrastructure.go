package usecase

import (
	"context"

	"github.com/shahadul878/planet-2.0/internal/domain"
)

// CatalogClient reads the remote Planet catalog.
type CatalogClient interface {
	ListProducts(ctx context.Context) ([]domain.ProductListEntry, error)
	GetProduct(ctx context.Context, slug string) (*domain.ProductPayload, error)
	ListCategories(ctx context.Context, level int) ([]domain.RemoteCategory, error)
	TestConnection(ctx context.Context) (int, error)
	InvalidateCache(ctx context.Context) error
}

// MediaInfra copies remote images into local object storage and removes
// stored copies that are no longer referenced.
type MediaInfra interface {
	CopyImages(ctx context.Context, req *CopyImagesReq) (*CopyImagesRes, error)
	CleanupImages(urls []string)
}

// EventProducer publishes batch lifecycle events.
type EventProducer interface {
	PublishEvent(ctx context.Context, event *domain.SyncEvent) error
}
