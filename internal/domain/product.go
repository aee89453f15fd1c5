package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Local catalog product statuses.
const (
	ProductStatusPublished   = "published"
	ProductStatusHidden      = "hidden"
	ProductStatusSoftDeleted = "soft_deleted"
)

// Product is one item of the local catalog mirror.
type Product struct {
	ID             int64
	RemoteID       int64
	Title          string
	ProductCode    string
	Slug           string
	Status         string
	Price          *decimal.Decimal
	Overview       string // HTML, image sources rewritten to local media
	Applications   string
	KeyFeatures    string
	Specifications []SpecGroup
	ImageURL       string
	Gallery        []string
	Fingerprint    string // md5 of the raw remote payload
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	SyncedAt       *time.Time
}

func NewProduct(remoteID int64, title, productCode, slug string) *Product {
	return &Product{
		RemoteID:    remoteID,
		Title:       title,
		ProductCode: productCode,
		Slug:        slug,
		Status:      ProductStatusPublished,
	}
}
