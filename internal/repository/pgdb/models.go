package pgdb

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shopspring/decimal"
)

// QueueItemModel maps one sync_queue row.
type QueueItemModel struct {
	ID           int64
	BatchID      string
	Slug         string
	RemoteID     int64
	ProductCode  string
	Title        string
	CategorySlug string
	Status       string
	Attempts     int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

func (m *QueueItemModel) ToEntity() *domain.QueueItem {
	return &domain.QueueItem{
		ID:           m.ID,
		BatchID:      m.BatchID,
		Slug:         m.Slug,
		RemoteID:     m.RemoteID,
		ProductCode:  m.ProductCode,
		Title:        m.Title,
		CategorySlug: m.CategorySlug,
		Status:       m.Status,
		Attempts:     m.Attempts,
		LastError:    m.LastError,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ProductModel maps one products row.
type ProductModel struct {
	ID             int64
	RemoteID       int64
	Title          string
	ProductCode    string
	Slug           string
	Status         string
	Price          *decimal.Decimal
	Overview       string
	Applications   string
	KeyFeatures    string
	Specifications []byte
	ImageURL       string
	Gallery        []string
	Fingerprint    string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	SyncedAt       *time.Time
}

func (m *ProductModel) ToEntity() (*domain.Product, error) {
	var specs []domain.SpecGroup
	if len(m.Specifications) > 0 {
		if err := json.Unmarshal(m.Specifications, &specs); err != nil {
			return nil, err
		}
	}

	return &domain.Product{
		ID:             m.ID,
		RemoteID:       m.RemoteID,
		Title:          m.Title,
		ProductCode:    m.ProductCode,
		Slug:           m.Slug,
		Status:         m.Status,
		Price:          m.Price,
		Overview:       m.Overview,
		Applications:   m.Applications,
		KeyFeatures:    m.KeyFeatures,
		Specifications: specs,
		ImageURL:       m.ImageURL,
		Gallery:        m.Gallery,
		Fingerprint:    m.Fingerprint,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		SyncedAt:       m.SyncedAt,
	}, nil
}

// CategoryModel maps one categories row.
type CategoryModel struct {
	ID          int64
	RemoteID    int64
	Name        string
	Slug        string
	Description string
	Level       int
	ParentID    *int64
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func (m *CategoryModel) ToEntity() *domain.Category {
	return &domain.Category{
		ID:          m.ID,
		RemoteID:    m.RemoteID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		Level:       m.Level,
		ParentID:    m.ParentID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// postgresDuplicate reports whether err is a unique constraint violation.
func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
