package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/pkg/e"
)

func testPayload(remoteID int64, code string) *domain.ProductPayload {
	payload := &domain.ProductPayload{
		RemoteID:    remoteID,
		Title:       "Pressure Sensor",
		ProductCode: code,
		Slug:        "pressure-sensor",
		Price:       "129.90",
		Image:       "https://cdn.example.com/cover.jpg",
		Gallery:     []string{"https://cdn.example.com/side.jpg"},
		Overview:    `<p>Rugged.<img src="https://cdn.example.com/inline.png"/></p>`,
		Categories:  []domain.CategoryRef{{RemoteID: 1, Name: "Sensors"}},
	}
	raw, _ := json.Marshal(payload)
	payload.Raw = raw
	return payload
}

type productFixture struct {
	uc         *ProductUseCase
	products   *fakeProductRepo
	categories *fakeCategoryRepo
	client     *fakeCatalogClient
	media      *fakeMediaInfra
}

func newProductFixture(payload *domain.ProductPayload) *productFixture {
	f := &productFixture{
		products:   newFakeProductRepo(),
		categories: newFakeCategoryRepo(),
		client: &fakeCatalogClient{
			payloads: map[string]*domain.ProductPayload{payload.Slug: payload},
		},
		media: &fakeMediaInfra{resolved: map[string]string{}},
	}
	f.uc = NewProductUC(f.products, f.categories, f.client, f.media,
		"https://api.example.com/api", "https://media.local/", nopLogger{})
	return f
}

func queueItemFor(payload *domain.ProductPayload) *domain.QueueItem {
	return &domain.QueueItem{
		ID:       1,
		BatchID:  "sync_1",
		Slug:     payload.Slug,
		RemoteID: payload.RemoteID,
		Attempts: 1,
	}
}

func TestReconcileItem(t *testing.T) {
	t.Run("creates the product and mirrors its images", func(t *testing.T) {
		payload := testPayload(11, "SEN-A")
		f := newProductFixture(payload)
		f.media.resolved = map[string]string{
			"https://cdn.example.com/cover.jpg":  "https://media.local/p/cover",
			"https://cdn.example.com/side.jpg":   "https://media.local/p/side",
			"https://cdn.example.com/inline.png": "https://media.local/p/inline",
		}

		res, err := f.uc.ReconcileItem(context.Background(), queueItemFor(payload))
		require.NoError(t, err)

		assert.Equal(t, ReconcileCreated, res.Status)
		assert.Equal(t, "Pressure Sensor", res.Title)

		stored := f.products.bySlug["pressure-sensor"]
		require.NotNil(t, stored)
		assert.Equal(t, "Pressure Sensor", stored.Title)
		assert.Equal(t, "https://media.local/p/cover", stored.ImageURL)
		assert.Equal(t, []string{"https://media.local/p/side"}, stored.Gallery)
		assert.Contains(t, stored.Overview, "https://media.local/p/inline")
		assert.NotContains(t, stored.Overview, "cdn.example.com")
		require.NotNil(t, stored.Price)
		assert.True(t, stored.Price.Equal(decimal.RequireFromString("129.90")))

		// cover, gallery and the inline image, each requested once
		require.Len(t, f.media.requests, 1)
		assert.ElementsMatch(t, []string{
			"https://cdn.example.com/cover.jpg",
			"https://cdn.example.com/side.jpg",
			"https://cdn.example.com/inline.png",
		}, f.media.requests[0].URLs)
	})

	t.Run("unchanged fingerprint skips without touching media", func(t *testing.T) {
		payload := testPayload(11, "SEN-A")
		f := newProductFixture(payload)

		first, err := f.uc.ReconcileItem(context.Background(), queueItemFor(payload))
		require.NoError(t, err)
		require.Equal(t, ReconcileCreated, first.Status)

		mediaCalls := len(f.media.requests)
		upserts := f.products.upserts

		second, err := f.uc.ReconcileItem(context.Background(), queueItemFor(payload))
		require.NoError(t, err)

		assert.Equal(t, ReconcileSkipped, second.Status)
		assert.Equal(t, "Pressure Sensor", second.Title)
		assert.Equal(t, mediaCalls, len(f.media.requests))
		assert.Equal(t, upserts, f.products.upserts)
	})

	t.Run("changed payload refreshes the row", func(t *testing.T) {
		payload := testPayload(11, "SEN-A")
		f := newProductFixture(payload)

		_, err := f.uc.ReconcileItem(context.Background(), queueItemFor(payload))
		require.NoError(t, err)

		updated := testPayload(11, "SEN-A")
		updated.Title = "Pressure Sensor v2"
		raw, _ := json.Marshal(updated)
		updated.Raw = raw
		f.client.payloads[updated.Slug] = updated

		res, err := f.uc.ReconcileItem(context.Background(), queueItemFor(updated))
		require.NoError(t, err)

		assert.Equal(t, ReconcileUpdated, res.Status)
		assert.Equal(t, "Pressure Sensor v2", f.products.bySlug["pressure-sensor"].Title)
	})

	t.Run("adopts a legacy row matched by product code", func(t *testing.T) {
		payload := testPayload(11, "SEN-A")
		f := newProductFixture(payload)

		legacy := domain.NewProduct(0, "Old import", "SEN-A", "old-import")
		legacy.ID = 42
		f.products.byCode["SEN-A"] = legacy

		res, err := f.uc.ReconcileItem(context.Background(), queueItemFor(payload))
		require.NoError(t, err)

		assert.Equal(t, ReconcileUpdated, res.Status)
		assert.Equal(t, "pressure-sensor", f.products.adopted[42])
	})

	t.Run("failed image copies keep the remote url", func(t *testing.T) {
		payload := testPayload(11, "SEN-A")
		f := newProductFixture(payload)
		f.media.resolved = map[string]string{
			"https://cdn.example.com/cover.jpg": "https://media.local/p/cover",
			// side.jpg and inline.png failed to copy
		}

		_, err := f.uc.ReconcileItem(context.Background(), queueItemFor(payload))
		require.NoError(t, err)

		stored := f.products.bySlug["pressure-sensor"]
		assert.Equal(t, "https://media.local/p/cover", stored.ImageURL)
		assert.Equal(t, []string{"https://cdn.example.com/side.jpg"}, stored.Gallery)
		assert.Contains(t, stored.Overview, "https://cdn.example.com/inline.png")
	})

	t.Run("relative image references resolve against the remote base", func(t *testing.T) {
		payload := testPayload(11, "SEN-A")
		payload.Image = "/uploads/photo.png"
		payload.Gallery = []string{"//cdn.example.com/side.jpg"}
		payload.Overview = `<p>Rugged.<img src="/uploads/inline.png"/></p>`
		f := newProductFixture(payload)
		f.media.resolved = map[string]string{
			"https://api.example.com/uploads/photo.png":  "https://media.local/p/photo",
			"https://cdn.example.com/side.jpg":           "https://media.local/p/side",
			"https://api.example.com/uploads/inline.png": "https://media.local/p/inline",
		}

		_, err := f.uc.ReconcileItem(context.Background(), queueItemFor(payload))
		require.NoError(t, err)

		require.Len(t, f.media.requests, 1)
		assert.ElementsMatch(t, []string{
			"https://api.example.com/uploads/photo.png",
			"https://cdn.example.com/side.jpg",
			"https://api.example.com/uploads/inline.png",
		}, f.media.requests[0].URLs)

		stored := f.products.bySlug["pressure-sensor"]
		assert.Equal(t, "https://media.local/p/photo", stored.ImageURL)
		assert.Equal(t, []string{"https://media.local/p/side"}, stored.Gallery)
		assert.Contains(t, stored.Overview, "https://media.local/p/inline")
		assert.NotContains(t, stored.Overview, "/uploads/inline.png")
	})

	t.Run("images already on local storage are not copied again", func(t *testing.T) {
		payload := testPayload(11, "SEN-A")
		payload.Image = "https://media.local/p/cover"
		payload.Gallery = nil
		payload.Overview = `<p>Rugged.<img src="https://media.local/p/inline"/></p>`
		f := newProductFixture(payload)

		_, err := f.uc.ReconcileItem(context.Background(), queueItemFor(payload))
		require.NoError(t, err)

		assert.Empty(t, f.media.requests)
		stored := f.products.bySlug["pressure-sensor"]
		assert.Equal(t, "https://media.local/p/cover", stored.ImageURL)
		assert.Contains(t, stored.Overview, "https://media.local/p/inline")
	})

	t.Run("links categories by remote id with a name fallback", func(t *testing.T) {
		payload := testPayload(11, "SEN-A")
		payload.Categories = []domain.CategoryRef{
			{RemoteID: 1, Name: "Sensors"},
			{RemoteID: 0, Name: "controllers"},
			{RemoteID: 999, Name: "Discontinued"},
		}
		f := newProductFixture(payload)

		sensors, err := f.categories.Upsert(context.Background(), domain.NewCategory(1, "Sensors", "sensors", "", 1, nil))
		require.NoError(t, err)
		controllers, err := f.categories.Upsert(context.Background(), domain.NewCategory(2, "Controllers", "controllers", "", 1, nil))
		require.NoError(t, err)

		res, err := f.uc.ReconcileItem(context.Background(), queueItemFor(payload))
		require.NoError(t, err)

		assert.Equal(t, []int64{sensors.ID, controllers.ID}, f.products.categories[res.ProductID])
	})

	t.Run("category slug hint from the list wins the first link", func(t *testing.T) {
		payload := testPayload(11, "SEN-A")
		payload.Categories = nil
		f := newProductFixture(payload)

		hinted, err := f.categories.Upsert(context.Background(), domain.NewCategory(5, "Actuators", "actuators", "", 1, nil))
		require.NoError(t, err)

		item := queueItemFor(payload)
		item.CategorySlug = "actuators"

		res, err := f.uc.ReconcileItem(context.Background(), item)
		require.NoError(t, err)

		assert.Equal(t, []int64{hinted.ID}, f.products.categories[res.ProductID])
	})

	t.Run("blank title rejects the payload", func(t *testing.T) {
		payload := testPayload(11, "SEN-A")
		payload.Title = "  "
		f := newProductFixture(payload)

		_, err := f.uc.ReconcileItem(context.Background(), queueItemFor(payload))
		require.ErrorIs(t, err, e.ErrRemoteMalformed)
	})

	t.Run("unparsable price becomes nil, not an error", func(t *testing.T) {
		payload := testPayload(11, "SEN-A")
		payload.Price = "call us"
		f := newProductFixture(payload)

		res, err := f.uc.ReconcileItem(context.Background(), queueItemFor(payload))
		require.NoError(t, err)

		assert.Equal(t, ReconcileCreated, res.Status)
		assert.Nil(t, f.products.bySlug["pressure-sensor"].Price)
	})
}
