package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shahadul878/planet-2.0/internal/cfg"
	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/pkg/e"
)

type orphanFixture struct {
	uc       *OrphanUseCase
	products *fakeProductRepo
	activity *fakeActivityRepo
	client   *fakeCatalogClient
	media    *fakeMediaInfra
}

func newOrphanFixture() *orphanFixture {
	f := &orphanFixture{
		products: newFakeProductRepo(),
		activity: &fakeActivityRepo{},
		client: &fakeCatalogClient{
			products: []domain.ProductListEntry{{RemoteID: 11, ProductCode: "SEN-A", Slug: "sensor-a"}},
		},
		media: &fakeMediaInfra{},
	}

	orphanA := domain.NewProduct(91, "Gone A", "GONE-A", "gone-a")
	orphanA.ID = 1
	orphanA.ImageURL = "https://media.local/b/gone-a/cover"
	orphanA.Gallery = []string{"https://media.local/b/gone-a/side"}
	orphanB := domain.NewProduct(92, "Gone B", "GONE-B", "gone-b")
	orphanB.ID = 2
	orphanB.ImageURL = "https://media.local/b/gone-b/cover"
	f.products.orphans = []*domain.Product{orphanA, orphanB}

	f.uc = NewOrphanUC(f.products, f.client, f.activity, f.media, fakeDB{},
		&cfg.SyncCfg{OrphanAction: domain.OrphanHide}, nopLogger{})

	return f
}

func TestOrphanHandle(t *testing.T) {
	t.Run("dry run only reports", func(t *testing.T) {
		f := newOrphanFixture()

		report, err := f.uc.Handle(context.Background(), &OrphanReq{DryRun: true})
		require.NoError(t, err)

		assert.Equal(t, 2, report.Detected)
		assert.Empty(t, report.Affected)
		assert.Empty(t, f.products.statuses)
	})

	t.Run("keep short-circuits before any remote call", func(t *testing.T) {
		f := newOrphanFixture()
		f.client.productsErr = e.ErrRemoteUnreachable

		report, err := f.uc.Handle(context.Background(), &OrphanReq{Action: domain.OrphanKeep})
		require.NoError(t, err)

		assert.Equal(t, domain.OrphanKeep, report.Action)
		assert.Zero(t, report.Detected)
		assert.Empty(t, f.products.statuses)
	})

	t.Run("matches the live list by slug and remote id", func(t *testing.T) {
		f := newOrphanFixture()

		_, err := f.uc.Handle(context.Background(), &OrphanReq{Action: domain.OrphanHide})
		require.NoError(t, err)

		assert.Equal(t, []string{"sensor-a"}, f.products.orphanSlugs)
		assert.Equal(t, []int64{11}, f.products.orphanIDs)
	})

	t.Run("hide flips orphan statuses", func(t *testing.T) {
		f := newOrphanFixture()

		report, err := f.uc.Handle(context.Background(), &OrphanReq{Action: domain.OrphanHide})
		require.NoError(t, err)

		assert.Equal(t, []int64{1, 2}, report.Affected)
		assert.Zero(t, report.Failed)
		assert.Equal(t, domain.ProductStatusHidden, f.products.statuses[1])
		assert.Equal(t, domain.ProductStatusHidden, f.products.statuses[2])
		assert.True(t, f.activity.hasEvent("orphans_handled"))
	})

	t.Run("soft delete uses the soft deleted status", func(t *testing.T) {
		f := newOrphanFixture()

		_, err := f.uc.Handle(context.Background(), &OrphanReq{Action: domain.OrphanSoftDelete})
		require.NoError(t, err)

		assert.Equal(t, domain.ProductStatusSoftDeleted, f.products.statuses[1])
	})

	t.Run("hard delete removes the rows and their mirrored images", func(t *testing.T) {
		f := newOrphanFixture()

		_, err := f.uc.Handle(context.Background(), &OrphanReq{Action: domain.OrphanHardDelete})
		require.NoError(t, err)

		assert.Equal(t, []int64{1, 2}, f.products.deleted)
		require.Len(t, f.media.cleaned, 1)
		assert.Equal(t, []string{
			"https://media.local/b/gone-a/cover",
			"https://media.local/b/gone-a/side",
			"https://media.local/b/gone-b/cover",
		}, f.media.cleaned[0])
	})

	t.Run("hide keeps the mirrored images", func(t *testing.T) {
		f := newOrphanFixture()

		_, err := f.uc.Handle(context.Background(), &OrphanReq{Action: domain.OrphanHide})
		require.NoError(t, err)

		assert.Empty(t, f.media.cleaned)
	})

	t.Run("empty action falls back to the configured default", func(t *testing.T) {
		f := newOrphanFixture()

		report, err := f.uc.Handle(context.Background(), &OrphanReq{})
		require.NoError(t, err)

		assert.Equal(t, domain.OrphanHide, report.Action)
		assert.Equal(t, domain.ProductStatusHidden, f.products.statuses[1])
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		f := newOrphanFixture()

		_, err := f.uc.Handle(context.Background(), &OrphanReq{Action: "purge"})
		require.Error(t, err)
	})

	t.Run("empty remote list aborts the pass", func(t *testing.T) {
		f := newOrphanFixture()
		f.client.products = nil

		_, err := f.uc.Handle(context.Background(), &OrphanReq{Action: domain.OrphanHardDelete})
		require.ErrorIs(t, err, e.ErrRemoteMalformed)
		assert.Empty(t, f.products.deleted)
	})
}

func TestOrphanSweep(t *testing.T) {
	t.Run("applies the configured action to a prefetched list", func(t *testing.T) {
		f := newOrphanFixture()

		report, err := f.uc.Sweep(context.Background(), []domain.ProductListEntry{
			{RemoteID: 11, Slug: "sensor-a"},
		})
		require.NoError(t, err)

		assert.Equal(t, domain.OrphanHide, report.Action)
		assert.Equal(t, []int64{1, 2}, report.Affected)
	})

	t.Run("keep configuration skips the pass", func(t *testing.T) {
		f := newOrphanFixture()
		f.uc.cfg = &cfg.SyncCfg{OrphanAction: domain.OrphanKeep}

		report, err := f.uc.Sweep(context.Background(), nil)
		require.NoError(t, err)

		assert.Equal(t, domain.OrphanKeep, report.Action)
		assert.Zero(t, report.Detected)
	})

	t.Run("refuses an empty list", func(t *testing.T) {
		f := newOrphanFixture()

		_, err := f.uc.Sweep(context.Background(), nil)
		require.ErrorIs(t, err, e.ErrRemoteMalformed)
	})
}
