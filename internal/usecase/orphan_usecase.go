package usecase

import (
	"context"
	"fmt"

	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/shahadul878/planet-2.0/internal/cfg"
	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/pkg/e"
	"github.com/shahadul878/planet-2.0/pkg/logger"
)

// OrphanUseCase handles local products that disappeared from the remote
// catalog, applying the configured disposition. Only products stamped with
// a fingerprint by a prior sync are ever considered; manually created rows
// are never touched.
type OrphanUseCase struct {
	productRepo  ProductRepository
	client       CatalogClient
	activityRepo ActivityRepository
	mediaInfra   MediaInfra
	dbPool       transaction.Transactional
	cfg          *cfg.SyncCfg
	logger       logger.Logger
}

func NewOrphanUC(
	productRepo ProductRepository,
	client CatalogClient,
	activityRepo ActivityRepository,
	mediaInfra MediaInfra,
	dbPool transaction.Transactional,
	cfg *cfg.SyncCfg,
	logger logger.Logger,
) *OrphanUseCase {
	return &OrphanUseCase{
		productRepo:  productRepo,
		client:       client,
		activityRepo: activityRepo,
		mediaInfra:   mediaInfra,
		dbPool:       dbPool,
		cfg:          cfg,
		logger:       logger,
	}
}

// Handle runs an operator-requested orphan pass against the live remote
// list. The keep disposition short-circuits before any remote call.
func (o *OrphanUseCase) Handle(ctx context.Context, req *OrphanReq) (*domain.OrphanReport, error) {
	const op = "OrphanUseCase.Handle"

	action := req.Action
	if action == "" {
		action = o.cfg.OrphanAction
	}
	if !domain.ValidOrphanAction(action) {
		return nil, e.Wrap(op, fmt.Errorf("unknown orphan action %q", action))
	}

	if action == domain.OrphanKeep {
		return &domain.OrphanReport{Action: action}, nil
	}

	entries, err := o.client.ListProducts(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	report, err := o.sweep(ctx, action, req.DryRun, entries)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return report, nil
}

// Sweep runs the configured disposition against an already-fetched remote
// list, so batch initialization reuses its own list fetch.
func (o *OrphanUseCase) Sweep(ctx context.Context, entries []domain.ProductListEntry) (*domain.OrphanReport, error) {
	const op = "OrphanUseCase.Sweep"

	action := o.cfg.OrphanAction
	if action == domain.OrphanKeep {
		return &domain.OrphanReport{Action: action}, nil
	}

	report, err := o.sweep(ctx, action, false, entries)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return report, nil
}

// sweep detects orphans and applies the disposition entry by entry.
// Disposition failures are logged and counted, they never abort the pass.
// An empty remote list aborts instead: wiping the whole catalog because the
// remote hiccuped is never the right call.
func (o *OrphanUseCase) sweep(ctx context.Context, action string, dryRun bool, entries []domain.ProductListEntry) (*domain.OrphanReport, error) {
	if len(entries) == 0 {
		o.logger.Warnf("remote product list is empty, refusing orphan pass")
		return nil, e.ErrRemoteMalformed
	}

	liveSlugs := make([]string, 0, len(entries))
	liveIDs := make([]int64, 0, len(entries))
	for _, entry := range entries {
		if entry.Slug != "" {
			liveSlugs = append(liveSlugs, entry.Slug)
		}
		if entry.RemoteID > 0 {
			liveIDs = append(liveIDs, entry.RemoteID)
		}
	}

	orphans, err := o.productRepo.FindOrphans(ctx, liveSlugs, liveIDs)
	if err != nil {
		return nil, err
	}

	report := &domain.OrphanReport{
		Action:   action,
		Detected: len(orphans),
	}

	if len(orphans) == 0 || dryRun {
		return report, nil
	}

	var deletedImageURLs []string
	for _, orphan := range orphans {
		if err := o.apply(ctx, action, orphan.ID); err != nil {
			o.logger.Warnf("orphan disposition %s failed for product %d (%s): %v", action, orphan.ID, orphan.Slug, err)
			report.Failed++
			continue
		}
		report.Affected = append(report.Affected, orphan.ID)
		if action == domain.OrphanHardDelete {
			deletedImageURLs = append(deletedImageURLs, orphan.ImageURL)
			deletedImageURLs = append(deletedImageURLs, orphan.Gallery...)
		}
	}

	// A hard-deleted row leaves its mirrored images behind in object
	// storage; drop them too.
	if len(deletedImageURLs) > 0 {
		o.mediaInfra.CleanupImages(deletedImageURLs)
	}

	entry := domain.NewActivityEntry(domain.ActivityLevelWarning, "orphans_handled",
		fmt.Sprintf("%d orphaned products, action %s, %d failed", report.Detected, action, report.Failed), nil)
	if err := o.activityRepo.Append(ctx, entry); err != nil {
		o.logger.Warnf("failed to append activity log: %v", err)
	}

	return report, nil
}

func (o *OrphanUseCase) apply(ctx context.Context, action string, id int64) error {
	switch action {
	case domain.OrphanHide:
		return o.productRepo.UpdateStatus(ctx, []int64{id}, domain.ProductStatusHidden)
	case domain.OrphanSoftDelete:
		return o.productRepo.UpdateStatus(ctx, []int64{id}, domain.ProductStatusSoftDeleted)
	case domain.OrphanHardDelete:
		return o.hardDelete(ctx, id)
	}

	return fmt.Errorf("unknown orphan action %q", action)
}

// hardDelete removes the row and its category links atomically.
func (o *OrphanUseCase) hardDelete(ctx context.Context, id int64) error {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, o.dbPool)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err = o.productRepo.Delete(ctx, []int64{id}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
