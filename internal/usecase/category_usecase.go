package usecase

import (
	"context"
	"strings"

	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/pkg/e"
	"github.com/shahadul878/planet-2.0/pkg/logger"
)

// CategoryUseCase mirrors the remote top-level categories into the local
// taxonomy. Matching prefers the stamped remote id; rows created before
// stamping existed are matched by case-insensitive name and then adopted.
type CategoryUseCase struct {
	categoryRepo CategoryRepository
	client       CatalogClient
	logger       logger.Logger
}

func NewCategoryUC(categoryRepo CategoryRepository, client CatalogClient, logger logger.Logger) *CategoryUseCase {
	return &CategoryUseCase{
		categoryRepo: categoryRepo,
		client:       client,
		logger:       logger,
	}
}

// ReconcileTopLevel fetches the remote top-level categories and upserts each
// one. Per-category failures are counted and skipped; only the remote fetch
// itself can fail the call. An empty or entirely invalid remote list aborts
// so a transient remote fault cannot wipe the taxonomy mapping.
func (c *CategoryUseCase) ReconcileTopLevel(ctx context.Context) (*ReconcileCategoriesRes, error) {
	const op = "CategoryUseCase.ReconcileTopLevel"

	remote, err := c.client.ListCategories(ctx, 1)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(remote) == 0 {
		return nil, e.Wrap(op, e.ErrCategoryValidation)
	}

	res := &ReconcileCategoriesRes{TotalRemote: len(remote)}
	for _, cat := range remote {
		if strings.TrimSpace(cat.Name) == "" || cat.RemoteID <= 0 {
			c.logger.Warnf("invalid remote category (id %d, name %q), skipping", cat.RemoteID, cat.Name)
			res.Errors++
			continue
		}

		if err := c.reconcileOne(ctx, cat, res); err != nil {
			c.logger.Warnf("category %q failed: %v", cat.Name, err)
			res.Errors++
		}
	}

	if res.Errors == res.TotalRemote {
		return nil, e.Wrap(op, e.ErrCategoryValidation)
	}

	c.logger.Infof("top-level categories reconciled. created: %d, updated: %d, adopted: %d, errors: %d",
		res.Created, res.Updated, res.Adopted, res.Errors)

	return res, nil
}

func (c *CategoryUseCase) reconcileOne(ctx context.Context, cat domain.RemoteCategory, res *ReconcileCategoriesRes) error {
	existing, err := c.categoryRepo.FindByRemoteID(ctx, cat.RemoteID)
	if err != nil {
		return err
	}

	if existing == nil {
		byName, err := c.categoryRepo.FindByName(ctx, cat.Name, 1)
		if err != nil {
			return err
		}
		if byName != nil {
			if err := c.categoryRepo.AdoptRemoteID(ctx, byName.ID, cat.RemoteID); err != nil {
				return err
			}
			res.Adopted++
			existing = byName
		}
	}

	if _, err := c.categoryRepo.Upsert(ctx, domain.NewCategory(cat.RemoteID, cat.Name, cat.Slug, cat.Description, 1, nil)); err != nil {
		return err
	}

	if existing == nil {
		res.Created++
	} else {
		res.Updated++
	}

	return nil
}

// Compare lines the remote top-level categories up against the local
// taxonomy without writing anything.
func (c *CategoryUseCase) Compare(ctx context.Context) (*CategoryComparison, error) {
	const op = "CategoryUseCase.Compare"

	remote, err := c.client.ListCategories(ctx, 1)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	locals, err := c.categoryRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	byRemoteID := make(map[int64]*domain.Category)
	byName := make(map[string]*domain.Category)
	for _, local := range locals {
		if local.Level != 1 {
			continue
		}
		if local.RemoteID > 0 {
			byRemoteID[local.RemoteID] = local
		}
		byName[strings.ToLower(local.Name)] = local
	}

	comparison := &CategoryComparison{
		Rows:    make([]CategoryComparisonRow, 0, len(remote)),
		Summary: CategoryComparisonSummary{TotalRemote: len(remote)},
	}

	for _, cat := range remote {
		row := CategoryComparisonRow{RemoteID: cat.RemoteID, Name: cat.Name}

		switch {
		case byRemoteID[cat.RemoteID] != nil:
			row.Status = ComparisonMatched
			row.LocalID = byRemoteID[cat.RemoteID].ID
			comparison.Summary.Matched++
		case byName[strings.ToLower(cat.Name)] != nil:
			row.Status = ComparisonNameMatch
			row.LocalID = byName[strings.ToLower(cat.Name)].ID
			comparison.Summary.NameMatch++
		default:
			row.Status = ComparisonMissing
			comparison.Summary.Missing++
		}

		comparison.Rows = append(comparison.Rows, row)
	}

	return comparison, nil
}
