package pgdb

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/pkg/e"
	"github.com/shahadul878/planet-2.0/pkg/tr"
)

const productColumns = `
	id, remote_id, title, product_code, slug, status, price,
	overview, applications, key_features, specifications,
	image_url, gallery, fingerprint, created_at, updated_at, synced_at
`

// ProductRepo implements the local catalog mirror on top of PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

// Upsert idempotently creates or updates a product keyed by slug.
// The row is rewritten only when the content fingerprint changed, so an
// unchanged payload is a no-op reported via noChanges.
func (p *ProductRepo) Upsert(ctx context.Context, product *domain.Product) (*domain.Product, bool, error) {
	specs, err := json.Marshal(product.Specifications)
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		WITH upsert AS (
		INSERT INTO products (
			remote_id, title, product_code, slug, status, price,
			overview, applications, key_features, specifications,
			image_url, gallery, fingerprint, synced_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (slug)
		DO UPDATE SET
			remote_id = EXCLUDED.remote_id,
			title = EXCLUDED.title,
			product_code = EXCLUDED.product_code,
			status = EXCLUDED.status,
			price = EXCLUDED.price,
			overview = EXCLUDED.overview,
			applications = EXCLUDED.applications,
			key_features = EXCLUDED.key_features,
			specifications = EXCLUDED.specifications,
			image_url = EXCLUDED.image_url,
			gallery = EXCLUDED.gallery,
			fingerprint = EXCLUDED.fingerprint,
			updated_at = NOW(),
			synced_at = NOW()
		WHERE
			products.fingerprint IS DISTINCT FROM EXCLUDED.fingerprint
		RETURNING ` + productColumns + `
		)
		SELECT ` + productColumns + `, false AS no_changes
		FROM upsert

		UNION ALL

		SELECT ` + productColumns + `, true AS no_changes
		FROM products
		WHERE slug = $4
		  AND NOT EXISTS (SELECT 1 FROM upsert);
	`

	var model ProductModel
	var noChanges bool
	err = p.pool.QueryRow(ctx, query,
		product.RemoteID, product.Title, product.ProductCode, product.Slug,
		product.Status, product.Price, product.Overview, product.Applications,
		product.KeyFeatures, specs, product.ImageURL, product.Gallery,
		product.Fingerprint,
	).Scan(
		&model.ID, &model.RemoteID, &model.Title, &model.ProductCode, &model.Slug,
		&model.Status, &model.Price, &model.Overview, &model.Applications,
		&model.KeyFeatures, &model.Specifications, &model.ImageURL, &model.Gallery,
		&model.Fingerprint, &model.CreatedAt, &model.UpdatedAt, &model.SyncedAt,
		&noChanges,
	)
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	entity, err := model.ToEntity()
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	return entity, noChanges, nil
}

// FindBySlug returns the product with the given slug, or nil.
func (p *ProductRepo) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return p.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1;`, slug)
}

// FindByCode returns the product with the given product code, or nil.
// Fallback matching for rows imported before slugs were stamped.
func (p *ProductRepo) FindByCode(ctx context.Context, code string) (*domain.Product, error) {
	return p.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE product_code = $1;`, code)
}

func (p *ProductRepo) findOne(ctx context.Context, query string, arg any) (*domain.Product, error) {
	var model ProductModel
	err := p.pool.QueryRow(ctx, query, arg).Scan(
		&model.ID, &model.RemoteID, &model.Title, &model.ProductCode, &model.Slug,
		&model.Status, &model.Price, &model.Overview, &model.Applications,
		&model.KeyFeatures, &model.Specifications, &model.ImageURL, &model.Gallery,
		&model.Fingerprint, &model.CreatedAt, &model.UpdatedAt, &model.SyncedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	entity, err := model.ToEntity()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return entity, nil
}

// AdoptRemote backfills the remote id and slug of a row matched by
// product code.
func (p *ProductRepo) AdoptRemote(ctx context.Context, id int64, remoteID int64, slug string) error {
	query := `
		UPDATE products
		SET remote_id = $1, slug = $2, updated_at = NOW()
		WHERE id = $3;
	`

	if _, err := p.pool.Exec(ctx, query, remoteID, slug, id); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// FindOrphans returns published, previously-synced products absent from
// the live remote catalog by both slug and remote id. Rows without a
// fingerprint were never touched by a sync and are left alone.
func (p *ProductRepo) FindOrphans(ctx context.Context, liveSlugs []string, liveRemoteIDs []int64) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE status = $1
		  AND fingerprint <> ''
		  AND slug != ALL($2)
		  AND remote_id != ALL($3)
		ORDER BY id;
	`

	rows, err := p.pool.Query(ctx, query, domain.ProductStatusPublished, liveSlugs, liveRemoteIDs)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		var model ProductModel
		if err := rows.Scan(
			&model.ID, &model.RemoteID, &model.Title, &model.ProductCode, &model.Slug,
			&model.Status, &model.Price, &model.Overview, &model.Applications,
			&model.KeyFeatures, &model.Specifications, &model.ImageURL, &model.Gallery,
			&model.Fingerprint, &model.CreatedAt, &model.UpdatedAt, &model.SyncedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		entity, err := model.ToEntity()
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		products = append(products, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

// UpdateStatus moves the given products to a new status.
func (p *ProductRepo) UpdateStatus(ctx context.Context, ids []int64, status string) error {
	query := `
		UPDATE products
		SET status = $1, updated_at = NOW()
		WHERE id = ANY($2);
	`

	if _, err := p.pool.Exec(ctx, query, status, ids); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Delete permanently removes the given products and their category links.
// Runs inside the caller's transaction.
func (p *ProductRepo) Delete(ctx context.Context, ids []int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM product_categories WHERE product_id = ANY($1);`, ids); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM products WHERE id = ANY($1);`, ids); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// ReplaceCategories rewrites the product's category links.
func (p *ProductRepo) ReplaceCategories(ctx context.Context, productID int64, categoryIDs []int64) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1;`, productID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	for _, catID := range categoryIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING;`,
			productID, catID,
		); err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
