package pgdb

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/pkg/e"
)

const categoryColumns = `id, remote_id, name, slug, description, level, parent_id, created_at, updated_at`

// CategoryRepo implements the local category tree on top of PostgreSQL.
type CategoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

// Upsert idempotently creates or updates a category keyed by remote id.
func (c *CategoryRepo) Upsert(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		INSERT INTO categories (remote_id, name, slug, description, level, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (remote_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			description = EXCLUDED.description,
			level = EXCLUDED.level,
			parent_id = EXCLUDED.parent_id,
			updated_at = NOW()
		RETURNING ` + categoryColumns + `;
	`

	var model CategoryModel
	if err := c.pool.QueryRow(ctx, query,
		category.RemoteID, category.Name, category.Slug, category.Description,
		category.Level, category.ParentID,
	).Scan(
		&model.ID, &model.RemoteID, &model.Name, &model.Slug, &model.Description,
		&model.Level, &model.ParentID, &model.CreatedAt, &model.UpdatedAt,
	); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return model.ToEntity(), nil
}

// FindByRemoteID returns the category with the given remote id, or nil.
func (c *CategoryRepo) FindByRemoteID(ctx context.Context, remoteID int64) (*domain.Category, error) {
	return c.findOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE remote_id = $1;`, remoteID)
}

// FindBySlug returns the category with the given slug, or nil.
func (c *CategoryRepo) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return c.findOne(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1;`, slug)
}

// FindByName returns the category matching the given name at the given
// level, or nil. Matching is case-insensitive: rows created by hand
// before remote ids existed rarely agree on casing.
func (c *CategoryRepo) FindByName(ctx context.Context, name string, level int) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE LOWER(name) = LOWER($1) AND level = $2;`

	var model CategoryModel
	err := c.pool.QueryRow(ctx, query, name, level).Scan(
		&model.ID, &model.RemoteID, &model.Name, &model.Slug, &model.Description,
		&model.Level, &model.ParentID, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return model.ToEntity(), nil
}

func (c *CategoryRepo) findOne(ctx context.Context, query string, arg any) (*domain.Category, error) {
	var model CategoryModel
	err := c.pool.QueryRow(ctx, query, arg).Scan(
		&model.ID, &model.RemoteID, &model.Name, &model.Slug, &model.Description,
		&model.Level, &model.ParentID, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return model.ToEntity(), nil
}

// AdoptRemoteID backfills the remote id of a row matched by name.
func (c *CategoryRepo) AdoptRemoteID(ctx context.Context, id int64, remoteID int64) error {
	query := `
		UPDATE categories
		SET remote_id = $1, updated_at = NOW()
		WHERE id = $2;
	`

	if _, err := c.pool.Exec(ctx, query, remoteID, id); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// List returns the whole category tree ordered by level, then name.
func (c *CategoryRepo) List(ctx context.Context) ([]*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY level, name;`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		var model CategoryModel
		if err := rows.Scan(
			&model.ID, &model.RemoteID, &model.Name, &model.Slug, &model.Description,
			&model.Level, &model.ParentID, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		categories = append(categories, model.ToEntity())
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return categories, nil
}
