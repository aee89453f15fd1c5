package pgdb

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/shahadul878/planet-2.0/pkg/e"
)

// OptionRepo persists small key-value sync state (worker control flags,
// active batch id, auto retry marker).
type OptionRepo struct {
	pool *pgxpool.Pool
}

func NewOptionRepo(pool *pgxpool.Pool) *OptionRepo {
	return &OptionRepo{pool: pool}
}

// Get returns the option value. Missing keys return an empty string.
func (o *OptionRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := o.pool.QueryRow(ctx, `SELECT value FROM sync_options WHERE key = $1;`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return value, nil
}

// Set writes the option value, creating the key when needed.
func (o *OptionRepo) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO sync_options (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW();
	`

	if _, err := o.pool.Exec(ctx, query, key, value); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Delete removes the option key.
func (o *OptionRepo) Delete(ctx context.Context, key string) error {
	if _, err := o.pool.Exec(ctx, `DELETE FROM sync_options WHERE key = $1;`, key); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// SetIfAbsent writes the option only when the key does not exist yet.
// Reports whether the write happened. Backs the once-per-batch auto retry.
func (o *OptionRepo) SetIfAbsent(ctx context.Context, key, value string) (bool, error) {
	query := `
		INSERT INTO sync_options (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING;
	`

	result, err := o.pool.Exec(ctx, query, key, value)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return result.RowsAffected() > 0, nil
}
