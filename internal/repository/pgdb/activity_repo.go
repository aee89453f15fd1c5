package pgdb

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/pkg/e"
)

// ActivityRepo persists the sync activity log.
type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

// Append writes one activity entry.
func (a *ActivityRepo) Append(ctx context.Context, entry *domain.ActivityEntry) error {
	query := `
		INSERT INTO sync_log (level, event, message, context)
		VALUES ($1, $2, $3, $4);
	`

	payload := entry.Context
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	if _, err := a.pool.Exec(ctx, query, entry.Level, entry.Event, entry.Message, []byte(payload)); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Recent returns the newest entries, optionally filtered by level.
func (a *ActivityRepo) Recent(ctx context.Context, level string, limit int) ([]*domain.ActivityEntry, error) {
	query := `
		SELECT id, level, event, message, context, created_at
		FROM sync_log
		WHERE ($1 = '' OR level = $1)
		ORDER BY id DESC
		LIMIT $2;
	`

	rows, err := a.pool.Query(ctx, query, level, limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	entries := make([]*domain.ActivityEntry, 0)
	for rows.Next() {
		var entry domain.ActivityEntry
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.Level, &entry.Event, &entry.Message, &payload, &entry.CreatedAt); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		entry.Context = payload
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return entries, nil
}

// Clear wipes the activity log entirely.
func (a *ActivityRepo) Clear(ctx context.Context) (int64, error) {
	result, err := a.pool.Exec(ctx, `DELETE FROM sync_log;`)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return result.RowsAffected(), nil
}

// Prune drops entries beyond the newest keep rows.
func (a *ActivityRepo) Prune(ctx context.Context, keep int) (int64, error) {
	query := `
		DELETE FROM sync_log
		WHERE id < (
			SELECT COALESCE(MIN(id), 0) FROM (
				SELECT id FROM sync_log ORDER BY id DESC LIMIT $1
			) newest
		);
	`

	result, err := a.pool.Exec(ctx, query, keep)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return result.RowsAffected(), nil
}
