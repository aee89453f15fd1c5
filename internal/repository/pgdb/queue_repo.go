package pgdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/pkg/e"
	"github.com/shahadul878/planet-2.0/pkg/tr"
)

const queueColumns = `id, batch_id, slug, remote_id, product_code, title, category_slug, status, attempts, last_error, created_at, updated_at`

// QueueRepo implements the sync queue store on top of PostgreSQL.
type QueueRepo struct {
	pool *pgxpool.Pool
}

func NewQueueRepo(pool *pgxpool.Pool) *QueueRepo {
	return &QueueRepo{pool: pool}
}

// Enqueue inserts queue items for a new batch. Runs inside the caller's
// transaction so a failed batch init leaves no partial queue behind.
func (q *QueueRepo) Enqueue(ctx context.Context, items []*domain.QueueItem) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO sync_queue (batch_id, slug, remote_id, product_code, title, category_slug, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.BatchID, item.Slug, item.RemoteID, item.ProductCode, item.Title, item.CategorySlug, item.Status)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("%s: failed to enqueue item: %w", whereami.WhereAmI(), err)
		}
	}

	return nil
}

// ClaimNext locks the oldest pending item of the batch, bumps its attempt
// counter and returns it. Concurrent workers skip each other's locked rows.
// Returns nil when no pending items remain.
func (q *QueueRepo) ClaimNext(ctx context.Context, batchID string) (*domain.QueueItem, error) {
	query := `
		UPDATE sync_queue
		SET attempts = attempts + 1, updated_at = NOW()
		WHERE id = (
			SELECT id FROM sync_queue
			WHERE batch_id = $1 AND status = $2
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + queueColumns + `;
	`

	var model QueueItemModel
	err := q.pool.QueryRow(ctx, query, batchID, domain.QueueStatusPending).Scan(
		&model.ID, &model.BatchID, &model.Slug, &model.RemoteID, &model.ProductCode,
		&model.Title, &model.CategorySlug, &model.Status, &model.Attempts,
		&model.LastError, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return model.ToEntity(), nil
}

// MarkSynced moves the item to the synced status.
func (q *QueueRepo) MarkSynced(ctx context.Context, id int64) error {
	return q.markStatus(ctx, id, domain.QueueStatusSynced, "")
}

// MarkSkipped moves the item to the skipped status, recording why.
func (q *QueueRepo) MarkSkipped(ctx context.Context, id int64, reason string) error {
	return q.markStatus(ctx, id, domain.QueueStatusSkipped, reason)
}

// MarkFailed moves the item to the failed status, recording the error.
func (q *QueueRepo) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	return q.markStatus(ctx, id, domain.QueueStatusFailed, errMsg)
}

// RequeueForRetry puts a failed attempt back into pending without touching
// the attempt counter, so the limit still applies on the next claim.
func (q *QueueRepo) RequeueForRetry(ctx context.Context, id int64, errMsg string) error {
	return q.markStatus(ctx, id, domain.QueueStatusPending, errMsg)
}

func (q *QueueRepo) markStatus(ctx context.Context, id int64, status, lastError string) error {
	query := `
		UPDATE sync_queue
		SET status = $1, last_error = $2, updated_at = NOW()
		WHERE id = $3;
	`

	if _, err := q.pool.Exec(ctx, query, status, lastError, id); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Stats returns queue item counts by status for the batch.
func (q *QueueRepo) Stats(ctx context.Context, batchID string) (domain.Statistics, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3),
			COUNT(*) FILTER (WHERE status = $4),
			COUNT(*) FILTER (WHERE status = $5)
		FROM sync_queue
		WHERE batch_id = $1;
	`

	var stats domain.Statistics
	err := q.pool.QueryRow(ctx, query, batchID,
		domain.QueueStatusPending, domain.QueueStatusSynced,
		domain.QueueStatusSkipped, domain.QueueStatusFailed,
	).Scan(&stats.Total, &stats.Pending, &stats.Synced, &stats.Skipped, &stats.Failed)
	if err != nil {
		return domain.Statistics{}, e.Wrap(whereami.WhereAmI(), err)
	}

	return stats, nil
}

// ResetFailed returns failed items of the batch to pending with a fresh
// attempt budget. Used by both manual and automatic retry.
func (q *QueueRepo) ResetFailed(ctx context.Context, batchID string) (int64, error) {
	query := `
		UPDATE sync_queue
		SET status = $1, attempts = 0, last_error = '', updated_at = NOW()
		WHERE batch_id = $2 AND status = $3;
	`

	result, err := q.pool.Exec(ctx, query, domain.QueueStatusPending, batchID, domain.QueueStatusFailed)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return result.RowsAffected(), nil
}

// SkipPending marks every remaining pending item of the batch as skipped.
// Used on cancel so the batch closes with an accurate tally.
func (q *QueueRepo) SkipPending(ctx context.Context, batchID, reason string) (int64, error) {
	query := `
		UPDATE sync_queue
		SET status = $1, last_error = $2, updated_at = NOW()
		WHERE batch_id = $3 AND status = $4;
	`

	result, err := q.pool.Exec(ctx, query, domain.QueueStatusSkipped, reason, batchID, domain.QueueStatusPending)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return result.RowsAffected(), nil
}

// DeleteBatch removes every queue item of the batch.
func (q *QueueRepo) DeleteBatch(ctx context.Context, batchID string) error {
	if _, err := q.pool.Exec(ctx, `DELETE FROM sync_queue WHERE batch_id = $1;`, batchID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteStalePending drops pending items older than the cutoff. They belong
// to batches that were abandoned without being cancelled.
func (q *QueueRepo) DeleteStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		DELETE FROM sync_queue
		WHERE status = $1 AND created_at < NOW() - $2::interval;
	`

	interval := fmt.Sprintf("%d seconds", int64(olderThan.Seconds()))
	result, err := q.pool.Exec(ctx, query, domain.QueueStatusPending, interval)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return result.RowsAffected(), nil
}

// List returns queue items of the batch, optionally filtered by status,
// ordered oldest first.
func (q *QueueRepo) List(ctx context.Context, batchID, status string, limit, offset int) ([]*domain.QueueItem, error) {
	query := `
		SELECT ` + queueColumns + `
		FROM sync_queue
		WHERE batch_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY id
		LIMIT $3 OFFSET $4;
	`

	rows, err := q.pool.Query(ctx, query, batchID, status, limit, offset)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	items := make([]*domain.QueueItem, 0)
	for rows.Next() {
		var model QueueItemModel
		if err := rows.Scan(
			&model.ID, &model.BatchID, &model.Slug, &model.RemoteID, &model.ProductCode,
			&model.Title, &model.CategorySlug, &model.Status, &model.Attempts,
			&model.LastError, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		items = append(items, model.ToEntity())
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return items, nil
}
