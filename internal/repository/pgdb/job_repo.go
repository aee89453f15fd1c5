package pgdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/pkg/e"
)

// JobRepo implements the background work queue on top of PostgreSQL.
// Each job tells a worker to process the next queue item of a batch.
type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// Push enqueues a job and wakes listening workers.
func (j *JobRepo) Push(ctx context.Context, job *domain.SyncJob) error {
	query := `
		INSERT INTO sync_jobs (batch_id)
		VALUES ($1)
		RETURNING id, created_at;
	`

	if err := j.pool.QueryRow(ctx, query, job.BatchID).
		Scan(&job.ID, &job.CreatedAt); err != nil {
		return fmt.Errorf("%s: failed to insert job: %w", whereami.WhereAmI(), err)
	}

	if _, err := j.pool.Exec(ctx, "NOTIFY sync_jobs_pending;"); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Claim atomically removes and returns the oldest job. Concurrent workers
// skip each other's locked rows. Returns nil when the queue is empty.
func (j *JobRepo) Claim(ctx context.Context) (*domain.SyncJob, error) {
	query := `
		DELETE FROM sync_jobs
		WHERE id = (
			SELECT id FROM sync_jobs
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, batch_id, created_at;
	`

	var job domain.SyncJob
	err := j.pool.QueryRow(ctx, query).Scan(&job.ID, &job.BatchID, &job.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &job, nil
}

// PendingCount returns the number of queued jobs.
func (j *JobRepo) PendingCount(ctx context.Context) (int64, error) {
	var count int64
	if err := j.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sync_jobs;`).Scan(&count); err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return count, nil
}

// DeleteByBatch drops all queued jobs of a batch. Used on cancel.
func (j *JobRepo) DeleteByBatch(ctx context.Context, batchID string) error {
	if _, err := j.pool.Exec(ctx, `DELETE FROM sync_jobs WHERE batch_id = $1;`, batchID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
