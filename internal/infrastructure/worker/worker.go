package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shahadul878/planet-2.0/internal/cfg"
	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/internal/usecase"
	"github.com/shahadul878/planet-2.0/pkg/e"
	"github.com/shahadul878/planet-2.0/pkg/logger"
)

const (
	workerLockName = "sync_worker"
	workerLockTTL  = 5 * time.Minute
	notifyChannel  = "sync_jobs_pending"
)

// Worker drains the background job queue. It wakes on Postgres
// notifications and falls back to a periodic health check that re-arms
// processing when a notification was lost.
type Worker struct {
	jobRepo    usecase.JobRepository
	syncUC     usecase.SyncUC
	optionRepo usecase.OptionRepository
	cacheRepo  usecase.CacheRepository
	cfg        *cfg.SyncCfg
	logger     logger.Logger
	stop       chan struct{}
	wg         sync.WaitGroup
	dbConnStr  string
}

func NewWorker(
	jobRepo usecase.JobRepository,
	syncUC usecase.SyncUC,
	optionRepo usecase.OptionRepository,
	cacheRepo usecase.CacheRepository,
	cfg *cfg.SyncCfg,
	logger logger.Logger,
	dbConnStr string,
) *Worker {
	return &Worker{
		jobRepo:    jobRepo,
		syncUC:     syncUC,
		optionRepo: optionRepo,
		cacheRepo:  cacheRepo,
		cfg:        cfg,
		logger:     logger,
		stop:       make(chan struct{}),
		dbConnStr:  dbConnStr,
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(3)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	go func() {
		defer w.wg.Done()
		w.listenJobNotifications(ctx)
	}()

	go func() {
		defer w.wg.Done()
		w.healthLoop(ctx)
	}()
}

func (w *Worker) Stop() {
	close(w.stop)
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	// Drain leftovers from before the restart
	w.logger.Infof("Draining pending sync jobs on startup...")
	w.drain(ctx)

	<-ctx.Done()
	w.logger.Infof("Worker stopped by context cancellation")
}

// TriggerProcessing drains the job queue synchronously. Serves the manual
// "run now" control for operators.
func (w *Worker) TriggerProcessing(ctx context.Context) error {
	return w.drain(ctx)
}

// drain claims and processes jobs until the queue empties or processing is
// paused. The redis lock keeps replicas from processing concurrently.
func (w *Worker) drain(ctx context.Context) error {
	acquired, err := w.cacheRepo.AcquireLock(ctx, workerLockName, workerLockTTL)
	if err != nil {
		return e.Wrap("worker.drain", err)
	}
	if !acquired {
		w.logger.Debugf("another worker holds the processing lock, skipping drain")
		return nil
	}
	defer func() {
		if err := w.cacheRepo.ReleaseLock(ctx, workerLockName); err != nil {
			w.logger.Warnf("failed to release worker lock: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stop:
			return nil
		default:
		}

		state, err := w.optionRepo.Get(ctx, domain.OptionWorkerState)
		if err != nil {
			w.logger.Warnf("failed to read worker state: %v", err)
			return nil
		}
		if state == domain.WorkerStatePaused || state == domain.WorkerStateCancelled {
			return nil
		}

		job, err := w.jobRepo.Claim(ctx)
		if err != nil {
			w.logger.Warnf("job claim failed: %v", err)
			return nil
		}
		if job == nil {
			return nil
		}

		w.stepBatch(ctx, job.BatchID)
	}
}

// stepBatch walks one batch item by item until it finishes, pauses or is
// replaced. It does not depend on a job per item, so a batch recovers even
// when most of its dispatches were lost.
func (w *Worker) stepBatch(ctx context.Context, batchID string) {
	consecutiveErrs := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		result, err := w.syncUC.StepOne(ctx, batchID)
		if err != nil {
			consecutiveErrs++
			w.logger.Warnf("step failed for batch %s: %v", batchID, err)
			if consecutiveErrs >= 3 {
				// Something systemic, back off until the health check
				w.logger.Warnf("giving up on batch %s until the next health check", batchID)
				return
			}
			w.sleep(ctx)
			continue
		}
		consecutiveErrs = 0

		if result.Done || result.Status == domain.WorkerStatePaused {
			return
		}

		w.sleep(ctx)
	}
}

// sleep paces item processing so the remote API is not hammered.
func (w *Worker) sleep(ctx context.Context) {
	if w.cfg.PerItemSleep <= 0 {
		return
	}
	select {
	case <-time.After(w.cfg.PerItemSleep):
	case <-ctx.Done():
	case <-w.stop:
	}
}

// listenJobNotifications holds a dedicated connection subscribed to job
// pushes and drains on every wake. Lost connections reconnect with backoff.
func (w *Worker) listenJobNotifications(ctx context.Context) {
	var conn *pgx.Conn
	var err error

	connect := func() error {
		conn, err = pgx.Connect(ctx, w.dbConnStr)
		if err != nil {
			return e.Wrap("failed to connect for LISTEN", err)
		}

		_, err = conn.Exec(ctx, "LISTEN "+notifyChannel)
		if err != nil {
			conn.Close(ctx)
			return e.Wrap("failed to LISTEN", err)
		}

		w.logger.Infof("Subscribed to '%s' channel", notifyChannel)
		return nil
	}

	if err := connect(); err != nil {
		w.logger.Warnf("Initial connect failed: %v", err)
		return
	}
	defer conn.Close(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
			ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
			notif, err := conn.WaitForNotification(ctxWithTimeout)
			cancel()

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					continue
				}
				w.logger.Warnf("Connection lost: %v. Reconnecting...", err)
				conn.Close(ctx)

				time.Sleep(2 * time.Second)
				if err := connect(); err != nil {
					w.logger.Warnf("Reconnect failed: %v", err)
					time.Sleep(5 * time.Second)
				}
				continue
			}

			if notif != nil && notif.Channel == notifyChannel {
				w.logger.Debugf("Received job notification, draining sync jobs")
				w.drain(ctx)
			}
		}
	}
}

// healthLoop is the safety net: every interval it drains any stranded jobs
// and re-arms a running batch whose job queue ran dry.
func (w *Worker) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.healthCheck(ctx)
		}
	}
}

func (w *Worker) healthCheck(ctx context.Context) {
	pending, err := w.jobRepo.PendingCount(ctx)
	if err != nil {
		w.logger.Warnf("health check: pending count failed: %v", err)
		return
	}

	if pending > 0 {
		w.logger.Infof("health check: %d stranded jobs, draining", pending)
		w.drain(ctx)
		return
	}

	// No jobs queued. If a running batch still has pending queue items,
	// its dispatches were lost; push one job to restart the chain.
	batchID, err := w.syncUC.ActiveBatch(ctx)
	if err != nil || batchID == "" {
		return
	}

	state, err := w.optionRepo.Get(ctx, domain.OptionWorkerState)
	if err != nil || state != domain.WorkerStateRunning {
		return
	}

	// Step batches advance through explicit calls or the scheduler, never
	// through the job queue.
	method, err := w.optionRepo.Get(ctx, domain.OptionBatchMethod)
	if err != nil || method == domain.SyncMethodStep {
		return
	}

	w.logger.Infof("health check: re-arming batch %s", batchID)
	if err := w.jobRepo.Push(ctx, domain.NewSyncJob(batchID)); err != nil {
		w.logger.Warnf("health check: failed to push job: %v", err)
	}
}
