package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shahadul878/planet-2.0/internal/cfg"
	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/pkg/e"
	"github.com/shahadul878/planet-2.0/pkg/logger"
)

// SyncUseCase orchestrates sync batches: initialization, step-wise
// processing, retries, operator controls and the progress view.
type SyncUseCase struct {
	queueRepo    QueueRepository
	jobRepo      JobRepository
	productUC    ProductUC
	categoryUC   CategoryUC
	orphanUC     OrphanUC
	client       CatalogClient
	cacheRepo    CacheRepository
	optionRepo   OptionRepository
	activityRepo ActivityRepository
	producer     EventProducer
	dbPool       transaction.Transactional
	cfg          *cfg.SyncCfg
	logger       logger.Logger
}

func NewSyncUC(
	queueRepo QueueRepository,
	jobRepo JobRepository,
	productUC ProductUC,
	categoryUC CategoryUC,
	orphanUC OrphanUC,
	client CatalogClient,
	cacheRepo CacheRepository,
	optionRepo OptionRepository,
	activityRepo ActivityRepository,
	producer EventProducer,
	dbPool transaction.Transactional,
	cfg *cfg.SyncCfg,
	logger logger.Logger,
) *SyncUseCase {
	return &SyncUseCase{
		queueRepo:    queueRepo,
		jobRepo:      jobRepo,
		productUC:    productUC,
		categoryUC:   categoryUC,
		orphanUC:     orphanUC,
		client:       client,
		cacheRepo:    cacheRepo,
		optionRepo:   optionRepo,
		activityRepo: activityRepo,
		producer:     producer,
		dbPool:       dbPool,
		cfg:          cfg,
		logger:       logger,
	}
}

// StartBatch reconciles the top-level categories, snapshots the remote
// product list into a new queue batch, sweeps orphans against that list and,
// for the background method, hands the batch to the workers. The step method
// leaves the queue for explicit StepNext drives.
func (s *SyncUseCase) StartBatch(ctx context.Context, req *StartBatchReq) (*StartBatchRes, error) {
	const op = "SyncUseCase.StartBatch"

	method := req.Method
	if method == "" {
		method = s.cfg.Method
	}
	if !domain.ValidSyncMethod(method) {
		return nil, e.Wrap(op, e.ErrUnknownSyncMethod)
	}

	active, err := s.optionRepo.Get(ctx, domain.OptionActiveBatch)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if active != "" {
		stats, err := s.queueRepo.Stats(ctx, active)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		if !stats.Done() {
			return nil, e.Wrap(op, e.ErrAlreadyRunning)
		}
	}

	catsRes, err := s.categoryUC.ReconcileTopLevel(ctx)
	if err != nil {
		s.logActivity(ctx, domain.ActivityLevelError, "category_reconcile_failed", err.Error(), nil)
		return nil, e.Wrap(op, err)
	}

	entries, err := s.client.ListProducts(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	valid := make([]domain.ProductListEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Slug == "" {
			s.logger.Warnf("remote list entry without slug (id %d, code %q), skipping", entry.RemoteID, entry.ProductCode)
			continue
		}
		valid = append(valid, entry)
	}
	if len(valid) == 0 {
		return nil, e.Wrap(op, e.ErrQueueEmpty)
	}

	if report, err := s.orphanUC.Sweep(ctx, entries); err != nil {
		s.logger.Warnf("orphan sweep failed: %v", err)
		s.logActivity(ctx, domain.ActivityLevelWarning, "orphan_sweep_failed", err.Error(), nil)
	} else if report.Detected > 0 {
		s.logger.Infof("orphan sweep: %d detected, action %s", report.Detected, report.Action)
	}

	if removed, err := s.queueRepo.DeleteStalePending(ctx, s.cfg.StalePendingAfter); err != nil {
		s.logger.Warnf("stale queue cleanup failed: %v", err)
	} else if removed > 0 {
		s.logger.Infof("removed %d stale pending queue items", removed)
	}

	batchID := fmt.Sprintf("sync_%d", time.Now().Unix())

	items := make([]*domain.QueueItem, 0, len(valid))
	for _, entry := range valid {
		items = append(items, domain.NewQueueItem(batchID, entry))
	}

	if err = s.enqueueAll(ctx, items); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := s.optionRepo.Set(ctx, domain.OptionActiveBatch, batchID); err != nil {
		return nil, e.Wrap(op, err)
	}
	if err := s.optionRepo.Set(ctx, domain.OptionBatchMethod, method); err != nil {
		return nil, e.Wrap(op, err)
	}
	if err := s.optionRepo.Set(ctx, domain.OptionWorkerState, domain.WorkerStateRunning); err != nil {
		return nil, e.Wrap(op, err)
	}
	s.cacheRepo.DeleteProgress(ctx)

	if method == domain.SyncMethodBackground {
		s.pushJobs(ctx, batchID, len(items))
	}

	s.publishEvent(ctx, domain.EventSyncStarted, batchID, domain.Statistics{Total: int64(len(items)), Pending: int64(len(items))})
	s.logActivity(ctx, domain.ActivityLevelInfo, "sync_started",
		fmt.Sprintf("batch %s queued %d products (%s)", batchID, len(items), method),
		mustJSON(map[string]any{"batch_id": batchID, "total": len(items), "method": method}))

	return &StartBatchRes{
		BatchID:           batchID,
		Method:            method,
		Total:             len(items),
		Skipped:           len(entries) - len(valid),
		CategoriesCreated: catsRes.Created,
		CategoriesUpdated: catsRes.Updated,
	}, nil
}

// enqueueAll writes queue items in chunks inside one transaction, so a
// failed initialization leaves no partial batch.
func (s *SyncUseCase) enqueueAll(ctx context.Context, items []*domain.QueueItem) error {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, s.dbPool)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	chunkSize := s.cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = len(items)
	}

	for start := 0; start < len(items); start += chunkSize {
		end := start + chunkSize
		if end > len(items) {
			end = len(items)
		}
		if err = s.queueRepo.Enqueue(ctx, items[start:end]); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// StepNext claims and processes a single item of the active batch. Serves
// the foreground drive; callers are expected to pace themselves between
// calls rather than loop tightly.
func (s *SyncUseCase) StepNext(ctx context.Context) (*StepResult, error) {
	const op = "SyncUseCase.StepNext"

	batchID, err := s.requireActiveBatch(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return s.StepOne(ctx, batchID)
}

// StepOne claims and processes a single queue item of the batch. When no
// pending items remain it fires the one-time automatic retry for failures,
// or closes the batch.
func (s *SyncUseCase) StepOne(ctx context.Context, batchID string) (*StepResult, error) {
	const op = "SyncUseCase.StepOne"

	active, err := s.optionRepo.Get(ctx, domain.OptionActiveBatch)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if active != batchID {
		// Stray job from a cancelled or replaced batch
		return &StepResult{BatchID: batchID, Done: true}, nil
	}

	state, err := s.optionRepo.Get(ctx, domain.OptionWorkerState)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if state == domain.WorkerStatePaused {
		return &StepResult{BatchID: batchID, Status: domain.WorkerStatePaused}, nil
	}

	item, err := s.queueRepo.ClaimNext(ctx, batchID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if item == nil {
		return s.finishBatch(ctx, batchID)
	}

	defer s.cacheRepo.DeleteProgress(ctx)

	if item.Attempts > s.cfg.MaxAttempts {
		// ClaimNext bumped past the budget, close the item out
		if err := s.queueRepo.MarkFailed(ctx, item.ID, "attempt limit exceeded"); err != nil {
			return nil, e.Wrap(op, err)
		}
		s.logActivity(ctx, domain.ActivityLevelError, "item_failed",
			fmt.Sprintf("product %s exceeded attempt limit", item.Slug), nil)
		return s.itemResult(ctx, item, domain.QueueStatusFailed, "attempt limit exceeded"), nil
	}

	res, reconcileErr := s.productUC.ReconcileItem(ctx, item)
	if reconcileErr != nil {
		return s.handleItemFailure(ctx, batchID, item, reconcileErr)
	}

	if res.Title != "" {
		item.Title = res.Title
	}

	if res.Status == ReconcileSkipped {
		if err := s.queueRepo.MarkSkipped(ctx, item.ID, "unchanged"); err != nil {
			return nil, e.Wrap(op, err)
		}
		return s.itemResult(ctx, item, domain.QueueStatusSkipped, "unchanged"), nil
	}

	if err := s.queueRepo.MarkSynced(ctx, item.ID); err != nil {
		return nil, e.Wrap(op, err)
	}

	return s.itemResult(ctx, item, domain.QueueStatusSynced, res.Status), nil
}

// itemResult assembles the per-item step result, with fresh statistics so
// foreground callers can render progress from the response alone.
func (s *SyncUseCase) itemResult(ctx context.Context, item *domain.QueueItem, status, message string) *StepResult {
	result := &StepResult{
		BatchID: item.BatchID,
		ItemID:  item.ID,
		Slug:    item.Slug,
		Name:    item.Title,
		Status:  status,
		Message: message,
	}

	if stats, err := s.queueRepo.Stats(ctx, item.BatchID); err == nil {
		result.Stats = stats
	}

	return result
}

// handleItemFailure requeues the item while attempts remain, otherwise
// marks it failed for good.
func (s *SyncUseCase) handleItemFailure(ctx context.Context, batchID string, item *domain.QueueItem, cause error) (*StepResult, error) {
	const op = "SyncUseCase.handleItemFailure"

	if item.Attempts < s.cfg.MaxAttempts {
		if err := s.queueRepo.RequeueForRetry(ctx, item.ID, cause.Error()); err != nil {
			return nil, e.Wrap(op, err)
		}
		s.pushBatchJobs(ctx, batchID, 1)
		s.logger.Warnf("product %s failed (attempt %d/%d), requeued: %v",
			item.Slug, item.Attempts, s.cfg.MaxAttempts, cause)
		return s.itemResult(ctx, item, "requeued", cause.Error()), nil
	}

	if err := s.queueRepo.MarkFailed(ctx, item.ID, cause.Error()); err != nil {
		return nil, e.Wrap(op, err)
	}
	s.logActivity(ctx, domain.ActivityLevelError, "item_failed",
		fmt.Sprintf("product %s failed after %d attempts: %v", item.Slug, item.Attempts, cause),
		mustJSON(map[string]any{"batch_id": batchID, "item_id": item.ID, "slug": item.Slug}))

	return s.itemResult(ctx, item, domain.QueueStatusFailed, cause.Error()), nil
}

// finishBatch runs when the queue has no pending items: either fire the
// once-per-batch automatic retry of failures, or close the batch.
func (s *SyncUseCase) finishBatch(ctx context.Context, batchID string) (*StepResult, error) {
	const op = "SyncUseCase.finishBatch"

	stats, err := s.queueRepo.Stats(ctx, batchID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if stats.Failed > 0 {
		first, err := s.optionRepo.SetIfAbsent(ctx, autoRetryKey(batchID), "1")
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		if first {
			requeued, err := s.queueRepo.ResetFailed(ctx, batchID)
			if err != nil {
				return nil, e.Wrap(op, err)
			}
			s.pushBatchJobs(ctx, batchID, int(requeued))
			s.logActivity(ctx, domain.ActivityLevelWarning, "auto_retry",
				fmt.Sprintf("batch %s: retrying %d failed items", batchID, requeued), nil)
			return &StepResult{BatchID: batchID, Requeued: requeued, Stats: stats}, nil
		}
	}

	s.recordLastSync(ctx, stats)
	if err := s.optionRepo.Delete(ctx, domain.OptionActiveBatch); err != nil {
		return nil, e.Wrap(op, err)
	}
	if err := s.optionRepo.Delete(ctx, domain.OptionBatchMethod); err != nil {
		return nil, e.Wrap(op, err)
	}
	if err := s.optionRepo.Set(ctx, domain.OptionWorkerState, domain.WorkerStateStopped); err != nil {
		return nil, e.Wrap(op, err)
	}
	s.cacheRepo.DeleteProgress(ctx)

	eventType := domain.EventSyncCompleted
	if stats.Failed > 0 {
		eventType = domain.EventSyncFailed
	}
	s.publishEvent(ctx, eventType, batchID, stats)
	s.logActivity(ctx, domain.ActivityLevelInfo, "sync_completed",
		fmt.Sprintf("batch %s done: %d synced, %d skipped, %d failed", batchID, stats.Synced, stats.Skipped, stats.Failed),
		mustJSON(map[string]any{"batch_id": batchID, "synced": stats.Synced, "skipped": stats.Skipped, "failed": stats.Failed}))

	return &StepResult{BatchID: batchID, Done: true, Stats: stats}, nil
}

// RetryFailed returns failed items of the active batch to pending on
// operator request.
func (s *SyncUseCase) RetryFailed(ctx context.Context) (int64, error) {
	const op = "SyncUseCase.RetryFailed"

	batchID, err := s.requireActiveBatch(ctx)
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	requeued, err := s.queueRepo.ResetFailed(ctx, batchID)
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	if err := s.optionRepo.Set(ctx, domain.OptionWorkerState, domain.WorkerStateRunning); err != nil {
		return 0, e.Wrap(op, err)
	}
	s.cacheRepo.DeleteProgress(ctx)
	s.pushBatchJobs(ctx, batchID, int(requeued))

	s.logActivity(ctx, domain.ActivityLevelInfo, "retry_failed",
		fmt.Sprintf("batch %s: %d failed items requeued", batchID, requeued), nil)

	return requeued, nil
}

// Pause suspends processing. Queued work stays put until Resume.
func (s *SyncUseCase) Pause(ctx context.Context) error {
	const op = "SyncUseCase.Pause"

	batchID, err := s.requireActiveBatch(ctx)
	if err != nil {
		return e.Wrap(op, err)
	}

	if err := s.optionRepo.Set(ctx, domain.OptionWorkerState, domain.WorkerStatePaused); err != nil {
		return e.Wrap(op, err)
	}
	s.cacheRepo.DeleteProgress(ctx)
	s.logActivity(ctx, domain.ActivityLevelInfo, "sync_paused", fmt.Sprintf("batch %s paused", batchID), nil)

	return nil
}

// Resume restarts processing of the active batch.
func (s *SyncUseCase) Resume(ctx context.Context) error {
	const op = "SyncUseCase.Resume"

	batchID, err := s.requireActiveBatch(ctx)
	if err != nil {
		return e.Wrap(op, err)
	}

	if err := s.optionRepo.Set(ctx, domain.OptionWorkerState, domain.WorkerStateRunning); err != nil {
		return e.Wrap(op, err)
	}
	s.cacheRepo.DeleteProgress(ctx)
	s.pushBatchJobs(ctx, batchID, 1)
	s.logActivity(ctx, domain.ActivityLevelInfo, "sync_resumed", fmt.Sprintf("batch %s resumed", batchID), nil)

	return nil
}

// Cancel aborts the active batch. Remaining pending items are marked
// skipped so the tally stays honest.
func (s *SyncUseCase) Cancel(ctx context.Context) error {
	const op = "SyncUseCase.Cancel"

	batchID, err := s.requireActiveBatch(ctx)
	if err != nil {
		return e.Wrap(op, err)
	}

	if err := s.optionRepo.Set(ctx, domain.OptionWorkerState, domain.WorkerStateCancelled); err != nil {
		return e.Wrap(op, err)
	}

	if err := s.jobRepo.DeleteByBatch(ctx, batchID); err != nil {
		return e.Wrap(op, err)
	}

	skipped, err := s.queueRepo.SkipPending(ctx, batchID, "cancelled")
	if err != nil {
		return e.Wrap(op, err)
	}

	stats, err := s.queueRepo.Stats(ctx, batchID)
	if err != nil {
		return e.Wrap(op, err)
	}

	s.recordLastSync(ctx, stats)
	if err := s.optionRepo.Delete(ctx, domain.OptionActiveBatch); err != nil {
		return e.Wrap(op, err)
	}
	if err := s.optionRepo.Delete(ctx, domain.OptionBatchMethod); err != nil {
		return e.Wrap(op, err)
	}
	if err := s.optionRepo.Set(ctx, domain.OptionWorkerState, domain.WorkerStateStopped); err != nil {
		return e.Wrap(op, err)
	}
	s.cacheRepo.DeleteProgress(ctx)

	s.publishEvent(ctx, domain.EventSyncCancelled, batchID, stats)
	s.logActivity(ctx, domain.ActivityLevelWarning, "sync_cancelled",
		fmt.Sprintf("batch %s cancelled, %d pending items skipped", batchID, skipped), nil)

	return nil
}

// Progress serves the operator view, recomputing from the queue only when
// the short-lived cached snapshot expired.
func (s *SyncUseCase) Progress(ctx context.Context) (*domain.ProgressSnapshot, error) {
	const op = "SyncUseCase.Progress"

	if cached, err := s.cacheRepo.GetProgress(ctx); err == nil && cached != nil {
		return cached, nil
	}

	batchID, err := s.optionRepo.Get(ctx, domain.OptionActiveBatch)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if batchID == "" {
		snapshot := domain.NewProgressSnapshot("", domain.StageIdle, domain.Statistics{}, time.Time{})
		if last, err := s.optionRepo.Get(ctx, domain.OptionLastSyncResult); err == nil && last != "" {
			snapshot.Message = last
		}
		s.cacheRepo.SetProgress(ctx, snapshot)
		return snapshot, nil
	}

	stats, err := s.queueRepo.Stats(ctx, batchID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	state, err := s.optionRepo.Get(ctx, domain.OptionWorkerState)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	stage := domain.StageRunning
	switch {
	case state == domain.WorkerStatePaused:
		stage = domain.StagePaused
	case state == domain.WorkerStateCancelled:
		stage = domain.StageCancelled
	case stats.Done():
		stage = domain.StageFinished
	}

	snapshot := domain.NewProgressSnapshot(batchID, stage, stats, batchStartedAt(batchID))
	s.cacheRepo.SetProgress(ctx, snapshot)

	return snapshot, nil
}

// ListQueue pages through the active batch's queue items.
func (s *SyncUseCase) ListQueue(ctx context.Context, req *ListQueueReq) (*ListQueueRes, error) {
	const op = "SyncUseCase.ListQueue"

	batchID, err := s.requireActiveBatch(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	items, err := s.queueRepo.List(ctx, batchID, req.Status, limit, req.Offset)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewListQueueRes(batchID, items), nil
}

// RecentActivity returns the newest activity log entries.
func (s *SyncUseCase) RecentActivity(ctx context.Context, level string, limit int) ([]*domain.ActivityEntry, error) {
	const op = "SyncUseCase.RecentActivity"

	if limit <= 0 || limit > 500 {
		limit = 100
	}

	entries, err := s.activityRepo.Recent(ctx, level, limit)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return entries, nil
}

// ClearActivity wipes the activity log on operator request.
func (s *SyncUseCase) ClearActivity(ctx context.Context) error {
	const op = "SyncUseCase.ClearActivity"

	removed, err := s.activityRepo.Clear(ctx)
	if err != nil {
		return e.Wrap(op, err)
	}

	s.logger.Infof("activity log cleared, %d entries removed", removed)
	return nil
}

// ActiveBatch returns the id of the batch in flight, or an empty string.
func (s *SyncUseCase) ActiveBatch(ctx context.Context) (string, error) {
	return s.optionRepo.Get(ctx, domain.OptionActiveBatch)
}

// Debug assembles the diagnostic snapshot for operators: queue depth,
// worker state and the active batch's statistics.
func (s *SyncUseCase) Debug(ctx context.Context) (*DebugInfo, error) {
	const op = "SyncUseCase.Debug"

	info := &DebugInfo{}

	batchID, err := s.optionRepo.Get(ctx, domain.OptionActiveBatch)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	info.ActiveBatch = batchID

	if batchID != "" {
		stats, err := s.queueRepo.Stats(ctx, batchID)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		info.Stats = stats

		if method, err := s.optionRepo.Get(ctx, domain.OptionBatchMethod); err == nil {
			info.Method = method
		}
	}

	if state, err := s.optionRepo.Get(ctx, domain.OptionWorkerState); err == nil {
		info.WorkerState = state
	}

	pending, err := s.jobRepo.PendingCount(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	info.JobsPending = pending

	if last, err := s.optionRepo.Get(ctx, domain.OptionLastSyncAt); err == nil {
		info.LastSyncAt = last
	}

	return info, nil
}

func (s *SyncUseCase) requireActiveBatch(ctx context.Context) (string, error) {
	batchID, err := s.optionRepo.Get(ctx, domain.OptionActiveBatch)
	if err != nil {
		return "", err
	}
	if batchID == "" {
		return "", e.ErrNoActiveBatch
	}

	return batchID, nil
}

// pushBatchJobs hands work to the background workers unless the batch was
// started with the step method, which is driven explicitly.
func (s *SyncUseCase) pushBatchJobs(ctx context.Context, batchID string, n int) {
	method, err := s.optionRepo.Get(ctx, domain.OptionBatchMethod)
	if err == nil && method == domain.SyncMethodStep {
		return
	}
	s.pushJobs(ctx, batchID, n)
}

// pushJobs pushes n units of work. Push failures are logged, not fatal:
// the health check loop picks up the slack.
func (s *SyncUseCase) pushJobs(ctx context.Context, batchID string, n int) {
	for i := 0; i < n; i++ {
		if err := s.jobRepo.Push(ctx, domain.NewSyncJob(batchID)); err != nil {
			s.logger.Warnf("failed to push sync job: %v", err)
			return
		}
	}
}

func (s *SyncUseCase) recordLastSync(ctx context.Context, stats domain.Statistics) {
	now := time.Now().UTC().Format(time.RFC3339)
	if err := s.optionRepo.Set(ctx, domain.OptionLastSyncAt, now); err != nil {
		s.logger.Warnf("failed to record last sync time: %v", err)
	}

	result := fmt.Sprintf("synced %d, skipped %d, failed %d", stats.Synced, stats.Skipped, stats.Failed)
	if err := s.optionRepo.Set(ctx, domain.OptionLastSyncResult, result); err != nil {
		s.logger.Warnf("failed to record last sync result: %v", err)
	}
}

// publishEvent emits a lifecycle event. Event delivery is best effort and
// never fails the sync itself.
func (s *SyncUseCase) publishEvent(ctx context.Context, eventType, batchID string, stats domain.Statistics) {
	event := domain.NewSyncEvent(uuid.NewString(), eventType, batchID, stats)
	if err := s.producer.PublishEvent(ctx, event); err != nil {
		s.logger.Warnf("failed to publish %s event: %v", eventType, err)
	}
}

func (s *SyncUseCase) logActivity(ctx context.Context, level, event, message string, details json.RawMessage) {
	entry := domain.NewActivityEntry(level, event, message, details)
	if err := s.activityRepo.Append(ctx, entry); err != nil {
		s.logger.Warnf("failed to append activity log: %v", err)
	}
}

func autoRetryKey(batchID string) string {
	return domain.OptionAutoRetryUsed + ":" + batchID
}

// batchStartedAt recovers the start time embedded in the batch id.
func batchStartedAt(batchID string) time.Time {
	raw := strings.TrimPrefix(batchID, "sync_")
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(unix, 0).UTC()
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
