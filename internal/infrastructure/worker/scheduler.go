package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shahadul878/planet-2.0/internal/cfg"
	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/internal/usecase"
	"github.com/shahadul878/planet-2.0/pkg/e"
	"github.com/shahadul878/planet-2.0/pkg/jitter"
	"github.com/shahadul878/planet-2.0/pkg/logger"
)

const activityLogKeep = 1000

// Scheduler starts unattended sync batches on the configured interval.
// With the background method a started batch drains through the worker;
// with the step method the scheduler itself advances a chunk of items
// per tick.
type Scheduler struct {
	syncUC       usecase.SyncUC
	activityRepo usecase.ActivityRepository
	cfg          *cfg.SyncCfg
	logger       logger.Logger
	stop         chan struct{}
	wg           sync.WaitGroup
}

func NewScheduler(
	syncUC usecase.SyncUC,
	activityRepo usecase.ActivityRepository,
	cfg *cfg.SyncCfg,
	logger logger.Logger,
) *Scheduler {
	return &Scheduler{
		syncUC:       syncUC,
		activityRepo: activityRepo,
		cfg:          cfg,
		logger:       logger,
		stop:         make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	if !s.cfg.AutoSync {
		s.logger.Infof("auto sync disabled, scheduler not started")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	for {
		// Jitter keeps multiple deployments from syncing in lock step
		interval := jitter.Duration(s.cfg.AutoSyncInterval, 0.1)

		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-time.After(interval):
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.logger.Infof("auto sync tick")

	res, err := s.syncUC.StartBatch(ctx, &usecase.StartBatchReq{})
	if err != nil {
		if errors.Is(err, e.ErrAlreadyRunning) {
			// Keep a stalled step batch moving instead of skipping the tick
			if s.cfg.Method == domain.SyncMethodStep {
				s.stepChunk(ctx)
			} else {
				s.logger.Infof("auto sync skipped, a batch is already running")
			}
			return
		}
		s.logger.Errorf(err, "auto sync failed to start")
		return
	}

	s.logger.Infof("auto sync started batch %s with %d products via %s", res.BatchID, res.Total, res.Method)

	if res.Method == domain.SyncMethodStep {
		s.stepChunk(ctx)
	}

	if pruned, err := s.activityRepo.Prune(ctx, activityLogKeep); err != nil {
		s.logger.Warnf("activity log prune failed: %v", err)
	} else if pruned > 0 {
		s.logger.Debugf("pruned %d old activity entries", pruned)
	}
}

// stepChunk advances the active step batch by at most ChunkSize items.
func (s *Scheduler) stepChunk(ctx context.Context) {
	for i := 0; i < s.cfg.ChunkSize; i++ {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		default:
		}

		result, err := s.syncUC.StepNext(ctx)
		if err != nil {
			if errors.Is(err, e.ErrNoActiveBatch) {
				return
			}
			s.logger.Warnf("scheduled step failed: %v", err)
			return
		}

		if result.Done || result.Status == domain.WorkerStatePaused {
			return
		}

		if s.cfg.PerItemSleep > 0 {
			select {
			case <-time.After(s.cfg.PerItemSleep):
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}
}
