package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/internal/usecase"
	"github.com/shahadul878/planet-2.0/pkg/logger"
)

// Trigger wakes the background worker so it drains the job queue now
// instead of waiting for a notification or the next health check.
type Trigger interface {
	TriggerProcessing(ctx context.Context) error
}

type SyncHandler struct {
	syncUsecase     usecase.SyncUC
	orphanUsecase   usecase.OrphanUC
	categoryUsecase usecase.CategoryUC
	catalogClient   usecase.CatalogClient
	trigger         Trigger
	logger          logger.Logger
}

func NewSyncHandler(
	syncUC usecase.SyncUC,
	orphanUC usecase.OrphanUC,
	categoryUC usecase.CategoryUC,
	catalogClient usecase.CatalogClient,
	trigger Trigger,
	logger logger.Logger,
) *SyncHandler {
	return &SyncHandler{
		syncUsecase:     syncUC,
		orphanUsecase:   orphanUC,
		categoryUsecase: categoryUC,
		catalogClient:   catalogClient,
		trigger:         trigger,
		logger:          logger,
	}
}

type startSyncRequest struct {
	Method string `json:"method"`
}

func (h *SyncHandler) startSync(w http.ResponseWriter, r *http.Request) {
	var req startSyncRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	res, err := h.syncUsecase.StartBatch(r.Context(), &usecase.StartBatchReq{Method: req.Method})
	if err != nil {
		h.logger.Errorf(err, "start sync failed")
		writeUsecaseError(w, err)
		return
	}

	if h.trigger != nil && res.Total > 0 && res.Method == domain.SyncMethodBackground {
		if err := h.trigger.TriggerProcessing(r.Context()); err != nil {
			h.logger.Warnf("trigger processing: %v", err)
		}
	}

	WriteSuccess(w, http.StatusAccepted, res)
}

// stepNext advances the active step batch by exactly one item and
// returns its outcome. The caller controls pacing between requests.
func (h *SyncHandler) stepNext(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncUsecase.StepNext(r.Context())
	if err != nil {
		h.logger.Errorf(err, "step failed")
		writeUsecaseError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, result)
}

func (h *SyncHandler) debugInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.syncUsecase.Debug(r.Context())
	if err != nil {
		h.logger.Errorf(err, "debug info failed")
		writeUsecaseError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, info)
}

func (h *SyncHandler) pauseSync(w http.ResponseWriter, r *http.Request) {
	if err := h.syncUsecase.Pause(r.Context()); err != nil {
		h.logger.Errorf(err, "pause sync failed")
		writeUsecaseError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]string{"state": "paused"})
}

func (h *SyncHandler) resumeSync(w http.ResponseWriter, r *http.Request) {
	if err := h.syncUsecase.Resume(r.Context()); err != nil {
		h.logger.Errorf(err, "resume sync failed")
		writeUsecaseError(w, err)
		return
	}

	if h.trigger != nil {
		if err := h.trigger.TriggerProcessing(r.Context()); err != nil {
			h.logger.Warnf("trigger processing: %v", err)
		}
	}

	WriteSuccess(w, http.StatusOK, map[string]string{"state": "running"})
}

func (h *SyncHandler) cancelSync(w http.ResponseWriter, r *http.Request) {
	if err := h.syncUsecase.Cancel(r.Context()); err != nil {
		h.logger.Errorf(err, "cancel sync failed")
		writeUsecaseError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]string{"state": "cancelled"})
}

func (h *SyncHandler) retryFailed(w http.ResponseWriter, r *http.Request) {
	requeued, err := h.syncUsecase.RetryFailed(r.Context())
	if err != nil {
		h.logger.Errorf(err, "retry failed items")
		writeUsecaseError(w, err)
		return
	}

	if h.trigger != nil && requeued > 0 {
		if err := h.trigger.TriggerProcessing(r.Context()); err != nil {
			h.logger.Warnf("trigger processing: %v", err)
		}
	}

	WriteSuccess(w, http.StatusOK, map[string]int64{"requeued": requeued})
}

func (h *SyncHandler) runWorker(w http.ResponseWriter, r *http.Request) {
	if h.trigger == nil {
		WriteError(w, http.StatusServiceUnavailable, "worker is not running")
		return
	}

	if err := h.trigger.TriggerProcessing(r.Context()); err != nil {
		h.logger.Errorf(err, "manual worker run failed")
		writeUsecaseError(w, err)
		return
	}

	WriteSuccess(w, http.StatusAccepted, map[string]string{"status": "processing"})
}

func (h *SyncHandler) getProgress(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.syncUsecase.Progress(r.Context())
	if err != nil {
		h.logger.Errorf(err, "get progress failed")
		writeUsecaseError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, snapshot)
}

func (h *SyncHandler) listQueue(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	res, err := h.syncUsecase.ListQueue(r.Context(), &usecase.ListQueueReq{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.logger.Errorf(err, "list queue failed")
		writeUsecaseError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res)
}

func (h *SyncHandler) listActivity(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.syncUsecase.RecentActivity(r.Context(), r.URL.Query().Get("level"), limit)
	if err != nil {
		h.logger.Errorf(err, "list activity failed")
		writeUsecaseError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, entries)
}

func (h *SyncHandler) clearActivity(w http.ResponseWriter, r *http.Request) {
	if err := h.syncUsecase.ClearActivity(r.Context()); err != nil {
		h.logger.Errorf(err, "clear activity failed")
		writeUsecaseError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *SyncHandler) compareCategories(w http.ResponseWriter, r *http.Request) {
	comparison, err := h.categoryUsecase.Compare(r.Context())
	if err != nil {
		h.logger.Errorf(err, "category comparison failed")
		writeUsecaseError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, comparison)
}

// validateCategories reconciles the top-level category list on demand,
// creating any categories missing locally.
func (h *SyncHandler) validateCategories(w http.ResponseWriter, r *http.Request) {
	res, err := h.categoryUsecase.ReconcileTopLevel(r.Context())
	if err != nil {
		h.logger.Errorf(err, "category validation failed")
		writeUsecaseError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, res)
}

func (h *SyncHandler) testConnection(w http.ResponseWriter, r *http.Request) {
	count, err := h.catalogClient.TestConnection(r.Context())
	if err != nil {
		h.logger.Errorf(err, "connection test failed")
		writeUsecaseError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"categories": count,
	})
}

type orphanRequest struct {
	Action string `json:"action"`
	DryRun bool   `json:"dry_run"`
}

func (h *SyncHandler) handleOrphans(w http.ResponseWriter, r *http.Request) {
	var req orphanRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	report, err := h.orphanUsecase.Handle(r.Context(), &usecase.OrphanReq{
		Action: req.Action,
		DryRun: req.DryRun,
	})
	if err != nil {
		h.logger.Errorf(err, "orphan pass failed")
		writeUsecaseError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, report)
}

func (h *SyncHandler) invalidateCache(w http.ResponseWriter, r *http.Request) {
	if err := h.catalogClient.InvalidateCache(r.Context()); err != nil {
		h.logger.Errorf(err, "invalidate catalog cache failed")
		writeUsecaseError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]string{"status": "invalidated"})
}
