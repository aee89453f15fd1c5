package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/shahadul878/planet-2.0/internal/usecase"
	"github.com/shahadul878/planet-2.0/pkg/logger"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(syncUC usecase.SyncUC, orphanUC usecase.OrphanUC, categoryUC usecase.CategoryUC, catalogClient usecase.CatalogClient, trigger Trigger) {
	r.router.Route("/api/v1", func(v1 chi.Router) {
		syncHandler := NewSyncHandler(syncUC, orphanUC, categoryUC, catalogClient, trigger, r.logger)
		registerSyncRoutes(v1, syncHandler)
	})
}

func registerSyncRoutes(router chi.Router, h *SyncHandler) {
	router.Route("/sync", func(sr chi.Router) {
		sr.Post("/", h.startSync)
		sr.Post("/next", h.stepNext)
		sr.Post("/pause", h.pauseSync)
		sr.Post("/resume", h.resumeSync)
		sr.Post("/cancel", h.cancelSync)
		sr.Post("/retry", h.retryFailed)
		sr.Post("/run", h.runWorker)
		sr.Get("/progress", h.getProgress)
		sr.Get("/debug", h.debugInfo)
		sr.Get("/queue", h.listQueue)
		sr.Get("/activity", h.listActivity)
		sr.Delete("/activity", h.clearActivity)
	})
	router.Route("/categories", func(cr chi.Router) {
		cr.Get("/comparison", h.compareCategories)
		cr.Post("/validate", h.validateCategories)
	})
	router.Post("/orphans", h.handleOrphans)
	router.Post("/cache/invalidate", h.invalidateCache)
	router.Get("/connection/test", h.testConnection)
}
