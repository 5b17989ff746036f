package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/insights-backend/internal/dto"
	"github.com/GregMSThompson/insights-backend/internal/middleware"
	"github.com/GregMSThompson/insights-backend/internal/models"
	"github.com/GregMSThompson/insights-backend/internal/response"
)

type unifiedService interface {
	Generate(ctx context.Context, uid string, req dto.UnifiedMetricsRequest) (*models.UnifiedSnapshot, error)
	Latest(ctx context.Context, uid string) (*models.UnifiedSnapshot, error)
	Sources(ctx context.Context, uid string) ([]*models.MetricSource, error)
}

type metricsHandlers struct {
	ResponseHandler response.ResponseHandler
	UnifiedSvc      unifiedService
}

func NewMetricsHandlers(deps *Deps) *metricsHandlers {
	return &metricsHandlers{
		ResponseHandler: deps.ResponseHandler,
		UnifiedSvc:      deps.UnifiedSvc,
	}
}

func (h *metricsHandlers) MetricsRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/unified", h.Generate)
	r.Get("/unified", h.Latest)
	r.Get("/sources", h.Sources)
	return r
}

func (h *metricsHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.UnifiedMetricsRequest
	if err := decodeOptional(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	uid := middleware.UID(r.Context())
	snap, err := h.UnifiedSvc.Generate(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, snap)
}

func (h *metricsHandlers) Latest(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	snap, err := h.UnifiedSvc.Latest(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, snap)
}

func (h *metricsHandlers) Sources(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	sources, err := h.UnifiedSvc.Sources(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, sources)
}
