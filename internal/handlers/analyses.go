package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/insights-backend/internal/dto"
	"github.com/GregMSThompson/insights-backend/internal/middleware"
	"github.com/GregMSThompson/insights-backend/internal/models"
	"github.com/GregMSThompson/insights-backend/internal/response"
)

type analysisService interface {
	Analyze(ctx context.Context, uid string, req dto.AnalyzeRequest) (*models.Analysis, error)
	Get(ctx context.Context, uid, analysisID string) (*models.Analysis, error)
	List(ctx context.Context, uid string) ([]*models.Analysis, error)
}

type analysisHandlers struct {
	ResponseHandler response.ResponseHandler
	AnalysisSvc     analysisService
}

func NewAnalysisHandlers(deps *Deps) *analysisHandlers {
	return &analysisHandlers{
		ResponseHandler: deps.ResponseHandler,
		AnalysisSvc:     deps.AnalysisSvc,
	}
}

func (h *analysisHandlers) AnalysisRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Analyze)
	r.Get("/", h.List)
	r.Get("/{analysisId}", h.Get)
	return r
}

func (h *analysisHandlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req dto.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	uid := middleware.UID(r.Context())
	analysis, err := h.AnalysisSvc.Analyze(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, analysis)
}

func (h *analysisHandlers) List(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	analyses, err := h.AnalysisSvc.List(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, dto.ListAnalysesResponse{Analyses: analyses})
}

func (h *analysisHandlers) Get(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	analysis, err := h.AnalysisSvc.Get(r.Context(), uid, chi.URLParam(r, "analysisId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, analysis)
}
