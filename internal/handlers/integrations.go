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

type integrationService interface {
	Connect(ctx context.Context, uid string, req dto.ConnectIntegrationRequest) (*models.Integration, error)
	List(ctx context.Context, uid string) ([]*models.Integration, error)
	Get(ctx context.Context, uid, integrationID string) (*models.Integration, error)
	Delete(ctx context.Context, uid, integrationID string) error
	Fetch(ctx context.Context, uid, integrationID string, req dto.FetchIntegrationRequest) (*models.Analysis, error)
}

type integrationHandlers struct {
	ResponseHandler response.ResponseHandler
	IntegrationSvc  integrationService
}

func NewIntegrationHandlers(deps *Deps) *integrationHandlers {
	return &integrationHandlers{
		ResponseHandler: deps.ResponseHandler,
		IntegrationSvc:  deps.IntegrationSvc,
	}
}

func (h *integrationHandlers) IntegrationRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Connect)
	r.Get("/", h.List)
	r.Get("/{integrationId}", h.Get)
	r.Delete("/{integrationId}", h.Delete)
	r.Post("/{integrationId}/fetch", h.Fetch)
	return r
}

func (h *integrationHandlers) Connect(w http.ResponseWriter, r *http.Request) {
	var req dto.ConnectIntegrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	uid := middleware.UID(r.Context())
	integration, err := h.IntegrationSvc.Connect(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, integration)
}

func (h *integrationHandlers) List(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	integrations, err := h.IntegrationSvc.List(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, integrations)
}

func (h *integrationHandlers) Get(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	integration, err := h.IntegrationSvc.Get(r.Context(), uid, chi.URLParam(r, "integrationId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, integration)
}

func (h *integrationHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	if err := h.IntegrationSvc.Delete(r.Context(), uid, chi.URLParam(r, "integrationId")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

// Fetch accepts an empty body, which fetches the last 30 days with the
// provider's default fields.
func (h *integrationHandlers) Fetch(w http.ResponseWriter, r *http.Request) {
	var req dto.FetchIntegrationRequest
	if err := decodeOptional(r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	uid := middleware.UID(r.Context())
	analysis, err := h.IntegrationSvc.Fetch(r.Context(), uid, chi.URLParam(r, "integrationId"), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, analysis)
}
