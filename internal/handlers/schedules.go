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

type scheduleService interface {
	Create(ctx context.Context, uid string, req dto.CreateScheduleRequest) (*models.ScheduledJob, error)
	List(ctx context.Context, uid string) ([]*models.ScheduledJob, error)
	Get(ctx context.Context, uid, jobID string) (*models.ScheduledJob, error)
	Update(ctx context.Context, uid, jobID string, req dto.UpdateScheduleRequest) (*models.ScheduledJob, error)
	Delete(ctx context.Context, uid, jobID string) error
	Executions(ctx context.Context, uid, jobID string) ([]*models.JobExecution, error)
	Trigger(ctx context.Context, uid, jobID string) (*models.JobExecution, error)
}

type scheduleHandlers struct {
	ResponseHandler response.ResponseHandler
	ScheduleSvc     scheduleService
}

func NewScheduleHandlers(deps *Deps) *scheduleHandlers {
	return &scheduleHandlers{
		ResponseHandler: deps.ResponseHandler,
		ScheduleSvc:     deps.ScheduleSvc,
	}
}

func (h *scheduleHandlers) ScheduleRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Route("/{jobId}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
		r.Get("/executions", h.Executions)
		r.Post("/trigger", h.Trigger)
	})
	return r
}

func (h *scheduleHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	uid := middleware.UID(r.Context())
	job, err := h.ScheduleSvc.Create(r.Context(), uid, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, job)
}

func (h *scheduleHandlers) List(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	jobs, err := h.ScheduleSvc.List(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, jobs)
}

func (h *scheduleHandlers) Get(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	job, err := h.ScheduleSvc.Get(r.Context(), uid, chi.URLParam(r, "jobId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, job)
}

func (h *scheduleHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	uid := middleware.UID(r.Context())
	job, err := h.ScheduleSvc.Update(r.Context(), uid, chi.URLParam(r, "jobId"), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, job)
}

func (h *scheduleHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	if err := h.ScheduleSvc.Delete(r.Context(), uid, chi.URLParam(r, "jobId")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *scheduleHandlers) Executions(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	execs, err := h.ScheduleSvc.Executions(r.Context(), uid, chi.URLParam(r, "jobId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, execs)
}

// Trigger queues an immediate run; the execution is returned while still running.
func (h *scheduleHandlers) Trigger(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	exec, err := h.ScheduleSvc.Trigger(r.Context(), uid, chi.URLParam(r, "jobId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusAccepted, exec)
}
