package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/insights-backend/internal/errs"
	"github.com/GregMSThompson/insights-backend/internal/middleware"
	"github.com/GregMSThompson/insights-backend/internal/models"
	"github.com/GregMSThompson/insights-backend/internal/response"
	"github.com/GregMSThompson/insights-backend/internal/services"
)

// Multipart framing on top of the file limit.
const multipartOverhead = 1 << 20

type uploadService interface {
	Upload(ctx context.Context, uid, fileName, contentType string, r io.Reader) (*models.Upload, error)
	List(ctx context.Context, uid string) ([]*models.Upload, error)
	Get(ctx context.Context, uid, fileID string) (*models.Upload, error)
	Delete(ctx context.Context, uid, fileID string) error
}

type uploadHandlers struct {
	ResponseHandler response.ResponseHandler
	UploadSvc       uploadService
}

func NewUploadHandlers(deps *Deps) *uploadHandlers {
	return &uploadHandlers{
		ResponseHandler: deps.ResponseHandler,
		UploadSvc:       deps.UploadSvc,
	}
}

func (h *uploadHandlers) UploadRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Upload)
	r.Get("/", h.List)
	r.Get("/{fileId}", h.Get)
	r.Delete("/{fileId}", h.Delete)
	return r
}

// Upload accepts a multipart form with the spreadsheet in the "file" field.
func (h *uploadHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.ResponseHandler.HandleError(w, r, errs.NewValidationErrorCode(errs.CodeFileTooLarge,
				"file exceeds the 10 MB limit", "Split the file or remove unused columns."))
			return
		}
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	uid := middleware.UID(r.Context())
	upload, err := h.UploadSvc.Upload(r.Context(), uid, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, upload)
}

func (h *uploadHandlers) List(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	uploads, err := h.UploadSvc.List(r.Context(), uid)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, uploads)
}

func (h *uploadHandlers) Get(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	upload, err := h.UploadSvc.Get(r.Context(), uid, chi.URLParam(r, "fileId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, upload)
}

func (h *uploadHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UID(r.Context())
	if err := h.UploadSvc.Delete(r.Context(), uid, chi.URLParam(r, "fileId")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
