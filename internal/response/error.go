package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/GregMSThompson/insights-backend/internal/errs"
	"github.com/GregMSThompson/insights-backend/pkg/logger"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

func (h *responseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, code, message, action string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
		Action:  action,
	}); err != nil {
		log := logger.FromContext(r.Context())
		log.Error("failed to encode error response", "error", err, "status", status, "code", code)
	}
}

func (h *responseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	d := errs.DetailOf(err)

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		dbErr     *errs.DatabaseError
		storErr   *errs.StorageError
		extErr    *errs.ExternalServiceError
		encErr    *errs.EncryptionError
	)

	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		log.Warn("malformed request body", "error", err)
		h.WriteError(w, r, http.StatusBadRequest, errs.CodeInvalidInput,
			"Request body is not valid JSON", "Send a valid JSON body.")
		return
	case errors.As(err, &dbErr):
		log.Error("database error", "operation", dbErr.Operation, "error", dbErr.Err, "message", dbErr.Message)
		h.WriteError(w, r, http.StatusInternalServerError, errs.CodeInternal, "An error occurred", d.Action)
		return
	case errors.As(err, &storErr):
		log.Error("storage error", "operation", storErr.Operation, "path", storErr.Path, "error", storErr.Err)
		h.WriteError(w, r, http.StatusInternalServerError, d.Code, "An error occurred", d.Action)
		return
	case errors.As(err, &extErr):
		level := slog.LevelError
		status := http.StatusBadGateway
		if extErr.Transient {
			level = slog.LevelWarn
			status = http.StatusServiceUnavailable
		}
		log.Log(r.Context(), level, "external service error",
			"service", extErr.Service,
			"status", extErr.Status,
			"transient", extErr.Transient,
			"error", err)
		h.WriteError(w, r, status, d.Code, d.Message, d.Action)
		return
	case errors.As(err, &encErr):
		log.Error("encryption error", "error", encErr.Err)
		h.WriteError(w, r, http.StatusInternalServerError, errs.CodeInternal, "An error occurred", d.Action)
		return
	}

	switch errs.KindOf(err) {
	case errs.KindInvalidArgument:
		log.Warn("validation failed", "code", d.Code, "error", d.Message)
		h.WriteError(w, r, http.StatusBadRequest, d.Code, d.Message, d.Action)
	case errs.KindNotFound:
		log.Warn("resource not found", "error", d.Message)
		h.WriteError(w, r, http.StatusNotFound, d.Code, d.Message, d.Action)
	case errs.KindAlreadyExists:
		log.Warn("resource already exists", "error", d.Message)
		h.WriteError(w, r, http.StatusConflict, d.Code, d.Message, d.Action)
	case errs.KindUnauthenticated:
		log.Warn("upstream credentials rejected", "code", d.Code, "error", d.Message)
		h.WriteError(w, r, http.StatusUnauthorized, d.Code, d.Message, d.Action)
	case errs.KindPermissionDenied:
		log.Warn("upstream permission denied", "error", d.Message)
		h.WriteError(w, r, http.StatusForbidden, d.Code, d.Message, d.Action)
	case errs.KindResourceExhausted:
		log.Warn("rate limited", "error", d.Message)
		h.WriteError(w, r, http.StatusTooManyRequests, d.Code, d.Message, d.Action)
	case errs.KindDeadlineExceeded:
		log.Warn("deadline exceeded", "error", d.Message)
		h.WriteError(w, r, http.StatusGatewayTimeout, d.Code, d.Message, d.Action)
	default:
		log.Error("unexpected error",
			"error", err,
			"type", fmt.Sprintf("%T", err))
		h.WriteError(w, r, http.StatusInternalServerError, errs.CodeInternal,
			"An unexpected error occurred", "Try again later.")
	}
}
