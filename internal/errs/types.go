package errs

import "errors"

// Kind is the coarse taxonomy every error in the service maps onto.
type Kind string

const (
	KindInvalidArgument   Kind = "InvalidArgument"
	KindNotFound          Kind = "NotFound"
	KindAlreadyExists     Kind = "AlreadyExists"
	KindUnauthenticated   Kind = "Unauthenticated"
	KindPermissionDenied  Kind = "PermissionDenied"
	KindResourceExhausted Kind = "ResourceExhausted"
	KindDeadlineExceeded  Kind = "DeadlineExceeded"
	KindInternal          Kind = "Internal"
)

// Machine codes surfaced to callers.
const (
	CodeInvalidInput      = "invalid_input"
	CodeEmptyInput        = "empty_input"
	CodeMissingHeader     = "missing_header"
	CodeDuplicateHeader   = "duplicate_header"
	CodeEmptyHeaderCell   = "empty_header_cell"
	CodeRowColumnMismatch = "row_column_mismatch"
	CodeInsufficientRows  = "insufficient_rows"
	CodeNoRowsAfterFilter = "no_rows_after_filter"
	CodeInvalidDateRange  = "invalid_date_range"
	CodeUnsupportedFile   = "unsupported_file"
	CodeFileTooLarge      = "file_too_large"
	CodeInvalidSchedule   = "invalid_schedule"
	CodeNotFound          = "not_found"
	CodeAlreadyExists     = "already_exists"
	CodeTokenExpired      = "token_expired"
	CodeUnauthenticated   = "unauthenticated"
	CodePermissionDenied  = "permission_denied"
	CodeRateLimited       = "rate_limited"
	CodeDeadlineExceeded  = "deadline_exceeded"
	CodeProviderError     = "provider_error"
	CodeStorageError      = "storage_error"
	CodeDatabaseError     = "database_error"
	CodeEncryptionError   = "encryption_error"
	CodeServiceError      = "service_unavailable"
	CodeInternal          = "internal_error"
)

type ErrorMessage struct {
	Code    string
	Message string
	Action  string
}

func (e *ErrorMessage) Error() string { return e.Message }

// Detail exposes the caller-facing triple regardless of the concrete type.
func (e *ErrorMessage) Detail() *ErrorMessage { return e }

type NotFoundError struct {
	ErrorMessage
}

type AlreadyExistsError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

type UnauthenticatedError struct {
	ErrorMessage
	Service string
}

type PermissionDeniedError struct {
	ErrorMessage
	Service string
}

type ResourceExhaustedError struct {
	ErrorMessage
	Service string
}

type DeadlineExceededError struct {
	ErrorMessage
	Service string
}

type DatabaseError struct {
	ErrorMessage
	Operation string
	Err       error
}

func (e *DatabaseError) Unwrap() error { return e.Err }

type StorageError struct {
	ErrorMessage
	Operation string
	Path      string
	Err       error
}

func (e *StorageError) Unwrap() error { return e.Err }

type ExternalServiceError struct {
	ErrorMessage
	Service   string
	Status    int
	Transient bool
	Err       error
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

type EncryptionError struct {
	ErrorMessage
	Err error
}

func (e *EncryptionError) Unwrap() error { return e.Err }

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{
			Code:    CodeNotFound,
			Message: message,
			Action:  "Check the identifier and try again.",
		},
	}
}

func NewAlreadyExistsError(message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		ErrorMessage: ErrorMessage{
			Code:    CodeAlreadyExists,
			Message: message,
			Action:  "Use the existing resource or choose a different identifier.",
		},
	}
}

func NewValidationError(message string) *ValidationError {
	return NewValidationErrorCode(CodeInvalidInput, message, "Correct the request and try again.")
}

// NewValidationErrorCode builds an InvalidArgument error with a specific machine code.
func NewValidationErrorCode(code, message, action string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Code: code, Message: message, Action: action},
	}
}

func NewTokenExpiredError(service string) *UnauthenticatedError {
	return &UnauthenticatedError{
		ErrorMessage: ErrorMessage{
			Code:    CodeTokenExpired,
			Message: service + " access token expired or was revoked",
			Action:  "Reconnect the " + service + " account to refresh its credentials.",
		},
		Service: service,
	}
}

func NewUnauthenticatedError(service, message string) *UnauthenticatedError {
	return &UnauthenticatedError{
		ErrorMessage: ErrorMessage{
			Code:    CodeUnauthenticated,
			Message: message,
			Action:  "Check the credentials configured for " + service + ".",
		},
		Service: service,
	}
}

func NewPermissionDeniedError(service, message string) *PermissionDeniedError {
	return &PermissionDeniedError{
		ErrorMessage: ErrorMessage{
			Code:    CodePermissionDenied,
			Message: message,
			Action:  "Grant the connected " + service + " account access to the requested resource.",
		},
		Service: service,
	}
}

func NewResourceExhaustedError(service string) *ResourceExhaustedError {
	return &ResourceExhaustedError{
		ErrorMessage: ErrorMessage{
			Code:    CodeRateLimited,
			Message: service + " rate limit reached",
			Action:  "Wait a minute before retrying the request.",
		},
		Service: service,
	}
}

func NewDeadlineExceededError(service string) *DeadlineExceededError {
	return &DeadlineExceededError{
		ErrorMessage: ErrorMessage{
			Code:    CodeDeadlineExceeded,
			Message: service + " did not respond in time",
			Action:  "Retry with a smaller dataset or try again later.",
		},
		Service: service,
	}
}

func NewDatabaseError(operation, message string, err error) *DatabaseError {
	return &DatabaseError{
		ErrorMessage: ErrorMessage{
			Code:    CodeDatabaseError,
			Message: message,
			Action:  "Try again later.",
		},
		Operation: operation,
		Err:       err,
	}
}

func NewStorageError(operation, path string, err error) *StorageError {
	return &StorageError{
		ErrorMessage: ErrorMessage{
			Code:    CodeStorageError,
			Message: "blob storage " + operation + " failed for " + path,
			Action:  "Try again later.",
		},
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

func NewProviderError(service string, status int, message string) *ExternalServiceError {
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{
			Code:    CodeProviderError,
			Message: message,
			Action:  "Check the " + service + " account configuration and try again later.",
		},
		Service:   service,
		Status:    status,
		Transient: status >= 500,
	}
}

func NewExternalServiceError(service string, transient bool, err error) *ExternalServiceError {
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{
			Code:    CodeServiceError,
			Message: service + " request failed",
			Action:  "Try again later.",
		},
		Service:   service,
		Transient: transient,
		Err:       err,
	}
}

func NewEncryptionError(message string, err error) *EncryptionError {
	return &EncryptionError{
		ErrorMessage: ErrorMessage{
			Code:    CodeEncryptionError,
			Message: message,
			Action:  "Reconnect the account.",
		},
		Err: err,
	}
}

type detailer interface {
	Detail() *ErrorMessage
}

// DetailOf returns the code/message/action triple carried by err, or a generic
// internal triple for untyped errors.
func DetailOf(err error) ErrorMessage {
	var d detailer
	if errors.As(err, &d) {
		return *d.Detail()
	}
	return ErrorMessage{
		Code:    CodeInternal,
		Message: "An unexpected error occurred",
		Action:  "Try again later.",
	}
}

// CodeOf is shorthand for DetailOf(err).Code.
func CodeOf(err error) string {
	return DetailOf(err).Code
}

// KindOf classifies err into the fixed taxonomy.
func KindOf(err error) Kind {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		exists     *AlreadyExistsError
		unauth     *UnauthenticatedError
		denied     *PermissionDeniedError
		exhausted  *ResourceExhaustedError
		deadline   *DeadlineExceededError
	)
	switch {
	case errors.As(err, &validation):
		return KindInvalidArgument
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &exists):
		return KindAlreadyExists
	case errors.As(err, &unauth):
		return KindUnauthenticated
	case errors.As(err, &denied):
		return KindPermissionDenied
	case errors.As(err, &exhausted):
		return KindResourceExhausted
	case errors.As(err, &deadline):
		return KindDeadlineExceeded
	default:
		return KindInternal
	}
}
