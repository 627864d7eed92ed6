package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/mmynk/littertag/internal/auth"
	"github.com/mmynk/littertag/internal/service"
	"github.com/mmynk/littertag/internal/validation"
)

// Error codes returned in error bodies.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternal        = "INTERNAL_ERROR"
)

// ErrorBody is the error half of an error response.
type ErrorBody struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// SuccessResponse acknowledges a mutation.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

var errBadJSON = errors.New("request body is not valid JSON")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: data})
}

func writeErrorBody(w http.ResponseWriter, status int, body ErrorBody) {
	writeJSON(w, status, ErrorResponse{Success: false, Error: body})
}

// classify maps an error to its HTTP status and error code.
func classify(err error) (int, string) {
	var verr *validation.RequestValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, CodeValidation
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, CodePayloadTooLarge
	case errors.Is(err, errBadJSON),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, auth.ErrWeakPassword):
		return http.StatusUnprocessableEntity, CodeInvalidInput
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, service.ErrConflict), errors.Is(err, auth.ErrEmailExists):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized, CodeUnauthorized
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeError renders err. Internal errors are logged and hidden from the
// client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	body := ErrorBody{Code: code, Message: err.Error()}

	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		body.Message = "request validation failed"
		body.Fields = verr.Fields
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		body.Message = "internal error"
	}
	writeErrorBody(w, status, body)
}

// writeAuthError renders authentication failures from the middleware.
func writeAuthError(w http.ResponseWriter, _ *http.Request, status int, err error) {
	code := CodeUnauthorized
	if status == http.StatusForbidden {
		code = CodeForbidden
	}
	writeErrorBody(w, status, ErrorBody{Code: code, Message: err.Error()})
}

// maxJSONBytes caps JSON request bodies.
const maxJSONBytes = 1 << 20

// decodeJSON reads the body into v and validates it. An empty body is
// allowed when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if strings.Contains(err.Error(), "request body too large") {
			return &http.MaxBytesError{Limit: maxJSONBytes}
		}
		return errBadJSON
	}
	if verr := validation.ValidateStruct(v); verr != nil {
		return verr
	}
	return nil
}
