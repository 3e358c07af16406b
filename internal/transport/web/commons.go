package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Olprog59/go-freightdesk/internal/app"
	"github.com/Olprog59/go-freightdesk/internal/domain"
	"github.com/Olprog59/go-freightdesk/internal/dto"
	"github.com/Olprog59/go-freightdesk/internal/repository"
	"github.com/Olprog59/go-freightdesk/internal/service"
)

const codeVersionConflict = "VERSION_CONFLICT"

// maxBodyBytes bounds JSON request bodies; a full batch of ids fits comfortably.
const maxBodyBytes = 1 << 20

// Handler is a container for application dependencies that are required by HTTP handlers.
// By embedding the application's dependency injection container, it provides handlers
// with access to services, repositories, and configuration.
type Handler struct {
	container *app.Container
}

// NewHandler creates and returns a new Handler instance.
func NewHandler(container *app.Container) *Handler {
	return &Handler{container: container}
}

// ErrorResponse is a helper function for sending standardized JSON error responses.
// It sets the "Content-Type" header to "application/json", writes the specified HTTP status code,
// and sends a JSON body with an "error" key containing the provided message.
func ErrorResponse(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, dto.APIError{Error: message})
}

// jsonResponse sends data with a 200 status / Envoie data avec le statut 200
func jsonResponse(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// decodeJSON reads a bounded JSON body into dst. An empty body is allowed
// when optional is set. Failures are answered with 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return true
	case optional && errors.Is(err, io.EOF):
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		ErrorResponse(w, "request body too large", http.StatusRequestEntityTooLarge)
		return false
	}
	ErrorResponse(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
	return false
}

// writeError maps a service error to a status and a JSON body.
//
//   - *domain.ValidationFailedError → 422 with the full validation result
//   - *domain.RuleError → 400 for input codes, 409 otherwise
//   - service.ErrClientNotFound → 404
//   - service.ErrInvalidArgument → 400
//   - repository.ErrVersionConflict → 409
//   - anything else → 500, logged
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := GetRequestID(r.Context())

	var vf *domain.ValidationFailedError
	if errors.As(err, &vf) {
		writeJSON(w, http.StatusUnprocessableEntity, dto.APIError{
			Error:      "validation failed",
			Code:       vf.FirstCode(),
			Validation: vf.Result,
			RequestID:  requestID,
		})
		return
	}

	var re *domain.RuleError
	if errors.As(err, &re) {
		code := http.StatusConflict
		if re.Code == domain.CodeInvalidValue || re.Code == domain.CodeRequiredField {
			code = http.StatusBadRequest
		}
		writeJSON(w, code, dto.APIError{Error: re.Message, Code: re.Code, Field: re.Field, RequestID: requestID})
		return
	}

	switch {
	case errors.Is(err, service.ErrClientNotFound):
		writeJSON(w, http.StatusNotFound, dto.APIError{Error: "client not found", Code: domain.CodeNotFound, RequestID: requestID})
	case errors.Is(err, service.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, dto.APIError{Error: err.Error(), RequestID: requestID})
	case errors.Is(err, repository.ErrVersionConflict):
		writeJSON(w, http.StatusConflict, dto.APIError{Error: "client was modified concurrently", Code: codeVersionConflict, RequestID: requestID})
	default:
		slog.Error("request failed", "request_id", requestID, "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.APIError{Error: "internal server error", RequestID: requestID})
	}
}
