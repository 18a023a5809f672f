package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/travelhub/travel-hub/services"
)

// ErrorResponse is the JSON error envelope. The message field carries the
// user-facing text the login form and desk landing pages display verbatim.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse is the generic success envelope.
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 OK response with optional data.
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteBadRequest writes a 400 Bad Request response with error details.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]interface{}) error {
	return WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: message,
		Details: details,
	})
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Authentication required"
	}
	return WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Access forbidden"
	}
	return WriteJSON(w, http.StatusForbidden, ErrorResponse{
		Error:   "forbidden",
		Message: message,
	})
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return WriteJSON(w, http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: message,
	})
}

// WriteTooManyRequests writes a 429 Too Many Requests response. retryAfter
// seconds, when positive, is also set as the Retry-After header.
func WriteTooManyRequests(w http.ResponseWriter, message string, retryAfter int) error {
	if message == "" {
		message = "Too many login attempts, try again shortly"
	}
	details := map[string]interface{}{}
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		details["retry_after_seconds"] = retryAfter
	}
	return WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{
		Error:   "rate_limit_exceeded",
		Message: message,
		Details: details,
	})
}

// WriteInternalServerError writes a 500 Internal Server Error response.
func WriteInternalServerError(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: message,
	})
}

// WriteDomainError maps a services.DomainError onto the HTTP status and
// envelope it implies. Unknown and internal errors deliberately hide their
// message behind a generic 500.
func WriteDomainError(w http.ResponseWriter, err error) error {
	msg := err.Error()
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		// The bare message, without the type prefix Error() adds.
		msg = domainErr.Message
	}

	switch services.GetErrorType(err) {
	case services.ErrorTypeValidation:
		return WriteBadRequest(w, msg, services.GetErrorDetails(err))
	case services.ErrorTypeUnauthorized:
		return WriteUnauthorized(w, msg)
	case services.ErrorTypeForbidden:
		return WriteForbidden(w, msg)
	case services.ErrorTypeNotFound:
		return WriteNotFound(w, msg)
	case services.ErrorTypeRateLimit:
		return WriteTooManyRequests(w, msg, 0)
	case services.ErrorTypeUnreachable:
		return WriteJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "auth_service_unreachable",
			Message: msg,
		})
	case services.ErrorTypeServer:
		resp := ErrorResponse{Error: "upstream_error", Message: msg}
		if domainErr != nil {
			resp.Details = domainErr.Details
		}
		return WriteJSON(w, http.StatusBadGateway, resp)
	default:
		return WriteInternalServerError(w, "")
	}
}
