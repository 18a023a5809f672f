package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/travelhub/travel-hub/models"
)

// Service interfaces consumed by the handlers. Each is satisfied by the
// concrete implementation wired in app.Dependencies; tests substitute mocks.

// AuthService is the remote login/me/logout client.
type AuthService interface {
	Login(ctx context.Context, creds models.Credentials) (string, *models.UserProfile, error)
	CurrentUser(ctx context.Context, bearer string) (*models.UserProfile, error)
	Logout(ctx context.Context, bearer string) error
}

// SessionIssuer mints hub session tokens.
type SessionIssuer interface {
	Issue(profile *models.UserProfile, role models.Role) (string, error)
}

// RedirectPlanner resolves the post-login desk redirect.
type RedirectPlanner interface {
	Target(ctx context.Context, bearer string, profile *models.UserProfile, role models.Role) (*models.RedirectTarget, error)
	Redirect(w http.ResponseWriter, r *http.Request, target *models.RedirectTarget)
}

// CodeRedeemer consumes one-time exchange codes on desk landing.
type CodeRedeemer interface {
	Redeem(ctx context.Context, code string) (*models.ExchangeCode, error)
}

// AuditRecorder records auth events. Fire and forget.
type AuditRecorder interface {
	Record(event *models.AuthEvent)
}

// Common error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Common success response structure
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, statusCode int, err string, message string) {
	respondJSON(w, statusCode, ErrorResponse{
		Error:   err,
		Message: message,
	})
}

// wantsRedirect reports whether the client is a browser form post rather
// than an API caller; browsers get a 302, API callers get the JSON body.
func wantsRedirect(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return false
	}
	return strings.Contains(accept, "text/html") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}

// clientIP returns the remote address without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
