package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/travelhub/travel-hub/models"
	"github.com/travelhub/travel-hub/tokenstore"
	"github.com/travelhub/travel-hub/utils"
	"go.uber.org/zap"
)

// AuthHandler handles the central login flow: validate credentials locally,
// authenticate against the remote auth service, mint the hub session
// cookie, and send the user to the desk their role maps to.
type AuthHandler struct {
	auth       AuthService
	sessions   SessionIssuer
	redirector RedirectPlanner
	audit      AuditRecorder
	cookies    tokenstore.CookieOptions
	logger     *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth AuthService, sessions SessionIssuer, redirector RedirectPlanner, audit AuditRecorder, cookies tokenstore.CookieOptions, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:       auth,
		sessions:   sessions,
		redirector: redirector,
		audit:      audit,
		cookies:    cookies,
		logger:     logger,
	}
}

// LoginResponse is the response body for POST /auth/login when the caller
// asked for JSON instead of a redirect.
type LoginResponse struct {
	User        *models.UserProfile `json:"user"`
	Role        models.Role         `json:"role"`
	RedirectURL string              `json:"redirectUrl"`
}

// HandleLogin handles POST /auth/login.
//
// Field validation runs before any network call: a missing email or
// password is answered immediately and the auth service is never contacted.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creds, err := decodeCredentials(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Request body must be JSON or form encoded credentials")
		return
	}

	if err := utils.ValidateStruct(creds); err != nil {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		_ = utils.WriteBadRequest(w, firstFieldMessage(fields), details)
		return
	}

	bearer, profile, err := h.auth.Login(ctx, creds)
	if err != nil {
		h.logger.Warn("login rejected",
			zap.String("email", creds.Email),
			zap.Error(err))
		h.recordLogin(models.EventLoginFailed, creds.Email, "", "", r)
		_ = utils.WriteDomainError(w, err)
		return
	}

	// Some auth service versions return only a token from login; fetch the
	// profile separately when that happens.
	if !profile.Valid() {
		profile, err = h.auth.CurrentUser(ctx, bearer)
		if err != nil {
			h.recordLogin(models.EventLoginFailed, creds.Email, "", "login ok but profile fetch failed", r)
			_ = utils.WriteDomainError(w, err)
			return
		}
	}

	role := models.MapRole(profile.RawRole())

	session, err := h.sessions.Issue(profile, role)
	if err != nil {
		h.logger.Error("mint session token failed", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	// The cookie write lands in the response headers immediately, so the
	// redirect below cannot outrun it.
	store := tokenstore.NewCookieStore(w, r, h.cookies)
	if err := store.Set(session); err != nil {
		h.logger.Error("set session cookie failed", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	target, err := h.redirector.Target(ctx, bearer, profile, role)
	if err != nil {
		h.logger.Error("resolve redirect target failed", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}

	event := models.NewAuthEvent(models.EventLoginSucceeded, "auth-portal")
	event.UserID = profile.UserID
	event.Email = profile.Email
	event.Role = role
	event.RemoteIP = clientIP(r)
	h.audit.Record(event)

	redirect := models.NewAuthEvent(models.EventRedirectIssued, "auth-portal")
	redirect.UserID = profile.UserID
	redirect.Role = role
	redirect.RemoteIP = clientIP(r)
	h.audit.Record(redirect)

	h.logger.Info("login succeeded",
		zap.String("user_id", profile.UserID),
		zap.String("role", role.String()))

	if wantsRedirect(r) {
		h.redirector.Redirect(w, r, target)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Data: LoginResponse{
		User:        profile,
		Role:        role,
		RedirectURL: target.URL,
	}})
}

// recordLogin records a login-path audit event.
func (h *AuthHandler) recordLogin(eventType models.AuthEventType, email, userID, detail string, r *http.Request) {
	event := models.NewAuthEvent(eventType, "auth-portal")
	event.Email = email
	event.UserID = userID
	event.Detail = detail
	event.RemoteIP = clientIP(r)
	h.audit.Record(event)
}

// decodeCredentials accepts both a JSON body and a classic form post.
func decodeCredentials(r *http.Request) (models.Credentials, error) {
	var creds models.Credentials

	ct := r.Header.Get("Content-Type")
	if ct == "" || strings.Contains(ct, "application/json") {
		err := json.NewDecoder(r.Body).Decode(&creds)
		return creds, err
	}

	if err := r.ParseForm(); err != nil {
		return creds, err
	}
	creds.Email = r.PostFormValue("email")
	creds.Password = r.PostFormValue("password")
	return creds, nil
}

// firstFieldMessage picks a deterministic user-facing message: the password
// message wins so "password is required" surfaces the way the login form
// expects, then email, then whatever is left.
func firstFieldMessage(fields map[string]string) string {
	if msg, ok := fields["password"]; ok {
		return msg
	}
	if msg, ok := fields["email"]; ok {
		return msg
	}
	for _, msg := range fields {
		return msg
	}
	return "Validation failed"
}
