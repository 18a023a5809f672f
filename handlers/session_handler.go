package handlers

import (
	"net/http"
	"net/url"

	"github.com/travelhub/travel-hub/middleware"
	"github.com/travelhub/travel-hub/models"
	"github.com/travelhub/travel-hub/tokenstore"
	"github.com/travelhub/travel-hub/utils"
	"go.uber.org/zap"
)

// SessionHandler handles the desk side of a session: landing (exchange code
// redemption), the current-user endpoint, and logout.
type SessionHandler struct {
	auth        AuthService
	sessions    SessionIssuer
	redeemer    CodeRedeemer
	audit       AuditRecorder
	cookies     tokenstore.CookieOptions
	loginURL    string
	deskName    string
	allowLegacy bool
	logger      *zap.Logger
}

// SessionHandlerConfig bundles the knobs for NewSessionHandler.
type SessionHandlerConfig struct {
	Cookies     tokenstore.CookieOptions
	LoginURL    string
	DeskName    string
	AllowLegacy bool // accept token= landing parameters from desks that predate codes
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(auth AuthService, sessions SessionIssuer, redeemer CodeRedeemer, audit AuditRecorder, cfg SessionHandlerConfig, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		auth:        auth,
		sessions:    sessions,
		redeemer:    redeemer,
		audit:       audit,
		cookies:     cfg.Cookies,
		loginURL:    cfg.LoginURL,
		deskName:    cfg.DeskName,
		allowLegacy: cfg.AllowLegacy,
		logger:      logger,
	}
}

// HandleLanding handles GET /session/landing, the entry point the portal
// redirects to. It redeems the one-time code, establishes the local
// session cookie, and forwards to the requested in-desk path. The code is
// dead after this request whatever the outcome.
func (h *SessionHandler) HandleLanding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := tokenstore.NewCookieStore(w, r, h.cookies)

	next := sanitizeNext(r.URL.Query().Get("next"))

	code := r.URL.Query().Get("code")
	if code == "" {
		if h.allowLegacy {
			if tok := r.URL.Query().Get("token"); tok != "" {
				h.establish(w, r, store, tok, next)
				return
			}
		}
		h.bounce(w, r, store, "Missing exchange code")
		return
	}

	rec, err := h.redeemer.Redeem(ctx, code)
	if err != nil {
		h.logger.Warn("exchange code redemption failed",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.Error(err))
		h.bounce(w, r, store, "Sign-in link expired, please log in again")
		return
	}

	// Prefer a locally minted hub session over storing the upstream bearer.
	session := rec.Token
	if h.sessions != nil {
		minted, err := h.sessions.Issue(&rec.Profile, rec.Role)
		if err == nil {
			session = minted
		} else {
			h.logger.Warn("mint desk session failed, falling back to upstream token", zap.Error(err))
		}
	}

	event := models.NewAuthEvent(models.EventCodeRedeemed, h.deskName)
	event.UserID = rec.Profile.UserID
	event.Email = rec.Profile.Email
	event.Role = rec.Role
	event.RemoteIP = clientIP(r)
	h.audit.Record(event)

	h.establish(w, r, store, session, next)
}

// establish sets the session cookie and forwards into the desk.
func (h *SessionHandler) establish(w http.ResponseWriter, r *http.Request, store tokenstore.Store, session, next string) {
	if err := store.Set(session); err != nil {
		h.logger.Error("set session cookie failed", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
		return
	}
	http.Redirect(w, r, next, http.StatusFound)
}

// bounce clears local state and sends the user back to the login portal.
func (h *SessionHandler) bounce(w http.ResponseWriter, r *http.Request, store tokenstore.Store, message string) {
	_ = store.Clear()

	event := models.NewAuthEvent(models.EventGuardRejected, h.deskName)
	event.Detail = message
	event.RemoteIP = clientIP(r)
	h.audit.Record(event)

	http.Redirect(w, r, h.loginURL, http.StatusFound)
}

// MeResponse is the response body for GET /api/v1/me.
type MeResponse struct {
	User *models.UserProfile `json:"user"`
	Role models.Role         `json:"role"`
}

// HandleMe handles GET /api/v1/me. Runs behind the session guard, so the
// profile is always on the context.
func (h *SessionHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	profile := middleware.GetProfileFromContext(r.Context())
	if profile == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Data: MeResponse{
		User: profile,
		Role: middleware.GetRoleFromContext(r.Context()),
	}})
}

// HandleLogout handles POST /auth/logout. The remote logout is best
// effort; local token state is cleared no matter what the auth service
// says, so the user is always logged out of this desk.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := tokenstore.NewCookieStore(w, r, h.cookies)

	bearer := middleware.GetBearerFromContext(ctx)
	if bearer == "" {
		bearer = store.Get()
	}

	if bearer != "" && h.auth != nil {
		if err := h.auth.Logout(ctx, bearer); err != nil {
			h.logger.Warn("remote logout failed, clearing local state anyway", zap.Error(err))
		}
	}

	_ = store.Clear()

	event := models.NewAuthEvent(models.EventLogout, h.deskName)
	if profile := middleware.GetProfileFromContext(ctx); profile != nil {
		event.UserID = profile.UserID
		event.Email = profile.Email
	}
	event.RemoteIP = clientIP(r)
	h.audit.Record(event)

	if wantsRedirect(r) {
		http.Redirect(w, r, h.loginURL, http.StatusFound)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Data: map[string]string{
		"status":   "logged_out",
		"loginUrl": h.loginURL,
	}})
}

// sanitizeNext confines the post-landing forward to an in-desk path, so a
// crafted landing URL cannot send the user off-site.
func sanitizeNext(next string) string {
	if next == "" {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	if len(next) >= 2 && next[0] == '/' && next[1] == '/' {
		return "/"
	}
	return next
}
