package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/travelhub/travel-hub/models"
	"github.com/travelhub/travel-hub/token"
	"github.com/travelhub/travel-hub/tokenstore"
	"github.com/travelhub/travel-hub/utils"
	"go.uber.org/zap"
)

// ProfileFetcher resolves a bearer token to the user behind it, remotely.
// Implemented by services.AuthClient.
type ProfileFetcher interface {
	CurrentUser(ctx context.Context, bearer string) (*models.UserProfile, error)
}

// SessionValidator validates hub-issued session tokens locally.
// Implemented by token.Manager.
type SessionValidator interface {
	Validate(raw string) (*token.Claims, error)
}

// SessionGuard protects desk routes. Each request runs the same check
// sequence: extract a token, validate it (hub JWT locally first, then the
// remote auth service), and either attach the profile to the context or
// clear all local token state and bounce the user to the login portal.
// There is no in-between: a request is authenticated or it is not.
type SessionGuard struct {
	sessions SessionValidator
	remote   ProfileFetcher
	cookies  tokenstore.CookieOptions
	loginURL string
	logger   *zap.Logger
}

// NewSessionGuard creates a SessionGuard. sessions or remote may be nil,
// but not both.
func NewSessionGuard(sessions SessionValidator, remote ProfileFetcher, cookies tokenstore.CookieOptions, loginURL string, logger *zap.Logger) *SessionGuard {
	return &SessionGuard{
		sessions: sessions,
		remote:   remote,
		cookies:  cookies,
		loginURL: loginURL,
		logger:   logger,
	}
}

// RequireAuth is the guard middleware. On any failure — missing token,
// expired token, remote rejection, unreachable auth service — it clears
// every local token variant before responding, so a stale session can
// never short-circuit the next attempt.
func (g *SessionGuard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		store := tokenstore.NewCookieStore(w, r, g.cookies)
		bearer := extractToken(r, store)
		if bearer == "" {
			g.logger.Debug("no session token on request",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path))
			g.reject(w, r, store, "Missing or invalid authorization")
			return
		}

		profile, role, claims, err := g.resolve(ctx, bearer)
		if err != nil {
			g.logger.Warn("session validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			g.reject(w, r, store, "Invalid or expired session")
			return
		}

		ctx = WithProfile(ctx, profile)
		ctx = WithRole(ctx, role)
		ctx = WithBearer(ctx, bearer)
		if claims != nil {
			ctx = WithClaims(ctx, claims)
		}

		g.logger.Debug("session validated",
			zap.String("request_id", requestID),
			zap.String("user_id", profile.UserID),
			zap.String("role", role.String()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolve validates the token. A hub session JWT is checked locally; any
// other token is resolved through the remote auth service. The profile is
// recomputed on every request, never cached.
func (g *SessionGuard) resolve(ctx context.Context, bearer string) (*models.UserProfile, models.Role, *token.Claims, error) {
	var localErr error
	if g.sessions != nil {
		claims, err := g.sessions.Validate(bearer)
		if err == nil {
			profile := claims.Profile()
			return profile, models.MapRole(claims.Role), claims, nil
		}
		localErr = err
	}

	if g.remote != nil {
		profile, err := g.remote.CurrentUser(ctx, bearer)
		if err != nil {
			return nil, "", nil, err
		}
		return profile, models.MapRole(profile.RawRole()), nil, nil
	}

	return nil, "", nil, localErr
}

// reject clears local token state and answers with either a 401 (API
// callers) or a redirect to the login portal (browser navigation).
func (g *SessionGuard) reject(w http.ResponseWriter, r *http.Request, store tokenstore.Store, message string) {
	store.Clear()

	if wantsJSON(r) {
		_ = utils.WriteUnauthorized(w, message)
		return
	}

	target := g.loginURL
	if ret := r.URL.RequestURI(); ret != "" && ret != "/" {
		target += "?redirect=" + url.QueryEscape(ret)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// RequireRole restricts a route to the given canonical roles. Admin always
// passes. Must run after RequireAuth.
func (g *SessionGuard) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]struct{}, len(roles)+1)
	allowed[models.RoleAdmin] = struct{}{}
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			profile := GetProfileFromContext(ctx)
			if profile == nil {
				g.logger.Error("profile not found in context, RequireRole before RequireAuth",
					zap.String("request_id", GetRequestIDFromContext(ctx)))
				_ = utils.WriteUnauthorized(w, "Authentication required")
				return
			}

			role := GetRoleFromContext(ctx)
			if _, ok := allowed[role]; !ok {
				g.logger.Warn("insufficient role for route",
					zap.String("request_id", GetRequestIDFromContext(ctx)),
					zap.String("role", role.String()),
					zap.String("path", r.URL.Path))
				_ = utils.WriteForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken pulls the session token from the Authorization header first,
// then from the cookie store (canonical and legacy names alike).
func extractToken(r *http.Request, store tokenstore.Store) string {
	if bearer := extractBearerToken(r); bearer != "" {
		return bearer
	}
	return store.Get()
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// wantsJSON reports whether the caller expects a JSON error instead of a
// login redirect: API paths and XHR requests qualify.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}
