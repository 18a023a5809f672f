package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/travelhub/travel-hub/config"
	"github.com/travelhub/travel-hub/models"
	"go.uber.org/zap"
)

// AuthSource identifies this portal in redirect query strings.
const AuthSource = "travel-hub"

// CodeIssuer mints one-time exchange codes binding a token and profile.
// Implemented by services/exchange.Service.
type CodeIssuer interface {
	Issue(ctx context.Context, bearer string, profile *models.UserProfile, role models.Role) (code string, err error)
}

// Redirector computes the desk a user lands on after login and builds the
// navigation URL. Navigation is always a hard HTTP 302, because each desk
// is a separately hosted process.
type Redirector struct {
	cfg    config.DesksConfig
	codes  CodeIssuer
	logger *zap.Logger
}

// NewRedirector creates a Redirector. codes may be nil only when legacy
// token redirects are enabled.
func NewRedirector(cfg config.DesksConfig, codes CodeIssuer, logger *zap.Logger) (*Redirector, error) {
	if codes == nil && !cfg.LegacyTokens {
		return nil, fmt.Errorf("redirector needs a code issuer unless legacy token redirects are enabled")
	}
	return &Redirector{cfg: cfg, codes: codes, logger: logger}, nil
}

// Target resolves the desk for the mapped role and assembles the redirect
// URL. In the default mode the query carries a one-time exchange code; in
// legacy mode it carries the bearer token itself (kept only for desks that
// have not migrated — the token becomes visible in browser history).
func (r *Redirector) Target(ctx context.Context, bearer string, profile *models.UserProfile, role models.Role) (*models.RedirectTarget, error) {
	base, ok := r.cfg.URLs[role]
	if !ok {
		// MapRole is total, so this means a hole in the desk table.
		return nil, WrapInternal(fmt.Sprintf("no desk configured for role %s", role), nil)
	}

	target := &models.RedirectTarget{
		Timestamp: time.Now(),
		Source:    AuthSource,
		UserRole:  role,
		UserEmail: profile.Email,
	}

	if r.cfg.LegacyTokens {
		target.Token = bearer
	} else {
		code, err := r.codes.Issue(ctx, bearer, profile, role)
		if err != nil {
			return nil, WrapInternal("issue exchange code", err)
		}
		target.Code = code
	}

	u, err := buildDeskURL(base, target)
	if err != nil {
		return nil, WrapInternal("build desk URL", err)
	}
	target.URL = u

	r.logger.Info("redirect target resolved",
		zap.String("role", role.String()),
		zap.String("desk", base),
		zap.Bool("legacy_token", r.cfg.LegacyTokens))

	return target, nil
}

// Redirect writes the hard 302. Cookie writes on w are already flushed into
// headers at this point, so no pre-redirect delay is needed.
func (r *Redirector) Redirect(w http.ResponseWriter, req *http.Request, target *models.RedirectTarget) {
	http.Redirect(w, req, target.URL, http.StatusFound)
}

// buildDeskURL appends the handoff query parameters to the desk base URL.
func buildDeskURL(base string, target *models.RedirectTarget) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("auth_source", target.Source)
	q.Set("timestamp", strconv.FormatInt(target.Timestamp.UnixMilli(), 10))
	q.Set("user_role", target.UserRole.String())
	q.Set("user_email", target.UserEmail)
	if target.Code != "" {
		q.Set("code", target.Code)
	}
	if target.Token != "" {
		q.Set("token", target.Token)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
