package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/travelhub/travel-hub/config"
	"github.com/travelhub/travel-hub/models"
	"go.uber.org/zap"
)

// AuthClient talks to the remote authentication service: login, current
// user ("me"), and logout. All three operations use the same convention:
// a typed result or a *DomainError, never a panic and never a mixed
// throw/return contract.
type AuthClient struct {
	cfg        config.AuthServiceConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAuthClient creates a new auth client.
func NewAuthClient(cfg config.AuthServiceConfig, logger *zap.Logger) *AuthClient {
	return &AuthClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// loginResponse covers the token field variants the auth service has used.
type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
	models.UserProfile
}

// Login posts credentials and returns the issued bearer token plus
// whatever profile fields the login response already carries.
// Failures are classified: 401/403 → invalid credentials, 5xx → server
// error, transport → service unreachable.
func (c *AuthClient) Login(ctx context.Context, creds models.Credentials) (string, *models.UserProfile, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return "", nil, WrapInternal("encode credentials", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.cfg.LoginPath), bytes.NewReader(body))
	if err != nil {
		return "", nil, WrapInternal("create login request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("login request failed", zap.Error(err))
		return "", nil, NewDomainError(ErrorTypeUnreachable, ErrServiceUnreachable.Message, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, NewDomainError(ErrorTypeUnreachable, "read login response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", nil, c.statusError(resp.StatusCode, raw)
	}

	var lr loginResponse
	if err := json.Unmarshal(raw, &lr); err != nil {
		return "", nil, NewDomainError(ErrorTypeServer, "malformed login response", err)
	}

	tok := lr.Token
	if tok == "" {
		tok = lr.AccessToken
	}
	if tok == "" {
		return "", nil, NewDomainError(ErrorTypeServer, "login response carried no token", nil)
	}

	profile := lr.UserProfile
	return tok, &profile, nil
}

// CurrentUser fetches the profile behind a bearer token. Any failure means
// "unauthenticated" to the session guard; the classification only drives
// the user-facing message.
func (c *AuthClient) CurrentUser(ctx context.Context, bearer string) (*models.UserProfile, error) {
	if bearer == "" {
		return nil, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(c.cfg.MePath), nil)
	if err != nil {
		return nil, WrapInternal("create me request", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("current-user request failed", zap.Error(err))
		return nil, NewDomainError(ErrorTypeUnreachable, ErrServiceUnreachable.Message, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewDomainError(ErrorTypeUnreachable, "read me response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.statusError(resp.StatusCode, raw)
	}

	var profile models.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, NewDomainError(ErrorTypeServer, "malformed me response", err)
	}
	if !profile.Valid() {
		return nil, NewDomainError(ErrorTypeUnauthorized, "profile has no userId", nil)
	}
	return &profile, nil
}

// Logout tells the auth service to drop the session. Best effort remote:
// the returned error is informational only, and the caller must clear local
// token state regardless of the outcome.
func (c *AuthClient) Logout(ctx context.Context, bearer string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(c.cfg.LogoutPath), nil)
	if err != nil {
		return WrapInternal("create logout request", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("remote logout failed, local state must still be cleared", zap.Error(err))
		return NewDomainError(ErrorTypeUnreachable, ErrServiceUnreachable.Message, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp.StatusCode, nil)
	}
	return nil
}

func (c *AuthClient) endpoint(path string) string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + path
}

// statusError turns a non-2xx auth-service response into a domain error.
// Error bodies are parsed for message/error JSON fields, falling back to
// the generic "HTTP error! status: N" string the legacy clients produced.
func (c *AuthClient) statusError(status int, body []byte) error {
	msg := extractErrorMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("HTTP error! status: %d", status)
	}

	switch {
	case status == http.StatusUnauthorized:
		return NewDomainError(ErrorTypeUnauthorized, msg, nil)
	case status == http.StatusForbidden:
		return NewDomainError(ErrorTypeForbidden, msg, nil)
	case status == http.StatusTooManyRequests:
		return NewDomainError(ErrorTypeRateLimit, msg, nil)
	case status >= 500:
		return NewDomainError(ErrorTypeServer, ErrServerError.Message, nil).WithDetail("upstream", msg)
	default:
		return NewDomainError(ErrorTypeValidation, msg, nil)
	}
}

func extractErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	return parsed.Error
}
