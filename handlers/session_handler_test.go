package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/travelhub/travel-hub/middleware"
	"github.com/travelhub/travel-hub/models"
	"github.com/travelhub/travel-hub/services"
	"go.uber.org/zap"
)

// MockCodeRedeemer is a mock implementation of CodeRedeemer
type MockCodeRedeemer struct {
	mock.Mock
}

func (m *MockCodeRedeemer) Redeem(ctx context.Context, code string) (*models.ExchangeCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExchangeCode), args.Error(1)
}

const testLoginURL = "http://localhost:3000"

func newSessionHandler(auth AuthService, redeemer CodeRedeemer, audit AuditRecorder, allowLegacy bool) *SessionHandler {
	return NewSessionHandler(auth, &stubSessionIssuer{token: "desk-session-jwt"}, redeemer, audit,
		SessionHandlerConfig{
			LoginURL:    testLoginURL,
			DeskName:    "manager-desk",
			AllowLegacy: allowLegacy,
		}, zap.NewNop())
}

func validExchangeCode() *models.ExchangeCode {
	now := time.Now()
	return &models.ExchangeCode{
		Code:      "code-1",
		Token:     "upstream-token",
		Profile:   models.UserProfile{UserID: "u-1", Email: "pat@corp.example"},
		Role:      models.RoleManager,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Minute),
	}
}

func TestHandleLanding(t *testing.T) {
	t.Run("valid code establishes the session and forwards", func(t *testing.T) {
		redeemer := new(MockCodeRedeemer)
		audit := &recordingAudit{}
		handler := newSessionHandler(nil, redeemer, audit, false)

		redeemer.On("Redeem", mock.Anything, "code-1").Return(validExchangeCode(), nil)

		req := httptest.NewRequest(http.MethodGet, "/session/landing?code=code-1&next=%2Fdashboard", nil)
		rec := httptest.NewRecorder()
		handler.HandleLanding(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

		var session string
		for _, c := range rec.Result().Cookies() {
			if c.Name == "auth_token" && c.MaxAge >= 0 {
				session = c.Value
			}
		}
		assert.Equal(t, "desk-session-jwt", session)
		assert.Equal(t, []models.AuthEventType{models.EventCodeRedeemed}, audit.types())
	})

	t.Run("default forward is the desk root", func(t *testing.T) {
		redeemer := new(MockCodeRedeemer)
		handler := newSessionHandler(nil, redeemer, &recordingAudit{}, false)
		redeemer.On("Redeem", mock.Anything, "code-1").Return(validExchangeCode(), nil)

		req := httptest.NewRequest(http.MethodGet, "/session/landing?code=code-1", nil)
		rec := httptest.NewRecorder()
		handler.HandleLanding(rec, req)

		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("off-site next parameter is discarded", func(t *testing.T) {
		redeemer := new(MockCodeRedeemer)
		handler := newSessionHandler(nil, redeemer, &recordingAudit{}, false)
		redeemer.On("Redeem", mock.Anything, "code-1").Return(validExchangeCode(), nil)

		req := httptest.NewRequest(http.MethodGet,
			"/session/landing?code=code-1&next=https%3A%2F%2Fevil.example%2Fphish", nil)
		rec := httptest.NewRecorder()
		handler.HandleLanding(rec, req)

		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("used code bounces to the login portal and clears state", func(t *testing.T) {
		redeemer := new(MockCodeRedeemer)
		audit := &recordingAudit{}
		handler := newSessionHandler(nil, redeemer, audit, false)
		redeemer.On("Redeem", mock.Anything, "code-1").Return(nil, services.ErrCodeUsed)

		req := httptest.NewRequest(http.MethodGet, "/session/landing?code=code-1", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: "stale"})
		rec := httptest.NewRecorder()
		handler.HandleLanding(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, testLoginURL, rec.Header().Get("Location"))
		assert.Equal(t, []models.AuthEventType{models.EventGuardRejected}, audit.types())

		cleared := false
		for _, c := range rec.Result().Cookies() {
			if c.Name == "auth_token" && c.MaxAge < 0 {
				cleared = true
			}
		}
		assert.True(t, cleared, "stale session cookie not cleared")
	})

	t.Run("missing code bounces", func(t *testing.T) {
		handler := newSessionHandler(nil, new(MockCodeRedeemer), &recordingAudit{}, false)

		req := httptest.NewRequest(http.MethodGet, "/session/landing", nil)
		rec := httptest.NewRecorder()
		handler.HandleLanding(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, testLoginURL, rec.Header().Get("Location"))
	})

	t.Run("legacy token parameter works only when enabled", func(t *testing.T) {
		handler := newSessionHandler(nil, new(MockCodeRedeemer), &recordingAudit{}, true)

		req := httptest.NewRequest(http.MethodGet, "/session/landing?token=legacy-tok", nil)
		rec := httptest.NewRecorder()
		handler.HandleLanding(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		strict := newSessionHandler(nil, new(MockCodeRedeemer), &recordingAudit{}, false)
		rec = httptest.NewRecorder()
		strict.HandleLanding(rec, httptest.NewRequest(http.MethodGet, "/session/landing?token=legacy-tok", nil))
		assert.Equal(t, testLoginURL, rec.Header().Get("Location"))
	})
}

func TestHandleMe(t *testing.T) {
	handler := newSessionHandler(nil, new(MockCodeRedeemer), &recordingAudit{}, false)

	t.Run("returns the profile from context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		ctx := middleware.WithProfile(req.Context(), &models.UserProfile{UserID: "u-1", Email: "pat@corp.example"})
		ctx = middleware.WithRole(ctx, models.RoleTravelDesk)
		rec := httptest.NewRecorder()
		handler.HandleMe(rec, req.WithContext(ctx))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"userId":"u-1"`)
		assert.Contains(t, rec.Body.String(), `"role":"travel_desk"`)
	})

	t.Run("no profile means 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.HandleMe(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHandleLogout(t *testing.T) {
	t.Run("remote logout is attempted and local state cleared", func(t *testing.T) {
		auth := new(MockAuthService)
		audit := &recordingAudit{}
		handler := newSessionHandler(auth, new(MockCodeRedeemer), audit, false)

		auth.On("Logout", mock.Anything, "bearer-tok").Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Accept", "application/json")
		ctx := middleware.WithBearer(req.Context(), "bearer-tok")
		rec := httptest.NewRecorder()
		handler.HandleLogout(rec, req.WithContext(ctx))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "logged_out")
		assert.Equal(t, []models.AuthEventType{models.EventLogout}, audit.types())
		auth.AssertExpectations(t)

		cleared := 0
		for _, c := range rec.Result().Cookies() {
			if c.MaxAge < 0 {
				cleared++
			}
		}
		assert.Greater(t, cleared, 0, "no cookies expired")
	})

	t.Run("remote failure still logs out locally", func(t *testing.T) {
		auth := new(MockAuthService)
		handler := newSessionHandler(auth, new(MockCodeRedeemer), &recordingAudit{}, false)

		auth.On("Logout", mock.Anything, "bearer-tok").Return(services.ErrServiceUnreachable)

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Accept", "application/json")
		ctx := middleware.WithBearer(req.Context(), "bearer-tok")
		rec := httptest.NewRecorder()
		handler.HandleLogout(rec, req.WithContext(ctx))

		assert.Equal(t, http.StatusOK, rec.Code)

		cleared := map[string]bool{}
		for _, c := range rec.Result().Cookies() {
			if c.MaxAge < 0 {
				cleared[c.Name] = true
			}
		}
		assert.True(t, cleared["auth_token"])
	})

	t.Run("browser logout redirects to the login portal", func(t *testing.T) {
		handler := newSessionHandler(nil, new(MockCodeRedeemer), &recordingAudit{}, false)

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Accept", "text/html")
		rec := httptest.NewRecorder()
		handler.HandleLogout(rec, req)

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, testLoginURL, rec.Header().Get("Location"))
	})

	t.Run("token from cookie is used when context has none", func(t *testing.T) {
		auth := new(MockAuthService)
		handler := newSessionHandler(auth, new(MockCodeRedeemer), &recordingAudit{}, false)

		auth.On("Logout", mock.Anything, "cookie-tok").Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Accept", "application/json")
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: "cookie-tok"})
		rec := httptest.NewRecorder()
		handler.HandleLogout(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		auth.AssertExpectations(t)
	})
}
