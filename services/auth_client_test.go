package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelhub/travel-hub/config"
	"github.com/travelhub/travel-hub/models"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*AuthClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewAuthClient(config.AuthServiceConfig{
		BaseURL:    srv.URL,
		Timeout:    2 * time.Second,
		LoginPath:  "/login",
		MePath:     "/me",
		LogoutPath: "/logout",
	}, zap.NewNop())
	return client, srv
}

func TestLogin(t *testing.T) {
	t.Run("success returns token and profile", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/login", r.URL.Path)

			var creds models.Credentials
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "pat@corp.example", creds.Email)

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"token":  "abc",
				"userId": "u-1",
				"email":  creds.Email,
				"role":   "manager",
			})
		}))

		tok, profile, err := client.Login(context.Background(), models.Credentials{
			Email:    "pat@corp.example",
			Password: "hunter2",
		})
		require.NoError(t, err)
		assert.Equal(t, "abc", tok)
		assert.Equal(t, "u-1", profile.UserID)
		assert.Equal(t, "manager", profile.Role)
	})

	t.Run("accessToken variant is accepted", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "xyz"})
		}))

		tok, _, err := client.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "p"})
		require.NoError(t, err)
		assert.Equal(t, "xyz", tok)
	})

	t.Run("401 maps to invalid credentials with body message", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "bad email or password"})
		}))

		_, _, err := client.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "p"})
		require.Error(t, err)
		assert.True(t, IsUnauthorizedError(err))
		assert.Contains(t, err.Error(), "bad email or password")
	})

	t.Run("error field is the fallback message", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "email malformed"})
		}))

		_, _, err := client.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "p"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "email malformed")
	})

	t.Run("plain-text error body falls back to generic message", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("boom"))
		}))

		_, _, err := client.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "p"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP error! status: 400")
	})

	t.Run("5xx maps to server error", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))

		_, _, err := client.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "p"})
		require.Error(t, err)
		assert.Equal(t, ErrorTypeServer, GetErrorType(err))
	})

	t.Run("transport failure maps to unreachable", func(t *testing.T) {
		client, srv := newTestClient(t, http.NewServeMux())
		srv.Close() // connection refused from now on

		_, _, err := client.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "p"})
		require.Error(t, err)
		assert.True(t, IsUnreachableError(err))
	})

	t.Run("response without token is a server error", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"userId": "u-1"})
		}))

		_, _, err := client.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "p"})
		require.Error(t, err)
		assert.Equal(t, ErrorTypeServer, GetErrorType(err))
	})
}

func TestCurrentUser(t *testing.T) {
	t.Run("attaches bearer token and decodes profile", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(models.UserProfile{
				UserID: "u-1",
				Email:  "pat@corp.example",
				Roles:  []string{"TravelDesk"},
			})
		}))

		profile, err := client.CurrentUser(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.Equal(t, "u-1", profile.UserID)
		assert.Equal(t, models.RoleTravelDesk, models.MapRole(profile.RawRole()))
	})

	t.Run("empty token short-circuits without a network call", func(t *testing.T) {
		called := false
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		_, err := client.CurrentUser(context.Background(), "")
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.False(t, called)
	})

	t.Run("profile without userId is unauthorized", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"email": "ghost@corp.example"})
		}))

		_, err := client.CurrentUser(context.Background(), "tok")
		require.Error(t, err)
		assert.True(t, IsUnauthorizedError(err))
	})

	t.Run("transport failure maps to unreachable", func(t *testing.T) {
		client, srv := newTestClient(t, http.NewServeMux())
		srv.Close()

		_, err := client.CurrentUser(context.Background(), "tok")
		require.Error(t, err)
		assert.True(t, IsUnreachableError(err))
	})
}

func TestLogout(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/logout", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}))

		assert.NoError(t, client.Logout(context.Background(), "tok"))
	})

	t.Run("remote failure is reported but non-fatal by contract", func(t *testing.T) {
		client, srv := newTestClient(t, http.NewServeMux())
		srv.Close()

		err := client.Logout(context.Background(), "tok")
		require.Error(t, err)
		assert.True(t, IsUnreachableError(err))
	})
}
