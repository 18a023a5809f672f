package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelhub/travel-hub/config"
	"github.com/travelhub/travel-hub/models"
	"go.uber.org/zap/zaptest"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:               "localhost",
			Port:               8080,
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			LoginRatePerMinute: 10,
		},
		AuthService: config.AuthServiceConfig{
			BaseURL:    "http://localhost:9000/api/auth",
			Timeout:    5 * time.Second,
			LoginPath:  "/login",
			MePath:     "/me",
			LogoutPath: "/logout",
		},
		Desks: config.DesksConfig{
			URLs: map[models.Role]string{
				models.RoleAdmin:       "http://localhost:3006",
				models.RoleHR:          "http://localhost:3001",
				models.RoleManager:     "http://localhost:3002",
				models.RoleEmployee:    "http://localhost:3003",
				models.RoleTravelDesk:  "http://localhost:3004",
				models.RoleFinanceDesk: "http://localhost:3005",
			},
			LoginURL: "http://localhost:3000",
			CodeTTL:  time.Minute,
		},
		Session: config.SessionConfig{
			Secret: "test-session-secret",
			Issuer: "travel-hub",
			TTL:    time.Hour,
		},
		Observability: config.ObservabilityConfig{
			LogLevel:  "debug",
			LogFormat: "json",
		},
	}
}

func TestNewDependencies(t *testing.T) {
	t.Run("initializes fully without a database", func(t *testing.T) {
		ctx := context.Background()
		logger := zaptest.NewLogger(t)

		deps, err := NewDependencies(ctx, testConfig(), logger, "auth-portal")
		require.NoError(t, err)
		require.NotNil(t, deps)

		assert.NotNil(t, deps.Config)
		assert.Nil(t, deps.DB, "no database was configured")
		assert.NotNil(t, deps.AuthClient)
		assert.NotNil(t, deps.Sessions)
		assert.NotNil(t, deps.Exchange)
		assert.NotNil(t, deps.Audit)
		assert.NotNil(t, deps.Redirector)
		assert.NotNil(t, deps.Guard)
		assert.NotNil(t, deps.LoginLimiter)
		assert.NotNil(t, deps.AuthHandler)
		assert.NotNil(t, deps.SessionHandler)
		assert.NotNil(t, deps.HealthHandler)

		assert.NoError(t, deps.Close(ctx))
	})

	t.Run("missing session secret falls back to an ephemeral key", func(t *testing.T) {
		cfg := testConfig()
		cfg.Session.Secret = ""
		logger := zaptest.NewLogger(t)

		deps, err := NewDependencies(context.Background(), cfg, logger, "auth-portal")
		require.NoError(t, err)
		assert.NotNil(t, deps.Sessions)

		assert.NoError(t, deps.Close(context.Background()))
	})

	t.Run("database connection failure surfaces", func(t *testing.T) {
		cfg := testConfig()
		cfg.Database.Host = "invalid-host-that-does-not-exist"
		cfg.Database.Port = 5432
		cfg.Database.SSLMode = "disable"
		logger := zaptest.NewLogger(t)

		deps, err := NewDependencies(context.Background(), cfg, logger, "auth-portal")
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize database")
	})
}

func TestDependenciesClose(t *testing.T) {
	t.Run("double close does not panic", func(t *testing.T) {
		ctx := context.Background()
		logger := zaptest.NewLogger(t)

		deps, err := NewDependencies(ctx, testConfig(), logger, "auth-portal")
		require.NoError(t, err)

		assert.NoError(t, deps.Close(ctx))
		_ = deps.Close(ctx) // must not panic
	})
}
