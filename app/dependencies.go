package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/travelhub/travel-hub/config"
	"github.com/travelhub/travel-hub/handlers"
	"github.com/travelhub/travel-hub/middleware"
	"github.com/travelhub/travel-hub/repositories"
	"github.com/travelhub/travel-hub/repositories/postgres"
	"github.com/travelhub/travel-hub/services"
	"github.com/travelhub/travel-hub/services/audit"
	"github.com/travelhub/travel-hub/services/exchange"
	"github.com/travelhub/travel-hub/token"
	"github.com/travelhub/travel-hub/tokenstore"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection: construction happens here once,
// handlers and middleware receive interfaces.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB // nil when running without persistence
	Logger *zap.Logger

	RepoFactory *postgres.RepositoryFactory
	Repos       *repositories.Repositories

	// Services
	AuthClient *services.AuthClient
	Sessions   *token.Manager
	Exchange   *exchange.Service
	Audit      *audit.Service
	Redirector *services.Redirector

	// Middleware
	Guard        *middleware.SessionGuard
	LoginLimiter *middleware.LoginRateLimiter

	// Handlers
	AuthHandler    *handlers.AuthHandler
	SessionHandler *handlers.SessionHandler
	HealthHandler  *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies.
// deskName identifies this process in the audit trail ("auth-portal" for
// the portal, the desk name for a gateway).
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, deskName string) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	deps.initHTTP(deskName)

	logger.Info("all dependencies initialized",
		zap.Bool("persistence", deps.DB != nil),
		zap.String("component", deskName))
	return deps, nil
}

// initDatabase connects PostgreSQL when configured. Persistence is
// optional: without it exchange codes stay in process memory and audit
// events go to the log only.
func (d *Dependencies) initDatabase(ctx context.Context) error {
	if !d.Config.HasDatabase() {
		d.Logger.Info("no database configured, running with in-memory state")
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(d.Config, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}
	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := factory.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Repos = factory.NewRepositories()

	d.Logger.Info("database connection established",
		zap.String("connection", d.Config.Database.LogString()))
	return nil
}

// initServices wires the auth client, session minting, codes, audit trail,
// and the redirector.
func (d *Dependencies) initServices() error {
	var codeRepo repositories.ExchangeCodeRepository
	var auditRepo repositories.AuditRepository
	if d.Repos != nil {
		codeRepo = d.Repos.ExchangeCodes
		auditRepo = d.Repos.AuditLogs
	}

	d.Audit = audit.NewService(auditRepo, d.Logger, audit.DefaultConfig())
	if err := d.Audit.Start(); err != nil {
		return err
	}

	d.Exchange = exchange.NewService(exchange.Config{TTL: d.Config.Desks.CodeTTL}, codeRepo, d.Logger)

	d.AuthClient = services.NewAuthClient(d.Config.AuthService, d.Logger)

	secret := d.Config.Session.Secret
	if secret == "" {
		// Development convenience: sessions survive the process only.
		// Production refuses to start without a configured secret.
		secret = uuid.NewString()
		d.Logger.Warn("no session secret configured, using an ephemeral key")
	}
	sessions, err := token.NewManager(secret, d.Config.Session.Issuer, d.Config.Session.TTL)
	if err != nil {
		return err
	}
	d.Sessions = sessions

	redirector, err := services.NewRedirector(d.Config.Desks, d.Exchange, d.Logger)
	if err != nil {
		return err
	}
	d.Redirector = redirector

	return nil
}

// initHTTP wires the guard, rate limiter, and handlers.
func (d *Dependencies) initHTTP(deskName string) {
	cookies := d.cookieOptions()

	d.Guard = middleware.NewSessionGuard(d.Sessions, d.AuthClient, cookies, d.Config.Desks.LoginURL, d.Logger)
	d.LoginLimiter = middleware.NewLoginRateLimiter(d.Config.Server.LoginRatePerMinute, d.Logger)

	d.AuthHandler = handlers.NewAuthHandler(d.AuthClient, d.Sessions, d.Redirector, d.Audit, cookies, d.Logger)
	d.SessionHandler = handlers.NewSessionHandler(d.AuthClient, d.Sessions, d.Exchange, d.Audit,
		handlers.SessionHandlerConfig{
			Cookies:     cookies,
			LoginURL:    d.Config.Desks.LoginURL,
			DeskName:    deskName,
			AllowLegacy: d.Config.Desks.LegacyTokens,
		}, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.sqlDB(), d.Logger)
}

func (d *Dependencies) cookieOptions() tokenstore.CookieOptions {
	return tokenstore.CookieOptions{
		Domain:   d.Config.Session.CookieDomain,
		Secure:   d.Config.Session.CookieSecure,
		MaxAge:   int(d.Config.Session.TTL.Seconds()),
		HTTPOnly: true,
	}
}

func (d *Dependencies) sqlDB() *sql.DB {
	if d.DB == nil {
		return nil
	}
	return d.DB.DB
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.LoginLimiter != nil {
		d.LoginLimiter.Stop()
	}

	if d.Audit != nil {
		if err := d.Audit.Stop(5 * time.Second); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
