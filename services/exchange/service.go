// Package exchange issues and redeems the one-time codes that replace
// bearer tokens in cross-desk redirect URLs.
package exchange

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/travelhub/travel-hub/models"
	"github.com/travelhub/travel-hub/repositories"
	"github.com/travelhub/travel-hub/services"
	"go.uber.org/zap"
)

// Service mints short-TTL single-use exchange codes. Codes always live in
// the in-memory cache; when a repository is configured they are persisted
// too, so redemption works across portal replicas and restarts.
type Service struct {
	cache  *codeCache
	repo   repositories.ExchangeCodeRepository // optional, may be nil
	ttl    time.Duration
	logger *zap.Logger

	now func() time.Time // injectable clock for tests
}

// Config holds configuration for the exchange Service.
type Config struct {
	TTL      time.Duration
	MaxCodes int
}

// NewService creates a Service. repo may be nil for memory-only operation.
func NewService(cfg Config, repo repositories.ExchangeCodeRepository, logger *zap.Logger) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Service{
		cache:  newCodeCache(cfg.MaxCodes),
		repo:   repo,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Issue mints a code for the given token and profile snapshot.
func (s *Service) Issue(ctx context.Context, bearer string, profile *models.UserProfile, role models.Role) (string, error) {
	now := s.now()
	code := &models.ExchangeCode{
		Code:      uuid.NewString(),
		Token:     bearer,
		Profile:   *profile,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.cache.PurgeExpired(now)
	s.cache.Put(code)

	if s.repo != nil {
		if err := s.repo.Create(ctx, code); err != nil {
			// The in-memory copy still works for this replica; degrade
			// rather than fail the login.
			s.logger.Warn("persist exchange code failed", zap.Error(err))
		}
	}

	s.logger.Debug("exchange code issued",
		zap.String("role", role.String()),
		zap.Time("expires_at", code.ExpiresAt))

	return code.Code, nil
}

// Redeem consumes a code exactly once and returns its bound token and
// profile. A second redemption, an unknown code, and an expired code each
// fail with a typed error.
func (s *Service) Redeem(ctx context.Context, code string) (*models.ExchangeCode, error) {
	now := s.now()

	if rec := s.cache.Take(code); rec != nil {
		if rec.Expired(now) {
			return nil, services.ErrCodeExpired
		}
		// Keep the persistent copy in step so another replica cannot
		// redeem the same code later.
		if s.repo != nil {
			if _, err := s.repo.Redeem(ctx, code, now); err != nil {
				s.logger.Warn("mark exchange code redeemed failed", zap.Error(err))
			}
		}
		return rec, nil
	}

	// Not in this replica's memory; fall through to the shared store.
	if s.repo != nil {
		rec, err := s.repo.Redeem(ctx, code, now)
		if err != nil {
			return nil, err
		}
		if rec.Expired(now) {
			return nil, services.ErrCodeExpired
		}
		return rec, nil
	}

	return nil, services.ErrCodeNotFound
}
