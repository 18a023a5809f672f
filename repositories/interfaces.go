package repositories

import (
	"context"
	"time"

	"github.com/travelhub/travel-hub/models"
)

// ExchangeCodeRepository persists one-time exchange codes so redemption
// works across portal replicas and restarts.
type ExchangeCodeRepository interface {
	// Create stores a freshly issued code.
	Create(ctx context.Context, code *models.ExchangeCode) error

	// Redeem atomically marks the code used and returns it. Fails with a
	// typed error when the code is unknown or already used; expiry is the
	// caller's check.
	Redeem(ctx context.Context, code string, now time.Time) (*models.ExchangeCode, error)

	// DeleteExpired removes codes whose TTL passed before the cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditRepository stores the auth audit trail.
type AuditRepository interface {
	// Create stores a single auth event.
	Create(ctx context.Context, event *models.AuthEvent) error

	// ListRecent returns the newest events, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.AuthEvent, error)
}

// Repositories bundles every repository implementation.
type Repositories struct {
	ExchangeCodes ExchangeCodeRepository
	AuditLogs     AuditRepository
}
