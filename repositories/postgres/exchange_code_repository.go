package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/travelhub/travel-hub/models"
	"github.com/travelhub/travel-hub/repositories"
	"github.com/travelhub/travel-hub/services"
	"go.uber.org/zap"
)

// ExchangeCodeRepository implements repositories.ExchangeCodeRepository
type ExchangeCodeRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewExchangeCodeRepository creates a new exchange code repository
func NewExchangeCodeRepository(db *DB, logger *zap.Logger) repositories.ExchangeCodeRepository {
	return &ExchangeCodeRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a freshly issued code
func (r *ExchangeCodeRepository) Create(ctx context.Context, code *models.ExchangeCode) error {
	profile, err := json.Marshal(code.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	query := `
		INSERT INTO exchange_codes (code, token, profile, role, issued_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
	`

	_, err = r.db.ExecContext(ctx, query,
		code.Code,
		code.Token,
		profile,
		code.Role,
		code.IssuedAt,
		code.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create exchange code: %w", err)
	}

	r.logger.Debug("exchange code stored", zap.Time("expires_at", code.ExpiresAt))
	return nil
}

// Redeem atomically flips used from FALSE to TRUE and returns the row.
// Zero rows updated means the code is either unknown or already used; a
// follow-up existence check picks the right error.
func (r *ExchangeCodeRepository) Redeem(ctx context.Context, code string, now time.Time) (*models.ExchangeCode, error) {
	query := `
		UPDATE exchange_codes
		SET used = TRUE
		WHERE code = $1 AND used = FALSE
		RETURNING code, token, profile, role, issued_at, expires_at, used
	`

	rec, err := r.scanCode(r.db.QueryRowContext(ctx, query, code))
	if err == nil {
		return rec, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to redeem exchange code: %w", err)
	}

	// Distinguish "never existed" from "second redemption".
	var used bool
	checkErr := r.db.QueryRowContext(ctx,
		`SELECT used FROM exchange_codes WHERE code = $1`, code).Scan(&used)
	if checkErr == sql.ErrNoRows {
		return nil, services.ErrCodeNotFound
	}
	if checkErr != nil {
		return nil, fmt.Errorf("failed to check exchange code: %w", checkErr)
	}
	return nil, services.ErrCodeUsed
}

// DeleteExpired removes codes whose TTL passed before the cutoff
func (r *ExchangeCodeRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM exchange_codes WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired exchange codes: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted exchange codes: %w", err)
	}

	if deleted > 0 {
		r.logger.Debug("expired exchange codes deleted", zap.Int64("count", deleted))
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *ExchangeCodeRepository) scanCode(row rowScanner) (*models.ExchangeCode, error) {
	rec := &models.ExchangeCode{}
	var profile []byte

	err := row.Scan(
		&rec.Code,
		&rec.Token,
		&profile,
		&rec.Role,
		&rec.IssuedAt,
		&rec.ExpiresAt,
		&rec.Used,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(profile, &rec.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return rec, nil
}
