package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/travelhub/travel-hub/models"
	"github.com/travelhub/travel-hub/repositories"
	"go.uber.org/zap"
)

// AuditRepository implements repositories.AuditRepository
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a single auth event
func (r *AuditRepository) Create(ctx context.Context, event *models.AuthEvent) error {
	query := `
		INSERT INTO auth_events (id, event_type, user_id, email, role, source, remote_ip, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Type,
		nullable(event.UserID),
		nullable(event.Email),
		nullable(string(event.Role)),
		event.Source,
		nullable(event.RemoteIP),
		nullable(event.Detail),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create auth event: %w", err)
	}

	return nil
}

// ListRecent returns the newest events, newest first
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*models.AuthEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, event_type, user_id, email, role, source, remote_ip, detail, created_at
		FROM auth_events
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list auth events: %w", err)
	}
	defer rows.Close()

	var events []*models.AuthEvent
	for rows.Next() {
		event := &models.AuthEvent{}
		var userID, email, role, remoteIP, detail sql.NullString

		err := rows.Scan(
			&event.ID,
			&event.Type,
			&userID,
			&email,
			&role,
			&event.Source,
			&remoteIP,
			&detail,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auth event: %w", err)
		}

		event.UserID = userID.String
		event.Email = email.String
		event.Role = models.Role(role.String)
		event.RemoteIP = remoteIP.String
		event.Detail = detail.String
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate auth events: %w", err)
	}
	return events, nil
}

// nullable maps "" to NULL so optional columns stay NULL instead of empty.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
