package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/spendtrack/internal/domain"
	"github.com/ledgerline/spendtrack/pkg/database"
	apperrors "github.com/ledgerline/spendtrack/pkg/errors"
)

// SessionRepository implements repository.SessionRepository using PostgreSQL.
type SessionRepository struct {
	db database.DBTX
}

// NewSessionRepository creates a new PostgreSQL-backed session repository.
func NewSessionRepository(db database.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session row.
func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, jti, revoked, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.JTI,
		s.Revoked,
		s.ExpiresAt,
		s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("session", "jti", s.JTI)
		}
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// Get retrieves the session for the given user and jti.
func (r *SessionRepository) Get(ctx context.Context, userID, jti string) (*domain.Session, error) {
	query := `
		SELECT id, user_id, jti, revoked, expires_at, created_at
		FROM sessions
		WHERE user_id = $1 AND jti = $2`

	var s domain.Session
	err := r.db.QueryRow(ctx, query, userID, jti).Scan(
		&s.ID,
		&s.UserID,
		&s.JTI,
		&s.Revoked,
		&s.ExpiresAt,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return &s, nil
}

// Delete removes the session row for the given user and jti.
func (r *SessionRepository) Delete(ctx context.Context, userID, jti string) error {
	query := `DELETE FROM sessions WHERE user_id = $1 AND jti = $2`

	ct, err := r.db.Exec(ctx, query, userID, jti)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// Revoke marks the session revoked without deleting the row.
func (r *SessionRepository) Revoke(ctx context.Context, userID, jti string) error {
	query := `UPDATE sessions SET revoked = true WHERE user_id = $1 AND jti = $2`

	ct, err := r.db.Exec(ctx, query, userID, jti)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// DeleteExpiredBefore removes sessions whose expiry is before the cutoff.
func (r *SessionRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < $1`

	ct, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	return ct.RowsAffected(), nil
}
