package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/spendtrack/internal/domain"
	"github.com/ledgerline/spendtrack/pkg/database"
	apperrors "github.com/ledgerline/spendtrack/pkg/errors"
)

func newSessionTestFixture(t *testing.T) (*SessionRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewSessionRepository(mock)
	return repo, mock
}

func sampleSession() *domain.Session {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Session{
		ID:        "s-1",
		UserID:    "u-1234",
		JTI:       "jti-abc",
		Revoked:   false,
		ExpiresAt: now.Add(168 * time.Hour),
		CreatedAt: now,
	}
}

func sessionRow(s *domain.Session) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "user_id", "jti", "revoked", "expires_at", "created_at"}).
		AddRow(s.ID, s.UserID, s.JTI, s.Revoked, s.ExpiresAt, s.CreatedAt)
}

func TestSessionRepository_Create_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(s.ID, s.UserID, s.JTI, s.Revoked, s.ExpiresAt, s.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Create_DuplicateJTI(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(s.ID, s.UserID, s.JTI, s.Revoked, s.ExpiresAt, s.CreatedAt).
		WillReturnError(fmt.Errorf("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	err := repo.Create(context.Background(), s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Get_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE user_id = .+ AND jti =").
		WithArgs(s.UserID, s.JTI).
		WillReturnRows(sessionRow(s))

	got, err := repo.Get(context.Background(), s.UserID, s.JTI)
	require.NoError(t, err)
	assert.Equal(t, s.JTI, got.JTI)
	assert.False(t, got.Revoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Get_NotFound(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE user_id = .+ AND jti =").
		WithArgs("u-1234", "missing-jti").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.Get(context.Background(), "u-1234", "missing-jti")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Delete_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM sessions WHERE user_id = .+ AND jti =").
		WithArgs("u-1234", "jti-abc").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "u-1234", "jti-abc")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM sessions WHERE user_id = .+ AND jti =").
		WithArgs("u-1234", "gone-jti").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "u-1234", "gone-jti")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Revoke_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE sessions SET revoked = true").
		WithArgs("u-1234", "jti-abc").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Revoke(context.Background(), "u-1234", "jti-abc")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteExpiredBefore(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	cutoff := time.Now().UTC()

	mock.ExpectExec("DELETE FROM sessions WHERE expires_at <").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.DeleteExpiredBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
