package repository

import (
	"context"
	"time"

	"github.com/ledgerline/spendtrack/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error
}

// SessionRepository defines the interface for refresh session persistence.
// Sessions are keyed by (user_id, jti); jti is unique across the table.
type SessionRepository interface {
	// Create inserts a new session row.
	Create(ctx context.Context, session *domain.Session) error

	// Get retrieves the session for the given user and jti.
	Get(ctx context.Context, userID, jti string) (*domain.Session, error)

	// Delete removes the session row for the given user and jti.
	Delete(ctx context.Context, userID, jti string) error

	// Revoke marks the session revoked without deleting the row.
	Revoke(ctx context.Context, userID, jti string) error

	// DeleteExpiredBefore removes sessions whose expiry is before the cutoff.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ExpenseRepository defines the interface for expense persistence operations.
// All reads and mutations are scoped to the owning user.
type ExpenseRepository interface {
	// Create inserts a new expense.
	Create(ctx context.Context, expense *domain.Expense) error

	// GetByID retrieves an expense owned by the given user.
	GetByID(ctx context.Context, userID, id string) (*domain.Expense, error)

	// List returns a filtered, date-descending page of the user's expenses
	// and the total count matching the filter.
	List(ctx context.Context, userID string, filter domain.ExpenseFilter, page, perPage int) ([]domain.Expense, int, error)

	// Update modifies an expense owned by the given user.
	Update(ctx context.Context, expense *domain.Expense) error

	// Delete removes an expense owned by the given user.
	Delete(ctx context.Context, userID, id string) error

	// TotalsByDay returns per-day spend totals inside [from, to].
	TotalsByDay(ctx context.Context, userID string, from, to time.Time) ([]domain.DayTotal, error)

	// TotalsByCategory returns per-category spend totals inside [from, to].
	TotalsByCategory(ctx context.Context, userID string, from, to time.Time) ([]domain.CategoryTotal, error)
}

// CategoryRepository provides read access to the global category catalog.
type CategoryRepository interface {
	// List returns all catalog categories ordered by name.
	List(ctx context.Context) ([]domain.Category, error)
}

// SummaryCache caches computed dashboard summaries per user and window.
type SummaryCache interface {
	// Get returns the cached summary for the window, or nil on a miss.
	Get(ctx context.Context, userID, from, to string) (*domain.Summary, error)

	// Set stores a summary for the window.
	Set(ctx context.Context, userID, from, to string, summary *domain.Summary) error

	// Invalidate drops all cached summaries for the user.
	Invalidate(ctx context.Context, userID string) error
}
