package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/spendtrack/internal/domain"
	"github.com/ledgerline/spendtrack/pkg/database"
	apperrors "github.com/ledgerline/spendtrack/pkg/errors"
)

// ExpenseRepository implements repository.ExpenseRepository using PostgreSQL.
type ExpenseRepository struct {
	db database.DBTX
}

// NewExpenseRepository creates a new PostgreSQL-backed expense repository.
func NewExpenseRepository(db database.DBTX) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

const expenseColumns = `id, user_id, amount, currency, date, category, tags, notes, merchant, description, attachment_url, created_at, updated_at`

// Create inserts a new expense.
func (r *ExpenseRepository) Create(ctx context.Context, e *domain.Expense) error {
	query := `
		INSERT INTO expenses (id, user_id, amount, currency, date, category, tags, notes, merchant, description, attachment_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		e.ID,
		e.UserID,
		e.Amount,
		e.Currency,
		e.Date,
		e.Category,
		e.Tags,
		e.Notes,
		e.Merchant,
		e.Description,
		e.AttachmentURL,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	return nil
}

// GetByID retrieves an expense owned by the given user.
func (r *ExpenseRepository) GetByID(ctx context.Context, userID, id string) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = $1 AND id = $2`

	var e domain.Expense
	err := r.db.QueryRow(ctx, query, userID, id).Scan(
		&e.ID,
		&e.UserID,
		&e.Amount,
		&e.Currency,
		&e.Date,
		&e.Category,
		&e.Tags,
		&e.Notes,
		&e.Merchant,
		&e.Description,
		&e.AttachmentURL,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan expense: %w", err)
	}

	return &e, nil
}

// buildFilter appends WHERE fragments for the filter, returning the SQL
// suffix and its arguments. The user_id predicate is always first.
func buildFilter(userID string, f domain.ExpenseFilter) (string, []any) {
	where := "WHERE user_id = $1"
	args := []any{userID}

	next := func() string { return "$" + strconv.Itoa(len(args)+1) }

	if f.From != nil {
		where += " AND date >= " + next()
		args = append(args, *f.From)
	}
	if f.To != nil {
		where += " AND date <= " + next()
		args = append(args, *f.To)
	}
	if len(f.Categories) > 0 {
		where += " AND category = ANY(" + next() + ")"
		args = append(args, f.Categories)
	}
	if len(f.Tags) > 0 {
		// Any-match: the row's tags overlap the requested set.
		where += " AND tags && " + next()
		args = append(args, f.Tags)
	}
	if f.Query != "" {
		pattern := "%" + f.Query + "%"
		clause := "(merchant ILIKE " + next() + " OR notes ILIKE " + next() + " OR category ILIKE " + next()
		args = append(args, pattern, pattern, pattern)
		if amount, err := strconv.ParseFloat(f.Query, 64); err == nil {
			clause += " OR amount = " + next()
			args = append(args, amount)
		}
		clause += ")"
		where += " AND " + clause
	}

	return where, args
}

// List returns a filtered, date-descending page of the user's expenses and
// the total count matching the filter.
func (r *ExpenseRepository) List(ctx context.Context, userID string, filter domain.ExpenseFilter, page, perPage int) ([]domain.Expense, int, error) {
	where, args := buildFilter(userID, filter)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM expenses "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}

	offset := (page - 1) * perPage
	query := fmt.Sprintf(
		"SELECT %s FROM expenses %s ORDER BY date DESC, created_at DESC LIMIT $%d OFFSET $%d",
		expenseColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, perPage, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Amount,
			&e.Currency,
			&e.Date,
			&e.Category,
			&e.Tags,
			&e.Notes,
			&e.Merchant,
			&e.Description,
			&e.AttachmentURL,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan expense row: %w", err)
		}
		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate expense rows: %w", err)
	}

	if expenses == nil {
		expenses = []domain.Expense{}
	}

	return expenses, total, nil
}

// Update modifies an expense owned by the given user.
func (r *ExpenseRepository) Update(ctx context.Context, e *domain.Expense) error {
	e.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE expenses
		SET amount = $1, currency = $2, date = $3, category = $4, tags = $5,
		    notes = $6, merchant = $7, description = $8, attachment_url = $9, updated_at = $10
		WHERE user_id = $11 AND id = $12`

	ct, err := r.db.Exec(ctx, query,
		e.Amount,
		e.Currency,
		e.Date,
		e.Category,
		e.Tags,
		e.Notes,
		e.Merchant,
		e.Description,
		e.AttachmentURL,
		e.UpdatedAt,
		e.UserID,
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("expense", e.ID)
	}

	return nil
}

// Delete removes an expense owned by the given user.
func (r *ExpenseRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM expenses WHERE user_id = $1 AND id = $2`

	ct, err := r.db.Exec(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("expense", id)
	}

	return nil
}

// TotalsByDay returns per-day spend totals inside [from, to].
func (r *ExpenseRepository) TotalsByDay(ctx context.Context, userID string, from, to time.Time) ([]domain.DayTotal, error) {
	query := `
		SELECT to_char(date::date, 'YYYY-MM-DD') AS day, COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		GROUP BY day
		ORDER BY day`

	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query day totals: %w", err)
	}
	defer rows.Close()

	var totals []domain.DayTotal
	for rows.Next() {
		var t domain.DayTotal
		if err := rows.Scan(&t.Date, &t.Total); err != nil {
			return nil, fmt.Errorf("scan day total: %w", err)
		}
		totals = append(totals, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day totals: %w", err)
	}

	return totals, nil
}

// TotalsByCategory returns per-category spend totals inside [from, to].
func (r *ExpenseRepository) TotalsByCategory(ctx context.Context, userID string, from, to time.Time) ([]domain.CategoryTotal, error) {
	query := `
		SELECT category, COALESCE(SUM(amount), 0)
		FROM expenses
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		GROUP BY category
		ORDER BY 2 DESC`

	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query category totals: %w", err)
	}
	defer rows.Close()

	var totals []domain.CategoryTotal
	for rows.Next() {
		var t domain.CategoryTotal
		if err := rows.Scan(&t.Category, &t.Total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}

	return totals, nil
}
