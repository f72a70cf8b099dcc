package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/spendtrack/internal/domain"
	"github.com/ledgerline/spendtrack/internal/event"
	"github.com/ledgerline/spendtrack/internal/repository"
	apperrors "github.com/ledgerline/spendtrack/pkg/errors"
)

// ExpenseService implements expense CRUD and listing. Every operation is
// scoped to the calling user; an expense owned by someone else behaves as
// if it does not exist.
type ExpenseService struct {
	expenseRepo  repository.ExpenseRepository
	categoryRepo repository.CategoryRepository
	cache        repository.SummaryCache
	producer     *event.Producer
	logger       *slog.Logger
}

// NewExpenseService creates a new expense service.
func NewExpenseService(
	expenseRepo repository.ExpenseRepository,
	categoryRepo repository.CategoryRepository,
	cache repository.SummaryCache,
	producer *event.Producer,
	logger *slog.Logger,
) *ExpenseService {
	return &ExpenseService{
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		cache:        cache,
		producer:     producer,
		logger:       logger,
	}
}

// ExpenseInput holds the writable fields of an expense, used for both
// create and full update.
type ExpenseInput struct {
	Amount        float64
	Currency      string
	Date          time.Time
	Category      string
	Tags          []string
	Notes         string
	Merchant      string
	Description   string
	AttachmentURL string
}

// ListExpensesInput holds filter and pagination parameters for listing.
type ListExpensesInput struct {
	Filter  domain.ExpenseFilter
	Page    int
	PerPage int
}

// ExpensePage is one page of a filtered expense listing.
type ExpensePage struct {
	Expenses []domain.Expense
	Total    int
	Page     int
	PerPage  int
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Create records a new expense for the user.
func (s *ExpenseService) Create(ctx context.Context, userID string, input ExpenseInput) (*domain.Expense, error) {
	if input.Amount <= 0 {
		return nil, apperrors.InvalidInput("amount must be greater than zero")
	}

	now := time.Now().UTC()
	expense := &domain.Expense{
		ID:            uuid.New().String(),
		UserID:        userID,
		Amount:        input.Amount,
		Currency:      input.Currency,
		Date:          input.Date,
		Category:      input.Category,
		Tags:          input.Tags,
		Notes:         input.Notes,
		Merchant:      input.Merchant,
		Description:   input.Description,
		AttachmentURL: input.AttachmentURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	s.afterMutation(ctx, userID)

	if err := s.producer.PublishExpenseCreated(ctx, expense); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish expense.created event",
			slog.String("expense_id", expense.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "expense created",
		slog.String("expense_id", expense.ID),
		slog.String("user_id", userID),
		slog.Float64("amount", expense.Amount),
	)

	return expense, nil
}

// Get retrieves a single expense owned by the user.
func (s *ExpenseService) Get(ctx context.Context, userID, id string) (*domain.Expense, error) {
	expense, err := s.expenseRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return expense, nil
}

// List returns a filtered, date-descending page of the user's expenses.
func (s *ExpenseService) List(ctx context.Context, userID string, input ListExpensesInput) (*ExpensePage, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	perPage := input.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	expenses, total, err := s.expenseRepo.List(ctx, userID, input.Filter, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	return &ExpensePage{
		Expenses: expenses,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
	}, nil
}

// Update replaces the writable fields of an expense owned by the user.
func (s *ExpenseService) Update(ctx context.Context, userID, id string, input ExpenseInput) (*domain.Expense, error) {
	if input.Amount <= 0 {
		return nil, apperrors.InvalidInput("amount must be greater than zero")
	}

	expense, err := s.expenseRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get expense for update: %w", err)
	}

	expense.Amount = input.Amount
	expense.Currency = input.Currency
	expense.Date = input.Date
	expense.Category = input.Category
	expense.Tags = input.Tags
	expense.Notes = input.Notes
	expense.Merchant = input.Merchant
	expense.Description = input.Description
	expense.AttachmentURL = input.AttachmentURL
	expense.UpdatedAt = time.Now().UTC()

	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return nil, fmt.Errorf("update expense: %w", err)
	}

	s.afterMutation(ctx, userID)

	if err := s.producer.PublishExpenseUpdated(ctx, expense); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish expense.updated event",
			slog.String("expense_id", expense.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "expense updated",
		slog.String("expense_id", expense.ID),
		slog.String("user_id", userID),
	)

	return expense, nil
}

// Delete removes an expense owned by the user.
func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	if err := s.expenseRepo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.afterMutation(ctx, userID)

	if err := s.producer.PublishExpenseDeleted(ctx, userID, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish expense.deleted event",
			slog.String("expense_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "expense deleted",
		slog.String("expense_id", id),
		slog.String("user_id", userID),
	)

	return nil
}

// Categories returns the global category catalog.
func (s *ExpenseService) Categories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// afterMutation drops the user's cached dashboard summaries. A failed
// invalidation only risks a stale summary until the cache TTL lapses.
func (s *ExpenseService) afterMutation(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate summary cache",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
