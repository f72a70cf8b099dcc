package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerline/spendtrack/internal/auth"
	"github.com/ledgerline/spendtrack/internal/domain"
	"github.com/ledgerline/spendtrack/internal/event"
	pkgkafka "github.com/ledgerline/spendtrack/pkg/kafka"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Mock Session Repository ---

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionRepository) Get(ctx context.Context, userID, jti string) (*domain.Session, error) {
	args := m.Called(ctx, userID, jti)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepository) Delete(ctx context.Context, userID, jti string) error {
	args := m.Called(ctx, userID, jti)
	return args.Error(0)
}

func (m *mockSessionRepository) Revoke(ctx context.Context, userID, jti string) error {
	args := m.Called(ctx, userID, jti)
	return args.Error(0)
}

func (m *mockSessionRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock Expense Repository ---

type mockExpenseRepository struct {
	mock.Mock
}

func (m *mockExpenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *mockExpenseRepository) GetByID(ctx context.Context, userID, id string) (*domain.Expense, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *mockExpenseRepository) List(ctx context.Context, userID string, filter domain.ExpenseFilter, page, perPage int) ([]domain.Expense, int, error) {
	args := m.Called(ctx, userID, filter, page, perPage)
	return args.Get(0).([]domain.Expense), args.Int(1), args.Error(2)
}

func (m *mockExpenseRepository) Update(ctx context.Context, expense *domain.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *mockExpenseRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *mockExpenseRepository) TotalsByDay(ctx context.Context, userID string, from, to time.Time) ([]domain.DayTotal, error) {
	args := m.Called(ctx, userID, from, to)
	return args.Get(0).([]domain.DayTotal), args.Error(1)
}

func (m *mockExpenseRepository) TotalsByCategory(ctx context.Context, userID string, from, to time.Time) ([]domain.CategoryTotal, error) {
	args := m.Called(ctx, userID, from, to)
	return args.Get(0).([]domain.CategoryTotal), args.Error(1)
}

// --- Mock Category Repository ---

type mockCategoryRepository struct {
	mock.Mock
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

// --- Mock Summary Cache ---

type mockSummaryCache struct {
	mock.Mock
}

func (m *mockSummaryCache) Get(ctx context.Context, userID, from, to string) (*domain.Summary, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Summary), args.Error(1)
}

func (m *mockSummaryCache) Set(ctx context.Context, userID, from, to string, summary *domain.Summary) error {
	args := m.Called(ctx, userID, from, to, summary)
	return args.Error(0)
}

func (m *mockSummaryCache) Invalidate(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(
		"access-secret-for-testing-only",
		"refresh-secret-for-testing-only",
		15*time.Minute,
		7*24*time.Hour,
	)
}

func newTestEventProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

// hashForTest creates a bcrypt hash with cost 4 for fast tests.
func hashForTest(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), 4)
	if err != nil {
		panic(err)
	}
	return string(h)
}
