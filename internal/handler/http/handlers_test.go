package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/spendtrack/internal/auth"
	"github.com/ledgerline/spendtrack/internal/domain"
	"github.com/ledgerline/spendtrack/internal/event"
	"github.com/ledgerline/spendtrack/internal/service"
	"github.com/ledgerline/spendtrack/pkg/httputil"
	pkgkafka "github.com/ledgerline/spendtrack/pkg/kafka"
	"github.com/ledgerline/spendtrack/pkg/middleware"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockSessionRepo) Get(ctx context.Context, userID, jti string) (*domain.Session, error) {
	args := m.Called(ctx, userID, jti)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepo) Delete(ctx context.Context, userID, jti string) error {
	args := m.Called(ctx, userID, jti)
	return args.Error(0)
}

func (m *mockSessionRepo) Revoke(ctx context.Context, userID, jti string) error {
	args := m.Called(ctx, userID, jti)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockExpenseRepo struct {
	mock.Mock
}

func (m *mockExpenseRepo) Create(ctx context.Context, expense *domain.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *mockExpenseRepo) GetByID(ctx context.Context, userID, id string) (*domain.Expense, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *mockExpenseRepo) List(ctx context.Context, userID string, filter domain.ExpenseFilter, page, perPage int) ([]domain.Expense, int, error) {
	args := m.Called(ctx, userID, filter, page, perPage)
	return args.Get(0).([]domain.Expense), args.Int(1), args.Error(2)
}

func (m *mockExpenseRepo) Update(ctx context.Context, expense *domain.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *mockExpenseRepo) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *mockExpenseRepo) TotalsByDay(ctx context.Context, userID string, from, to time.Time) ([]domain.DayTotal, error) {
	args := m.Called(ctx, userID, from, to)
	return args.Get(0).([]domain.DayTotal), args.Error(1)
}

func (m *mockExpenseRepo) TotalsByCategory(ctx context.Context, userID string, from, to time.Time) ([]domain.CategoryTotal, error) {
	args := m.Called(ctx, userID, from, to)
	return args.Get(0).([]domain.CategoryTotal), args.Error(1)
}

type mockCategoryRepo struct {
	mock.Mock
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

type mockSummaryCacheRepo struct {
	mock.Mock
}

func (m *mockSummaryCacheRepo) Get(ctx context.Context, userID, from, to string) (*domain.Summary, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Summary), args.Error(1)
}

func (m *mockSummaryCacheRepo) Set(ctx context.Context, userID, from, to string, summary *domain.Summary) error {
	args := m.Called(ctx, userID, from, to, summary)
	return args.Error(0)
}

func (m *mockSummaryCacheRepo) Invalidate(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// ============================================================================
// Test Helpers
// ============================================================================

const testUserID = "550e8400-e29b-41d4-a716-446655440001"
const testExpenseID = "550e8400-e29b-41d4-a716-446655440002"

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func handlerTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(
		"access-secret-for-testing-only",
		"refresh-secret-for-testing-only",
		15*time.Minute,
		7*24*time.Hour,
	)
}

func handlerTestEventProducer() *event.Producer {
	logger := handlerTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func handlerTestAuthService(userRepo *mockUserRepo, sessionRepo *mockSessionRepo) *service.AuthService {
	return service.NewAuthService(
		userRepo,
		sessionRepo,
		handlerTestTokenManager(),
		handlerTestEventProducer(),
		handlerTestLogger(),
		7*24*time.Hour,
		4,
	)
}

// fakeTokenValidator returns a middleware.TokenValidator that always succeeds
// and injects the given userID into the request context.
func fakeTokenValidator(userID string) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		return &middleware.Claims{UserID: userID}, nil
	}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func sampleUser() *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:           testUserID,
		Name:         "John Doe",
		Email:        "john@example.com",
		PasswordHash: "$2a$10$hashedpassword",
		Phone:        "555-0100",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
