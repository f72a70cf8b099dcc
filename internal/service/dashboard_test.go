package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/spendtrack/internal/domain"
	apperrors "github.com/ledgerline/spendtrack/pkg/errors"
)

func newTestDashboardService(expenseRepo *mockExpenseRepository, cache *mockSummaryCache) *DashboardService {
	return NewDashboardService(expenseRepo, cache, newTestLogger())
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSummary_ComputesWindowTotals(t *testing.T) {
	expenseRepo := new(mockExpenseRepository)
	cache := new(mockSummaryCache)
	svc := newTestDashboardService(expenseRepo, cache)
	ctx := context.Background()

	from := day(2026, 8, 1)
	toEnd := day(2026, 8, 31).Add(-time.Millisecond)
	prevFrom := day(2026, 7, 2)
	prevToEnd := day(2026, 8, 1).Add(-time.Millisecond)

	cache.On("Get", ctx, "u-1", "2026-08-01", "2026-08-30").Return(nil, nil)
	expenseRepo.On("TotalsByDay", ctx, "u-1", from, toEnd).Return([]domain.DayTotal{
		{Date: "2026-08-05", Total: 100},
		{Date: "2026-08-10", Total: 50.5},
	}, nil)
	expenseRepo.On("TotalsByDay", ctx, "u-1", prevFrom, prevToEnd).Return([]domain.DayTotal{
		{Date: "2026-07-05", Total: 60},
	}, nil)
	expenseRepo.On("TotalsByCategory", ctx, "u-1", from, toEnd).Return([]domain.CategoryTotal{
		{Category: "Food", Total: 100},
		{Category: "Transport", Total: 50.5},
	}, nil)
	cache.On("Set", ctx, "u-1", "2026-08-01", "2026-08-30", mock.AnythingOfType("*domain.Summary")).Return(nil)

	summary, err := svc.Summary(ctx, "u-1", "2026-08-01", "2026-08-30")

	require.NoError(t, err)
	assert.Equal(t, 150.5, summary.Total)
	assert.Equal(t, 60.0, summary.PrevPeriodTotal)
	assert.Equal(t, 150.83, summary.PctChange)
	assert.Equal(t, 5.02, summary.AvgDaily)
	assert.Equal(t, domain.TopCategory{Name: "Food", Amount: 100}, summary.TopCategory)
	assert.Equal(t, 2, summary.TotalTransactions)
	assert.Equal(t, "2026-08-01", summary.From)
	assert.Equal(t, "2026-08-30", summary.To)

	// Trend is day-aligned against the previous window.
	require.Len(t, summary.Trend, 30)
	assert.Equal(t, domain.TrendDay{Date: "2026-08-04", Current: 0, Previous: 60}, summary.Trend[3])
	assert.Equal(t, domain.TrendDay{Date: "2026-08-05", Current: 100, Previous: 0}, summary.Trend[4])
	assert.Equal(t, domain.TrendDay{Date: "2026-08-10", Current: 50.5, Previous: 0}, summary.Trend[9])

	expenseRepo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestSummary_DefaultWindow(t *testing.T) {
	expenseRepo := new(mockExpenseRepository)
	cache := new(mockSummaryCache)
	svc := newTestDashboardService(expenseRepo, cache)
	svc.now = func() time.Time { return time.Date(2026, 8, 30, 12, 34, 56, 0, time.UTC) }
	ctx := context.Background()

	cache.On("Get", ctx, "u-1", "2026-08-01", "2026-08-30").Return(nil, nil)
	expenseRepo.On("TotalsByDay", ctx, "u-1", mock.Anything, mock.Anything).Return([]domain.DayTotal{}, nil)
	expenseRepo.On("TotalsByCategory", ctx, "u-1", mock.Anything, mock.Anything).Return([]domain.CategoryTotal{}, nil)
	cache.On("Set", ctx, "u-1", "2026-08-01", "2026-08-30", mock.AnythingOfType("*domain.Summary")).Return(nil)

	summary, err := svc.Summary(ctx, "u-1", "", "")

	require.NoError(t, err)
	assert.Equal(t, "2026-08-01", summary.From)
	assert.Equal(t, "2026-08-30", summary.To)
	assert.Len(t, summary.Trend, 30)
}

func TestSummary_PctChange_PrevZero(t *testing.T) {
	expenseRepo := new(mockExpenseRepository)
	cache := new(mockSummaryCache)
	svc := newTestDashboardService(expenseRepo, cache)
	ctx := context.Background()

	cache.On("Get", ctx, "u-1", "2026-08-01", "2026-08-30").Return(nil, nil)
	expenseRepo.On("TotalsByDay", ctx, "u-1", day(2026, 8, 1), mock.Anything).Return([]domain.DayTotal{
		{Date: "2026-08-02", Total: 75},
	}, nil)
	expenseRepo.On("TotalsByDay", ctx, "u-1", day(2026, 7, 2), mock.Anything).Return([]domain.DayTotal{}, nil)
	expenseRepo.On("TotalsByCategory", ctx, "u-1", mock.Anything, mock.Anything).Return([]domain.CategoryTotal{}, nil)
	cache.On("Set", ctx, "u-1", "2026-08-01", "2026-08-30", mock.Anything).Return(nil)

	summary, err := svc.Summary(ctx, "u-1", "2026-08-01", "2026-08-30")

	require.NoError(t, err)
	assert.Equal(t, 100.0, summary.PctChange)
}

func TestSummary_PctChange_BothZero(t *testing.T) {
	expenseRepo := new(mockExpenseRepository)
	cache := new(mockSummaryCache)
	svc := newTestDashboardService(expenseRepo, cache)
	ctx := context.Background()

	cache.On("Get", ctx, "u-1", "2026-08-01", "2026-08-30").Return(nil, nil)
	expenseRepo.On("TotalsByDay", ctx, "u-1", mock.Anything, mock.Anything).Return([]domain.DayTotal{}, nil)
	expenseRepo.On("TotalsByCategory", ctx, "u-1", mock.Anything, mock.Anything).Return([]domain.CategoryTotal{}, nil)
	cache.On("Set", ctx, "u-1", "2026-08-01", "2026-08-30", mock.Anything).Return(nil)

	summary, err := svc.Summary(ctx, "u-1", "2026-08-01", "2026-08-30")

	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.PctChange)
	assert.Equal(t, 0.0, summary.Total)
	assert.Equal(t, 0.0, summary.AvgDaily)
	assert.Equal(t, 0, summary.TotalTransactions)
	assert.Empty(t, summary.TopCategory.Name)
}

func TestSummary_OneDayWindow(t *testing.T) {
	expenseRepo := new(mockExpenseRepository)
	cache := new(mockSummaryCache)
	svc := newTestDashboardService(expenseRepo, cache)
	ctx := context.Background()

	from := day(2026, 8, 15)
	toEnd := day(2026, 8, 16).Add(-time.Millisecond)
	prevFrom := day(2026, 8, 14)
	prevToEnd := day(2026, 8, 15).Add(-time.Millisecond)

	cache.On("Get", ctx, "u-1", "2026-08-15", "2026-08-15").Return(nil, nil)
	expenseRepo.On("TotalsByDay", ctx, "u-1", from, toEnd).Return([]domain.DayTotal{
		{Date: "2026-08-15", Total: 33.33},
	}, nil)
	expenseRepo.On("TotalsByDay", ctx, "u-1", prevFrom, prevToEnd).Return([]domain.DayTotal{}, nil)
	expenseRepo.On("TotalsByCategory", ctx, "u-1", from, toEnd).Return([]domain.CategoryTotal{
		{Category: "Food", Total: 33.33},
	}, nil)
	cache.On("Set", ctx, "u-1", "2026-08-15", "2026-08-15", mock.Anything).Return(nil)

	summary, err := svc.Summary(ctx, "u-1", "2026-08-15", "2026-08-15")

	require.NoError(t, err)
	assert.Equal(t, 33.33, summary.Total)
	assert.Equal(t, 33.33, summary.AvgDaily)
	require.Len(t, summary.Trend, 1)
	assert.Equal(t, 1, summary.TotalTransactions)
}

func TestSummary_CacheHit(t *testing.T) {
	expenseRepo := new(mockExpenseRepository)
	cache := new(mockSummaryCache)
	svc := newTestDashboardService(expenseRepo, cache)
	ctx := context.Background()

	cached := &domain.Summary{Total: 99.99, From: "2026-08-01", To: "2026-08-30"}
	cache.On("Get", ctx, "u-1", "2026-08-01", "2026-08-30").Return(cached, nil)

	summary, err := svc.Summary(ctx, "u-1", "2026-08-01", "2026-08-30")

	require.NoError(t, err)
	assert.Equal(t, cached, summary)
	expenseRepo.AssertNotCalled(t, "TotalsByDay", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSummary_InvalidDate(t *testing.T) {
	svc := newTestDashboardService(new(mockExpenseRepository), new(mockSummaryCache))

	_, err := svc.Summary(context.Background(), "u-1", "08/01/2026", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Summary(context.Background(), "u-1", "", "not-a-date")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSummary_FromAfterTo(t *testing.T) {
	svc := newTestDashboardService(new(mockExpenseRepository), new(mockSummaryCache))

	_, err := svc.Summary(context.Background(), "u-1", "2026-08-30", "2026-08-01")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
