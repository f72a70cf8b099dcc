package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ledgerline/spendtrack/internal/domain"
	"github.com/ledgerline/spendtrack/internal/repository"
	apperrors "github.com/ledgerline/spendtrack/pkg/errors"
)

const dateLayout = "2006-01-02"

// defaultWindowDays is the dashboard window length when no range is given.
const defaultWindowDays = 30

// DashboardService aggregates a user's spending over a date window and
// compares it against the immediately preceding window of equal length.
type DashboardService struct {
	expenseRepo repository.ExpenseRepository
	cache       repository.SummaryCache
	logger      *slog.Logger
	now         func() time.Time
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(
	expenseRepo repository.ExpenseRepository,
	cache repository.SummaryCache,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		expenseRepo: expenseRepo,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}
}

// Summary computes the dashboard aggregate for [from, to]. Empty bounds
// default to the 30 days ending today. The window is inclusive on both
// ends: from at midnight through the last instant of to.
func (s *DashboardService) Summary(ctx context.Context, userID, fromStr, toStr string) (*domain.Summary, error) {
	from, to, err := s.resolveWindow(fromStr, toStr)
	if err != nil {
		return nil, err
	}

	fromKey := from.Format(dateLayout)
	toKey := to.Format(dateLayout)

	if cached, err := s.cache.Get(ctx, userID, fromKey, toKey); err != nil {
		s.logger.WarnContext(ctx, "summary cache read failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	} else if cached != nil {
		return cached, nil
	}

	summary, err := s.compute(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, userID, fromKey, toKey, summary); err != nil {
		s.logger.WarnContext(ctx, "summary cache write failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	return summary, nil
}

func (s *DashboardService) resolveWindow(fromStr, toStr string) (time.Time, time.Time, error) {
	var to time.Time
	if toStr == "" {
		n := s.now().UTC()
		to = time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		var err error
		to, err = time.ParseInLocation(dateLayout, toStr, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.InvalidInput("to must be a date in YYYY-MM-DD format")
		}
	}

	var from time.Time
	if fromStr == "" {
		from = to.AddDate(0, 0, -(defaultWindowDays - 1))
	} else {
		var err error
		from, err = time.ParseInLocation(dateLayout, fromStr, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.InvalidInput("from must be a date in YYYY-MM-DD format")
		}
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("from must not be after to")
	}

	return from, to, nil
}

func (s *DashboardService) compute(ctx context.Context, userID string, from, to time.Time) (*domain.Summary, error) {
	days := int(to.Sub(from).Hours()/24) + 1
	toEnd := to.AddDate(0, 0, 1).Add(-time.Millisecond)

	// Previous window of equal length, ending the day before from.
	prevTo := from.AddDate(0, 0, -1)
	prevFrom := prevTo.AddDate(0, 0, -(days - 1))
	prevToEnd := prevTo.AddDate(0, 0, 1).Add(-time.Millisecond)

	current, err := s.expenseRepo.TotalsByDay(ctx, userID, from, toEnd)
	if err != nil {
		return nil, fmt.Errorf("current window totals: %w", err)
	}

	previous, err := s.expenseRepo.TotalsByDay(ctx, userID, prevFrom, prevToEnd)
	if err != nil {
		return nil, fmt.Errorf("previous window totals: %w", err)
	}

	byCategory, err := s.expenseRepo.TotalsByCategory(ctx, userID, from, toEnd)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}

	currentByDay := indexByDay(current)
	previousByDay := indexByDay(previous)

	var total, prevTotal float64
	transactions := 0
	trend := make([]domain.TrendDay, 0, days)
	for i := 0; i < days; i++ {
		day := from.AddDate(0, 0, i)
		cur := currentByDay[day.Format(dateLayout)]
		prev := previousByDay[prevFrom.AddDate(0, 0, i).Format(dateLayout)]

		total += cur
		prevTotal += prev
		if cur > 0 {
			transactions++
		}

		trend = append(trend, domain.TrendDay{
			Date:     day.Format(dateLayout),
			Current:  round2(cur),
			Previous: round2(prev),
		})
	}

	var top domain.TopCategory
	for _, ct := range byCategory {
		if ct.Total > top.Amount {
			top = domain.TopCategory{Name: ct.Category, Amount: ct.Total}
		}
	}
	top.Amount = round2(top.Amount)

	return &domain.Summary{
		Total:             round2(total),
		PrevPeriodTotal:   round2(prevTotal),
		PctChange:         round2(pctChange(total, prevTotal)),
		AvgDaily:          round2(total / float64(days)),
		TopCategory:       top,
		Trend:             trend,
		TotalTransactions: transactions,
		From:              from.Format(dateLayout),
		To:                to.Format(dateLayout),
	}, nil
}

func indexByDay(totals []domain.DayTotal) map[string]float64 {
	m := make(map[string]float64, len(totals))
	for _, t := range totals {
		m[t.Date] = t.Total
	}
	return m
}

// pctChange reports the relative change of cur against prev. An empty
// previous window counts as a 100% increase unless both are zero.
func pctChange(cur, prev float64) float64 {
	switch {
	case cur == 0 && prev == 0:
		return 0
	case prev == 0:
		return 100
	default:
		return (cur - prev) / math.Abs(prev) * 100
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
