package domain

// Summary is the aggregated dashboard view of a user's spending over a
// date window compared against the immediately preceding window of equal
// length. All monetary values are rounded to two decimal places.
type Summary struct {
	Total             float64     `json:"total"`
	PrevPeriodTotal   float64     `json:"prev_period_total"`
	PctChange         float64     `json:"pct_change"`
	AvgDaily          float64     `json:"avg_daily"`
	TopCategory       TopCategory `json:"top_category"`
	Trend             []TrendDay  `json:"trend"`
	TotalTransactions int         `json:"total_transactions"`
	From              string      `json:"from"`
	To                string      `json:"to"`
}

// TopCategory names the category with the highest current-window spend.
type TopCategory struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// TrendDay pairs one day of the current window with the day at the same
// offset in the previous window.
type TrendDay struct {
	Date     string  `json:"date"`
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
}

// DayTotal is a per-day spend aggregate as returned by the expense store.
type DayTotal struct {
	Date  string
	Total float64
}

// CategoryTotal is a per-category spend aggregate.
type CategoryTotal struct {
	Category string
	Total    float64
}
