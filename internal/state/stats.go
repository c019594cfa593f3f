package state

import (
	"time"

	"github.com/aguilartradesfx/financetracker/internal/domain"
)

// Stats are the dashboard totals for one date range.
type Stats struct {
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	Balance      float64 `json:"balance"`
	Count        int     `json:"count"`
}

// MonthStats are the totals for one calendar month, used by the yearly chart.
type MonthStats struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// Stats computes income/expense totals over the cached transactions that
// fall inside the filter.
func (c *Cache) Stats(filter domain.DateFilter) Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var s Stats
	for _, t := range c.transactions {
		if !filter.Contains(t.Date) {
			continue
		}
		s.Count++
		switch t.Type {
		case domain.TypeIncome:
			s.TotalIncome += t.Amount
		case domain.TypeExpense:
			s.TotalExpense += t.Amount
		}
	}
	s.Balance = s.TotalIncome - s.TotalExpense
	return s
}

// MonthlyStats returns one entry per month of the last twelve months ending
// at now, oldest first, from the cached transactions.
func (c *Cache) MonthlyStats(now time.Time) []MonthStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	months := make([]MonthStats, 12)
	index := make(map[string]int, 12)
	for i := 0; i < 12; i++ {
		m := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, i-11, 0)
		months[i] = MonthStats{Year: m.Year(), Month: int(m.Month())}
		index[monthKey(m)] = i
	}

	for _, t := range c.transactions {
		i, ok := index[monthKey(t.Date)]
		if !ok {
			continue
		}
		switch t.Type {
		case domain.TypeIncome:
			months[i].Income += t.Amount
		case domain.TypeExpense:
			months[i].Expense += t.Amount
		}
	}
	return months
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}
