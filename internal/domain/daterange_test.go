package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveRange(t *testing.T) {
	// Mid-month reference point so month arithmetic is unambiguous.
	now := time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		rangeType DateRangeType
		custom    *time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "today spans one day",
			rangeType: RangeToday,
			wantStart: date(2025, time.March, 15),
			wantEnd:   date(2025, time.March, 16).Add(-time.Nanosecond),
		},
		{
			name:      "last7days includes today",
			rangeType: RangeLast7Days,
			wantStart: date(2025, time.March, 9),
			wantEnd:   date(2025, time.March, 16).Add(-time.Nanosecond),
		},
		{
			name:      "currentMonth covers whole month",
			rangeType: RangeCurrentMonth,
			wantStart: date(2025, time.March, 1),
			wantEnd:   time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "last3months starts two months back",
			rangeType: RangeLast3Months,
			wantStart: date(2025, time.January, 1),
			wantEnd:   time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "last12months starts eleven months back",
			rangeType: RangeLast12Months,
			wantStart: date(2024, time.April, 1),
			wantEnd:   time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:      "allTime is the fixed wide range",
			rangeType: RangeAllTime,
			wantStart: date(2000, time.January, 1),
			wantEnd:   date(2099, time.December, 31),
		},
		{
			name:      "unknown type falls back to current month",
			rangeType: DateRangeType("bogus"),
			wantStart: date(2025, time.March, 1),
			wantEnd:   time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := ResolveRange(tt.rangeType, now, tt.custom)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", end, tt.wantEnd)
			}
		})
	}
}

func TestResolveRangeCustomMonth(t *testing.T) {
	now := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	custom := date(2024, time.November, 20)

	start, end := ResolveRange(RangeCurrentMonth, now, &custom)
	if !start.Equal(date(2024, time.November, 1)) {
		t.Errorf("start = %v, want 2024-11-01", start)
	}
	if !end.Equal(time.Date(2024, time.November, 30, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("end = %v, want 2024-11-30 23:59:59", end)
	}
}

func TestResolveRangeMonthArithmeticAcrossYear(t *testing.T) {
	// January reference: last3months must reach back into the prior year.
	now := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

	start, _ := ResolveRange(RangeLast3Months, now, nil)
	if !start.Equal(date(2024, time.November, 1)) {
		t.Errorf("start = %v, want 2024-11-01", start)
	}
}

func TestShiftMonth(t *testing.T) {
	now := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	f := CurrentMonthFilter(now)

	next := f.ShiftMonth(1, now)
	if !next.StartDate.Equal(date(2025, time.April, 1)) {
		t.Errorf("next month start = %v, want 2025-04-01", next.StartDate)
	}

	prev := next.ShiftMonth(-1, now)
	if !prev.StartDate.Equal(date(2025, time.March, 1)) {
		t.Errorf("prev month start = %v, want 2025-03-01", prev.StartDate)
	}
}

func TestDateFilterContains(t *testing.T) {
	now := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	f := CurrentMonthFilter(now)

	if !f.Contains(date(2025, time.March, 1)) {
		t.Error("first of month should be inside the filter")
	}
	if !f.Contains(time.Date(2025, time.March, 31, 23, 0, 0, 0, time.UTC)) {
		t.Error("last day of month should be inside the filter")
	}
	if f.Contains(date(2025, time.April, 1)) {
		t.Error("next month should be outside the filter")
	}
}

func TestSumIncomeFor(t *testing.T) {
	txs := []*Transaction{
		{Type: TypeIncome, ClientID: "c1", Amount: 100},
		{Type: TypeIncome, ClientID: "c1", Amount: 250.50},
		{Type: TypeExpense, ClientID: "c1", Amount: 40},
		{Type: TypeIncome, ClientID: "c2", Amount: 999},
		{Type: TypeIncome, Amount: 12},
	}

	got := SumIncomeFor(txs, "c1")
	if got != 350.50 {
		t.Errorf("SumIncomeFor(c1) = %v, want 350.50", got)
	}
	if SumIncomeFor(txs, "missing") != 0 {
		t.Error("unknown client should sum to zero")
	}
}

func TestClientUpdateApply(t *testing.T) {
	charged := 1500.0
	name := "Acme Corp"
	c := Client{ID: "c1", Name: "Acme", TotalCharged: 1000, PaymentMethod: PayStripe}

	got := ClientUpdate{Name: &name, TotalCharged: &charged}.Apply(c)
	if got.Name != "Acme Corp" || got.TotalCharged != 1500 {
		t.Errorf("apply = %+v, want name/charged updated", got)
	}
	if got.PaymentMethod != PayStripe {
		t.Error("untouched fields must carry over")
	}
	if c.TotalCharged != 1000 {
		t.Error("Apply must not mutate the original")
	}
}
