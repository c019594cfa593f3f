package domain

import (
	"time"
)

// DateRangeType names the preset ranges of the dashboard filter bar.
type DateRangeType string

const (
	RangeToday        DateRangeType = "today"
	RangeLast7Days    DateRangeType = "last7days"
	RangeCurrentMonth DateRangeType = "currentMonth"
	RangeLast3Months  DateRangeType = "last3months"
	RangeLast12Months DateRangeType = "last12months"
	RangeAllTime      DateRangeType = "allTime"
	RangeCustom       DateRangeType = "custom"
)

// DateFilter is a resolved date range. For currentMonth filters CustomMonth
// records which month is being viewed so the UI can page month by month.
type DateFilter struct {
	Type        DateRangeType `json:"type"`
	StartDate   time.Time     `json:"start_date"`
	EndDate     time.Time     `json:"end_date"`
	CustomMonth *time.Time    `json:"custom_month,omitempty"`
}

// Contains reports whether t falls inside the filter's range, inclusive.
func (f DateFilter) Contains(t time.Time) bool {
	return !t.Before(f.StartDate) && !t.After(f.EndDate)
}

// ResolveRange computes the concrete [start, end] range for a preset type.
// custom selects the month for currentMonth ranges and is ignored otherwise.
// Unknown types fall back to the current month.
func ResolveRange(rangeType DateRangeType, now time.Time, custom *time.Time) (start, end time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch rangeType {
	case RangeToday:
		return today, endOfDay(today)

	case RangeLast7Days:
		return today.AddDate(0, 0, -6), endOfDay(today)

	case RangeCurrentMonth:
		month := now
		if custom != nil {
			month = *custom
		}
		return monthBounds(month)

	case RangeLast3Months:
		start = time.Date(now.Year(), now.Month()-2, 1, 0, 0, 0, 0, now.Location())
		_, end = monthBounds(now)
		return start, end

	case RangeLast12Months:
		start = time.Date(now.Year(), now.Month()-11, 1, 0, 0, 0, 0, now.Location())
		_, end = monthBounds(now)
		return start, end

	case RangeAllTime:
		return time.Date(2000, time.January, 1, 0, 0, 0, 0, now.Location()),
			time.Date(2099, time.December, 31, 0, 0, 0, 0, now.Location())

	default:
		return monthBounds(now)
	}
}

// NewDateFilter builds a DateFilter for the given preset, resolved at now.
func NewDateFilter(rangeType DateRangeType, now time.Time, custom *time.Time) DateFilter {
	start, end := ResolveRange(rangeType, now, custom)
	f := DateFilter{Type: rangeType, StartDate: start, EndDate: end}
	if rangeType == RangeCurrentMonth {
		month := now
		if custom != nil {
			month = *custom
		}
		f.CustomMonth = &month
	}
	return f
}

// CurrentMonthFilter is the default filter: the month containing now.
func CurrentMonthFilter(now time.Time) DateFilter {
	return NewDateFilter(RangeCurrentMonth, now, nil)
}

// ShiftMonth returns a currentMonth filter moved delta months from f's viewed
// month. Non-month filters shift relative to now's month.
func (f DateFilter) ShiftMonth(delta int, now time.Time) DateFilter {
	base := now
	if f.CustomMonth != nil {
		base = *f.CustomMonth
	}
	target := time.Date(base.Year(), base.Month()+time.Month(delta), 1, 0, 0, 0, 0, base.Location())
	return NewDateFilter(RangeCurrentMonth, now, &target)
}

func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func monthBounds(month time.Time) (start, end time.Time) {
	start = time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	end = time.Date(month.Year(), month.Month()+1, 0, 23, 59, 59, 0, month.Location())
	return start, end
}
