// Package insights derives presentation-ready values from expense records.
// Every function here is pure: no I/O, no mutation of the input slice, and
// the reference time is always an explicit parameter.
package insights

import (
	"iter"

	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
)

// CategoryAmount is one entry of a category ranking.
type CategoryAmount struct {
	Category core.Category
	Amount   core.Money
}

// DailyAmount is one entry of a daily spending series.
type DailyAmount struct {
	Date   core.Date
	Amount core.Money
}

// Trend compares spending across two adjacent backward-looking windows.
type Trend struct {
	Current  core.Money
	Previous core.Money
	// PercentChange is (current-previous)/previous*100, defined as 0 when
	// the previous window is empty.
	PercentChange float64
}

// PeriodTotal sums the amounts of every expense whose date falls within the
// inclusive calendar window [start, end]. The empty list totals zero.
func PeriodTotal(expenses []core.Expense, start, end core.Date) core.Money {
	var total core.Money
	for _, e := range expenses {
		if e.Date.In(start, end) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// CurrentMonthTotal sums expenses dated within now's calendar month.
func CurrentMonthTotal(expenses []core.Expense, now core.Date) core.Money {
	first, last := now.MonthBounds()
	return PeriodTotal(expenses, first, last)
}

// CategoryRanking groups expenses by normalized category, sums per group
// and returns the groups ordered by summed amount descending. Ties keep
// the order in which the categories were first encountered. An empty input
// yields a nil slice; callers render that as "no top category", not as an
// error.
func CategoryRanking(expenses []core.Expense) []CategoryAmount {
	totals := make(map[core.Category]int64)
	var order []core.Category
	for _, e := range expenses {
		c := core.NormalizeCategory(string(e.Category))
		if _, seen := totals[c]; !seen {
			order = append(order, c)
		}
		totals[c] += e.Amount.Cents
	}

	ranking := make([]CategoryAmount, 0, len(order))
	for _, c := range order {
		ranking = append(ranking, CategoryAmount{Category: c, Amount: core.Money{Cents: totals[c]}})
	}
	// Insertion sort keeps ties in first-encountered order.
	for i := 1; i < len(ranking); i++ {
		for j := i; j > 0 && ranking[j].Amount.Cents > ranking[j-1].Amount.Cents; j-- {
			ranking[j], ranking[j-1] = ranking[j-1], ranking[j]
		}
	}
	return ranking
}

// TopCategory returns the highest-spend category, or false when there are
// no expenses at all.
func TopCategory(expenses []core.Expense) (CategoryAmount, bool) {
	ranking := CategoryRanking(expenses)
	if len(ranking) == 0 {
		return CategoryAmount{}, false
	}
	return ranking[0], true
}

// TrendDelta computes totals for two disjoint, adjacent 30-day windows
// ending at now: the current window [now-29d, now] and the previous window
// [now-59d, now-30d]. The percent change is an explicit zero when the
// previous window has no spending; never a NaN or infinity.
func TrendDelta(expenses []core.Expense, now core.Date) Trend {
	currentStart := now.AddDays(-29)
	previousEnd := now.AddDays(-30)
	previousStart := now.AddDays(-59)

	current := PeriodTotal(expenses, currentStart, now)
	previous := PeriodTotal(expenses, previousStart, previousEnd)

	trend := Trend{Current: current, Previous: previous}
	if previous.Cents > 0 {
		trend.PercentChange = float64(current.Cents-previous.Cents) / float64(previous.Cents) * 100
	}
	return trend
}

// DailySeries yields exactly days entries, oldest first and ending on now's
// day, each holding the exact-date total for that single calendar day.
// Days without expenses yield zero amounts rather than being skipped, so
// charts always get a fixed-length series. The sequence is restartable;
// ranging over it twice produces the same entries.
func DailySeries(expenses []core.Expense, now core.Date, days int) iter.Seq[DailyAmount] {
	return func(yield func(DailyAmount) bool) {
		for i := days - 1; i >= 0; i-- {
			day := now.AddDays(-i)
			var total core.Money
			for _, e := range expenses {
				if e.Date.Equal(day) {
					total = total.Add(e.Amount)
				}
			}
			if !yield(DailyAmount{Date: day, Amount: total}) {
				return
			}
		}
	}
}

// CollectDailySeries materializes DailySeries into a slice.
func CollectDailySeries(expenses []core.Expense, now core.Date, days int) []DailyAmount {
	out := make([]DailyAmount, 0, days)
	for d := range DailySeries(expenses, now, days) {
		out = append(out, d)
	}
	return out
}
