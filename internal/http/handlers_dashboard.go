package http

import (
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
	"github.com/bindassguntupalli/hold-your-pocket/internal/insights"
	applog "github.com/bindassguntupalli/hold-your-pocket/internal/log"
)

type categoryAmountJSON struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
}

type budgetStatusJSON struct {
	State     string  `json:"state"`
	Limit     *string `json:"limit,omitempty"`
	Spent     string  `json:"spent"`
	Remaining *string `json:"remaining,omitempty"`
}

type trendJSON struct {
	Current       string  `json:"current"`
	Previous      string  `json:"previous"`
	PercentChange float64 `json:"percent_change"`
}

type dailyAmountJSON struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

type dashboardResponse struct {
	Year       int                  `json:"year"`
	Month      int                  `json:"month"`
	MonthTotal string               `json:"month_total"`
	Categories []categoryAmountJSON `json:"categories"`
	Budget     budgetStatusJSON     `json:"budget"`
	Trend      trendJSON            `json:"trend"`
	Daily      []dailyAmountJSON    `json:"daily"`
}

const dailySeriesDays = 7

// handleDashboard returns a single consistent snapshot: month total,
// category ranking, budget status, trend, and the recent daily series
// all derive from one read of the user's expenses.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	year, month, err := parseYearMonth(r, time.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, errorCategoryValidation, err.Error())
		return
	}

	key := dashboardKey(uid, year, month)
	if cached, found := s.dashCache.Get(key); found {
		slog.DebugContext(r.Context(), "Dashboard cache hit",
			applog.FieldUserID, uid,
			applog.FieldYear, year,
			applog.FieldMonth, month)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	expenses, err := s.store.ListByUser(r.Context(), uid)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	first, last := core.NewDate(year, month, 1).MonthBounds()
	monthTotal := insights.PeriodTotal(expenses, first, last)

	var monthExpenses []core.Expense
	for _, e := range expenses {
		if e.Date.In(first, last) {
			monthExpenses = append(monthExpenses, e)
		}
	}

	var limit *core.Money
	if b, found, lookupErr := s.reconciler.GetCurrentBudget(r.Context(), uid, first); lookupErr != nil {
		writeDomainError(w, r, lookupErr)
		return
	} else if found {
		limit = &b.Amount
	}

	now := core.DateOf(time.Now())
	resp := dashboardResponse{
		Year:       year,
		Month:      month,
		MonthTotal: monthTotal.String(),
		Categories: toCategoryJSON(insights.CategoryRanking(monthExpenses)),
		Budget:     toBudgetStatusJSON(monthTotal, limit),
		Trend:      toTrendJSON(insights.TrendDelta(expenses, now)),
		Daily:      toDailyJSON(insights.DailySeries(expenses, now, dailySeriesDays)),
	}

	s.dashCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func toCategoryJSON(ranking []insights.CategoryAmount) []categoryAmountJSON {
	out := make([]categoryAmountJSON, 0, len(ranking))
	for _, ca := range ranking {
		out = append(out, categoryAmountJSON{
			Category: ca.Category.String(),
			Amount:   ca.Amount.String(),
		})
	}
	return out
}

func toBudgetStatusJSON(spent core.Money, limit *core.Money) budgetStatusJSON {
	out := budgetStatusJSON{
		State: string(insights.BudgetStatus(spent, limit)),
		Spent: spent.String(),
	}
	if limit != nil {
		limitStr := limit.String()
		remainingStr := insights.Remaining(spent, *limit).String()
		out.Limit = &limitStr
		out.Remaining = &remainingStr
	}
	return out
}

func toTrendJSON(t insights.Trend) trendJSON {
	return trendJSON{
		Current:       t.Current.String(),
		Previous:      t.Previous.String(),
		PercentChange: t.PercentChange,
	}
}

func toDailyJSON(series iter.Seq[insights.DailyAmount]) []dailyAmountJSON {
	out := make([]dailyAmountJSON, 0, dailySeriesDays)
	for da := range series {
		out = append(out, dailyAmountJSON{
			Date:   da.Date.String(),
			Amount: da.Amount.String(),
		})
	}
	return out
}

func dashboardKey(userID string, year, month int) string {
	return fmt.Sprintf("%s|%04d-%02d", userID, year, month)
}

func (s *Server) invalidateDashboard(userID string, year, month int) {
	s.dashCache.Delete(dashboardKey(userID, year, month))
}

func (s *Server) invalidateDashboardAll(userID string) {
	prefix := userID + "|"
	s.dashCache.DeleteFunc(func(key string) bool {
		return len(key) > len(prefix) && key[:len(prefix)] == prefix
	})
}
