package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
)

type budgetRequest struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Amount string `json:"amount"`
}

type budgetJSON struct {
	ID        string    `json:"id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBudgetJSON(b core.Budget) budgetJSON {
	return budgetJSON{
		ID:        b.ID,
		Year:      b.Year,
		Month:     b.Month,
		Amount:    b.Amount.String(),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// handleSetBudget creates or replaces the month's budget. Setting twice
// is an update of the single record, never a second one.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, errorCategoryValidation, errInvalidBody.Error())
		return
	}

	now := time.Now()
	if req.Year == 0 {
		req.Year = now.Year()
	}
	if req.Month == 0 {
		req.Month = int(now.Month())
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, errorCategoryValidation, core.ErrInvalidAmount.Error())
		return
	}

	stored, err := s.reconciler.SetMonthlyBudget(r.Context(), uid, req.Year, req.Month, core.Money{Cents: cents})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateDashboard(uid, stored.Year, stored.Month)
	writeJSON(w, http.StatusOK, toBudgetJSON(stored))
}

// handleGetBudget returns the budget for the requested (or current)
// month. An unset budget is 404 with category not_found, not an error
// the caller has to parse.
func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	year, month, err := parseYearMonth(r, time.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, errorCategoryValidation, err.Error())
		return
	}

	b, found, err := s.reconciler.GetCurrentBudget(r.Context(), uid, core.NewDate(year, month, 1))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, errorCategoryNotFound, "no budget set for period")
		return
	}

	writeJSON(w, http.StatusOK, toBudgetJSON(b))
}
