package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
)

type expenseRequest struct {
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type expenseJSON struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Amount      string    `json:"amount"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:          e.ID,
		Category:    e.Category.String(),
		Amount:      e.Amount.String(),
		Date:        e.Date.String(),
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// decodeExpense turns a request body into a validated core.Expense for
// the given user. Unknown categories normalize to Other rather than
// failing, matching how imports from the old product behaved.
func decodeExpense(r *http.Request, userID string) (core.Expense, error) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.Expense{}, errInvalidBody
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return core.Expense{}, err
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Expense{}, core.ErrInvalidAmount
	}

	e := core.Expense{
		UserID:      userID,
		Category:    core.NormalizeCategory(req.Category),
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: sanitizeInput(req.Description),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	e, err := decodeExpense(r, uid)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, errorCategoryValidation, err.Error())
		return
	}

	stored, err := s.expenses.CreateExpense(r.Context(), e)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateDashboard(uid, stored.Date.Year(), stored.Date.Month())
	writeJSON(w, http.StatusCreated, toExpenseJSON(stored))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var (
		expenses []core.Expense
		err      error
	)
	if r.URL.Query().Has("year") || r.URL.Query().Has("month") {
		year, month, parseErr := parseYearMonth(r, time.Now())
		if parseErr != nil {
			writeError(w, http.StatusUnprocessableEntity, errorCategoryValidation, parseErr.Error())
			return
		}
		first, last := core.NewDate(year, month, 1).MonthBounds()
		expenses, err = s.store.ListByUserAndDateRange(r.Context(), uid, first, last)
	} else {
		expenses, err = s.store.ListByUser(r.Context(), uid)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]expenseJSON, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	e, err := decodeExpense(r, uid)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, errorCategoryValidation, err.Error())
		return
	}

	stored, err := s.expenses.UpdateExpense(r.Context(), uid, r.PathValue("id"), e)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	// The edit may have moved the expense across months; drop all of the
	// user's cached dashboards rather than guessing which two.
	s.invalidateDashboardAll(uid)
	writeJSON(w, http.StatusOK, toExpenseJSON(stored))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), uid, r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateDashboardAll(uid)
	w.WriteHeader(http.StatusNoContent)
}
