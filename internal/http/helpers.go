package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bindassguntupalli/hold-your-pocket/internal/budget"
	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
	applog "github.com/bindassguntupalli/hold-your-pocket/internal/log"
	"github.com/bindassguntupalli/hold-your-pocket/internal/store"
)

// Machine-readable failure categories in error bodies, so clients and
// tests branch on the kind of failure rather than on message text.
const (
	errorCategoryValidation = "validation"
	errorCategoryStore      = "store"
	errorCategoryNotFound   = "not_found"
	errorCategoryAuth       = "auth"
	errorCategoryRateLimit  = "rate_limit"
)

var errInvalidBody = errors.New("invalid request body")

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, category, message string) {
	writeJSON(w, status, errorResponse{Error: message, Category: category})
}

// writeDomainError maps service-layer failures onto HTTP statuses:
// validation 422, missing record 404, anything else is a store fault.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, budget.ErrValidation) || isValidationErr(err):
		writeError(w, http.StatusUnprocessableEntity, errorCategoryValidation, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, errorCategoryNotFound, "record not found")
	default:
		slog.ErrorContext(r.Context(), "Store operation failed",
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, errorCategoryStore, "storage failure")
	}
}

func isValidationErr(err error) bool {
	return errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrInvalidMonth) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrEmptyUserID)
}

// userID extracts the caller identity. Authentication happens upstream;
// an absent header is still a client error here.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if id == "" {
		writeError(w, http.StatusUnauthorized, errorCategoryAuth, "missing X-User-ID header")
		return "", false
	}
	return id, true
}

// parseYearMonth reads optional year/month query parameters, defaulting
// to the current month. A month outside 1..12 is a validation failure.
func parseYearMonth(r *http.Request, now time.Time) (year, month int, err error) {
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, convErr := strconv.Atoi(v)
		if convErr != nil {
			return 0, 0, core.ErrInvalidDate
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, convErr := strconv.Atoi(v)
		if convErr != nil || m < 1 || m > 12 {
			return 0, 0, core.ErrInvalidMonth
		}
		month = m
	}
	return year, month, nil
}

func parseDate(value string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return core.Date{}, core.ErrInvalidDate
	}
	return core.DateOf(t), nil
}

// sanitizeInput trims whitespace and strips control characters except
// tab, newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
