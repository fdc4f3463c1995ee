package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
	"github.com/bindassguntupalli/hold-your-pocket/internal/export"
	applog "github.com/bindassguntupalli/hold-your-pocket/internal/log"
)

// handleExportCSV streams the requested month as a CSV attachment.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	year, month, err := parseYearMonth(r, time.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, errorCategoryValidation, err.Error())
		return
	}

	first, last := core.NewDate(year, month, 1).MonthBounds()
	expenses, err := s.store.ListByUserAndDateRange(r.Context(), uid, first, last)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	filename := fmt.Sprintf("expenses-%04d-%02d.csv", year, month)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := export.WriteCSV(w, expenses); err != nil {
		// Headers are gone; all we can do is log the broken download.
		slog.ErrorContext(r.Context(), "CSV export write failed",
			applog.FieldUserID, uid,
			applog.FieldYear, year,
			applog.FieldMonth, month,
			applog.FieldError, err)
	}
}
