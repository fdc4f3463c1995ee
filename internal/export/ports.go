package export

import (
	"context"

	"github.com/bindassguntupalli/hold-your-pocket/internal/core"
)

// RowAppender mirrors exported expenses to an external spreadsheet.
// Implementations must tolerate being called with the same expenses
// more than once; the worker re-exports whole months.
type RowAppender interface {
	AppendExpenses(ctx context.Context, userID string, expenses []core.Expense) error
}
