package insights

import "github.com/bindassguntupalli/hold-your-pocket/internal/core"

// BudgetState classifies current spending against a monthly limit.
type BudgetState string

const (
	NoBudgetSet    BudgetState = "no_budget_set"
	WithinBudget   BudgetState = "within_budget"
	BudgetWarning  BudgetState = "budget_warning"
	BudgetExceeded BudgetState = "budget_exceeded"
)

// BudgetStatus classifies spent against an optional monthly limit. Pass a
// nil limit when the user has not set a budget for the period. Boundary
// values belong to the stricter state: a ratio of exactly 0.80 is a
// warning, exactly 1.00 is exceeded. The comparison is done in integer
// cents (spent/limit >= 4/5) so the boundaries are exact.
func BudgetStatus(spent core.Money, limit *core.Money) BudgetState {
	if limit == nil || limit.Cents <= 0 {
		return NoBudgetSet
	}
	switch {
	case spent.Cents >= limit.Cents:
		return BudgetExceeded
	case spent.Cents*5 >= limit.Cents*4:
		return BudgetWarning
	default:
		return WithinBudget
	}
}

// Remaining returns limit minus spent; negative once the budget is blown.
func Remaining(spent, limit core.Money) core.Money {
	return core.Money{Cents: limit.Cents - spent.Cents}
}
