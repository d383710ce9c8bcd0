package sheets

import (
	"context"

	"budgetbot/internal/core"
)

// ExpenseWriter mirrors one expense row to an external ledger.
type ExpenseWriter interface {
	Append(ctx context.Context, e core.Expense) (rowRef string, err error)
}
