package finance

import (
	"financemanager/internal/models"

	"github.com/shopspring/decimal"
)

// BudgetProgress is the usage of one budget at a point in time.
type BudgetProgress struct {
	BudgetID           uint                 `json:"budget_id"`
	Budgeted           decimal.Decimal      `json:"budgeted"`
	Spent              decimal.Decimal      `json:"spent"`
	Remaining          decimal.Decimal      `json:"remaining"`
	Percentage         decimal.Decimal      `json:"percentage"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
}

// SpendingPercentage is spent as a percentage of the budget amount, rounded
// to two decimals. A budget with no positive amount is always at 0%.
func SpendingPercentage(spent, amount decimal.Decimal) decimal.Decimal {
	return Percentage(spent, amount)
}

// RemainingBudget is amount minus spent. Overspending yields a negative value.
func RemainingBudget(spent, amount decimal.Decimal) decimal.Decimal {
	return amount.Sub(spent)
}

// InBudgetWindow reports whether tx counts towards b: an expense of the
// budget's owner in the budget's category, dated within the budget's days.
func InBudgetWindow(b models.Budget, tx models.Transaction) bool {
	if tx.UserID != b.UserID || tx.CategoryID != b.CategoryID || tx.Type != models.TransactionTypeExpense {
		return false
	}
	return !tx.Date.Before(StartOfDay(b.StartDate)) && !tx.Date.After(EndOfDay(b.EndDate))
}

// BudgetSpent sums the transactions that fall in b's window.
func BudgetSpent(b models.Budget, txs []models.Transaction) decimal.Decimal {
	spent := decimal.Zero
	for _, tx := range txs {
		if InBudgetWindow(b, tx) {
			spent = spent.Add(tx.Amount)
		}
	}
	return spent
}

// NewBudgetProgress derives remaining amount and percentage from spent.
func NewBudgetProgress(b models.Budget, spent decimal.Decimal, recent []models.Transaction) BudgetProgress {
	if recent == nil {
		recent = []models.Transaction{}
	}
	return BudgetProgress{
		BudgetID:           b.ID,
		Budgeted:           b.Amount,
		Spent:              spent,
		Remaining:          RemainingBudget(spent, b.Amount),
		Percentage:         SpendingPercentage(spent, b.Amount),
		RecentTransactions: recent,
	}
}
