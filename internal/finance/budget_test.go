package finance

import (
	"testing"
	"time"

	"financemanager/internal/models"

	"github.com/shopspring/decimal"
)

func TestSpendingPercentage(t *testing.T) {
	tests := []struct {
		name   string
		spent  string
		amount string
		want   string
	}{
		{"over_budget", "620.00", "500.00", "124.00"},
		{"half_spent", "250", "500", "50"},
		{"rounds_to_two_decimals", "100", "300", "33.33"},
		{"zero_amount_is_zero", "50", "0", "0"},
		{"negative_amount_is_zero", "50", "-10", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SpendingPercentage(dec(tt.spent), dec(tt.amount))
			assertDecimal(t, "percentage", got, tt.want)
		})
	}
}

func TestSpendingPercentageIsStable(t *testing.T) {
	a := SpendingPercentage(dec("123.45"), dec("678.90"))
	b := SpendingPercentage(dec("123.45"), dec("678.90"))
	if a.String() != b.String() {
		t.Errorf("expected identical results, got %s and %s", a, b)
	}
}

func TestRemainingBudget(t *testing.T) {
	assertDecimal(t, "over budget", RemainingBudget(dec("620.00"), dec("500.00")), "-120.00")
	assertDecimal(t, "under budget", RemainingBudget(dec("120.00"), dec("500.00")), "380.00")
}

func TestInBudgetWindow(t *testing.T) {
	food := category(1, "Food")
	other := category(2, "Housing")
	budget := models.Budget{
		UserID:     1,
		CategoryID: food.ID,
		Amount:     dec("500"),
		StartDate:  day(2024, 1, 1),
		EndDate:    day(2024, 1, 31),
	}

	tests := []struct {
		name string
		tx   models.Transaction
		want bool
	}{
		{"first_day", txn(1, day(2024, 1, 1), models.TransactionTypeExpense, "1", food), true},
		{"late_on_last_day", txn(2, day(2024, 1, 31).Add(23*time.Hour), models.TransactionTypeExpense, "1", food), true},
		{"day_after_end", txn(3, day(2024, 2, 1), models.TransactionTypeExpense, "1", food), false},
		{"day_before_start", txn(4, day(2023, 12, 31), models.TransactionTypeExpense, "1", food), false},
		{"income_is_ignored", txn(5, day(2024, 1, 5), models.TransactionTypeIncome, "1", food), false},
		{"other_category", txn(6, day(2024, 1, 5), models.TransactionTypeExpense, "1", other), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InBudgetWindow(budget, tt.tx); got != tt.want {
				t.Errorf("InBudgetWindow = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("other_user", func(t *testing.T) {
		tx := txn(7, day(2024, 1, 5), models.TransactionTypeExpense, "1", food)
		tx.UserID = 2
		if InBudgetWindow(budget, tx) {
			t.Error("expected another user's transaction to be excluded")
		}
	})
}

func TestNewBudgetProgress(t *testing.T) {
	food := category(1, "Food")
	budget := models.Budget{UserID: 1, CategoryID: food.ID, Amount: dec("500.00"), StartDate: day(2024, 1, 1), EndDate: day(2024, 1, 31)}
	budget.ID = 9

	txs := []models.Transaction{
		txn(1, day(2024, 1, 3), models.TransactionTypeExpense, "400.00", food),
		txn(2, day(2024, 1, 20), models.TransactionTypeExpense, "220.00", food),
		txn(3, day(2024, 2, 20), models.TransactionTypeExpense, "999.00", food),
	}
	spent := BudgetSpent(budget, txs)
	p := NewBudgetProgress(budget, spent, nil)

	if p.BudgetID != 9 {
		t.Errorf("BudgetID = %d", p.BudgetID)
	}
	assertDecimal(t, "spent", p.Spent, "620.00")
	assertDecimal(t, "percentage", p.Percentage, "124.00")
	assertDecimal(t, "remaining", p.Remaining, "-120.00")
	if p.RecentTransactions == nil {
		t.Error("expected non-nil recent transactions")
	}

	zero := models.Budget{Amount: decimal.Zero}
	if got := NewBudgetProgress(zero, dec("10"), nil).Percentage; !got.IsZero() {
		t.Errorf("expected zero percentage for zero budget, got %s", got)
	}
}
