package finance

import (
	"fmt"
	"sort"

	apperrors "financemanager/internal/errors"
	"financemanager/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MonthlyAmount is one month bucket of a series.
type MonthlyAmount struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// MonthlyTrend is one row of the cash-flow report.
type MonthlyTrend struct {
	Month       string          `json:"month"`
	Income      decimal.Decimal `json:"income"`
	Expenses    decimal.Decimal `json:"expenses"`
	Savings     decimal.Decimal `json:"savings"`
	SavingsRate decimal.Decimal `json:"savings_rate"`
}

// CategorySummary aggregates the transactions of a single category.
type CategorySummary struct {
	CategoryID   uint                 `json:"category_id"`
	Name         string               `json:"name"`
	Amount       decimal.Decimal      `json:"amount"`
	Count        int                  `json:"count"`
	Transactions []models.Transaction `json:"transactions"`
}

// Percentage returns part/whole*100 rounded to two decimals, or zero when
// whole is not positive.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole).Round(2)
}

// TotalsByType sums amounts separately for income and expense transactions.
func TotalsByType(txs []models.Transaction) (income, expenses decimal.Decimal) {
	income, expenses = decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case models.TransactionTypeIncome:
			income = income.Add(tx.Amount)
		case models.TransactionTypeExpense:
			expenses = expenses.Add(tx.Amount)
		}
	}
	return income, expenses
}

// signed returns the contribution of tx to a net figure.
func signed(tx models.Transaction) decimal.Decimal {
	if tx.Type == models.TransactionTypeIncome {
		return tx.Amount
	}
	return tx.Amount.Neg()
}

// CategoryTotals sums amounts per category name. Every transaction must have
// its category loaded; a missing one is reported instead of being dropped.
func CategoryTotals(txs []models.Transaction) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Category == nil {
			return nil, apperrors.Wrap(apperrors.ErrUncategorizedTransaction,
				fmt.Errorf("transaction %d references unresolved category %d", tx.ID, tx.CategoryID))
		}
		name := tx.Category.Name
		totals[name] = totals[name].Add(tx.Amount)
	}
	return totals, nil
}

// MonthlyTotals returns the net amount (income minus expenses) of every
// month that has transactions, in ascending month order.
func MonthlyTotals(txs []models.Transaction) []MonthlyAmount {
	buckets := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		key := MonthKey(tx.Date)
		buckets[key] = buckets[key].Add(signed(tx))
	}
	return sortedSeries(buckets)
}

// CategoryPercentages expresses each category total as a share of total
// expenses. Every share is zero when there are no expenses.
func CategoryPercentages(totals map[string]decimal.Decimal, totalExpenses decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(totals))
	for name, amount := range totals {
		out[name] = Percentage(amount, totalExpenses)
	}
	return out
}

// MonthlyTrends breaks transactions down into per-month income, expenses,
// savings and savings rate, in ascending month order.
func MonthlyTrends(txs []models.Transaction) []MonthlyTrend {
	byMonth := make(map[string]*MonthlyTrend)
	for _, tx := range txs {
		key := MonthKey(tx.Date)
		trend, ok := byMonth[key]
		if !ok {
			trend = &MonthlyTrend{Month: key, Income: decimal.Zero, Expenses: decimal.Zero}
			byMonth[key] = trend
		}
		switch tx.Type {
		case models.TransactionTypeIncome:
			trend.Income = trend.Income.Add(tx.Amount)
		case models.TransactionTypeExpense:
			trend.Expenses = trend.Expenses.Add(tx.Amount)
		}
	}

	trends := make([]MonthlyTrend, 0, len(byMonth))
	for _, trend := range byMonth {
		trend.Savings = trend.Income.Sub(trend.Expenses)
		trend.SavingsRate = Percentage(trend.Savings, trend.Income)
		trends = append(trends, *trend)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Month < trends[j].Month })
	return trends
}

// MonthlySeries returns the per-month expense totals of one category.
func MonthlySeries(txs []models.Transaction, categoryID uint) []MonthlyAmount {
	buckets := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.CategoryID != categoryID || tx.Type != models.TransactionTypeExpense {
			continue
		}
		key := MonthKey(tx.Date)
		buckets[key] = buckets[key].Add(tx.Amount)
	}
	return sortedSeries(buckets)
}

// CategoryBreakdown groups transactions by category with their total, count
// and up to top most recent entries. Categories are ordered by amount,
// largest first, then by name.
func CategoryBreakdown(txs []models.Transaction, top int) ([]CategorySummary, error) {
	groups := make(map[uint][]models.Transaction)
	names := make(map[uint]string)
	for _, tx := range txs {
		if tx.Category == nil {
			return nil, apperrors.Wrap(apperrors.ErrUncategorizedTransaction,
				fmt.Errorf("transaction %d references unresolved category %d", tx.ID, tx.CategoryID))
		}
		groups[tx.CategoryID] = append(groups[tx.CategoryID], tx)
		names[tx.CategoryID] = tx.Category.Name
	}

	out := make([]CategorySummary, 0, len(groups))
	for id, group := range groups {
		total := decimal.Zero
		for _, tx := range group {
			total = total.Add(tx.Amount)
		}
		out = append(out, CategorySummary{
			CategoryID:   id,
			Name:         names[id],
			Amount:       total,
			Count:        len(group),
			Transactions: MostRecent(group, top),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// MostRecent returns up to n transactions ordered by date, newest first.
// Ties on date fall back to the higher ID. The input is not modified.
func MostRecent(txs []models.Transaction, n int) []models.Transaction {
	sorted := make([]models.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].ID > sorted[j].ID
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func sortedSeries(buckets map[string]decimal.Decimal) []MonthlyAmount {
	series := make([]MonthlyAmount, 0, len(buckets))
	for month, amount := range buckets {
		series = append(series, MonthlyAmount{Month: month, Amount: amount})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Month < series[j].Month })
	return series
}
