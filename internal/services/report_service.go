package services

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"financemanager/internal/finance"
	"financemanager/internal/models"
	"financemanager/internal/repository"
)

const (
	summaryRecentCount   = 5
	breakdownRecentCount = 5
	defaultTrendMonths   = 12
	maxTrendMonths       = 120
	defaultTopGoals      = 5
)

// FinancialSummary is the headline report for a period.
type FinancialSummary struct {
	From                *time.Time                 `json:"from,omitempty"`
	To                  *time.Time                 `json:"to,omitempty"`
	TotalIncome         decimal.Decimal            `json:"total_income"`
	TotalExpenses       decimal.Decimal            `json:"total_expenses"`
	NetIncome           decimal.Decimal            `json:"net_income"`
	CategoryTotals      map[string]decimal.Decimal `json:"category_totals"`
	MonthlyTotals       []finance.MonthlyAmount    `json:"monthly_totals"`
	CategoryPercentages map[string]decimal.Decimal `json:"category_percentages"`
	RecentTransactions  []models.Transaction       `json:"recent_transactions"`
	BudgetProgress      map[string]decimal.Decimal `json:"budget_progress"`
	GoalProgress        map[string]decimal.Decimal `json:"goal_progress"`
}

// CashFlowReport is the month-by-month income and spending of a period.
type CashFlowReport struct {
	Trends        []finance.MonthlyTrend `json:"trends"`
	TotalIncome   decimal.Decimal        `json:"total_income"`
	TotalExpenses decimal.Decimal        `json:"total_expenses"`
	TotalCashFlow decimal.Decimal        `json:"total_cash_flow"`
}

// BudgetSummary is one budget's usage within a report period.
type BudgetSummary struct {
	BudgetID        uint            `json:"budget_id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Budgeted        decimal.Decimal `json:"budgeted"`
	Spent           decimal.Decimal `json:"spent"`
	Remaining       decimal.Decimal `json:"remaining"`
	UsagePercentage decimal.Decimal `json:"usage_percentage"`
}

// BudgetAnalysis compares budgets with actual spending over a period.
type BudgetAnalysis struct {
	BudgetSummaries []BudgetSummary                    `json:"budget_summaries"`
	TotalBudgeted   decimal.Decimal                    `json:"total_budgeted"`
	TotalSpent      decimal.Decimal                    `json:"total_spent"`
	TotalRemaining  decimal.Decimal                    `json:"total_remaining"`
	MonthlySpending map[string][]finance.MonthlyAmount `json:"monthly_spending"`
}

// GoalSummary is a goal with its headline progress figures.
type GoalSummary struct {
	Goal               models.Goal     `json:"goal"`
	ProgressPercentage decimal.Decimal `json:"progress_percentage"`
	RemainingAmount    decimal.Decimal `json:"remaining_amount"`
	RemainingDays      int             `json:"remaining_days"`
}

// reportService composes reports. Every call reads a fresh snapshot through
// the store and recomputes; nothing is cached.
type reportService struct {
	store repository.Store
	now   func() time.Time
}

// NewReportService creates a new ReportServicer.
func NewReportService(store repository.Store) ReportServicer {
	return &reportService{
		store: store,
		now:   time.Now,
	}
}

func (s *reportService) transactions(ctx context.Context, userID uint, period finance.DateRange) ([]models.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, repository.TransactionFilter{
		From: period.From,
		To:   period.To,
	})
}

func (s *reportService) budgets(ctx context.Context, userID uint, period finance.DateRange) ([]models.Budget, error) {
	return s.store.ListBudgets(ctx, userID, repository.BudgetFilter{
		From: period.From,
		To:   period.To,
	})
}

func categoryName(b models.Budget) string {
	if b.Category != nil {
		return b.Category.Name
	}
	return ""
}

// FinancialSummary totals the period's transactions and reports the usage of
// the budgets that overlap it and the progress of every active goal.
func (s *reportService) FinancialSummary(ctx context.Context, userID uint, period finance.DateRange) (*FinancialSummary, error) {
	txs, err := s.transactions(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	income, expenses := finance.TotalsByType(txs)
	categoryTotals, err := finance.CategoryTotals(txs)
	if err != nil {
		return nil, err
	}

	budgets, err := s.budgets(ctx, userID, period)
	if err != nil {
		return nil, err
	}
	// Budgets sharing a category are reported as one combined ceiling.
	budgeted := make(map[string]decimal.Decimal)
	spent := make(map[string]decimal.Decimal)
	for _, b := range budgets {
		name := categoryName(b)
		budgeted[name] = budgeted[name].Add(b.Amount)
		spent[name] = spent[name].Add(finance.BudgetSpent(b, txs))
	}
	budgetProgress := make(map[string]decimal.Decimal, len(budgeted))
	for name, amount := range budgeted {
		budgetProgress[name] = finance.SpendingPercentage(spent[name], amount)
	}

	active := models.GoalStatusActive
	goals, err := s.store.ListGoals(ctx, userID, repository.GoalFilter{Status: &active})
	if err != nil {
		return nil, err
	}
	goalProgress := make(map[string]decimal.Decimal, len(goals))
	for _, g := range goals {
		goalProgress[g.Name] = finance.ProgressPercentage(g)
	}

	return &FinancialSummary{
		From:                period.From,
		To:                  period.To,
		TotalIncome:         income,
		TotalExpenses:       expenses,
		NetIncome:           income.Sub(expenses),
		CategoryTotals:      categoryTotals,
		MonthlyTotals:       finance.MonthlyTotals(txs),
		CategoryPercentages: finance.CategoryPercentages(categoryTotals, expenses),
		RecentTransactions:  finance.MostRecent(txs, summaryRecentCount),
		BudgetProgress:      budgetProgress,
		GoalProgress:        goalProgress,
	}, nil
}

// CashFlow breaks the period down into monthly income, expenses and savings.
func (s *reportService) CashFlow(ctx context.Context, userID uint, period finance.DateRange) (*CashFlowReport, error) {
	txs, err := s.transactions(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	income, expenses := finance.TotalsByType(txs)
	return &CashFlowReport{
		Trends:        finance.MonthlyTrends(txs),
		TotalIncome:   income,
		TotalExpenses: expenses,
		TotalCashFlow: income.Sub(expenses),
	}, nil
}

// BudgetAnalysis reports each overlapping budget's usage within the period,
// the totals across them and the monthly spending of their categories.
func (s *reportService) BudgetAnalysis(ctx context.Context, userID uint, period finance.DateRange) (*BudgetAnalysis, error) {
	budgets, err := s.budgets(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	expense := models.TransactionTypeExpense
	txs, err := s.store.ListTransactions(ctx, userID, repository.TransactionFilter{
		From: period.From,
		To:   period.To,
		Type: &expense,
	})
	if err != nil {
		return nil, err
	}

	analysis := &BudgetAnalysis{
		BudgetSummaries: make([]BudgetSummary, 0, len(budgets)),
		TotalBudgeted:   decimal.Zero,
		TotalSpent:      decimal.Zero,
		TotalRemaining:  decimal.Zero,
		MonthlySpending: make(map[string][]finance.MonthlyAmount),
	}
	for _, b := range budgets {
		spent := finance.BudgetSpent(b, txs)
		summary := BudgetSummary{
			BudgetID:        b.ID,
			Name:            b.Name,
			Category:        categoryName(b),
			Budgeted:        b.Amount,
			Spent:           spent,
			Remaining:       finance.RemainingBudget(spent, b.Amount),
			UsagePercentage: finance.SpendingPercentage(spent, b.Amount),
		}
		analysis.BudgetSummaries = append(analysis.BudgetSummaries, summary)
		analysis.TotalBudgeted = analysis.TotalBudgeted.Add(summary.Budgeted)
		analysis.TotalSpent = analysis.TotalSpent.Add(summary.Spent)
		analysis.TotalRemaining = analysis.TotalRemaining.Add(summary.Remaining)

		if _, seen := analysis.MonthlySpending[summary.Category]; !seen {
			analysis.MonthlySpending[summary.Category] = finance.MonthlySeries(txs, b.CategoryID)
		}
	}

	return analysis, nil
}

// CategoryBreakdown groups the period's transactions by category, optionally
// restricted to one category.
func (s *reportService) CategoryBreakdown(ctx context.Context, userID uint, period finance.DateRange, categoryID *uint) ([]finance.CategorySummary, error) {
	txs, err := s.store.ListTransactions(ctx, userID, repository.TransactionFilter{
		From:       period.From,
		To:         period.To,
		CategoryID: categoryID,
	})
	if err != nil {
		return nil, err
	}
	return finance.CategoryBreakdown(txs, breakdownRecentCount)
}

// MonthlyTrends returns the cash-flow trend of the last months calendar
// months, the current one included.
func (s *reportService) MonthlyTrends(ctx context.Context, userID uint, months int) ([]finance.MonthlyTrend, error) {
	if months <= 0 {
		months = defaultTrendMonths
	}
	if months > maxTrendMonths {
		months = maxTrendMonths
	}

	now := s.now().UTC()
	from := finance.StartOfMonth(now).AddDate(0, -(months - 1), 0)
	to := finance.EndOfMonth(now)

	txs, err := s.store.ListTransactions(ctx, userID, repository.TransactionFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	return finance.MonthlyTrends(txs), nil
}

// TopGoals returns the active goals closest to completion.
func (s *reportService) TopGoals(ctx context.Context, userID uint, limit int) ([]GoalSummary, error) {
	if limit <= 0 {
		limit = defaultTopGoals
	}

	active := models.GoalStatusActive
	goals, err := s.store.ListGoals(ctx, userID, repository.GoalFilter{Status: &active})
	if err != nil {
		return nil, err
	}

	today := s.now().UTC()
	out := make([]GoalSummary, 0, len(goals))
	for _, g := range goals {
		out = append(out, GoalSummary{
			Goal:               g,
			ProgressPercentage: finance.ProgressPercentage(g),
			RemainingAmount:    finance.RemainingGoalAmount(g),
			RemainingDays:      finance.RemainingDays(g, today),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].ProgressPercentage.Cmp(out[j].ProgressPercentage); c != 0 {
			return c > 0
		}
		return out[i].Goal.TargetDate.Before(out[j].Goal.TargetDate)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
