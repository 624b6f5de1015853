package services

import (
	"testing"

	"gorm.io/gorm"

	"financemanager/internal/finance"
	"financemanager/internal/models"
	"financemanager/internal/testutil"
)

type reportFixture struct {
	user               *models.User
	salary, rent, food *models.Category
	foodJan, foodFeb   *models.Budget
	rentFeb            *models.Budget
	period             finance.DateRange
}

// seedReportData books two months of activity plus a March expense that
// falls outside the report period.
func seedReportData(t *testing.T, db *gorm.DB) reportFixture {
	t.Helper()

	user := testutil.CreateTestUser(t, db)
	salary := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)
	rent := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	food := testutil.SystemCategory(t, db, "Food")

	income, expense := models.TransactionTypeIncome, models.TransactionTypeExpense
	testutil.CreateTestTransaction(t, db, user.ID, salary.ID, income, "3000.00", testutil.Date(2024, 1, 1))
	testutil.CreateTestTransaction(t, db, user.ID, rent.ID, expense, "1000.00", testutil.Date(2024, 1, 2))
	testutil.CreateTestTransaction(t, db, user.ID, food.ID, expense, "200.00", testutil.Date(2024, 1, 15))
	testutil.CreateTestTransaction(t, db, user.ID, salary.ID, income, "1000.00", testutil.Date(2024, 2, 1))
	testutil.CreateTestTransaction(t, db, user.ID, rent.ID, expense, "1000.00", testutil.Date(2024, 2, 2))
	testutil.CreateTestTransaction(t, db, user.ID, food.ID, expense, "300.00", testutil.Date(2024, 2, 10))
	testutil.CreateTestTransaction(t, db, user.ID, food.ID, expense, "50.00", testutil.Date(2024, 3, 5))

	fx := reportFixture{
		user:    user,
		salary:  salary,
		rent:    rent,
		food:    food,
		foodJan: testutil.CreateTestBudgetWithWindow(t, db, user.ID, food.ID, "250.00", testutil.Date(2024, 1, 1), testutil.Date(2024, 1, 31)),
		foodFeb: testutil.CreateTestBudgetWithWindow(t, db, user.ID, food.ID, "250.00", testutil.Date(2024, 2, 1), testutil.Date(2024, 2, 29)),
		rentFeb: testutil.CreateTestBudgetWithWindow(t, db, user.ID, rent.ID, "800.00", testutil.Date(2024, 2, 1), testutil.Date(2024, 2, 29)),
	}
	testutil.CreateTestBudgetWithWindow(t, db, user.ID, food.ID, "999.00", testutil.Date(2024, 3, 1), testutil.Date(2024, 3, 31))

	period, err := finance.NewDateRange(ptr(testutil.Date(2024, 1, 1)), ptr(testutil.Date(2024, 2, 29)))
	testutil.AssertNoError(t, err)
	fx.period = period
	return fx
}

func newReportService(db *gorm.DB) *reportService {
	return NewReportService(newTestStore(db)).(*reportService)
}

func TestFinancialSummary(t *testing.T) {
	t.Run("period_totals", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newReportService(db)
		fx := seedReportData(t, db)

		active := testutil.CreateTestGoal(t, db, fx.user.ID, "1000.00", "250.00", testutil.Date(2024, 12, 31))
		abandoned := testutil.CreateTestGoal(t, db, fx.user.ID, "1000.00", "0", testutil.Date(2024, 12, 31))
		db.Model(abandoned).Update("status", models.GoalStatusAbandoned)

		summary, err := svc.FinancialSummary(ctx, fx.user.ID, fx.period)
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, summary.TotalIncome, "4000.00")
		testutil.AssertDecimal(t, summary.TotalExpenses, "2500.00")
		testutil.AssertDecimal(t, summary.NetIncome, "1500.00")

		testutil.AssertDecimal(t, summary.CategoryTotals["Food"], "500.00")
		testutil.AssertDecimal(t, summary.CategoryTotals[fx.rent.Name], "2000.00")
		testutil.AssertDecimal(t, summary.CategoryPercentages["Food"], "20.00")
		testutil.AssertDecimal(t, summary.CategoryPercentages[fx.rent.Name], "80.00")

		if len(summary.MonthlyTotals) != 2 {
			t.Fatalf("expected 2 months, got %d", len(summary.MonthlyTotals))
		}
		testutil.AssertDecimal(t, summary.MonthlyTotals[0].Amount, "1800.00")
		testutil.AssertDecimal(t, summary.MonthlyTotals[1].Amount, "-300.00")

		if len(summary.RecentTransactions) != 5 {
			t.Fatalf("expected 5 recent transactions, got %d", len(summary.RecentTransactions))
		}
		if !summary.RecentTransactions[0].Date.Equal(testutil.Date(2024, 2, 10)) {
			t.Errorf("expected newest in-period transaction first, got %s", summary.RecentTransactions[0].Date)
		}

		// the two food budgets are combined
		testutil.AssertDecimal(t, summary.BudgetProgress["Food"], "100.00")
		testutil.AssertDecimal(t, summary.BudgetProgress[fx.rent.Name], "125.00")

		if len(summary.GoalProgress) != 1 {
			t.Fatalf("expected only the active goal, got %d", len(summary.GoalProgress))
		}
		testutil.AssertDecimal(t, summary.GoalProgress[active.Name], "25.00")
	})

	t.Run("empty_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newReportService(db)
		user := testutil.CreateTestUser(t, db)

		summary, err := svc.FinancialSummary(ctx, user.ID, finance.DateRange{})
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, summary.NetIncome, "0")
		if len(summary.CategoryTotals) != 0 || len(summary.RecentTransactions) != 0 {
			t.Error("expected an empty summary")
		}
	})
}

func TestCashFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newReportService(db)
	fx := seedReportData(t, db)

	report, err := svc.CashFlow(ctx, fx.user.ID, fx.period)
	testutil.AssertNoError(t, err)

	if len(report.Trends) != 2 {
		t.Fatalf("expected 2 months, got %d", len(report.Trends))
	}
	jan, feb := report.Trends[0], report.Trends[1]
	if jan.Month != "2024-01" || feb.Month != "2024-02" {
		t.Errorf("expected ascending months, got %s and %s", jan.Month, feb.Month)
	}
	testutil.AssertDecimal(t, jan.Savings, "1800.00")
	testutil.AssertDecimal(t, jan.SavingsRate, "60.00")
	testutil.AssertDecimal(t, feb.Savings, "-300.00")
	testutil.AssertDecimal(t, feb.SavingsRate, "-30.00")
	testutil.AssertDecimal(t, report.TotalCashFlow, "1500.00")
}

func TestBudgetAnalysis(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newReportService(db)
	fx := seedReportData(t, db)

	analysis, err := svc.BudgetAnalysis(ctx, fx.user.ID, fx.period)
	testutil.AssertNoError(t, err)

	if len(analysis.BudgetSummaries) != 3 {
		t.Fatalf("expected 3 overlapping budgets, got %d", len(analysis.BudgetSummaries))
	}
	byID := make(map[uint]BudgetSummary)
	for _, s := range analysis.BudgetSummaries {
		byID[s.BudgetID] = s
	}
	testutil.AssertDecimal(t, byID[fx.foodJan.ID].Spent, "200.00")
	testutil.AssertDecimal(t, byID[fx.foodFeb.ID].Spent, "300.00")
	testutil.AssertDecimal(t, byID[fx.foodFeb.ID].UsagePercentage, "120.00")
	testutil.AssertDecimal(t, byID[fx.rentFeb.ID].Remaining, "-200.00")

	testutil.AssertDecimal(t, analysis.TotalBudgeted, "1300.00")
	testutil.AssertDecimal(t, analysis.TotalSpent, "1500.00")
	testutil.AssertDecimal(t, analysis.TotalRemaining, "-200.00")

	food := analysis.MonthlySpending["Food"]
	if len(food) != 2 {
		t.Fatalf("expected 2 months of food spending, got %d", len(food))
	}
	testutil.AssertDecimal(t, food[0].Amount, "200.00")
	testutil.AssertDecimal(t, food[1].Amount, "300.00")
}

func TestCategoryBreakdown(t *testing.T) {
	t.Run("all_categories", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newReportService(db)
		fx := seedReportData(t, db)

		breakdown, err := svc.CategoryBreakdown(ctx, fx.user.ID, fx.period, nil)
		testutil.AssertNoError(t, err)

		if len(breakdown) != 3 {
			t.Fatalf("expected 3 categories, got %d", len(breakdown))
		}
		if breakdown[0].CategoryID != fx.salary.ID || breakdown[2].CategoryID != fx.food.ID {
			t.Error("expected categories ordered by amount, largest first")
		}
	})

	t.Run("single_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newReportService(db)
		fx := seedReportData(t, db)

		breakdown, err := svc.CategoryBreakdown(ctx, fx.user.ID, fx.period, &fx.food.ID)
		testutil.AssertNoError(t, err)

		if len(breakdown) != 1 {
			t.Fatalf("expected 1 category, got %d", len(breakdown))
		}
		if breakdown[0].Count != 2 {
			t.Errorf("expected 2 food transactions in period, got %d", breakdown[0].Count)
		}
		testutil.AssertDecimal(t, breakdown[0].Amount, "500.00")
	})
}

func TestMonthlyTrends(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newReportService(db)
	svc.now = fixedClock(testutil.Date(2024, 2, 15))
	fx := seedReportData(t, db)

	trends, err := svc.MonthlyTrends(ctx, fx.user.ID, 2)
	testutil.AssertNoError(t, err)
	if len(trends) != 2 {
		t.Fatalf("expected 2 months, got %d", len(trends))
	}

	current, err := svc.MonthlyTrends(ctx, fx.user.ID, 1)
	testutil.AssertNoError(t, err)
	if len(current) != 1 || current[0].Month != "2024-02" {
		t.Errorf("expected only the current month, got %v", current)
	}

	defaulted, err := svc.MonthlyTrends(ctx, fx.user.ID, 0)
	testutil.AssertNoError(t, err)
	if len(defaulted) != 2 {
		t.Errorf("expected every month with activity in the last year, got %d", len(defaulted))
	}
}

func TestTopGoals(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newReportService(db)
	svc.now = fixedClock(testutil.Date(2024, 1, 1))
	user := testutil.CreateTestUser(t, db)

	testutil.CreateTestGoal(t, db, user.ID, "1000.00", "250.00", testutil.Date(2024, 6, 1))
	nearly := testutil.CreateTestGoal(t, db, user.ID, "1000.00", "900.00", testutil.Date(2024, 12, 1))
	half := testutil.CreateTestGoal(t, db, user.ID, "1000.00", "500.00", testutil.Date(2024, 3, 1))

	top, err := svc.TopGoals(ctx, user.ID, 2)
	testutil.AssertNoError(t, err)

	if len(top) != 2 {
		t.Fatalf("expected 2 goals, got %d", len(top))
	}
	if top[0].Goal.ID != nearly.ID || top[1].Goal.ID != half.ID {
		t.Error("expected goals ordered by progress")
	}
	testutil.AssertDecimal(t, top[0].RemainingAmount, "100.00")
	if top[1].RemainingDays != 60 {
		t.Errorf("expected 60 remaining days, got %d", top[1].RemainingDays)
	}
}
