package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"financemanager/internal/finance"
	"financemanager/internal/models"
	"financemanager/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
	StoreRefreshTokenHash(ctx context.Context, userID uint, tokenHash string) error
	GetRefreshTokenHash(ctx context.Context, userID uint) (string, error)
}

// CategoryInput holds the fields of a new category.
type CategoryInput struct {
	Name        string
	Description string
	ColorCode   string
	Type        models.CategoryType
}

// CategoryPatch lists the category fields to change. Nil fields are kept.
type CategoryPatch struct {
	Name        *string
	Description *string
	ColorCode   *string
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, userID uint, input CategoryInput) (*models.Category, error)
	GetUserCategories(ctx context.Context, userID uint, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(ctx context.Context, userID, categoryID uint) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID uint, patch CategoryPatch) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID uint) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *uint
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	GoalID     *uint
}

// TransactionInput holds the fields of a new transaction. A non-nil
// Recurrence turns it into a recurring template.
type TransactionInput struct {
	CategoryID  uint
	Type        models.TransactionType
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	Recurrence  *models.RecurrencePattern
}

// TransactionPatch lists the transaction fields to change. Nil fields are
// kept; StopRecurring clears the schedule.
type TransactionPatch struct {
	CategoryID    *uint
	Type          *models.TransactionType
	Amount        *decimal.Decimal
	Date          *time.Time
	Description   *string
	Recurrence    *models.RecurrencePattern
	StopRecurring bool
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, userID uint, input TransactionInput) (*models.Transaction, error)
	GetUserTransactions(ctx context.Context, userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(ctx context.Context, userID, transactionID uint) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID uint, patch TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID uint) error
}

// BudgetInput holds the fields of a new budget. A nil EndDate is derived
// from the period.
type BudgetInput struct {
	CategoryID uint
	Name       string
	Amount     decimal.Decimal
	Period     models.BudgetPeriod
	StartDate  time.Time
	EndDate    *time.Time
}

// BudgetPatch lists the budget fields to change. Nil fields are kept.
type BudgetPatch struct {
	Name      *string
	Amount    *decimal.Decimal
	Period    *models.BudgetPeriod
	StartDate *time.Time
	EndDate   *time.Time
}

// BudgetListFilter narrows GetUserBudgets.
type BudgetListFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Period   *models.BudgetPeriod
}

// TemplateInput holds the fields of a new user template.
type TemplateInput struct {
	Name        string
	Description string
	Config      models.TemplateConfig
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(ctx context.Context, userID uint, input BudgetInput) (*models.Budget, error)
	GetUserBudgets(ctx context.Context, userID uint, page pagination.PageRequest, filter BudgetListFilter) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(ctx context.Context, userID, budgetID uint) (*models.Budget, error)
	UpdateBudget(ctx context.Context, userID, budgetID uint, patch BudgetPatch) (*models.Budget, error)
	DeleteBudget(ctx context.Context, userID, budgetID uint) error

	CurrentSpending(ctx context.Context, userID, budgetID uint) (decimal.Decimal, error)
	SpendingPercentage(ctx context.Context, userID, budgetID uint) (decimal.Decimal, error)
	RemainingAmount(ctx context.Context, userID, budgetID uint) (decimal.Decimal, error)
	GetBudgetProgress(ctx context.Context, userID, budgetID uint) (*finance.BudgetProgress, error)
	RefreshCurrentSpending(ctx context.Context, userID, budgetID uint) (*models.Budget, error)
	RecentTransactions(ctx context.Context, userID, budgetID uint, count int) ([]models.Transaction, error)
	SpendingPercentages(ctx context.Context, budgets []models.Budget) map[uint]decimal.Decimal
	RemainingAmounts(ctx context.Context, budgets []models.Budget) map[uint]decimal.Decimal

	ListTemplates(ctx context.Context, userID uint) ([]models.Template, error)
	CreateTemplate(ctx context.Context, userID uint, input TemplateInput) (*models.Template, error)
	ApplyTemplate(ctx context.Context, userID, templateID uint, start time.Time) ([]models.Budget, error)
}

// GoalInput holds the fields of a new goal.
type GoalInput struct {
	Name         string
	Description  string
	TargetAmount decimal.Decimal
	StartDate    time.Time
	TargetDate   time.Time
	Type         models.GoalType
}

// GoalPatch lists the goal fields to change. The current amount is not
// patchable; it only grows through contributions.
type GoalPatch struct {
	Name         *string
	Description  *string
	TargetAmount *decimal.Decimal
	TargetDate   *time.Time
	Status       *models.GoalStatus
	Type         *models.GoalType
}

// GoalListFilter narrows GetUserGoals.
type GoalListFilter struct {
	Type   *models.GoalType
	Status *models.GoalStatus
}

// GoalServicer defines the contract for goal-related business logic.
type GoalServicer interface {
	CreateGoal(ctx context.Context, userID uint, input GoalInput) (*models.Goal, error)
	GetUserGoals(ctx context.Context, userID uint, page pagination.PageRequest, filter GoalListFilter) (*pagination.PageResponse[models.Goal], error)
	GetGoalByID(ctx context.Context, userID, goalID uint) (*models.Goal, error)
	UpdateGoal(ctx context.Context, userID, goalID uint, patch GoalPatch) (*models.Goal, error)
	DeleteGoal(ctx context.Context, userID, goalID uint) error

	GetGoalProgress(ctx context.Context, userID, goalID uint) (*finance.GoalProgress, error)
	ProgressPercentages(ctx context.Context, goals []models.Goal) map[uint]decimal.Decimal
	RemainingAmounts(ctx context.Context, goals []models.Goal) map[uint]decimal.Decimal
	RemainingDays(ctx context.Context, goals []models.Goal) map[uint]int
	RecordContribution(ctx context.Context, userID, goalID uint, amount decimal.Decimal) (*models.Goal, error)
	ContributionHistory(ctx context.Context, userID, goalID uint) ([]models.Transaction, error)
}

// ReportServicer composes read-only reports from a snapshot of a user's data.
type ReportServicer interface {
	FinancialSummary(ctx context.Context, userID uint, period finance.DateRange) (*FinancialSummary, error)
	CashFlow(ctx context.Context, userID uint, period finance.DateRange) (*CashFlowReport, error)
	BudgetAnalysis(ctx context.Context, userID uint, period finance.DateRange) (*BudgetAnalysis, error)
	CategoryBreakdown(ctx context.Context, userID uint, period finance.DateRange, categoryID *uint) ([]finance.CategorySummary, error)
	MonthlyTrends(ctx context.Context, userID uint, months int) ([]finance.MonthlyTrend, error)
	TopGoals(ctx context.Context, userID uint, limit int) ([]GoalSummary, error)
}

// RecurringServicer materialises due recurring transactions.
type RecurringServicer interface {
	ProcessDue(ctx context.Context, asOf time.Time) (*RecurringRun, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
