// Package repository is the storage boundary of the reporting and progress
// engine. Every read returns a snapshot owned by the caller; the only write
// paths are contribution recording and recurring materialisation, both of
// which run as a single retryable database transaction.
package repository

import (
	"context"
	"errors"
	"time"

	"financemanager/internal/database"
	apperrors "financemanager/internal/errors"
	"financemanager/internal/finance"
	"financemanager/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionFilter narrows ListTransactions. Nil fields are not applied.
type TransactionFilter struct {
	From       *time.Time
	To         *time.Time
	CategoryID *uint
	Type       *models.TransactionType
	GoalID     *uint
	Limit      int
}

// BudgetFilter narrows ListBudgets. From/To select budgets whose window
// overlaps the range.
type BudgetFilter struct {
	From       *time.Time
	To         *time.Time
	Period     *models.BudgetPeriod
	CategoryID *uint
}

// GoalFilter narrows ListGoals.
type GoalFilter struct {
	Type   *models.GoalType
	Status *models.GoalStatus
}

// Store is the persistence contract the calculators and report composer
// depend on.
type Store interface {
	ListTransactions(ctx context.Context, userID uint, filter TransactionFilter) ([]models.Transaction, error)
	ListBudgets(ctx context.Context, userID uint, filter BudgetFilter) ([]models.Budget, error)
	ListGoals(ctx context.Context, userID uint, filter GoalFilter) ([]models.Goal, error)
	GetCategory(ctx context.Context, categoryID uint) (*models.Category, error)
	GetBudget(ctx context.Context, userID, budgetID uint) (*models.Budget, error)
	GetGoal(ctx context.Context, userID, goalID uint) (*models.Goal, error)
	SumExpenses(ctx context.Context, userID, categoryID uint, from, to time.Time) (decimal.Decimal, error)
	RecentTransactions(ctx context.Context, userID, categoryID uint, from, to time.Time, limit int) ([]models.Transaction, error)
	ContributionTransactions(ctx context.Context, userID uint, goal models.Goal, limit int) ([]models.Transaction, error)
	RecordContribution(ctx context.Context, userID, goalID uint, amount decimal.Decimal, at time.Time) (*models.Goal, *models.Transaction, error)
	DueRecurringTransactions(ctx context.Context, asOf time.Time) ([]models.Transaction, error)
	MaterializeRecurrence(ctx context.Context, templateID uint, asOf time.Time) (*models.Transaction, error)
}

type gormStore struct {
	db    *gorm.DB
	retry database.RetryPolicy
}

// NewStore creates a GORM-backed Store. Atomic units of work are retried
// according to retry.
func NewStore(db *gorm.DB, retry database.RetryPolicy) Store {
	return &gormStore{db: db, retry: retry}
}

// preloadCategory loads categories even when they have been soft-deleted so
// historic transactions still resolve to a name.
func preloadCategory(db *gorm.DB) *gorm.DB {
	return db.Preload("Category", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	})
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("date DESC").Order("id DESC")
}

func storageErr(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// ListTransactions returns the user's transactions matching filter, newest
// first, with categories resolved. From and To are whole-day inclusive.
func (s *gormStore) ListTransactions(ctx context.Context, userID uint, filter TransactionFilter) ([]models.Transaction, error) {
	query := s.db.WithContext(ctx).Scopes(preloadCategory, newestFirst).
		Where("user_id = ?", userID)

	if filter.From != nil {
		query = query.Where("date >= ?", finance.StartOfDay(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("date <= ?", finance.EndOfDay(*filter.To))
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.GoalID != nil {
		query = query.Where("goal_id = ?", *filter.GoalID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var txs []models.Transaction
	if err := query.Find(&txs).Error; err != nil {
		return nil, storageErr(err)
	}
	return txs, nil
}

// ListBudgets returns the user's budgets with categories resolved, latest
// start date first.
func (s *gormStore) ListBudgets(ctx context.Context, userID uint, filter BudgetFilter) ([]models.Budget, error) {
	query := s.db.WithContext(ctx).Scopes(preloadCategory).
		Where("user_id = ?", userID)

	if filter.From != nil {
		query = query.Where("end_date >= ?", finance.StartOfDay(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("start_date <= ?", finance.EndOfDay(*filter.To))
	}
	if filter.Period != nil {
		query = query.Where("period = ?", *filter.Period)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}

	var budgets []models.Budget
	if err := query.Order("start_date DESC").Order("id DESC").Find(&budgets).Error; err != nil {
		return nil, storageErr(err)
	}
	return budgets, nil
}

// ListGoals returns the user's goals, latest start date first.
func (s *gormStore) ListGoals(ctx context.Context, userID uint, filter GoalFilter) ([]models.Goal, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)

	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var goals []models.Goal
	if err := query.Order("start_date DESC").Order("id DESC").Find(&goals).Error; err != nil {
		return nil, storageErr(err)
	}
	return goals, nil
}

// GetCategory returns nil without an error when the category does not exist.
func (s *gormStore) GetCategory(ctx context.Context, categoryID uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr(err)
	}
	return &category, nil
}

// GetBudget returns nil without an error when the budget does not exist or
// belongs to another user.
func (s *gormStore) GetBudget(ctx context.Context, userID, budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	err := s.db.WithContext(ctx).Scopes(preloadCategory).
		Where("id = ? AND user_id = ?", budgetID, userID).
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr(err)
	}
	return &budget, nil
}

// GetGoal returns nil without an error when the goal does not exist or
// belongs to another user.
func (s *gormStore) GetGoal(ctx context.Context, userID, goalID uint) (*models.Goal, error) {
	var goal models.Goal
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", goalID, userID).
		First(&goal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr(err)
	}
	return &goal, nil
}

func (s *gormStore) expenseWindow(ctx context.Context, userID, categoryID uint, from, to time.Time) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ? AND category_id = ? AND type = ?", userID, categoryID, models.TransactionTypeExpense).
		Where("date >= ? AND date <= ?", finance.StartOfDay(from), finance.EndOfDay(to))
}

// SumExpenses totals the user's expenses in a category between two days,
// both inclusive.
func (s *gormStore) SumExpenses(ctx context.Context, userID, categoryID uint, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := s.expenseWindow(ctx, userID, categoryID, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, storageErr(err)
	}
	// SQLite sums NUMERIC columns as floating point.
	return total.Round(2), nil
}

// RecentTransactions returns up to limit expenses of the category within
// the window, newest first.
func (s *gormStore) RecentTransactions(ctx context.Context, userID, categoryID uint, from, to time.Time, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.expenseWindow(ctx, userID, categoryID, from, to).
		Scopes(preloadCategory, newestFirst).
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return txs, nil
}

// ContributionTransactions returns the goal's contributions, newest first.
// Rows recorded with a goal reference match by ID; rows without one match
// when their description contains the goal's current contribution note.
func (s *gormStore) ContributionTransactions(ctx context.Context, userID uint, goal models.Goal, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).Scopes(preloadCategory, newestFirst).
		Where("user_id = ?", userID).
		Where("goal_id = ? OR (goal_id IS NULL AND description LIKE ?)", goal.ID, "%"+finance.ContributionNote(goal.Name)+"%").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return txs, nil
}

// RecordContribution adds amount to the goal, books a matching expense and
// completes the goal once it reaches its target. The goal is re-read on
// every attempt, so a retried unit never reuses a stale snapshot.
func (s *gormStore) RecordContribution(ctx context.Context, userID, goalID uint, amount decimal.Decimal, at time.Time) (*models.Goal, *models.Transaction, error) {
	var (
		goal         models.Goal
		contribution models.Transaction
	)

	err := database.RunInTx(ctx, s.db, s.retry, func(tx *gorm.DB) error {
		goal = models.Goal{}
		if err := tx.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrGoalNotFound
			}
			return err
		}

		category, err := contributionCategory(tx)
		if err != nil {
			return err
		}

		// Arithmetic stays in decimal; SQLite would add NUMERIC columns as floats.
		previous := goal.CurrentAmount
		goal.CurrentAmount = previous.Round(2).Add(amount)
		if goal.CurrentAmount.GreaterThanOrEqual(goal.TargetAmount) {
			goal.Status = models.GoalStatusCompleted
		}

		result := tx.Model(&models.Goal{}).
			Where("id = ? AND current_amount = ?", goal.ID, previous).
			Updates(map[string]interface{}{
				"current_amount": goal.CurrentAmount,
				"status":         goal.Status,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return database.ErrConcurrentUpdate
		}

		goalRef := goal.ID
		contribution = models.Transaction{
			UserID:      userID,
			CategoryID:  category.ID,
			GoalID:      &goalRef,
			Amount:      amount,
			Date:        at,
			Description: finance.ContributionNote(goal.Name),
			Type:        models.TransactionTypeExpense,
		}
		if err := tx.Create(&contribution).Error; err != nil {
			return err
		}
		contribution.Category = category
		return nil
	})
	if err != nil {
		return nil, nil, storageErr(err)
	}

	return &goal, &contribution, nil
}

// contributionCategory finds the system category contributions are booked
// against, creating it if the seed has not run.
func contributionCategory(tx *gorm.DB) (*models.Category, error) {
	var category models.Category
	err := tx.Where("name = ? AND is_system = ?", models.GoalContributionCategory, true).
		Attrs(models.Category{
			Name:     models.GoalContributionCategory,
			Type:     models.CategoryTypeExpense,
			IsSystem: true,
		}).
		FirstOrCreate(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// DueRecurringTransactions lists recurring templates whose next occurrence
// falls on or before asOf's day, across all users.
func (s *gormStore) DueRecurringTransactions(ctx context.Context, asOf time.Time) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("is_recurring = ? AND recurrence_pattern IS NOT NULL", true).
		Where("next_recurrence_date IS NOT NULL AND next_recurrence_date <= ?", finance.EndOfDay(asOf)).
		Order("id ASC").
		Find(&txs).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return txs, nil
}

// MaterializeRecurrence inserts the template's pending occurrence and
// advances its schedule by one step, in one transaction. It returns nil
// when the template is no longer due as of asOf.
func (s *gormStore) MaterializeRecurrence(ctx context.Context, templateID uint, asOf time.Time) (*models.Transaction, error) {
	var occurrence *models.Transaction

	err := database.RunInTx(ctx, s.db, s.retry, func(tx *gorm.DB) error {
		occurrence = nil

		var template models.Transaction
		if err := tx.First(&template, templateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return err
		}
		if !template.IsRecurring || template.RecurrencePattern == nil || template.NextRecurrenceDate == nil {
			return nil
		}
		if template.NextRecurrenceDate.After(finance.EndOfDay(asOf)) {
			return nil
		}

		pattern := *template.RecurrencePattern
		if !pattern.Valid() {
			return apperrors.ErrInvalidRecurrence
		}

		due := *template.NextRecurrenceDate
		next := pattern.NextAnchored(due, template.Date.Day())

		created := models.Transaction{
			UserID:      template.UserID,
			CategoryID:  template.CategoryID,
			Amount:      template.Amount,
			Date:        due,
			Description: template.Description,
			Type:        template.Type,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Transaction{}).Where("id = ?", template.ID).
			Update("next_recurrence_date", next).Error; err != nil {
			return err
		}

		occurrence = &created
		return nil
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return occurrence, nil
}
