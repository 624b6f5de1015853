package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "financemanager/internal/errors"
	"financemanager/internal/finance"
	"financemanager/internal/logger"
	"financemanager/internal/models"
	"financemanager/internal/pagination"
	"financemanager/internal/repository"
	"financemanager/internal/validator"
)

const defaultRecentCount = 5

// budgetService handles budget-related business logic.
type budgetService struct {
	db          *gorm.DB
	store       repository.Store
	log         *zap.SugaredLogger
	concurrency int
	now         func() time.Time
}

// NewBudgetService creates a new BudgetServicer. Batch calculations run at
// most concurrency items at a time.
func NewBudgetService(db *gorm.DB, store repository.Store, concurrency int) BudgetServicer {
	return &budgetService{
		db:          db,
		store:       store,
		log:         logger.Named("budget"),
		concurrency: concurrency,
		now:         time.Now,
	}
}

// budgetWindow normalises a budget's days and rejects an empty window.
func budgetWindow(start, end time.Time) (time.Time, time.Time, error) {
	start = finance.StartOfDay(start.UTC())
	end = finance.StartOfDay(end.UTC())
	if !start.Before(end) {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidDateRange
	}
	return start, end, nil
}

// CreateBudget creates a new budget for one of the categories the user can see.
func (s *budgetService) CreateBudget(ctx context.Context, userID uint, input BudgetInput) (*models.Budget, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if !validator.IsMoney(input.Amount) {
		return nil, apperrors.ErrInvalidAmount
	}
	if !input.Period.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported budget period")
	}

	end := input.Period.End(input.StartDate)
	if input.EndDate != nil {
		end = *input.EndDate
	}
	start, end, err := budgetWindow(input.StartDate, end)
	if err != nil {
		return nil, err
	}

	if err := s.ensureCategoryVisible(ctx, userID, input.CategoryID); err != nil {
		return nil, err
	}

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: input.CategoryID,
		Name:       name,
		Amount:     input.Amount,
		Period:     input.Period,
		StartDate:  start,
		EndDate:    end,
	}
	if err := s.db.WithContext(ctx).Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetBudgetByID(ctx, userID, budget.ID)
}

func (s *budgetService) ensureCategoryVisible(ctx context.Context, userID, categoryID uint) error {
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if category == nil || !category.VisibleTo(userID) {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// GetUserBudgets retrieves a paginated list of budgets for a user. The date
// filter keeps budgets whose window overlaps the range.
func (s *budgetService) GetUserBudgets(ctx context.Context, userID uint, page pagination.PageRequest, filter BudgetListFilter) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Budget{}).Where("user_id = ?", userID)
	if filter.FromDate != nil {
		base = base.Where("end_date >= ?", finance.StartOfDay(*filter.FromDate))
	}
	if filter.ToDate != nil {
		base = base.Where("start_date <= ?", finance.EndOfDay(*filter.ToDate))
	}
	if filter.Period != nil {
		base = base.Where("period = ?", *filter.Period)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Scopes(pagination.Paginate(page)).
		Order("start_date DESC").Order("id DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page, totalItems)
	return &result, nil
}

// GetBudgetByID retrieves a budget by ID for a specific user
func (s *budgetService) GetBudgetByID(ctx context.Context, userID, budgetID uint) (*models.Budget, error) {
	budget, err := s.store.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}
	if budget == nil {
		return nil, apperrors.ErrBudgetNotFound
	}
	return budget, nil
}

// UpdateBudget applies the patch as explicit column updates.
func (s *budgetService) UpdateBudget(ctx context.Context, userID, budgetID uint, patch BudgetPatch) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name cannot be empty")
		}
		updates["name"] = name
	}
	if patch.Amount != nil {
		if !validator.IsMoney(*patch.Amount) {
			return nil, apperrors.ErrInvalidAmount
		}
		updates["amount"] = *patch.Amount
	}
	if patch.Period != nil {
		if !patch.Period.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported budget period")
		}
		updates["period"] = *patch.Period
	}
	if patch.StartDate != nil || patch.EndDate != nil {
		start, end := budget.StartDate, budget.EndDate
		if patch.StartDate != nil {
			start = *patch.StartDate
		}
		if patch.EndDate != nil {
			end = *patch.EndDate
		}
		start, end, err = budgetWindow(start, end)
		if err != nil {
			return nil, err
		}
		updates["start_date"] = start
		updates["end_date"] = end
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Budget{}).
			Where("id = ?", budget.ID).
			Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetBudgetByID(ctx, userID, budget.ID)
}

// DeleteBudget soft-deletes a budget
func (s *budgetService) DeleteBudget(ctx context.Context, userID, budgetID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", budgetID, userID).
		Delete(&models.Budget{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}

func (s *budgetService) spent(ctx context.Context, b models.Budget) (decimal.Decimal, error) {
	return s.store.SumExpenses(ctx, b.UserID, b.CategoryID, b.StartDate, b.EndDate)
}

// CurrentSpending sums the expenses booked against the budget's category
// within its window. A missing budget has spent nothing.
func (s *budgetService) CurrentSpending(ctx context.Context, userID, budgetID uint) (decimal.Decimal, error) {
	budget, err := s.store.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return decimal.Zero, err
	}
	if budget == nil {
		return decimal.Zero, nil
	}
	return s.spent(ctx, *budget)
}

// SpendingPercentage returns the share of the budget already spent.
func (s *budgetService) SpendingPercentage(ctx context.Context, userID, budgetID uint) (decimal.Decimal, error) {
	budget, err := s.GetBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return decimal.Zero, err
	}
	spent, err := s.spent(ctx, *budget)
	if err != nil {
		return decimal.Zero, err
	}
	return finance.SpendingPercentage(spent, budget.Amount), nil
}

// RemainingAmount returns what is left of the budget, negative when overspent.
func (s *budgetService) RemainingAmount(ctx context.Context, userID, budgetID uint) (decimal.Decimal, error) {
	budget, err := s.GetBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return decimal.Zero, err
	}
	spent, err := s.spent(ctx, *budget)
	if err != nil {
		return decimal.Zero, err
	}
	return finance.RemainingBudget(spent, budget.Amount), nil
}

// GetBudgetProgress calculates spending against the budget over its window.
func (s *budgetService) GetBudgetProgress(ctx context.Context, userID, budgetID uint) (*finance.BudgetProgress, error) {
	budget, err := s.GetBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}

	spent, err := s.spent(ctx, *budget)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.RecentTransactions(ctx, userID, budget.CategoryID, budget.StartDate, budget.EndDate, defaultRecentCount)
	if err != nil {
		return nil, err
	}

	progress := finance.NewBudgetProgress(*budget, spent, recent)
	return &progress, nil
}

// RefreshCurrentSpending stores a fresh spending snapshot on the budget.
func (s *budgetService) RefreshCurrentSpending(ctx context.Context, userID, budgetID uint) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}

	spent, err := s.spent(ctx, *budget)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.Budget{}).
		Where("id = ?", budget.ID).
		Update("current_spending", spent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.CurrentSpending = &spent

	return budget, nil
}

// RecentTransactions returns the newest expenses inside the budget's window.
// A non-positive count falls back to five.
func (s *budgetService) RecentTransactions(ctx context.Context, userID, budgetID uint, count int) ([]models.Transaction, error) {
	if count <= 0 {
		count = defaultRecentCount
	}

	budget, err := s.GetBudgetByID(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}
	return s.store.RecentTransactions(ctx, userID, budget.CategoryID, budget.StartDate, budget.EndDate, count)
}

func budgetItems(budgets []models.Budget) []batchItem[models.Budget] {
	items := make([]batchItem[models.Budget], len(budgets))
	for i, b := range budgets {
		items[i] = batchItem[models.Budget]{id: b.ID, item: b}
	}
	return items
}

// SpendingPercentages computes the spending percentage of every budget
// independently. A budget whose spending cannot be read reports 0.
func (s *budgetService) SpendingPercentages(ctx context.Context, budgets []models.Budget) map[uint]decimal.Decimal {
	return runBatch(ctx, s.log, s.concurrency, "spending_percentage", budgetItems(budgets),
		func(ctx context.Context, b models.Budget) (decimal.Decimal, error) {
			spent, err := s.spent(ctx, b)
			if err != nil {
				return decimal.Zero, err
			}
			return finance.SpendingPercentage(spent, b.Amount), nil
		},
		func(models.Budget) decimal.Decimal { return decimal.Zero },
	)
}

// RemainingAmounts computes the remaining amount of every budget
// independently. A budget whose spending cannot be read reports its full amount.
func (s *budgetService) RemainingAmounts(ctx context.Context, budgets []models.Budget) map[uint]decimal.Decimal {
	return runBatch(ctx, s.log, s.concurrency, "remaining_amount", budgetItems(budgets),
		func(ctx context.Context, b models.Budget) (decimal.Decimal, error) {
			spent, err := s.spent(ctx, b)
			if err != nil {
				return decimal.Zero, err
			}
			return finance.RemainingBudget(spent, b.Amount), nil
		},
		func(b models.Budget) decimal.Decimal { return b.Amount },
	)
}

// ListTemplates returns the system templates followed by the user's own.
func (s *budgetService) ListTemplates(ctx context.Context, userID uint) ([]models.Template, error) {
	var templates []models.Template
	err := s.db.WithContext(ctx).
		Where("(user_id = ? OR is_system = ?)", userID, true).
		Order("is_system DESC").Order("name ASC").
		Find(&templates).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return templates, nil
}

// validateTemplateConfig checks every line of a template before it is
// stored or applied.
func validateTemplateConfig(cfg models.TemplateConfig) error {
	if len(cfg.Categories) == 0 && len(cfg.Budgets) == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidTemplate, "template has no categories or budgets")
	}
	for _, c := range cfg.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidTemplate, "template category name is required")
		}
		if !normaliseCategoryType(c.Type).Valid() {
			return apperrors.WithMessage(apperrors.ErrInvalidTemplate,
				fmt.Sprintf("invalid type for category %q", c.Name))
		}
	}
	for _, line := range cfg.Budgets {
		if strings.TrimSpace(line.Category) == "" {
			return apperrors.WithMessage(apperrors.ErrInvalidTemplate, "template budget category is required")
		}
		if line.Amount.IsNegative() || !line.Amount.Equal(line.Amount.Truncate(2)) {
			return apperrors.WithMessage(apperrors.ErrInvalidTemplate,
				fmt.Sprintf("invalid amount for budget %q", line.Category))
		}
		if !normalisePeriod(line.Period).Valid() {
			return apperrors.WithMessage(apperrors.ErrInvalidTemplate,
				fmt.Sprintf("invalid period for budget %q", line.Category))
		}
	}
	return nil
}

func normalisePeriod(p models.BudgetPeriod) models.BudgetPeriod {
	return models.BudgetPeriod(strings.ToLower(string(p)))
}

func normaliseCategoryType(t models.CategoryType) models.CategoryType {
	return models.CategoryType(strings.ToLower(string(t)))
}

// CreateTemplate stores a custom template owned by the user.
func (s *budgetService) CreateTemplate(ctx context.Context, userID uint, input TemplateInput) (*models.Template, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "template name is required")
	}
	if err := validateTemplateConfig(input.Config); err != nil {
		return nil, err
	}

	data, err := json.Marshal(input.Config)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	template := &models.Template{
		UserID:        &userID,
		Name:          name,
		Description:   input.Description,
		Type:          models.TemplateTypeCustom,
		Configuration: string(data),
	}
	if err := s.db.WithContext(ctx).Create(template).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return template, nil
}

// ApplyTemplate creates the template's missing categories and one budget per
// configured line, each starting on start. Either everything is created or
// nothing is.
func (s *budgetService) ApplyTemplate(ctx context.Context, userID, templateID uint, start time.Time) ([]models.Budget, error) {
	var template models.Template
	err := s.db.WithContext(ctx).
		Where("id = ? AND (user_id = ? OR is_system = ?)", templateID, userID, true).
		First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTemplateNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var cfg models.TemplateConfig
	if err := json.Unmarshal([]byte(template.Configuration), &cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidTemplate, err)
	}
	if err := validateTemplateConfig(cfg); err != nil {
		return nil, err
	}

	if start.IsZero() {
		start = s.now()
	}
	start = finance.StartOfDay(start.UTC())

	var visible []models.Category
	if err := s.db.WithContext(ctx).
		Where("(user_id = ? OR is_system = ?)", userID, true).
		Find(&visible).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	byName := make(map[string]uint, len(visible))
	for _, c := range visible {
		byName[strings.ToLower(c.Name)] = c.ID
	}

	var created []models.Budget
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created = nil

		for _, tc := range cfg.Categories {
			key := strings.ToLower(strings.TrimSpace(tc.Name))
			if _, ok := byName[key]; ok {
				continue
			}
			category := models.Category{
				UserID:    &userID,
				Name:      strings.TrimSpace(tc.Name),
				ColorCode: tc.Color,
				Type:      normaliseCategoryType(tc.Type),
			}
			if err := tx.Create(&category).Error; err != nil {
				return err
			}
			byName[key] = category.ID
		}

		for _, line := range cfg.Budgets {
			categoryID, ok := byName[strings.ToLower(strings.TrimSpace(line.Category))]
			if !ok {
				return apperrors.WithMessage(apperrors.ErrInvalidTemplate,
					fmt.Sprintf("category %q not found", line.Category))
			}
			period := normalisePeriod(line.Period)
			name := line.Name
			if name == "" {
				name = line.Category
			}
			budget := models.Budget{
				UserID:     userID,
				CategoryID: categoryID,
				Name:       name,
				Amount:     line.Amount,
				Period:     period,
				StartDate:  start,
				EndDate:    period.End(start),
			}
			if err := tx.Create(&budget).Error; err != nil {
				return err
			}
			created = append(created, budget)
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if created == nil {
		created = []models.Budget{}
	}
	return created, nil
}
