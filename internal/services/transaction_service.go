package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "financemanager/internal/errors"
	"financemanager/internal/finance"
	"financemanager/internal/models"
	"financemanager/internal/pagination"
	"financemanager/internal/validator"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db              *gorm.DB
	categoryService CategoryServicer
	now             func() time.Time
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, categoryService CategoryServicer) TransactionServicer {
	return &transactionService{
		db:              db,
		categoryService: categoryService,
		now:             time.Now,
	}
}

// CreateTransaction records an income or expense for the user. A recurring
// transaction becomes the template the recurring sweep copies from; its first
// repetition is one period after Date.
func (s *transactionService) CreateTransaction(ctx context.Context, userID uint, input TransactionInput) (*models.Transaction, error) {
	if !validator.IsMoney(input.Amount) {
		return nil, apperrors.ErrInvalidAmount
	}
	if !input.Type.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if input.Recurrence != nil && !input.Recurrence.Valid() {
		return nil, apperrors.ErrInvalidRecurrence
	}

	if _, err := s.categoryService.GetCategoryByID(ctx, userID, input.CategoryID); err != nil {
		return nil, err
	}

	date := input.Date
	if date.IsZero() {
		date = s.now()
	}

	transaction := &models.Transaction{
		UserID:      userID,
		CategoryID:  input.CategoryID,
		Type:        input.Type,
		Amount:      input.Amount,
		Date:        date.UTC(),
		Description: input.Description,
	}
	if input.Recurrence != nil {
		pattern := *input.Recurrence
		next := pattern.Next(transaction.Date)
		transaction.IsRecurring = true
		transaction.RecurrencePattern = &pattern
		transaction.NextRecurrenceDate = &next
	}

	if err := s.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetTransactionByID(ctx, userID, transaction.ID)
}

// GetUserTransactions retrieves a paginated, filtered list of the user's transactions.
func (s *transactionService) GetUserTransactions(ctx context.Context, userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Scopes(pagination.Paginate(page)).
		Order("date DESC").Order("id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page, totalItems)
	return &result, nil
}

// applyTransactionFilters narrows q by every filter that is set. Date
// bounds cover whole days.
func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", finance.StartOfDay(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", finance.EndOfDay(*f.ToDate))
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	if f.GoalID != nil {
		q = q.Where("goal_id = ?", *f.GoalID)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.WithContext(ctx).
		Preload("Category", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// editableTransaction loads a transaction the user may change. Goal
// contributions are additive only and stay as recorded.
func (s *transactionService) editableTransaction(ctx context.Context, userID, transactionID uint) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.GoalID != nil {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "goal contributions cannot be changed")
	}
	return transaction, nil
}

// UpdateTransaction applies the patch as explicit column updates.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, transactionID uint, patch TransactionPatch) (*models.Transaction, error) {
	transaction, err := s.editableTransaction(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.CategoryID != nil {
		if _, err := s.categoryService.GetCategoryByID(ctx, userID, *patch.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *patch.CategoryID
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, apperrors.ErrInvalidTransactionType
		}
		updates["type"] = *patch.Type
	}
	if patch.Amount != nil {
		if !validator.IsMoney(*patch.Amount) {
			return nil, apperrors.ErrInvalidAmount
		}
		updates["amount"] = *patch.Amount
	}
	date := transaction.Date
	if patch.Date != nil {
		date = patch.Date.UTC()
		updates["date"] = date
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}

	switch {
	case patch.StopRecurring:
		updates["is_recurring"] = false
		updates["recurrence_pattern"] = nil
		updates["next_recurrence_date"] = nil
	case patch.Recurrence != nil:
		if !patch.Recurrence.Valid() {
			return nil, apperrors.ErrInvalidRecurrence
		}
		updates["is_recurring"] = true
		updates["recurrence_pattern"] = *patch.Recurrence
		updates["next_recurrence_date"] = patch.Recurrence.Next(date)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
			Where("id = ?", transaction.ID).
			Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetTransactionByID(ctx, userID, transaction.ID)
}

// DeleteTransaction soft-deletes a transaction
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID uint) error {
	transaction, err := s.editableTransaction(ctx, userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
