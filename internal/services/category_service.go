package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "financemanager/internal/errors"
	"financemanager/internal/models"
	"financemanager/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// visibleTo restricts a query to the user's own categories and the system ones.
func visibleTo(userID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(user_id = ? OR is_system = ?)", userID, true)
	}
}

// CreateCategory creates a new category owned by the user
func (s *categoryService) CreateCategory(ctx context.Context, userID uint, input CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	if err := s.ensureUniqueName(ctx, userID, name, 0); err != nil {
		return nil, err
	}

	category := &models.Category{
		UserID:      &userID,
		Name:        name,
		Description: input.Description,
		ColorCode:   input.ColorCode,
		Type:        input.Type,
	}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// ensureUniqueName rejects a name already used by one of the user's
// categories or a system category. excludeID skips the category being renamed.
func (s *categoryService) ensureUniqueName(ctx context.Context, userID uint, name string, excludeID uint) error {
	var count int64
	query := s.db.WithContext(ctx).Model(&models.Category{}).
		Scopes(visibleTo(userID)).
		Where("LOWER(name) = ?", strings.ToLower(name))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategory
	}
	return nil
}

// GetUserCategories retrieves a paginated list of the categories a user can
// see, optionally restricted to one type. System categories come first.
func (s *categoryService) GetUserCategories(ctx context.Context, userID uint, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Category{}).Scopes(visibleTo(userID))
	if categoryType != nil {
		base = base.Where("type = ?", *categoryType)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Order("is_system DESC").Order("name ASC").
		Scopes(pagination.Paginate(page)).
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category visible to the user
func (s *categoryService) GetCategoryByID(ctx context.Context, userID, categoryID uint) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).Scopes(visibleTo(userID)).
		Where("id = ?", categoryID).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// ownedCategory loads a category the user may modify.
func (s *categoryService) ownedCategory(ctx context.Context, userID, categoryID uint) (*models.Category, error) {
	category, err := s.GetCategoryByID(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.IsSystem {
		return nil, apperrors.ErrSystemCategory
	}
	return category, nil
}

// UpdateCategory applies the patch to one of the user's categories
func (s *categoryService) UpdateCategory(ctx context.Context, userID, categoryID uint, patch CategoryPatch) (*models.Category, error) {
	category, err := s.ownedCategory(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name cannot be empty")
		}
		if err := s.ensureUniqueName(ctx, userID, name, category.ID); err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.ColorCode != nil {
		updates["color_code"] = *patch.ColorCode
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// DeleteCategory soft-deletes one of the user's categories. Categories that
// transactions or budgets still reference cannot be deleted.
func (s *categoryService) DeleteCategory(ctx context.Context, userID, categoryID uint) error {
	category, err := s.ownedCategory(ctx, userID, categoryID)
	if err != nil {
		return err
	}

	for _, model := range []interface{}{&models.Transaction{}, &models.Budget{}} {
		var refs int64
		if err := s.db.WithContext(ctx).Model(model).Where("category_id = ?", category.ID).Count(&refs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if refs > 0 {
			return apperrors.ErrCategoryInUse
		}
	}

	if err := s.db.WithContext(ctx).Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
