package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "satsbudget/internal/errors"
	"satsbudget/internal/models"
	"satsbudget/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new spending envelope in the budget.
func (s *categoryService) CreateCategory(
	budgetID uint,
	name string,
	description string,
	color string,
	parentID *uint,
) (*models.Category, error) {
	// Validate input
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	// Verify the budget exists
	var budget models.Budget
	if err := s.db.First(&budget, budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Category names are unique within a budget
	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("budget_id = ? AND name = ?", budgetID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category with this name already exists")
	}

	// If parentID is provided, check that it exists and belongs to the same budget
	if parentID != nil {
		if _, err := s.GetCategoryByID(budgetID, *parentID); err != nil {
			return nil, err
		}
	}

	category := &models.Category{
		BudgetID:    budgetID,
		Name:        name,
		Description: description,
		Color:       color,
		ParentID:    parentID,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetBudgetCategories retrieves a paginated list of categories in a budget.
func (s *categoryService) GetBudgetCategories(budgetID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Category{}).Where("budget_id = ?", budgetID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Scopes(pagination.Paginate(page)).Order("name").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category by ID within a budget.
func (s *categoryService) GetCategoryByID(budgetID, categoryID uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND budget_id = ?", categoryID, budgetID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory renames a category or moves it under a different parent.
func (s *categoryService) UpdateCategory(
	budgetID uint,
	categoryID uint,
	name string,
	description string,
	color string,
	parentID *uint,
) (*models.Category, error) {
	category, err := s.GetCategoryByID(budgetID, categoryID)
	if err != nil {
		return nil, err
	}

	// Renames must stay unique within the budget
	if name != "" && name != category.Name {
		var count int64
		if err := s.db.Model(&models.Category{}).
			Where("budget_id = ? AND name = ? AND id <> ?", budgetID, name, categoryID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category with this name already exists")
		}
	}

	// If parentID is provided, check that it exists, belongs to the budget,
	// and is not the category itself
	if parentID != nil && *parentID != 0 {
		if *parentID == categoryID {
			return nil, apperrors.ErrSelfParentCategory
		}
		if _, err := s.GetCategoryByID(budgetID, *parentID); err != nil {
			return nil, err
		}
	}

	// Update fields if provided
	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}
	if color != "" {
		updates["color"] = color
	}
	if parentID != nil {
		if *parentID == 0 {
			updates["parent_id"] = nil
		} else {
			updates["parent_id"] = parentID
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// DeleteCategory deletes a category. A category that still has transactions
// cannot be deleted; its allocations are removed along with it.
func (s *categoryService) DeleteCategory(budgetID, categoryID uint) error {
	category, err := s.GetCategoryByID(budgetID, categoryID)
	if err != nil {
		return err
	}

	var txCount int64
	if err := s.db.Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&txCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if txCount > 0 {
		return apperrors.ErrCategoryInUse
	}

	var childCount int64
	if err := s.db.Model(&models.Category{}).Where("parent_id = ?", categoryID).Count(&childCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if childCount > 0 {
		return apperrors.ErrCategoryHasChildren
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// Allocations are cascaded; hard delete so the (period, category)
		// unique index never traps a ghost row.
		if err := tx.Unscoped().Where("category_id = ?", categoryID).Delete(&models.Allocation{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
