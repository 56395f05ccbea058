package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "satsbudget/internal/errors"
	"satsbudget/internal/models"
	"satsbudget/internal/pagination"
	"satsbudget/internal/satoshi"
)

// periodService handles the monthly period state machine and allocation
// bookkeeping.
type periodService struct {
	db *gorm.DB
}

// NewPeriodService creates a new PeriodServicer.
func NewPeriodService(db *gorm.DB) PeriodServicer {
	return &periodService{db: db}
}

// CreatePeriod opens a fresh period for the given month. A budget holds at
// most one period per (year, month); a duplicate is refused.
func (s *periodService) CreatePeriod(budgetID uint, year, month int) (*models.BudgetPeriod, error) {
	// Verify the budget exists
	var budget models.Budget
	if err := s.db.First(&budget, budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	period, err := models.NewBudgetPeriod(budgetID, year, month)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.BudgetPeriod{}).
		Where("budget_id = ? AND year = ? AND month = ?", budgetID, year, month).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrPeriodAlreadyExists
	}

	if err := s.db.Create(period).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return period, nil
}

// GetPeriodByID retrieves a period by ID within a budget.
func (s *periodService) GetPeriodByID(budgetID, periodID uint) (*models.BudgetPeriod, error) {
	var period models.BudgetPeriod
	if err := s.db.Where("id = ? AND budget_id = ?", periodID, budgetID).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &period, nil
}

// FindPeriod retrieves a period by its calendar coordinates.
func (s *periodService) FindPeriod(budgetID uint, year, month int) (*models.BudgetPeriod, error) {
	var period models.BudgetPeriod
	if err := s.db.Where("budget_id = ? AND year = ? AND month = ?", budgetID, year, month).
		First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &period, nil
}

// ListPeriods returns a budget's periods, most recent month first.
func (s *periodService) ListPeriods(budgetID uint, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetPeriod], error) {
	page.Defaults()

	base := s.db.Model(&models.BudgetPeriod{}).Where("budget_id = ?", budgetID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var periods []models.BudgetPeriod
	if err := base.Scopes(pagination.Paginate(page)).
		Order("year DESC, month DESC").
		Find(&periods).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(periods, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Allocate sets a category's total allocation for an open period. The
// rollover portion already recorded is preserved and the fresh portion
// absorbs the change; setting a total below the recorded rollover shrinks
// the rollover to the total so the decomposition always sums exactly.
func (s *periodService) Allocate(budgetID, periodID, categoryID uint, amount satoshi.Amount) (*models.Allocation, error) {
	period, err := s.GetPeriodByID(budgetID, periodID)
	if err != nil {
		return nil, err
	}
	if period.Closed {
		return nil, apperrors.ErrPeriodClosed
	}

	if err := s.checkCategory(budgetID, categoryID); err != nil {
		return nil, err
	}

	var allocation models.Allocation
	err = s.db.Where("period_id = ? AND category_id = ?", periodID, categoryID).First(&allocation).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		allocation = models.Allocation{
			PeriodID:       periodID,
			CategoryID:     categoryID,
			Amount:         amount,
			RolloverAmount: 0,
			NewAllocation:  amount,
		}
		if err := s.db.Create(&allocation).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &allocation, nil
	case err != nil:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	rollover := allocation.RolloverAmount
	if rollover > amount {
		rollover = amount
	}
	allocation.Amount = amount
	allocation.RolloverAmount = rollover
	allocation.NewAllocation = amount - rollover

	if err := s.db.Model(&allocation).
		Select("amount", "rollover_amount", "new_allocation").
		Updates(map[string]interface{}{
			"amount":          allocation.Amount,
			"rollover_amount": allocation.RolloverAmount,
			"new_allocation":  allocation.NewAllocation,
		}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &allocation, nil
}

// AddRollover sets a category's allocation for an open period from its two
// components: the carried-over amount and the fresh assignment. An existing
// allocation for the category is replaced, not accumulated. The total is the
// checked sum of the parts.
func (s *periodService) AddRollover(budgetID, periodID, categoryID uint, rollover, newAllocation satoshi.Amount) (*models.Allocation, error) {
	period, err := s.GetPeriodByID(budgetID, periodID)
	if err != nil {
		return nil, err
	}
	if period.Closed {
		return nil, apperrors.ErrPeriodClosed
	}

	if err := s.checkCategory(budgetID, categoryID); err != nil {
		return nil, err
	}

	total, err := rollover.Add(newAllocation)
	if err != nil {
		return nil, err
	}

	var allocation models.Allocation
	err = s.db.Where("period_id = ? AND category_id = ?", periodID, categoryID).First(&allocation).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		allocation = models.Allocation{
			PeriodID:       periodID,
			CategoryID:     categoryID,
			Amount:         total,
			RolloverAmount: rollover,
			NewAllocation:  newAllocation,
		}
		if err := s.db.Create(&allocation).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &allocation, nil
	case err != nil:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	allocation.Amount = total
	allocation.RolloverAmount = rollover
	allocation.NewAllocation = newAllocation

	if err := s.db.Model(&allocation).
		Select("amount", "rollover_amount", "new_allocation").
		Updates(map[string]interface{}{
			"amount":          allocation.Amount,
			"rollover_amount": allocation.RolloverAmount,
			"new_allocation":  allocation.NewAllocation,
		}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &allocation, nil
}

// GetAllocations returns a period's allocations with their categories.
func (s *periodService) GetAllocations(budgetID, periodID uint) ([]models.Allocation, error) {
	if _, err := s.GetPeriodByID(budgetID, periodID); err != nil {
		return nil, err
	}

	var allocations []models.Allocation
	if err := s.db.Where("period_id = ?", periodID).
		Preload("Category").
		Order("category_id").
		Find(&allocations).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return allocations, nil
}

// TotalAllocated sums a period's allocation totals.
func (s *periodService) TotalAllocated(budgetID, periodID uint) (satoshi.Amount, error) {
	if _, err := s.GetPeriodByID(budgetID, periodID); err != nil {
		return 0, err
	}

	var total int64
	if err := s.db.Model(&models.Allocation{}).
		Where("period_id = ?", periodID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return satoshi.Amount(total), nil
}

// ClosePeriod closes an open period, freezing its allocations.
func (s *periodService) ClosePeriod(budgetID, periodID uint) (*models.BudgetPeriod, error) {
	period, err := s.GetPeriodByID(budgetID, periodID)
	if err != nil {
		return nil, err
	}

	if err := period.Close(time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := s.db.Model(period).
		Select("closed", "closed_at").
		Updates(map[string]interface{}{
			"closed":    period.Closed,
			"closed_at": period.ClosedAt,
		}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return period, nil
}

// ReopenPeriod reverses a premature close and makes the period mutable again.
func (s *periodService) ReopenPeriod(budgetID, periodID uint) (*models.BudgetPeriod, error) {
	period, err := s.GetPeriodByID(budgetID, periodID)
	if err != nil {
		return nil, err
	}

	if err := period.Reopen(); err != nil {
		return nil, err
	}

	// Select lists the columns explicitly so the false/nil zero values are written.
	if err := s.db.Model(period).
		Select("closed", "closed_at").
		Updates(map[string]interface{}{
			"closed":    period.Closed,
			"closed_at": period.ClosedAt,
		}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return period, nil
}

// checkCategory verifies the category exists and belongs to the budget.
func (s *periodService) checkCategory(budgetID, categoryID uint) error {
	var category models.Category
	if err := s.db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if category.BudgetID != budgetID {
		return apperrors.ErrCategoryBudgetMismatch
	}
	return nil
}
