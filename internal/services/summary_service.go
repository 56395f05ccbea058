package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "satsbudget/internal/errors"
	"satsbudget/internal/models"
	"satsbudget/internal/satoshi"
)

// summaryService computes the read-side projections. Every figure is
// recomputed from transactions and allocations on demand; nothing is
// cached or denormalized.
type summaryService struct {
	db           *gorm.DB
	transactions TransactionServicer
	periods      PeriodServicer
}

// NewSummaryService creates a new SummaryServicer.
func NewSummaryService(db *gorm.DB, transactions TransactionServicer, periods PeriodServicer) SummaryServicer {
	return &summaryService{db: db, transactions: transactions, periods: periods}
}

// AvailableToAssign returns income not yet allocated in the period,
// floored at zero.
func (s *summaryService) AvailableToAssign(budgetID, periodID uint) (satoshi.Amount, error) {
	income, err := s.transactions.TotalIncome(budgetID)
	if err != nil {
		return 0, err
	}
	allocated, err := s.periods.TotalAllocated(budgetID, periodID)
	if err != nil {
		return 0, err
	}
	if allocated >= income {
		return 0, nil
	}
	return income - allocated, nil
}

// CategorySpent sums a category's expense transactions within a date range.
func (s *summaryService) CategorySpent(budgetID, categoryID uint, from, to time.Time) (satoshi.Amount, error) {
	var total int64
	if err := s.db.Model(&models.Transaction{}).
		Where("budget_id = ? AND category_id = ? AND kind = ? AND date >= ? AND date <= ?",
			budgetID, categoryID, models.TransactionKindExpense, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return satoshi.Amount(total), nil
}

// CategoryRemaining returns one category's envelope balance for a period.
// Remaining is signed: a negative value means the category is overspent.
// A category without an allocation in the period has a zero envelope, so
// any spending shows up as overspend.
func (s *summaryService) CategoryRemaining(budgetID, periodID, categoryID uint) (*CategorySummary, error) {
	period, err := s.periods.GetPeriodByID(budgetID, periodID)
	if err != nil {
		return nil, err
	}

	var category models.Category
	if err := s.db.Where("id = ? AND budget_id = ?", categoryID, budgetID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var allocation models.Allocation
	err = s.db.Where("period_id = ? AND category_id = ?", periodID, categoryID).First(&allocation).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	spent, err := s.CategorySpent(budgetID, categoryID, period.StartDate(), period.EndDate())
	if err != nil {
		return nil, err
	}

	remaining := allocation.Amount.Int64() - spent.Int64()
	return &CategorySummary{
		CategoryID: categoryID,
		Name:       category.Name,
		Allocated:  allocation.Amount,
		Rollover:   allocation.RolloverAmount,
		Spent:      spent,
		Remaining:  remaining,
		Overspent:  remaining < 0,
	}, nil
}

// GetBudgetSummary assembles the full period dashboard: the headline
// totals plus one row per allocated category.
func (s *summaryService) GetBudgetSummary(budgetID, periodID uint) (*BudgetSummary, error) {
	period, err := s.periods.GetPeriodByID(budgetID, periodID)
	if err != nil {
		return nil, err
	}

	income, err := s.transactions.TotalIncome(budgetID)
	if err != nil {
		return nil, err
	}
	allocated, err := s.periods.TotalAllocated(budgetID, periodID)
	if err != nil {
		return nil, err
	}
	available := satoshi.Amount(0)
	if income > allocated {
		available = income - allocated
	}

	allocations, err := s.periods.GetAllocations(budgetID, periodID)
	if err != nil {
		return nil, err
	}

	categories := make([]CategorySummary, 0, len(allocations))
	for _, alloc := range allocations {
		spent, err := s.CategorySpent(budgetID, alloc.CategoryID, period.StartDate(), period.EndDate())
		if err != nil {
			return nil, err
		}
		name := ""
		if alloc.Category != nil {
			name = alloc.Category.Name
		}
		remaining := alloc.Amount.Int64() - spent.Int64()
		categories = append(categories, CategorySummary{
			CategoryID: alloc.CategoryID,
			Name:       name,
			Allocated:  alloc.Amount,
			Rollover:   alloc.RolloverAmount,
			Spent:      spent,
			Remaining:  remaining,
			Overspent:  remaining < 0,
		})
	}

	return &BudgetSummary{
		PeriodID:          period.ID,
		Year:              period.Year,
		Month:             period.Month,
		Closed:            period.Closed,
		TotalIncome:       income,
		TotalAllocated:    allocated,
		AvailableToAssign: available,
		Categories:        categories,
	}, nil
}
