package services

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "satsbudget/internal/errors"
	"satsbudget/internal/models"
	"satsbudget/internal/satoshi"
)

// rolloverService implements the month transition: close out the current
// period, carry unspent envelope balances into a fresh successor period,
// and seed it with the caller's new funding.
type rolloverService struct {
	db *gorm.DB
}

// NewRolloverService creates a new RolloverServicer.
func NewRolloverService(db *gorm.DB) RolloverServicer {
	return &rolloverService{db: db}
}

// TransitionToNextMonth moves a budget from its current period to the next
// calendar month.
//
// For every allocation in the current period, the unspent portion
// (max(0, allocated - spent)) rolls into the successor period; spending past
// the allocation is reported as overspend but never deducted from another
// category. newAllocations supplies the caller's fresh funding per category
// for the new month. The operation is not idempotent: if the successor
// period already exists it fails with PERIOD_ALREADY_EXISTS and changes
// nothing.
//
// Everything is computed and validated before the first write; the writes
// themselves run in one database transaction, so callers never observe a
// half-populated successor period.
func (s *rolloverService) TransitionToNextMonth(
	budgetID uint,
	currentPeriodID uint,
	newAllocations map[uint]satoshi.Amount,
	closeCurrent bool,
) (*TransitionResult, error) {
	// Step 1: the current period must belong to the budget.
	var current models.BudgetPeriod
	if err := s.db.Where("id = ? AND budget_id = ?", currentPeriodID, budgetID).
		First(&current).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if closeCurrent && current.Closed {
		return nil, apperrors.ErrPeriodAlreadyClosed
	}

	// Step 2: calendar coordinates of the successor month.
	nextYear, nextMonth := current.NextPeriod()

	// Step 3: refuse a duplicate successor.
	var count int64
	if err := s.db.Model(&models.BudgetPeriod{}).
		Where("budget_id = ? AND year = ? AND month = ?", budgetID, nextYear, nextMonth).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrPeriodAlreadyExists
	}

	// Fresh funding may only name categories of this budget.
	for categoryID := range newAllocations {
		if err := s.checkCategory(budgetID, categoryID); err != nil {
			return nil, err
		}
	}

	// Step 4: per-category spending within the current period's window.
	spent, err := s.expensesByCategory(budgetID, current.StartDate(), current.EndDate())
	if err != nil {
		return nil, err
	}

	var allocations []models.Allocation
	if err := s.db.Where("period_id = ?", current.ID).Find(&allocations).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Step 5: rollover and overspend per allocation. Exactly one of the two
	// is non-zero unless allocated == spent.
	rollovers := make(map[uint]satoshi.Amount)
	overspends := make(map[uint]satoshi.Amount)
	var totalRollover satoshi.Amount
	for _, alloc := range allocations {
		used := spent[alloc.CategoryID]
		if alloc.Amount > used {
			rollover := alloc.Amount - used
			rollovers[alloc.CategoryID] = rollover
			totalRollover, err = totalRollover.Add(rollover)
			if err != nil {
				return nil, err
			}
		} else if used > alloc.Amount {
			overspends[alloc.CategoryID] = used - alloc.Amount
		}
	}

	// Build the successor's allocation rows up front so every Add is checked
	// before anything is written.
	seeded := make(map[uint]bool)
	var newRows []models.Allocation
	appendRow := func(categoryID uint) error {
		rollover := rollovers[categoryID]
		fresh := newAllocations[categoryID]
		if rollover.IsZero() && fresh.IsZero() {
			return nil
		}
		total, err := rollover.Add(fresh)
		if err != nil {
			return err
		}
		newRows = append(newRows, models.Allocation{
			CategoryID:     categoryID,
			Amount:         total,
			RolloverAmount: rollover,
			NewAllocation:  fresh,
		})
		seeded[categoryID] = true
		return nil
	}
	// Sorted iteration keeps insertion order deterministic.
	for _, categoryID := range sortedKeys(rollovers) {
		if err := appendRow(categoryID); err != nil {
			return nil, err
		}
	}
	for _, categoryID := range sortedKeys(newAllocations) {
		if seeded[categoryID] {
			continue
		}
		if err := appendRow(categoryID); err != nil {
			return nil, err
		}
	}

	successor, err := models.NewBudgetPeriod(budgetID, nextYear, nextMonth)
	if err != nil {
		return nil, err
	}

	// Steps 6-8: all writes in one transaction.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(successor).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for i := range newRows {
			newRows[i].PeriodID = successor.ID
			if err := tx.Create(&newRows[i]).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if closeCurrent {
			if err := current.Close(time.Now().UTC()); err != nil {
				return err
			}
			if err := tx.Model(&current).
				Select("closed", "closed_at").
				Updates(map[string]interface{}{
					"closed":    current.Closed,
					"closed_at": current.ClosedAt,
				}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Step 9.
	return &TransitionResult{
		NewPeriodID:   successor.ID,
		Year:          nextYear,
		Month:         nextMonth,
		Rollovers:     rollovers,
		Overspends:    overspends,
		TotalRollover: totalRollover,
		CurrentClosed: closeCurrent,
	}, nil
}

// expensesByCategory sums expense transactions per category within a window.
func (s *rolloverService) expensesByCategory(budgetID uint, from, to time.Time) (map[uint]satoshi.Amount, error) {
	type row struct {
		CategoryID uint
		Total      int64
	}
	var rows []row
	if err := s.db.Model(&models.Transaction{}).
		Where("budget_id = ? AND kind = ? AND category_id IS NOT NULL AND date >= ? AND date <= ?",
			budgetID, models.TransactionKindExpense, from, to).
		Select("category_id, COALESCE(SUM(amount), 0) AS total").
		Group("category_id").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	spent := make(map[uint]satoshi.Amount, len(rows))
	for _, r := range rows {
		spent[r.CategoryID] = satoshi.Amount(r.Total)
	}
	return spent, nil
}

func (s *rolloverService) checkCategory(budgetID, categoryID uint) error {
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

func sortedKeys(m map[uint]satoshi.Amount) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
