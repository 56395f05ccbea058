package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "satsbudget/internal/errors"
	"satsbudget/internal/models"
	"satsbudget/internal/satoshi"
)

// reportService answers reporting queries over the transaction history.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

// SpendingBreakdown returns per-category expense totals within a date
// range, largest first, each with its share of the overall spending.
func (s *reportService) SpendingBreakdown(budgetID uint, from, to time.Time) ([]SpendingSlice, error) {
	if err := s.checkBudget(budgetID); err != nil {
		return nil, err
	}

	type row struct {
		CategoryID uint
		Name       string
		Total      int64
	}
	var rows []row
	if err := s.db.Model(&models.Transaction{}).
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.budget_id = ? AND transactions.kind = ? AND transactions.date >= ? AND transactions.date <= ?",
			budgetID, models.TransactionKindExpense, from, to).
		Where("transactions.deleted_at IS NULL").
		Select("transactions.category_id AS category_id, categories.name AS name, COALESCE(SUM(transactions.amount), 0) AS total").
		Group("transactions.category_id, categories.name").
		Order("total DESC").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var grandTotal int64
	for _, r := range rows {
		grandTotal += r.Total
	}

	slices := make([]SpendingSlice, 0, len(rows))
	for _, r := range rows {
		pct := 0.0
		if grandTotal > 0 {
			pct = float64(r.Total) / float64(grandTotal) * 100
		}
		slices = append(slices, SpendingSlice{
			CategoryID: r.CategoryID,
			Name:       r.Name,
			Spent:      satoshi.Amount(r.Total),
			Percentage: pct,
		})
	}
	return slices, nil
}

// NetWorth returns cumulative income minus expenses up to a date. The net
// figure is signed; transfers are budget-neutral and excluded.
func (s *reportService) NetWorth(budgetID uint, asOf time.Time) (*NetWorthReport, error) {
	if err := s.checkBudget(budgetID); err != nil {
		return nil, err
	}

	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	sumKind := func(kind models.TransactionKind) (int64, error) {
		var total int64
		if err := s.db.Model(&models.Transaction{}).
			Where("budget_id = ? AND kind = ? AND date <= ?", budgetID, kind, asOf).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&total).Error; err != nil {
			return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return total, nil
	}

	income, err := sumKind(models.TransactionKindIncome)
	if err != nil {
		return nil, err
	}
	expense, err := sumKind(models.TransactionKindExpense)
	if err != nil {
		return nil, err
	}

	net := income - expense
	netBTC := satoshi.Amount(net).FormatBTC()
	if net < 0 {
		netBTC = "-" + satoshi.Amount(-net).FormatBTC()
	}

	return &NetWorthReport{
		AsOf:         asOf,
		TotalIncome:  satoshi.Amount(income),
		TotalExpense: satoshi.Amount(expense),
		NetWorth:     net,
		NetWorthBTC:  netBTC,
	}, nil
}

func (s *reportService) checkBudget(budgetID uint) error {
	var budget models.Budget
	if err := s.db.First(&budget, budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrBudgetNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
