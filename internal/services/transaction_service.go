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

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction records a ledger entry. Amounts are strictly positive;
// an expense must name a category in the same budget, income and transfers
// may leave the category unset. A zero date defaults to now.
func (s *transactionService) CreateTransaction(
	budgetID uint,
	categoryID *uint,
	kind models.TransactionKind,
	amount satoshi.Amount,
	description string,
	date time.Time,
) (*models.Transaction, error) {
	switch kind {
	case models.TransactionKindIncome, models.TransactionKindExpense, models.TransactionKindTransfer:
	default:
		return nil, apperrors.ErrInvalidTransactionKind
	}

	if amount.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transaction amount must be positive")
	}

	// Verify the budget exists
	var budget models.Budget
	if err := s.db.First(&budget, budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if kind == models.TransactionKindExpense && categoryID == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "expense transactions require a category")
	}

	// If a category is named, it must belong to this budget
	if categoryID != nil {
		var category models.Category
		if err := s.db.Where("id = ? AND budget_id = ?", *categoryID, budgetID).First(&category).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrCategoryBudgetMismatch
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if date.IsZero() {
		date = time.Now().UTC()
	}

	transaction := &models.Transaction{
		BudgetID:    budgetID,
		CategoryID:  categoryID,
		Kind:        kind,
		Amount:      amount,
		Description: description,
		Date:        date,
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return transaction, nil
}

// GetBudgetTransactions retrieves a paginated, filtered list of transactions
// for a budget, newest first.
func (s *transactionService) GetBudgetTransactions(
	budgetID uint,
	page pagination.PageRequest,
	filter TransactionFilter,
) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("budget_id = ?", budgetID)
	if filter.FromDate != nil {
		base = base.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		base = base.Where("date <= ?", *filter.ToDate)
	}
	if filter.Kind != nil {
		base = base.Where("kind = ?", *filter.Kind)
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Category").
		Order("date DESC, id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTransactionByID retrieves a single transaction within a budget.
func (s *transactionService) GetTransactionByID(budgetID, transactionID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND budget_id = ?", transactionID, budgetID).
		Preload("Category").
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// DeleteTransaction removes a ledger entry. Summaries recompute from the
// remaining rows, so no balances need adjusting here.
func (s *transactionService) DeleteTransaction(budgetID, transactionID uint) error {
	transaction, err := s.GetTransactionByID(budgetID, transactionID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// TotalIncome sums all income transactions for a budget across its history.
func (s *transactionService) TotalIncome(budgetID uint) (satoshi.Amount, error) {
	var total int64
	if err := s.db.Model(&models.Transaction{}).
		Where("budget_id = ? AND kind = ?", budgetID, models.TransactionKindIncome).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return satoshi.Amount(total), nil
}
