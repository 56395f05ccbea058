package services

import (
	"time"

	"satsbudget/internal/models"
	"satsbudget/internal/pagination"
	"satsbudget/internal/satoshi"
)

// BudgetServicer defines the contract for budget aggregate operations.
type BudgetServicer interface {
	CreateBudget(name string) (*models.Budget, error)
	GetBudgetByID(budgetID uint) (*models.Budget, error)
	ListBudgets(page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(budgetID uint, name, description, color string, parentID *uint) (*models.Category, error)
	GetBudgetCategories(budgetID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(budgetID, categoryID uint) (*models.Category, error)
	UpdateCategory(budgetID, categoryID uint, name, description, color string, parentID *uint) (*models.Category, error)
	DeleteCategory(budgetID, categoryID uint) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Kind       *models.TransactionKind
	CategoryID *uint
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(budgetID uint, categoryID *uint, kind models.TransactionKind, amount satoshi.Amount, description string, date time.Time) (*models.Transaction, error)
	GetBudgetTransactions(budgetID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(budgetID, transactionID uint) (*models.Transaction, error)
	DeleteTransaction(budgetID, transactionID uint) error
	TotalIncome(budgetID uint) (satoshi.Amount, error)
}

// PeriodServicer defines the contract for the monthly period state machine
// and its allocation bookkeeping.
type PeriodServicer interface {
	CreatePeriod(budgetID uint, year, month int) (*models.BudgetPeriod, error)
	GetPeriodByID(budgetID, periodID uint) (*models.BudgetPeriod, error)
	FindPeriod(budgetID uint, year, month int) (*models.BudgetPeriod, error)
	ListPeriods(budgetID uint, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetPeriod], error)
	Allocate(budgetID, periodID, categoryID uint, amount satoshi.Amount) (*models.Allocation, error)
	AddRollover(budgetID, periodID, categoryID uint, rollover, newAllocation satoshi.Amount) (*models.Allocation, error)
	GetAllocations(budgetID, periodID uint) ([]models.Allocation, error)
	TotalAllocated(budgetID, periodID uint) (satoshi.Amount, error)
	ClosePeriod(budgetID, periodID uint) (*models.BudgetPeriod, error)
	ReopenPeriod(budgetID, periodID uint) (*models.BudgetPeriod, error)
}

// TransitionResult reports the outcome of a month transition: the successor
// period and the per-category carry-forward amounts.
type TransitionResult struct {
	NewPeriodID   uint                    `json:"new_period_id"`
	Year          int                     `json:"year"`
	Month         int                     `json:"month"`
	Rollovers     map[uint]satoshi.Amount `json:"rollovers"`
	Overspends    map[uint]satoshi.Amount `json:"overspends"`
	TotalRollover satoshi.Amount          `json:"total_rollover"`
	CurrentClosed bool                    `json:"current_closed"`
}

// RolloverServicer defines the contract for the period transition engine.
type RolloverServicer interface {
	TransitionToNextMonth(budgetID, currentPeriodID uint, newAllocations map[uint]satoshi.Amount, closeCurrent bool) (*TransitionResult, error)
}

// CategorySummary is one row of a budget summary: a category's allocation,
// spending, and remaining envelope balance for a period. Remaining is
// signed; a negative value is the overspend signal for the UI.
type CategorySummary struct {
	CategoryID uint           `json:"category_id"`
	Name       string         `json:"name"`
	Allocated  satoshi.Amount `json:"allocated"`
	Rollover   satoshi.Amount `json:"rollover"`
	Spent      satoshi.Amount `json:"spent"`
	Remaining  int64          `json:"remaining"`
	Overspent  bool           `json:"overspent"`
}

// BudgetSummary aggregates a period's ledger for display.
type BudgetSummary struct {
	PeriodID          uint              `json:"period_id"`
	Year              int               `json:"year"`
	Month             int               `json:"month"`
	Closed            bool              `json:"closed"`
	TotalIncome       satoshi.Amount    `json:"total_income"`
	TotalAllocated    satoshi.Amount    `json:"total_allocated"`
	AvailableToAssign satoshi.Amount    `json:"available_to_assign"`
	Categories        []CategorySummary `json:"categories"`
}

// SummaryServicer defines the read-only projections over the ledger.
// All methods recompute from transactions and allocations on demand;
// nothing is cached or denormalized.
type SummaryServicer interface {
	AvailableToAssign(budgetID, periodID uint) (satoshi.Amount, error)
	CategorySpent(budgetID, categoryID uint, from, to time.Time) (satoshi.Amount, error)
	CategoryRemaining(budgetID, periodID, categoryID uint) (*CategorySummary, error)
	GetBudgetSummary(budgetID, periodID uint) (*BudgetSummary, error)
}

// SpendingSlice is one category's share of spending over a date range.
type SpendingSlice struct {
	CategoryID uint           `json:"category_id"`
	Name       string         `json:"name"`
	Spent      satoshi.Amount `json:"spent"`
	Percentage float64        `json:"percentage"`
}

// NetWorthReport is the cumulative income minus expenses up to a date.
type NetWorthReport struct {
	AsOf         time.Time      `json:"as_of"`
	TotalIncome  satoshi.Amount `json:"total_income"`
	TotalExpense satoshi.Amount `json:"total_expense"`
	NetWorth     int64          `json:"net_worth"`
	NetWorthBTC  string         `json:"net_worth_btc"`
}

// ReportServicer defines the contract for reporting queries.
type ReportServicer interface {
	SpendingBreakdown(budgetID uint, from, to time.Time) ([]SpendingSlice, error)
	NetWorth(budgetID uint, asOf time.Time) (*NetWorthReport, error)
}
