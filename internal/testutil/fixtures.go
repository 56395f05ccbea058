package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"satsbudget/internal/models"
	"satsbudget/internal/satoshi"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestBudget creates a budget with a unique name.
func CreateTestBudget(t *testing.T, db *gorm.DB) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		Name: fmt.Sprintf("Test Budget %d", nextID()),
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestCategory creates a category with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB, budgetID uint) *models.Category {
	t.Helper()

	category := &models.Category{
		BudgetID: budgetID,
		Name:     fmt.Sprintf("Test Category %d", nextID()),
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestPeriod creates an open budget period for the given month.
func CreateTestPeriod(t *testing.T, db *gorm.DB, budgetID uint, year, month int) *models.BudgetPeriod {
	t.Helper()

	period := &models.BudgetPeriod{
		BudgetID: budgetID,
		Year:     year,
		Month:    month,
	}
	if err := db.Create(period).Error; err != nil {
		t.Fatalf("failed to create test period: %v", err)
	}
	return period
}

// CreateTestAllocation creates an allocation with the whole total as fresh funds.
func CreateTestAllocation(t *testing.T, db *gorm.DB, periodID, categoryID uint, amount satoshi.Amount) *models.Allocation {
	t.Helper()

	allocation := &models.Allocation{
		PeriodID:      periodID,
		CategoryID:    categoryID,
		Amount:        amount,
		NewAllocation: amount,
	}
	if err := db.Create(allocation).Error; err != nil {
		t.Fatalf("failed to create test allocation: %v", err)
	}
	return allocation
}

// CreateTestExpense creates an expense transaction dated within the given period.
func CreateTestExpense(t *testing.T, db *gorm.DB, budgetID, categoryID uint, amount satoshi.Amount, date time.Time) *models.Transaction {
	t.Helper()

	transaction := &models.Transaction{
		BudgetID:    budgetID,
		CategoryID:  &categoryID,
		Kind:        models.TransactionKindExpense,
		Amount:      amount,
		Description: fmt.Sprintf("Test expense %d", nextID()),
		Date:        date,
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return transaction
}

// CreateTestIncome creates an income transaction.
func CreateTestIncome(t *testing.T, db *gorm.DB, budgetID uint, amount satoshi.Amount, date time.Time) *models.Transaction {
	t.Helper()

	transaction := &models.Transaction{
		BudgetID:    budgetID,
		Kind:        models.TransactionKindIncome,
		Amount:      amount,
		Description: fmt.Sprintf("Test income %d", nextID()),
		Date:        date,
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create test income: %v", err)
	}
	return transaction
}
