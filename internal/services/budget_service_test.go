package services

import (
	"testing"

	"satsbudget/internal/pagination"
	"satsbudget/internal/testutil"
)

func TestCreateBudget(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)

		budget, err := svc.CreateBudget("Household")
		testutil.AssertNoError(t, err)
		if budget.ID == 0 {
			t.Fatal("expected non-zero budget ID")
		}
		if budget.Name != "Household" {
			t.Errorf("expected Household, got %s", budget.Name)
		}
	})

	t.Run("empty_name_refused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)

		_, err := svc.CreateBudget("")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetBudgetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db)
	created := testutil.CreateTestBudget(t, db)

	t.Run("found", func(t *testing.T) {
		budget, err := svc.GetBudgetByID(created.ID)
		testutil.AssertNoError(t, err)
		if budget.ID != created.ID {
			t.Errorf("expected budget %d, got %d", created.ID, budget.ID)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := svc.GetBudgetByID(999)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestListBudgets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db)
	testutil.CreateTestBudget(t, db)
	testutil.CreateTestBudget(t, db)

	result, err := svc.ListBudgets(pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if result.TotalItems != 2 {
		t.Errorf("expected 2 budgets, got %d", result.TotalItems)
	}
}
