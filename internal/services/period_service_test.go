package services

import (
	"math/rand"
	"testing"

	"satsbudget/internal/models"
	"satsbudget/internal/pagination"
	"satsbudget/internal/satoshi"
	"satsbudget/internal/testutil"
)

func TestCreatePeriod(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)

		period, err := svc.CreatePeriod(budget.ID, 2025, 7)
		testutil.AssertNoError(t, err)
		if period.ID == 0 {
			t.Fatal("expected non-zero period ID")
		}
		if period.Closed {
			t.Error("expected new period to be open")
		}
	})

	t.Run("duplicate_month_refused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)

		_, err := svc.CreatePeriod(budget.ID, 2025, 7)
		testutil.AssertNoError(t, err)

		_, err = svc.CreatePeriod(budget.ID, 2025, 7)
		testutil.AssertAppError(t, err, "PERIOD_ALREADY_EXISTS")
	})

	t.Run("same_month_different_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		first := testutil.CreateTestBudget(t, db)
		second := testutil.CreateTestBudget(t, db)

		_, err := svc.CreatePeriod(first.ID, 2025, 7)
		testutil.AssertNoError(t, err)
		_, err = svc.CreatePeriod(second.ID, 2025, 7)
		testutil.AssertNoError(t, err)
	})

	t.Run("invalid_year", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)

		_, err := svc.CreatePeriod(budget.ID, 1999, 7)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("missing_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)

		_, err := svc.CreatePeriod(999, 2025, 7)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestFindPeriod(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPeriodService(db)
	budget := testutil.CreateTestBudget(t, db)
	created := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

	t.Run("found", func(t *testing.T) {
		period, err := svc.FindPeriod(budget.ID, 2025, 7)
		testutil.AssertNoError(t, err)
		if period.ID != created.ID {
			t.Errorf("expected period %d, got %d", created.ID, period.ID)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := svc.FindPeriod(budget.ID, 2025, 8)
		testutil.AssertAppError(t, err, "PERIOD_NOT_FOUND")
	})
}

func TestListPeriods(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPeriodService(db)
	budget := testutil.CreateTestBudget(t, db)
	testutil.CreateTestPeriod(t, db, budget.ID, 2024, 12)
	testutil.CreateTestPeriod(t, db, budget.ID, 2025, 1)
	testutil.CreateTestPeriod(t, db, budget.ID, 2025, 2)

	result, err := svc.ListPeriods(budget.ID, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if result.TotalItems != 3 {
		t.Fatalf("expected 3 periods, got %d", result.TotalItems)
	}
	// Most recent month first
	if result.Data[0].Year != 2025 || result.Data[0].Month != 2 {
		t.Errorf("expected 2025-02 first, got %04d-%02d", result.Data[0].Year, result.Data[0].Month)
	}
	if result.Data[2].Year != 2024 || result.Data[2].Month != 12 {
		t.Errorf("expected 2024-12 last, got %04d-%02d", result.Data[2].Year, result.Data[2].Month)
	}
}

func TestAllocate(t *testing.T) {
	t.Run("fresh_allocation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)
		category := testutil.CreateTestCategory(t, db, budget.ID)
		period := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

		alloc, err := svc.Allocate(budget.ID, period.ID, category.ID, satoshi.MustNew(100_000))
		testutil.AssertNoError(t, err)
		if alloc.Amount != satoshi.MustNew(100_000) {
			t.Errorf("expected total 100000, got %d", alloc.Amount.Int64())
		}
		if !alloc.RolloverAmount.IsZero() {
			t.Errorf("expected zero rollover, got %d", alloc.RolloverAmount.Int64())
		}
		if alloc.NewAllocation != satoshi.MustNew(100_000) {
			t.Errorf("expected fresh 100000, got %d", alloc.NewAllocation.Int64())
		}
	})

	t.Run("update_preserves_rollover", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)
		category := testutil.CreateTestCategory(t, db, budget.ID)
		period := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

		_, err := svc.AddRollover(budget.ID, period.ID, category.ID, satoshi.MustNew(40_000), satoshi.MustNew(10_000))
		testutil.AssertNoError(t, err)

		alloc, err := svc.Allocate(budget.ID, period.ID, category.ID, satoshi.MustNew(100_000))
		testutil.AssertNoError(t, err)
		if alloc.RolloverAmount != satoshi.MustNew(40_000) {
			t.Errorf("expected rollover preserved at 40000, got %d", alloc.RolloverAmount.Int64())
		}
		if alloc.NewAllocation != satoshi.MustNew(60_000) {
			t.Errorf("expected fresh 60000, got %d", alloc.NewAllocation.Int64())
		}
	})

	t.Run("total_below_rollover_shrinks_rollover", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)
		category := testutil.CreateTestCategory(t, db, budget.ID)
		period := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

		_, err := svc.AddRollover(budget.ID, period.ID, category.ID, satoshi.MustNew(40_000), satoshi.MustNew(10_000))
		testutil.AssertNoError(t, err)

		alloc, err := svc.Allocate(budget.ID, period.ID, category.ID, satoshi.MustNew(25_000))
		testutil.AssertNoError(t, err)
		if alloc.Amount != satoshi.MustNew(25_000) {
			t.Errorf("expected total 25000, got %d", alloc.Amount.Int64())
		}
		if alloc.RolloverAmount != satoshi.MustNew(25_000) {
			t.Errorf("expected rollover clamped to 25000, got %d", alloc.RolloverAmount.Int64())
		}
		if !alloc.NewAllocation.IsZero() {
			t.Errorf("expected zero fresh, got %d", alloc.NewAllocation.Int64())
		}
	})

	t.Run("closed_period_refused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)
		category := testutil.CreateTestCategory(t, db, budget.ID)
		period := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

		_, err := svc.Allocate(budget.ID, period.ID, category.ID, satoshi.MustNew(50_000))
		testutil.AssertNoError(t, err)

		_, err = svc.ClosePeriod(budget.ID, period.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.Allocate(budget.ID, period.ID, category.ID, satoshi.MustNew(99_000))
		testutil.AssertAppError(t, err, "PERIOD_CLOSED")

		// Allocation unchanged by the refused call
		var alloc models.Allocation
		if err := db.Where("period_id = ? AND category_id = ?", period.ID, category.ID).First(&alloc).Error; err != nil {
			t.Fatalf("failed to reload allocation: %v", err)
		}
		if alloc.Amount != satoshi.MustNew(50_000) {
			t.Errorf("allocation changed after refused mutation: %d", alloc.Amount.Int64())
		}
	})

	t.Run("category_from_other_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)
		other := testutil.CreateTestBudget(t, db)
		foreign := testutil.CreateTestCategory(t, db, other.ID)
		period := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

		_, err := svc.Allocate(budget.ID, period.ID, foreign.ID, satoshi.MustNew(50_000))
		testutil.AssertAppError(t, err, "CATEGORY_BUDGET_MISMATCH")
	})

	t.Run("missing_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)
		period := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

		_, err := svc.Allocate(budget.ID, period.ID, 999, satoshi.MustNew(50_000))
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestAddRollover(t *testing.T) {
	t.Run("creates_allocation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)
		category := testutil.CreateTestCategory(t, db, budget.ID)
		period := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

		alloc, err := svc.AddRollover(budget.ID, period.ID, category.ID, satoshi.MustNew(70_000), satoshi.MustNew(30_000))
		testutil.AssertNoError(t, err)
		if alloc.Amount != satoshi.MustNew(100_000) {
			t.Errorf("expected total 100000, got %d", alloc.Amount.Int64())
		}
	})

	t.Run("replaces_existing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)
		category := testutil.CreateTestCategory(t, db, budget.ID)
		period := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

		_, err := svc.AddRollover(budget.ID, period.ID, category.ID, satoshi.MustNew(70_000), satoshi.MustNew(30_000))
		testutil.AssertNoError(t, err)

		alloc, err := svc.AddRollover(budget.ID, period.ID, category.ID, satoshi.MustNew(10_000), satoshi.MustNew(5_000))
		testutil.AssertNoError(t, err)
		if alloc.Amount != satoshi.MustNew(15_000) {
			t.Errorf("expected replaced total 15000, got %d", alloc.Amount.Int64())
		}
		if alloc.RolloverAmount != satoshi.MustNew(10_000) {
			t.Errorf("expected rollover 10000, got %d", alloc.RolloverAmount.Int64())
		}
	})

	t.Run("closed_period_refused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)
		category := testutil.CreateTestCategory(t, db, budget.ID)
		period := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

		_, err := svc.ClosePeriod(budget.ID, period.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.AddRollover(budget.ID, period.ID, category.ID, satoshi.MustNew(10_000), satoshi.MustNew(5_000))
		testutil.AssertAppError(t, err, "PERIOD_CLOSED")
	})
}

func TestTotalAllocated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPeriodService(db)
	budget := testutil.CreateTestBudget(t, db)
	groceries := testutil.CreateTestCategory(t, db, budget.ID)
	rent := testutil.CreateTestCategory(t, db, budget.ID)
	period := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

	_, err := svc.Allocate(budget.ID, period.ID, groceries.ID, satoshi.MustNew(100_000))
	testutil.AssertNoError(t, err)
	_, err = svc.Allocate(budget.ID, period.ID, rent.ID, satoshi.MustNew(250_000))
	testutil.AssertNoError(t, err)

	total, err := svc.TotalAllocated(budget.ID, period.ID)
	testutil.AssertNoError(t, err)
	if total != satoshi.MustNew(350_000) {
		t.Errorf("expected 350000, got %d", total.Int64())
	}
}

func TestClosePeriodPersistence(t *testing.T) {
	t.Run("close_persists", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)
		period := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

		_, err := svc.ClosePeriod(budget.ID, period.ID)
		testutil.AssertNoError(t, err)

		reloaded, err := svc.GetPeriodByID(budget.ID, period.ID)
		testutil.AssertNoError(t, err)
		if !reloaded.Closed || reloaded.ClosedAt == nil {
			t.Error("expected closed state to be persisted")
		}
	})

	t.Run("close_twice_refused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)
		period := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

		_, err := svc.ClosePeriod(budget.ID, period.ID)
		testutil.AssertNoError(t, err)
		_, err = svc.ClosePeriod(budget.ID, period.ID)
		testutil.AssertAppError(t, err, "PERIOD_ALREADY_CLOSED")
	})

	t.Run("reopen_clears_state_in_db", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)
		period := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

		_, err := svc.ClosePeriod(budget.ID, period.ID)
		testutil.AssertNoError(t, err)
		_, err = svc.ReopenPeriod(budget.ID, period.ID)
		testutil.AssertNoError(t, err)

		reloaded, err := svc.GetPeriodByID(budget.ID, period.ID)
		testutil.AssertNoError(t, err)
		if reloaded.Closed || reloaded.ClosedAt != nil {
			t.Error("expected reopen to clear closed flag and timestamp in the database")
		}
	})

	t.Run("reopen_open_period_refused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		budget := testutil.CreateTestBudget(t, db)
		period := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

		_, err := svc.ReopenPeriod(budget.ID, period.ID)
		testutil.AssertAppError(t, err, "PERIOD_NOT_CLOSED")
	})
}

// The decomposition invariant amount == rollover + new must survive any
// interleaving of allocate and addRollover calls.
func TestAllocationDecompositionInvariant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPeriodService(db)
	budget := testutil.CreateTestBudget(t, db)
	category := testutil.CreateTestCategory(t, db, budget.ID)
	period := testutil.CreateTestPeriod(t, db, budget.ID, 2025, 7)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		var alloc *models.Allocation
		var err error
		if rng.Intn(2) == 0 {
			alloc, err = svc.Allocate(budget.ID, period.ID, category.ID, satoshi.MustNew(rng.Int63n(1_000_000)))
		} else {
			alloc, err = svc.AddRollover(budget.ID, period.ID, category.ID,
				satoshi.MustNew(rng.Int63n(500_000)), satoshi.MustNew(rng.Int63n(500_000)))
		}
		testutil.AssertNoError(t, err)

		sum, err := alloc.RolloverAmount.Add(alloc.NewAllocation)
		testutil.AssertNoError(t, err)
		if alloc.Amount != sum {
			t.Fatalf("step %d: total %d != rollover %d + new %d",
				i, alloc.Amount.Int64(), alloc.RolloverAmount.Int64(), alloc.NewAllocation.Int64())
		}
	}
}
