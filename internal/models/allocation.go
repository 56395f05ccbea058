package models

import "satsbudget/internal/satoshi"

// Allocation is the amount assigned to one category for one budget period,
// decomposed into what rolled over from the previous month and what was
// freshly assigned this month. The total is authoritative; the
// decomposition is reporting metadata and satisfies
// Amount == RolloverAmount + NewAllocation after every mutation. Totals are
// never written directly; only the period service's Allocate and
// AddRollover operations touch them.
type Allocation struct {
	Base
	PeriodID       uint           `gorm:"not null;uniqueIndex:idx_allocations_period_category" json:"period_id"`
	CategoryID     uint           `gorm:"not null;uniqueIndex:idx_allocations_period_category" json:"category_id"`
	Amount         satoshi.Amount `gorm:"type:bigint;not null" json:"amount"`
	RolloverAmount satoshi.Amount `gorm:"type:bigint;not null;default:0" json:"rollover_amount"`
	NewAllocation  satoshi.Amount `gorm:"type:bigint;not null;default:0" json:"new_allocation"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// HasRollover reports whether any part of the allocation carried over from
// the previous period.
func (a *Allocation) HasRollover() bool {
	return a.RolloverAmount > 0
}

// RolloverPercentage returns the share of the total that rolled over, in
// the range 0 to 100. A zero total yields 0.
func (a *Allocation) RolloverPercentage() float64 {
	if a.Amount == 0 {
		return 0
	}
	return float64(a.RolloverAmount) / float64(a.Amount) * 100
}
