package models

import (
	"fmt"
	"time"

	apperrors "satsbudget/internal/errors"
)

// BudgetPeriod is one calendar month of a budget's allocation ledger.
// StartDate and EndDate are derived from (Year, Month) rather than stored,
// so the calendar coordinates and the date window can never disagree.
// The closed flag and timestamp move together and only through Close and
// Reopen; a closed period accepts no allocation mutations.
type BudgetPeriod struct {
	Base
	BudgetID uint       `gorm:"not null;uniqueIndex:idx_periods_budget_year_month" json:"budget_id"`
	Year     int        `gorm:"not null;uniqueIndex:idx_periods_budget_year_month" json:"year"`
	Month    int        `gorm:"not null;uniqueIndex:idx_periods_budget_year_month" json:"month"`
	Closed   bool       `gorm:"not null;default:false" json:"closed"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`

	// Relationships
	Allocations []Allocation `gorm:"foreignKey:PeriodID" json:"allocations,omitempty"`
}

// NewBudgetPeriod creates an open period after validating the calendar
// coordinates: year in [2000, 3000], month in [1, 12].
func NewBudgetPeriod(budgetID uint, year, month int) (*BudgetPeriod, error) {
	if year < 2000 || year > 3000 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be between 2000 and 3000")
	}
	if month < 1 || month > 12 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	return &BudgetPeriod{BudgetID: budgetID, Year: year, Month: month}, nil
}

// StartDate returns midnight UTC on the first day of the period's month.
func (p *BudgetPeriod) StartDate() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// EndDate returns the last instant of the period's month.
func (p *BudgetPeriod) EndDate() time.Time {
	last := p.StartDate().AddDate(0, 1, -1)
	return time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, 999999999, time.UTC)
}

// Label returns the period as "YYYY-MM".
func (p *BudgetPeriod) Label() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// NextPeriod returns the calendar coordinates of the following month.
func (p *BudgetPeriod) NextPeriod() (year, month int) {
	if p.Month == 12 {
		return p.Year + 1, 1
	}
	return p.Year, p.Month + 1
}

// PreviousPeriod returns the calendar coordinates of the preceding month.
func (p *BudgetPeriod) PreviousPeriod() (year, month int) {
	if p.Month == 1 {
		return p.Year - 1, 12
	}
	return p.Year, p.Month - 1
}

// Close marks the period closed at the given time. Closing an already
// closed period is refused with PERIOD_ALREADY_CLOSED and leaves the
// period unchanged.
func (p *BudgetPeriod) Close(at time.Time) error {
	if p.Closed {
		return apperrors.ErrPeriodAlreadyClosed
	}
	p.Closed = true
	p.ClosedAt = &at
	return nil
}

// Reopen clears the closed state. This is a deliberate escape hatch for a
// caller that closed a month too early; the month transition never uses it.
func (p *BudgetPeriod) Reopen() error {
	if !p.Closed {
		return apperrors.ErrPeriodNotClosed
	}
	p.Closed = false
	p.ClosedAt = nil
	return nil
}
