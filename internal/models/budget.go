package models

// Budget is the aggregate root for one ledger. Categories, transactions,
// and budget periods reference it by id; the model permits several budgets
// but a typical installation has exactly one.
type Budget struct {
	Base
	Name string `gorm:"not null" json:"name"`

	// Relationships
	Categories []Category     `gorm:"foreignKey:BudgetID" json:"categories,omitempty"`
	Periods    []BudgetPeriod `gorm:"foreignKey:BudgetID" json:"periods,omitempty"`
}
