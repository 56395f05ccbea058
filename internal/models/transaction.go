package models

import (
	"time"

	"satsbudget/internal/satoshi"
)

// TransactionKind represents the kind of transaction
type TransactionKind string

const (
	TransactionKindIncome   TransactionKind = "income"
	TransactionKindExpense  TransactionKind = "expense"
	TransactionKindTransfer TransactionKind = "transfer"
)

// Transaction is a single ledger entry. The amount is always a positive
// satoshi count; the kind determines its effect. Income raises the budget's
// available-to-assign, an expense debits its category's envelope, and a
// transfer is recorded for history but is budget-neutral.
type Transaction struct {
	Base
	BudgetID    uint            `gorm:"not null;index" json:"budget_id"`
	CategoryID  *uint           `gorm:"index" json:"category_id,omitempty"`
	Kind        TransactionKind `gorm:"not null" json:"kind"`
	Amount      satoshi.Amount  `gorm:"type:bigint;not null" json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null;index" json:"date"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
