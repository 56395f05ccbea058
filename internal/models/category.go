package models

// Category is a spending envelope. Income is allocated into categories per
// budget period and expenses are drawn from them. Categories may be grouped
// under a parent category for display.
type Category struct {
	Base
	BudgetID    uint   `gorm:"not null;index" json:"budget_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	ParentID    *uint  `json:"parent_id,omitempty"`

	// Relationships
	Parent       *Category     `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children     []Category    `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
	Allocations  []Allocation  `gorm:"foreignKey:CategoryID" json:"allocations,omitempty"`
}
