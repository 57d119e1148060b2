package models

import "github.com/shopspring/decimal"

// Expense is one payment made on behalf of the group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	GroupID string

	// PayerID is the user who paid the full amount.
	PayerID string

	// Amount is the total in the reporting currency.
	Amount decimal.Decimal

	Description string

	// Splits say who owes what. They must add up to Amount.
	Splits []Split

	CreatedBy string
	CreatedAt int64

	// DeletedAt is set when the expense is soft-deleted; zero while live.
	DeletedAt int64
}

// Deleted reports whether the expense has been soft-deleted.
func (e *Expense) Deleted() bool {
	return e.DeletedAt != 0
}

// AffectedUsers returns the payer and every split user, without duplicates.
func (e *Expense) AffectedUsers() []string {
	seen := map[string]bool{e.PayerID: true}
	users := []string{e.PayerID}
	for _, s := range e.Splits {
		if !seen[s.UserID] {
			seen[s.UserID] = true
			users = append(users, s.UserID)
		}
	}
	return users
}

// Split is one participant's share of an expense.
type Split struct {
	ExpenseID string
	UserID    string
	Amount    decimal.Decimal
}

// GroupSnapshot is a consistent, flat read of everything that feeds a group's
// balances. The store fills it inside a single transaction.
type GroupSnapshot struct {
	Group       *Group
	Names       map[string]string // display names for every referenced user
	Expenses    []Expense         // includes soft-deleted rows; Splits left empty
	Splits      []Split
	Settlements []Settlement
}
