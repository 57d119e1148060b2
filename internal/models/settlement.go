package models

import "github.com/shopspring/decimal"

// SettlementStatus tracks a settlement from creation to completion.
type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "pending"
	SettlementCompleted SettlementStatus = "completed"
	SettlementFailed    SettlementStatus = "failed"
	SettlementCancelled SettlementStatus = "cancelled"
)

// SettlementMethod is how the money changed hands.
type SettlementMethod string

const (
	MethodCash         SettlementMethod = "cash"
	MethodUPI          SettlementMethod = "upi"
	MethodBankTransfer SettlementMethod = "bank_transfer"
)

// Valid reports whether m is a known method.
func (m SettlementMethod) Valid() bool {
	switch m {
	case MethodCash, MethodUPI, MethodBankTransfer:
		return true
	}
	return false
}

// Settlement represents a payment between group members to clear debts.
// Only completed settlements move balances.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromUserID is the user who paid (debtor settling up).
	FromUserID string

	// ToUserID is the user who received payment (creditor being paid).
	ToUserID string

	// Amount is the payment amount in the reporting currency.
	Amount decimal.Decimal

	Method SettlementMethod
	Status SettlementStatus

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string

	// Note is an optional description for the settlement.
	Note string
}
