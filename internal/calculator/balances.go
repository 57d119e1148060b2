// Package calculator holds the pure balance engine: it turns a group's expenses,
// splits and settlements into net balances and reduces those balances to a short
// list of payments that settles the group.
//
// Nothing in this package performs I/O or keeps state between calls.
package calculator

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
)

// StatusCompleted is the only settlement status that moves balances.
const StatusCompleted = "completed"

// ExpenseRecord represents an expense with the minimal information needed for balance calculations.
type ExpenseRecord struct {
	ID      string
	PayerID string
	Amount  decimal.Decimal
	Deleted bool // soft-deleted expenses are ignored along with their splits
}

// SplitRecord is one participant's share of an expense.
type SplitRecord struct {
	ExpenseID string
	UserID    string
	Amount    decimal.Decimal
}

// SettlementRecord represents a settlement with the minimal information needed for balance calculations.
type SettlementRecord struct {
	FromUserID string // Who paid (debtor settling up)
	ToUserID   string // Who received (creditor being paid)
	Amount     decimal.Decimal
	Status     string
}

// Balance is one user's net position in a group.
type Balance struct {
	UserID   string          `json:"user_id"`
	UserName string          `json:"user_name"`
	Amount   decimal.Decimal `json:"amount"` // Positive = owed money, Negative = owes money
}

// Ledger is a flat, already-joined snapshot of one group's rows.
type Ledger struct {
	// Members are the current group members. They appear in the output even
	// without any activity.
	Members []string

	// Names maps user IDs to display names. Missing entries fall back to the ID.
	Names map[string]string

	Expenses    []ExpenseRecord
	Splits      []SplitRecord
	Settlements []SettlementRecord
}

// Aggregate computes one net balance per user from a group ledger.
//
// Algorithm:
//   - payer of each live expense is credited the full amount
//   - each split of a live expense debits its user
//   - each completed settlement credits the sender and debits the receiver
//
// The output covers current members plus every user referenced by a counted
// row, so people who left the group with open balances are still reported.
// Given consistent input (splits summing to their expense) the balances sum to
// exactly zero. Results are ordered by user ID.
func Aggregate(l Ledger) []Balance {
	net := make(map[string]decimal.Decimal)
	touch := func(userID string) {
		if _, ok := net[userID]; !ok {
			net[userID] = decimal.Zero
		}
	}

	for _, m := range l.Members {
		touch(m)
	}

	live := make(map[string]struct{}, len(l.Expenses))
	for _, e := range l.Expenses {
		if e.Deleted {
			continue
		}
		live[e.ID] = struct{}{}
		touch(e.PayerID)
		net[e.PayerID] = net[e.PayerID].Add(e.Amount)
	}

	for _, s := range l.Splits {
		// Splits of deleted or unknown expenses never count.
		if _, ok := live[s.ExpenseID]; !ok {
			continue
		}
		touch(s.UserID)
		net[s.UserID] = net[s.UserID].Sub(s.Amount)
	}

	for _, s := range l.Settlements {
		if s.Status != StatusCompleted {
			continue
		}
		touch(s.FromUserID)
		touch(s.ToUserID)
		net[s.FromUserID] = net[s.FromUserID].Add(s.Amount)
		net[s.ToUserID] = net[s.ToUserID].Sub(s.Amount)
	}

	balances := make([]Balance, 0, len(net))
	for userID, amount := range net {
		balances = append(balances, Balance{
			UserID:   userID,
			UserName: displayName(l.Names, userID),
			Amount:   amount,
		})
	}
	slices.SortFunc(balances, func(a, b Balance) int {
		return cmp.Compare(a.UserID, b.UserID)
	})

	return balances
}

// BalanceOf returns the amount for userID, or zero when the user is absent.
func BalanceOf(balances []Balance, userID string) decimal.Decimal {
	for _, b := range balances {
		if b.UserID == userID {
			return b.Amount
		}
	}
	return decimal.Zero
}

// Sum adds up every balance. A consistent ledger sums to zero.
func Sum(balances []Balance) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Amount)
	}
	return total
}

func displayName(names map[string]string, userID string) string {
	if name := names[userID]; name != "" {
		return name
	}
	return userID
}
