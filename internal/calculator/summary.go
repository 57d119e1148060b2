package calculator

import "github.com/shopspring/decimal"

// Summary holds headline numbers for a group's live expenses.
type Summary struct {
	TotalAmount  decimal.Decimal
	ExpenseCount int
	UniquePayers int
}

// Summarize totals the non-deleted expenses.
func Summarize(expenses []ExpenseRecord) Summary {
	summary := Summary{TotalAmount: decimal.Zero}
	payers := make(map[string]struct{})
	for _, e := range expenses {
		if e.Deleted {
			continue
		}
		summary.TotalAmount = summary.TotalAmount.Add(e.Amount)
		summary.ExpenseCount++
		payers[e.PayerID] = struct{}{}
	}
	summary.UniquePayers = len(payers)
	return summary
}
