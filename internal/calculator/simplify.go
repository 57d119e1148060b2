package calculator

import (
	"slices"

	"github.com/shopspring/decimal"
)

// DustThreshold is the smallest amount worth a transfer. Remainders at or
// below it are treated as settled.
var DustThreshold = decimal.New(1, -2)

// DebtTransfer represents a payment from one person to another.
type DebtTransfer struct {
	FromUserID   string // Person who owes
	FromUserName string
	ToUserID     string // Person who is owed
	ToUserName   string
	Amount       decimal.Decimal
}

// Report describes what the simplifier could not place into transfers.
type Report struct {
	// Residual is the amount no transfer carries: matched payments dropped
	// for being at or below DustThreshold plus whatever is left on both
	// sides after matching.
	Residual decimal.Decimal

	// Unmatched counts parties still holding more than DustThreshold when
	// one side ran out.
	Unmatched int
}

// Clean reports whether every balance was fully matched.
func (r Report) Clean() bool {
	return r.Residual.IsZero() && r.Unmatched == 0
}

type party struct {
	id        string
	name      string
	remaining decimal.Decimal
}

// Simplify reduces balances to a list of payments that settles them.
// See SimplifyWithReport.
func Simplify(balances []Balance) []DebtTransfer {
	transfers, _ := SimplifyWithReport(balances)
	return transfers
}

// SimplifyWithReport matches debtors to creditors greedily, largest first.
//
// Both sides are stable-sorted by magnitude, then walked with one cursor each:
// every step pays min(creditor remaining, debtor remaining) and advances any
// side whose remainder dropped to DustThreshold or below. Payments at or below
// DustThreshold are not emitted. The walk stops as soon as either side is
// exhausted; whatever is left is returned in the Report rather than as an error.
//
// This yields at most N-1 transfers for N non-zero balances. It is not always the
// theoretical minimum.
func SimplifyWithReport(balances []Balance) ([]DebtTransfer, Report) {
	var creditors, debtors []party
	for _, b := range balances {
		switch b.Amount.Sign() {
		case 1:
			creditors = append(creditors, party{id: b.UserID, name: b.UserName, remaining: b.Amount})
		case -1:
			debtors = append(debtors, party{id: b.UserID, name: b.UserName, remaining: b.Amount.Neg()})
		}
	}

	largestFirst := func(a, b party) int { return b.remaining.Cmp(a.remaining) }
	slices.SortStableFunc(creditors, largestFirst)
	slices.SortStableFunc(debtors, largestFirst)

	transfers := []DebtTransfer{}
	dropped := decimal.Zero
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		creditor := &creditors[i]
		debtor := &debtors[j]

		amount := decimal.Min(creditor.remaining, debtor.remaining)
		if amount.GreaterThan(DustThreshold) {
			transfers = append(transfers, DebtTransfer{
				FromUserID:   debtor.id,
				FromUserName: debtor.name,
				ToUserID:     creditor.id,
				ToUserName:   creditor.name,
				Amount:       amount,
			})
		} else {
			dropped = dropped.Add(amount)
		}

		creditor.remaining = creditor.remaining.Sub(amount)
		debtor.remaining = debtor.remaining.Sub(amount)

		if creditor.remaining.LessThanOrEqual(DustThreshold) {
			i++
		}
		if debtor.remaining.LessThanOrEqual(DustThreshold) {
			j++
		}
	}

	report := Report{Residual: dropped}
	for _, side := range [][]party{creditors, debtors} {
		for _, p := range side {
			report.Residual = report.Residual.Add(p.remaining.Abs())
			if p.remaining.GreaterThan(DustThreshold) {
				report.Unmatched++
			}
		}
	}

	return transfers, report
}
