package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNoParticipants     = errors.New("at least one split is required")
	ErrNonPositiveTotal   = errors.New("expense amount must be positive")
	ErrMixedSplitModes    = errors.New("cannot mix percentage and amount-based splits")
	ErrPercentageTotal    = errors.New("split percentages must total 100%")
	ErrAmountTotal        = errors.New("split amounts must total the expense amount")
	ErrNegativeShare      = errors.New("split shares cannot be negative")
	ErrDuplicateSplitUser = errors.New("user appears in more than one split")
)

var (
	hundred = decimal.NewFromInt(100)
	cent    = decimal.New(1, -2)
)

// ShareRequest is one participant's requested share of an expense.
// Leave both Amount and Percentage invalid for an equal split.
type ShareRequest struct {
	UserID     string
	Amount     decimal.NullDecimal
	Percentage decimal.NullDecimal
}

// PersonShare is the rounded amount one participant owes for an expense.
type PersonShare struct {
	UserID string
	Amount decimal.Decimal
}

// CalculateSplit turns share requests into per-person amounts rounded to cents.
//
// Three modes, chosen by which fields are set:
//   - neither: equal split
//   - percentages: must total 100 (within 0.01)
//   - amounts: must total the expense amount (within 0.01)
//
// The returned amounts always add up to exactly total (rounded to cents).
// Leftover cents go to participants in request order.
func CalculateSplit(total decimal.Decimal, shares []ShareRequest) ([]PersonShare, error) {
	if len(shares) == 0 {
		return nil, ErrNoParticipants
	}
	total = total.Round(2)
	if !total.IsPositive() {
		return nil, ErrNonPositiveTotal
	}

	seen := make(map[string]bool, len(shares))
	hasPercentages, hasAmounts := false, false
	for _, s := range shares {
		if seen[s.UserID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSplitUser, s.UserID)
		}
		seen[s.UserID] = true

		if s.Percentage.Valid {
			hasPercentages = true
			if s.Percentage.Decimal.IsNegative() {
				return nil, ErrNegativeShare
			}
		}
		if s.Amount.Valid {
			hasAmounts = true
			if s.Amount.Decimal.IsNegative() {
				return nil, ErrNegativeShare
			}
		}
	}

	switch {
	case hasPercentages && hasAmounts:
		return nil, ErrMixedSplitModes
	case hasPercentages:
		return splitByPercentage(total, shares)
	case hasAmounts:
		return splitByAmount(total, shares)
	default:
		return splitEqual(total, shares), nil
	}
}

func splitEqual(total decimal.Decimal, shares []ShareRequest) []PersonShare {
	cents := total.Shift(2).IntPart()
	n := int64(len(shares))
	base, extra := cents/n, cents%n

	result := make([]PersonShare, len(shares))
	for i, s := range shares {
		c := base
		if int64(i) < extra {
			c++
		}
		result[i] = PersonShare{UserID: s.UserID, Amount: decimal.New(c, -2)}
	}
	return result
}

func splitByPercentage(total decimal.Decimal, shares []ShareRequest) ([]PersonShare, error) {
	pctTotal := decimal.Zero
	for _, s := range shares {
		pctTotal = pctTotal.Add(s.Percentage.Decimal)
	}
	if pctTotal.Sub(hundred).Abs().GreaterThan(cent) {
		return nil, fmt.Errorf("%w: got %s", ErrPercentageTotal, pctTotal.String())
	}

	result := make([]PersonShare, len(shares))
	assigned := decimal.Zero
	for i, s := range shares {
		amount := total.Mul(s.Percentage.Decimal).Div(hundred).Truncate(2)
		result[i] = PersonShare{UserID: s.UserID, Amount: amount}
		assigned = assigned.Add(amount)
	}

	// Percentages may be off by up to 0.01 and truncation drops fractions of a
	// cent, so walk the holders adjusting one cent at a time until exact.
	leftover := total.Sub(assigned)
	for i := 0; !leftover.IsZero(); i = (i + 1) % len(result) {
		if shares[i].Percentage.Decimal.IsZero() {
			continue
		}
		if leftover.IsPositive() {
			result[i].Amount = result[i].Amount.Add(cent)
			leftover = leftover.Sub(cent)
		} else if result[i].Amount.GreaterThanOrEqual(cent) {
			result[i].Amount = result[i].Amount.Sub(cent)
			leftover = leftover.Add(cent)
		}
	}

	return result, nil
}

func splitByAmount(total decimal.Decimal, shares []ShareRequest) ([]PersonShare, error) {
	sum := decimal.Zero
	result := make([]PersonShare, len(shares))
	for i, s := range shares {
		amount := s.Amount.Decimal.Round(2)
		result[i] = PersonShare{UserID: s.UserID, Amount: amount}
		sum = sum.Add(amount)
	}
	if sum.Sub(total).Abs().GreaterThan(cent) {
		return nil, fmt.Errorf("%w: splits %s, expense %s", ErrAmountTotal, sum.StringFixed(2), total.StringFixed(2))
	}

	last := len(result) - 1
	result[last].Amount = result[last].Amount.Add(total.Sub(sum))
	if result[last].Amount.IsNegative() {
		return nil, ErrNegativeShare
	}
	return result, nil
}
