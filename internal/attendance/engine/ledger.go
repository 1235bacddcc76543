package engine

import (
	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
	"github.com/shopspring/decimal"
)

// AvailableQuota is the quota a day may draw on when it is recomputed: the month balance
// plus whatever the same day already holds.
func AvailableQuota(balance, previouslyUsed decimal.Decimal) decimal.Decimal {
	return balance.Add(previouslyUsed)
}

// Settlement is the ledger movement produced by recomputing one day.
type Settlement struct {
	// Delta is the signed change applied to the balance. Zero means no entry is written.
	Delta   decimal.Decimal
	Balance decimal.Decimal
	Reason  domain.LedgerReason
}

// Settle applies newUsed-previouslyUsed to balance. The balance never drops below zero, in
// which case Delta is the clamped movement actually applied.
func Settle(balance, previouslyUsed, newUsed decimal.Decimal) Settlement {
	next := balance.Add(previouslyUsed).Sub(newUsed)
	if next.IsNegative() {
		next = decimal.Zero
	}

	s := Settlement{Delta: next.Sub(balance), Balance: next}
	switch {
	case s.Delta.IsNegative():
		s.Reason = domain.LedgerConsume
	case s.Delta.IsPositive():
		s.Reason = domain.LedgerRelease
	}
	return s
}

// Changed reports whether the settlement needs a ledger entry.
func (s Settlement) Changed() bool {
	return !s.Delta.IsZero()
}
