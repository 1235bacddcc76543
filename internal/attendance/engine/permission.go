package engine

import (
	"github.com/shopspring/decimal"
)

// MaxPermissionShortfall is the largest shortfall, in hours, permission may cover.
var MaxPermissionShortfall = decimal.NewFromInt(2)

// PermissionPolicy decides whether a shortfall below minimum hours is covered by quota.
type PermissionPolicy interface {
	// Cover returns the hours to consume and true, or false when the day stays short.
	Cover(shortfall decimal.Decimal) (decimal.Decimal, bool)
}

// NoPermission never covers a shortfall.
type NoPermission struct{}

func (NoPermission) Cover(decimal.Decimal) (decimal.Decimal, bool) {
	return decimal.Zero, false
}

// QuotaPolicy covers shortfalls of up to two hours from the available quota. Both the
// shortfall and the quota are rounded up to whole hours before comparing, and the consumed
// amount is the rounded up shortfall.
type QuotaPolicy struct {
	Available decimal.Decimal
}

func (p QuotaPolicy) Cover(shortfall decimal.Decimal) (decimal.Decimal, bool) {
	if !shortfall.IsPositive() || shortfall.GreaterThan(MaxPermissionShortfall) {
		return decimal.Zero, false
	}
	needed := shortfall.Ceil()
	if p.Available.Ceil().LessThan(needed) {
		return decimal.Zero, false
	}
	return needed, true
}
