package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FinalPrice applies a time-bounded percentage discount to a catalog price expressed in minor units.
// A discount whose end has already passed at now is ignored. The result is rounded half-up.
// discountPercent is expected to be within [0,100]; callers validate it.
func FinalPrice(price int64, discountPercent *float64, discountUntil *time.Time, now time.Time) int64 {
	if discountPercent == nil || *discountPercent == 0 {
		return price
	}
	if discountUntil != nil && discountUntil.Before(now) {
		return price
	}
	pct := decimal.NewFromFloat(*discountPercent)
	discounted := decimal.NewFromInt(price).Mul(hundred.Sub(pct)).Div(hundred)
	return discounted.Round(0).IntPart()
}
