package domain

import "time"

// Product is the slice of catalog state needed to price cart and order lines.
type Product struct {
	ID              string
	Title           string
	Image           string
	Price           int64
	DiscountPercent *float64
	DiscountUntil   *time.Time
}

// FinalPrice evaluates the product's effective price at now.
func (p Product) FinalPrice(now time.Time) int64 {
	return FinalPrice(p.Price, p.DiscountPercent, p.DiscountUntil, now)
}
