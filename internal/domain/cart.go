package domain

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// LineKey is the composite identity of a cart or order line.
type LineKey struct {
	ProductID string
	Color     string
	Size      string
}

// NewLineKey trims the key parts.
func NewLineKey(productID, color, size string) LineKey {
	return LineKey{
		ProductID: strings.TrimSpace(productID),
		Color:     strings.TrimSpace(color),
		Size:      strings.TrimSpace(size),
	}
}

// IsZero reports whether the key lacks a product reference.
func (k LineKey) IsZero() bool { return strings.TrimSpace(k.ProductID) == "" }

// Matches compares two keys part by part. Case is significant ("S" and "s" are distinct
// variants); only canonically equivalent Unicode spellings are treated as equal.
func (k LineKey) Matches(other LineKey) bool {
	return strings.TrimSpace(k.ProductID) == strings.TrimSpace(other.ProductID) &&
		canonicalVariant(k.Color) == canonicalVariant(other.Color) &&
		canonicalVariant(k.Size) == canonicalVariant(other.Size)
}

func canonicalVariant(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

// CartLine is a single product variant held in a cart.
type CartLine struct {
	ProductID      string
	Color          string
	Size           string
	Quantity       int
	UnitPrice      int64
	UnitFinalPrice int64
	Title          string
	Image          string
	AddedAt        time.Time
}

// Key returns the composite line key.
func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Color: l.Color, Size: l.Size}
}

// Cart holds the lines of a single owner. TotalPrice and TotalQuantity are derived
// and only ever written by RecomputeTotals.
type Cart struct {
	ID            string
	Owner         Owner
	Lines         []CartLine
	TotalPrice    int64
	TotalQuantity int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FindLine returns the index of the line matching key or -1.
func (c *Cart) FindLine(key LineKey) int {
	if c == nil {
		return -1
	}
	for i := range c.Lines {
		if c.Lines[i].Key().Matches(key) {
			return i
		}
	}
	return -1
}

// AddLine increments the matching line by line.Quantity or appends line when no line matches.
// Prices on an existing line are refreshed to the incoming snapshot.
func (c *Cart) AddLine(line CartLine) {
	if idx := c.FindLine(line.Key()); idx >= 0 {
		existing := &c.Lines[idx]
		existing.Quantity += line.Quantity
		existing.UnitPrice = line.UnitPrice
		existing.UnitFinalPrice = line.UnitFinalPrice
		if line.Title != "" {
			existing.Title = line.Title
		}
		if line.Image != "" {
			existing.Image = line.Image
		}
	} else {
		c.Lines = append(c.Lines, line)
	}
	c.RecomputeTotals()
}

// SetQuantity sets the quantity of the matching line exactly. A quantity of zero or less removes
// the line. It reports false when no line matches.
func (c *Cart) SetQuantity(key LineKey, quantity int) bool {
	idx := c.FindLine(key)
	if idx < 0 {
		return false
	}
	if quantity <= 0 {
		c.Lines = append(c.Lines[:idx], c.Lines[idx+1:]...)
	} else {
		c.Lines[idx].Quantity = quantity
	}
	c.RecomputeTotals()
	return true
}

// RemoveLine deletes the matching line. It reports false when no line matches.
func (c *Cart) RemoveLine(key LineKey) bool {
	return c.SetQuantity(key, 0)
}

// Absorb folds every line of other into c, summing quantities of lines sharing a key.
func (c *Cart) Absorb(other Cart) {
	for _, line := range other.Lines {
		if idx := c.FindLine(line.Key()); idx >= 0 {
			c.Lines[idx].Quantity += line.Quantity
			continue
		}
		c.Lines = append(c.Lines, line)
	}
	c.RecomputeTotals()
}

// RecomputeTotals derives TotalPrice and TotalQuantity from the current lines.
func (c *Cart) RecomputeTotals() {
	var price int64
	var quantity int
	for _, line := range c.Lines {
		price += line.UnitFinalPrice * int64(line.Quantity)
		quantity += line.Quantity
	}
	c.TotalPrice = price
	c.TotalQuantity = quantity
}

// Clone returns a deep copy safe to mutate independently.
func (c Cart) Clone() Cart {
	out := c
	if c.Lines != nil {
		out.Lines = make([]CartLine, len(c.Lines))
		copy(out.Lines, c.Lines)
	}
	return out
}
