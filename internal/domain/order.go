package domain

import "time"

// OrderLine is the priced snapshot of a product captured at order creation. It is never
// re-evaluated against the catalog afterwards.
type OrderLine struct {
	ProductID      string
	Title          string
	Image          string
	Color          string
	Size           string
	UnitPrice      int64
	UnitFinalPrice int64
	Quantity       int
}

// AdminComment is an append-only staff note on an order.
type AdminComment struct {
	ID        string
	AuthorID  string
	Text      string
	CreatedAt time.Time
}

// Order is a placed purchase with three independent status axes.
type Order struct {
	ID             string
	AccountID      string
	Lines          []OrderLine
	TotalPrice     int64
	PaymentMethod  string
	Status         OrderStatus
	DeliveryStatus DeliveryStatus
	PaymentStatus  PaymentStatus
	UserComment    *string
	AdminComments  []AdminComment
	IsArchived     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsTerminal reports whether the order is paid, delivered and completed at once.
func (o Order) IsTerminal() bool {
	return o.PaymentStatus == PaymentStatusPaid &&
		o.DeliveryStatus == DeliveryStatusDelivered &&
		o.Status == OrderStatusCompleted
}

// OrderTotal sums the undiscounted unit price of every line. Discounts shown on the lines do
// not reduce the stored order total.
func OrderTotal(lines []OrderLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.UnitPrice * int64(line.Quantity)
	}
	return total
}

// CloneOrderLines copies a line slice.
func CloneOrderLines(lines []OrderLine) []OrderLine {
	if lines == nil {
		return nil
	}
	out := make([]OrderLine, len(lines))
	copy(out, lines)
	return out
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	out := o
	out.Lines = CloneOrderLines(o.Lines)
	if o.AdminComments != nil {
		out.AdminComments = make([]AdminComment, len(o.AdminComments))
		copy(out.AdminComments, o.AdminComments)
	}
	if o.UserComment != nil {
		comment := *o.UserComment
		out.UserComment = &comment
	}
	return out
}

// OrderHistory is the immutable purchase-history record created once an order is terminal.
type OrderHistory struct {
	ID            string
	AccountID     string
	OrderID       string
	Lines         []OrderLine
	TotalPrice    int64
	PaymentMethod string
	CompletedAt   time.Time
}

// Clone returns a deep copy of the history record.
func (h OrderHistory) Clone() OrderHistory {
	out := h
	out.Lines = CloneOrderLines(h.Lines)
	return out
}
