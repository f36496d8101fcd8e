package domain

import "slices"

// OrderStatus is the commercial state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusCompleted OrderStatus = "completed"
)

// DeliveryStatus tracks where the parcel is.
type DeliveryStatus string

const (
	DeliveryStatusWarehouse DeliveryStatus = "warehouse"
	DeliveryStatusOnTheWay  DeliveryStatus = "on_the_way"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

// PaymentStatus tracks settlement of the order.
type PaymentStatus string

const (
	PaymentStatusUnpaid    PaymentStatus = "unpaid"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// transitions lists the legal successors of every state. States without an entry are terminal.
type transitions[S ~string] struct {
	states []S
	next   map[S][]S
}

func (t transitions[S]) valid(state S) bool {
	return slices.Contains(t.states, state)
}

// allows reports whether from may move to to. Re-asserting the current state is always allowed.
func (t transitions[S]) allows(from, to S) bool {
	if !t.valid(from) || !t.valid(to) {
		return false
	}
	if from == to {
		return true
	}
	return slices.Contains(t.next[from], to)
}

var orderStatusTransitions = transitions[OrderStatus]{
	states: []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusCancelled, OrderStatusCompleted},
	next: map[OrderStatus][]OrderStatus{
		OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
		OrderStatusPaid:    {OrderStatusCompleted},
	},
}

var deliveryStatusTransitions = transitions[DeliveryStatus]{
	states: []DeliveryStatus{DeliveryStatusWarehouse, DeliveryStatusOnTheWay, DeliveryStatusDelivered},
	next: map[DeliveryStatus][]DeliveryStatus{
		DeliveryStatusWarehouse: {DeliveryStatusOnTheWay, DeliveryStatusDelivered},
		DeliveryStatusOnTheWay:  {DeliveryStatusDelivered},
	},
}

var paymentStatusTransitions = transitions[PaymentStatus]{
	states: []PaymentStatus{PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusCancelled},
	next: map[PaymentStatus][]PaymentStatus{
		PaymentStatusUnpaid: {PaymentStatusPaid, PaymentStatusCancelled},
	},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool { return orderStatusTransitions.valid(s) }

// CanTransitionTo reports whether the order status may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return orderStatusTransitions.allows(s, next)
}

// Valid reports whether s is a known delivery status.
func (s DeliveryStatus) Valid() bool { return deliveryStatusTransitions.valid(s) }

// CanTransitionTo reports whether the delivery status may move to next. Delivery only moves forward.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	return deliveryStatusTransitions.allows(s, next)
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool { return paymentStatusTransitions.valid(s) }

// CanTransitionTo reports whether the payment status may move to next.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return paymentStatusTransitions.allows(s, next)
}
