package models

import "time"

// OrderStatus is the order lifecycle dimension. Labels are the
// customer-facing Vietnamese strings stored as-is in the orders table.
type OrderStatus string

const (
	StatusOrdered   OrderStatus = "Đã đặt hàng"  // placed
	StatusShipping  OrderStatus = "Đang giao"    // handed to shipper
	StatusDelivered OrderStatus = "Đã giao hàng" // delivered
	StatusCancelled OrderStatus = "Đã hủy"       // cancelled
)

// PaymentStatus is the payment dimension, independent from OrderStatus
// except that delivery forces it to paid (cash on delivery).
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// ValidOrderStatuses lists every accepted order status.
var ValidOrderStatuses = []OrderStatus{
	StatusOrdered,
	StatusShipping,
	StatusDelivered,
	StatusCancelled,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	for _, v := range ValidOrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	return p == PaymentPending || p == PaymentPaid
}

// transitions is the closed transition table. A placed order may be shipped,
// delivered directly, or cancelled; a shipping order may only be delivered.
// Delivered and cancelled are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	StatusOrdered:   {StatusShipping, StatusDelivered, StatusCancelled},
	StatusShipping:  {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransition reports whether an order may move from one status to another.
// Repeating the current status is rejected like any other disallowed move.
func CanTransition(from, to OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if to == allowed {
			return true
		}
	}
	return false
}

// OrderItem is one line of an order, referencing a product color variant.
type OrderItem struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"order_id,omitempty"`
	ProductItemID string    `json:"product_item_id"`
	ProductName   string    `json:"product_name,omitempty"`
	Color         string    `json:"color,omitempty"`
	Image         string    `json:"image,omitempty"`
	Quantity      int       `json:"quantity"`
	Price         float64   `json:"price"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// Order is a customer order.
type Order struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	UserName      string        `json:"user_name,omitempty"`
	Address       string        `json:"address"`
	Total         float64       `json:"total"`
	Status        OrderStatus   `json:"status"`
	StatusPayment PaymentStatus `json:"statusPayment"`
	Items         []OrderItem   `json:"orderItems,omitempty"`
	CreateDate    time.Time     `json:"createDate"`
	UpdatedAt     time.Time     `json:"updated_at,omitempty"`
}

// CreateOrderItemRequest is one requested line item.
type CreateOrderItemRequest struct {
	ProductItemID string `json:"product_item_id" validate:"required"`
	Quantity      int    `json:"quantity" validate:"gt=0"`
}

// CreateOrderRequest is the order creation payload. The total is computed
// server-side from current catalog prices, never taken from the client.
type CreateOrderRequest struct {
	Address string                   `json:"address" validate:"required"`
	Items   []CreateOrderItemRequest `json:"orderItems" validate:"required,min=1,dive"`
}

// UpdatePaymentRequest sets the payment status explicitly.
type UpdatePaymentRequest struct {
	StatusPayment PaymentStatus `json:"statusPayment" validate:"required"`
}

// SaleStats is an aggregate revenue row for the admin dashboard.
type SaleStats struct {
	Period  string  `json:"period"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}
