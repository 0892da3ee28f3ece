package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{"placed to shipping", StatusOrdered, StatusShipping, true},
		{"placed to cancelled", StatusOrdered, StatusCancelled, true},
		{"placed to delivered directly", StatusOrdered, StatusDelivered, true},
		{"shipping to delivered", StatusShipping, StatusDelivered, true},
		{"shipping to cancelled", StatusShipping, StatusCancelled, false},
		{"shipping back to placed", StatusShipping, StatusOrdered, false},
		{"delivered to shipping", StatusDelivered, StatusShipping, false},
		{"delivered to cancelled", StatusDelivered, StatusCancelled, false},
		{"delivered to placed", StatusDelivered, StatusOrdered, false},
		{"cancelled to shipping", StatusCancelled, StatusShipping, false},
		{"cancelled to delivered", StatusCancelled, StatusDelivered, false},
		{"cancelled to placed", StatusCancelled, StatusOrdered, false},
		{"cancelled to cancelled", StatusCancelled, StatusCancelled, false},
		{"placed to placed", StatusOrdered, StatusOrdered, false},
		{"shipping to shipping", StatusShipping, StatusShipping, false},
		{"delivered to delivered", StatusDelivered, StatusDelivered, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestCanTransition_Exhaustive(t *testing.T) {
	// Every (from, to) pair must be decided by the table; nothing outside
	// the allow list may pass.
	allowed := map[[2]OrderStatus]bool{
		{StatusOrdered, StatusShipping}:   true,
		{StatusOrdered, StatusDelivered}:  true,
		{StatusOrdered, StatusCancelled}:  true,
		{StatusShipping, StatusDelivered}: true,
	}

	for _, from := range ValidOrderStatuses {
		for _, to := range ValidOrderStatuses {
			got := CanTransition(from, to)
			want := allowed[[2]OrderStatus{from, to}]
			assert.Equalf(t, want, got, "transition %q -> %q", from, to)
		}
	}
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range ValidOrderStatuses {
		assert.True(t, s.Valid())
	}
	assert.False(t, OrderStatus("shipped").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestPaymentStatusValid(t *testing.T) {
	assert.True(t, PaymentPending.Valid())
	assert.True(t, PaymentPaid.Valid())
	assert.False(t, PaymentStatus("refunded").Valid())
}
