package models

import (
	"testing"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCanceled, true},
		{StatusPending, StatusPaid, false},
		{StatusProcessing, StatusPaid, true},
		{StatusPaid, StatusPacked, true},
		{StatusPaid, StatusRefunded, true},
		{StatusPacked, StatusShipped, true},
		{StatusShipped, StatusOutForDelivery, true},
		{StatusOutForDelivery, StatusDelivered, true},
		{StatusDelivered, StatusRefunded, true},
		{StatusCanceled, StatusProcessing, false},
		{StatusRefunded, StatusPending, false},
		{StatusDelivered, StatusShipped, false},
	}

	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.allowed {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.allowed)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	terminal := []OrderStatus{StatusCanceled, StatusRefunded, StatusDelivered}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	active := []OrderStatus{StatusPending, StatusProcessing, StatusPaid, StatusPacked, StatusShipped, StatusOutForDelivery}
	for _, s := range active {
		if s.Terminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestOrderStatusValid(t *testing.T) {
	if !StatusPending.Valid() {
		t.Error("expected pending to be valid")
	}
	if OrderStatus("confirmed").Valid() {
		t.Error("expected unknown status to be invalid")
	}
}

func TestOrderGuest(t *testing.T) {
	order := &Order{}
	if !order.Guest() {
		t.Error("expected order without customer to be guest")
	}
	order.CustomerID = "cust-42"
	if order.Guest() {
		t.Error("expected order with customer to not be guest")
	}
}
