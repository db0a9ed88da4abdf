// README: State machine and aggregate tests (no database required).
package order

import (
	"errors"
	"testing"
)

// TestCanTransition verifies the per-type transition graphs without a database.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		typ      Type
		from, to Status
		want     bool
	}{
		// dine-in happy path
		{TypeDineIn, StatusPending, StatusConfirmed, true},
		{TypeDineIn, StatusConfirmed, StatusPreparing, true},
		{TypeDineIn, StatusPreparing, StatusReady, true},
		{TypeDineIn, StatusReady, StatusServed, true},
		{TypeDineIn, StatusServed, StatusDineInComplete, true},
		// dine-in: kitchen needs waiter confirmation first
		{TypeDineIn, StatusPending, StatusPreparing, false},
		// dine-in cancels only before the kitchen starts
		{TypeDineIn, StatusPending, StatusCancelled, true},
		{TypeDineIn, StatusConfirmed, StatusCancelled, true},
		{TypeDineIn, StatusPreparing, StatusCancelled, false},
		{TypeDineIn, StatusServed, StatusCancelled, false},
		// dine-in never dispatches
		{TypeDineIn, StatusReady, StatusOutForDelivery, false},

		// takeaway: served is terminal, no dine-in-completed step
		{TypeTakeaway, StatusPending, StatusConfirmed, true},
		{TypeTakeaway, StatusReady, StatusServed, true},
		{TypeTakeaway, StatusServed, StatusDineInComplete, false},
		{TypeTakeaway, StatusPending, StatusCancelled, true},
		{TypeTakeaway, StatusPreparing, StatusCancelled, false},

		// delivery happy path
		{TypeDelivery, StatusPending, StatusConfirmed, true},
		{TypeDelivery, StatusPending, StatusPreparing, true},
		{TypeDelivery, StatusConfirmed, StatusPreparing, true},
		{TypeDelivery, StatusPreparing, StatusReady, true},
		{TypeDelivery, StatusReady, StatusOutForDelivery, true},
		{TypeDelivery, StatusOutForDelivery, StatusDelivered, true},
		// delivery cancels anywhere pre-dispatch, never after
		{TypeDelivery, StatusPreparing, StatusCancelled, true},
		{TypeDelivery, StatusReady, StatusCancelled, true},
		{TypeDelivery, StatusOutForDelivery, StatusCancelled, false},
		// delivery never goes through table states
		{TypeDelivery, StatusReady, StatusServed, false},

		// terminal states have no outgoing transitions
		{TypeDineIn, StatusCancelled, StatusPending, false},
		{TypeDineIn, StatusDineInComplete, StatusServed, false},
		{TypeDelivery, StatusDelivered, StatusReady, false},
		{TypeDelivery, StatusCancelled, StatusConfirmed, false},
		{TypeTakeaway, StatusServed, StatusReady, false},

		// skipping states
		{TypeDineIn, StatusPending, StatusReady, false},
		{TypeDineIn, StatusConfirmed, StatusServed, false},
		{TypeDelivery, StatusConfirmed, StatusOutForDelivery, false},
	}
	for _, tc := range cases {
		got := CanTransition(tc.typ, tc.from, tc.to)
		if got != tc.want {
			t.Errorf("CanTransition(%s, %s, %s) = %v, want %v", tc.typ, tc.from, tc.to, got, tc.want)
		}
	}
}

func TestRoleAllowed(t *testing.T) {
	cases := []struct {
		typ      Type
		from, to Status
		role     Role
		want     bool
	}{
		{TypeDineIn, StatusPending, StatusConfirmed, RoleWaiter, true},
		{TypeDineIn, StatusPending, StatusConfirmed, RoleChef, false},
		{TypeDineIn, StatusConfirmed, StatusPreparing, RoleChef, true},
		{TypeDineIn, StatusConfirmed, StatusPreparing, RoleWaiter, false},
		{TypeDineIn, StatusPreparing, StatusReady, RoleChef, true},
		{TypeDineIn, StatusReady, StatusServed, RoleWaiter, true},
		{TypeDineIn, StatusReady, StatusServed, RoleCashier, false},
		// finalization is reserved to the reset path
		{TypeDineIn, StatusServed, StatusDineInComplete, RoleWaiter, false},
		{TypeDineIn, StatusServed, StatusDineInComplete, RoleSystem, true},
		// customers cannot cancel dine-in orders
		{TypeDineIn, StatusPending, StatusCancelled, RoleCustomer, false},
		{TypeDineIn, StatusPending, StatusCancelled, RoleWaiter, true},
		{TypeTakeaway, StatusPending, StatusCancelled, RoleCustomer, true},
		{TypeDelivery, StatusPreparing, StatusCancelled, RoleCustomer, true},
		// dispatch belongs to the cashier or the payment side effect
		{TypeDelivery, StatusReady, StatusOutForDelivery, RoleCashier, true},
		{TypeDelivery, StatusReady, StatusOutForDelivery, RoleSystem, true},
		{TypeDelivery, StatusReady, StatusOutForDelivery, RoleWaiter, false},
		{TypeDelivery, StatusPending, StatusConfirmed, RoleSystem, true},
		{TypeDelivery, StatusPending, StatusConfirmed, RoleWaiter, false},
	}
	for _, tc := range cases {
		got := RoleAllowed(tc.typ, tc.from, tc.to, tc.role)
		if got != tc.want {
			t.Errorf("RoleAllowed(%s, %s, %s, %s) = %v, want %v",
				tc.typ, tc.from, tc.to, tc.role, got, tc.want)
		}
	}
}

func TestCompleted(t *testing.T) {
	cases := []struct {
		typ  Type
		s    Status
		want bool
	}{
		{TypeDineIn, StatusServed, false}, // still occupies the table
		{TypeDineIn, StatusDineInComplete, true},
		{TypeDineIn, StatusCancelled, true},
		{TypeTakeaway, StatusServed, true}, // terminal for takeaway
		{TypeTakeaway, StatusReady, false},
		{TypeDelivery, StatusDelivered, true},
		{TypeDelivery, StatusOutForDelivery, false},
		{TypeDelivery, StatusCancelled, true},
	}
	for _, tc := range cases {
		if got := Completed(tc.typ, tc.s); got != tc.want {
			t.Errorf("Completed(%s, %s) = %v, want %v", tc.typ, tc.s, got, tc.want)
		}
	}
}

func TestTotal(t *testing.T) {
	items := []Item{
		{Name: "Margherita Pizza", Quantity: 2, UnitPrice: 1000, Subtotal: 2000},
		{Name: "Caesar Salad", Quantity: 1, UnitPrice: 500, Subtotal: 500},
	}
	if got := Total(items); got != 2500 {
		t.Errorf("Total = %d, want 2500", got)
	}
	if got := Total(nil); got != 0 {
		t.Errorf("Total(nil) = %d, want 0", got)
	}
}

func TestInitialStatus(t *testing.T) {
	if got := InitialStatus(TypeDelivery); got != StatusConfirmed {
		t.Errorf("delivery orders should auto-confirm, got %s", got)
	}
	if got := InitialStatus(TypeDineIn); got != StatusPending {
		t.Errorf("dine-in orders should start pending, got %s", got)
	}
	if got := InitialStatus(TypeTakeaway); got != StatusPending {
		t.Errorf("takeaway orders should start pending, got %s", got)
	}
}

func TestDeliveryAddressComplete(t *testing.T) {
	var nilAddr *DeliveryAddress
	if nilAddr.Complete() {
		t.Error("nil address reported complete")
	}
	a := &DeliveryAddress{Street: "1 Elm St", City: "Springfield", PostalCode: "12345"}
	if a.Complete() {
		t.Error("address without phone reported complete")
	}
	a.Phone = "555-0100"
	if !a.Complete() {
		t.Error("full address reported incomplete")
	}
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	var err error = &InvalidTransitionError{Type: TypeDineIn, From: StatusPending, To: StatusReady}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Error("InvalidTransitionError does not match ErrInvalidTransition")
	}
	err = &ForbiddenRoleError{Role: RoleChef, From: StatusPending, To: StatusConfirmed}
	if !errors.Is(err, ErrForbiddenRole) {
		t.Error("ForbiddenRoleError does not match ErrForbiddenRole")
	}
	err = &ActiveOrderError{OrderNumbers: []string{"ORD-000001"}}
	if !errors.Is(err, ErrActiveOrder) {
		t.Error("ActiveOrderError does not match ErrActiveOrder")
	}
	err = &InsufficientPaymentError{Required: 2500, Paid: 2000}
	if !errors.Is(err, ErrInsufficientPayment) {
		t.Error("InsufficientPaymentError does not match ErrInsufficientPayment")
	}
	err = &ItemUnavailableError{Name: "Tiramisu"}
	if !errors.Is(err, ErrItemUnavailable) {
		t.Error("ItemUnavailableError does not match ErrItemUnavailable")
	}
}
