// README: Domain error taxonomy; typed errors carry the blocking fact.
package order

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("order not found")
	ErrNoItems             = errors.New("no order items provided")
	ErrInvalidQuantity     = errors.New("item quantity must be at least one")
	ErrActiveOrder         = errors.New("active order already exists")
	ErrItemUnavailable     = errors.New("menu item unavailable")
	ErrIncompleteAddress   = errors.New("complete delivery address is required")
	ErrMissingTable        = errors.New("table number is required for dine-in orders")
	ErrUnknownType         = errors.New("unknown order type")
	ErrInvalidTransition   = errors.New("invalid state transition")
	ErrForbiddenRole       = errors.New("role not allowed for this transition")
	ErrStaleState          = errors.New("order state changed concurrently")
	ErrInsufficientPayment = errors.New("payment amount is less than order total")
	ErrAlreadyPaid         = errors.New("order payment already settled")
	ErrNotPaid             = errors.New("can only refund paid orders")
	ErrNotOwner            = errors.New("order belongs to another customer")
)

// InvalidTransitionError reports the rejected move so dashboards can
// explain the conflict instead of showing a silent no-op.
type InvalidTransitionError struct {
	Type Type
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition %s -> %s", e.Type, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

type ForbiddenRoleError struct {
	Role Role
	From Status
	To   Status
}

func (e *ForbiddenRoleError) Error() string {
	return fmt.Sprintf("role %s may not move an order from %s to %s", e.Role, e.From, e.To)
}

func (e *ForbiddenRoleError) Is(target error) bool { return target == ErrForbiddenRole }

// ActiveOrderError carries the blocking order numbers.
type ActiveOrderError struct {
	OrderNumbers []string
}

func (e *ActiveOrderError) Error() string {
	return fmt.Sprintf("active order already exists: %v", e.OrderNumbers)
}

func (e *ActiveOrderError) Is(target error) bool { return target == ErrActiveOrder }

type ItemUnavailableError struct {
	Name string
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("%s is currently unavailable", e.Name)
}

func (e *ItemUnavailableError) Is(target error) bool { return target == ErrItemUnavailable }

type InsufficientPaymentError struct {
	Required int64
	Paid     int64
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf("payment %d is less than order total %d", e.Paid, e.Required)
}

func (e *InsufficientPaymentError) Is(target error) bool { return target == ErrInsufficientPayment }
