// README: Table registry model and occupancy statuses.
package table

import (
	"errors"
	"fmt"
	"time"

	"tableside/internal/types"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusOccupied  Status = "occupied"
	StatusReserved  Status = "reserved"
)

func ValidStatus(s Status) bool {
	return s == StatusAvailable || s == StatusOccupied || s == StatusReserved
}

type Table struct {
	ID             types.ID
	TableNumber    int
	Capacity       int
	Status         Status
	AssignedWaiter *types.ID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

var (
	ErrNotFound      = errors.New("table not found")
	ErrNotAssigned   = errors.New("table is assigned to another waiter")
	ErrInvalidStatus = errors.New("invalid table status")
	ErrActiveOrder   = errors.New("active order blocks table reset")
)

// NotAssignedError names the waiter whose request was rejected.
type NotAssignedError struct {
	WaiterID types.ID
}

func (e *NotAssignedError) Error() string {
	return fmt.Sprintf("waiter %s is not assigned to this table", e.WaiterID)
}

func (e *NotAssignedError) Is(target error) bool { return target == ErrNotAssigned }

// ActiveOrderError carries the order numbers blocking a reset.
type ActiveOrderError struct {
	OrderNumbers []string
}

func (e *ActiveOrderError) Error() string {
	return fmt.Sprintf("unserved orders block table reset: %v", e.OrderNumbers)
}

func (e *ActiveOrderError) Is(target error) bool { return target == ErrActiveOrder }

// FinalizedOrder describes a served dine-in order finalized during reset,
// enough for the coordinator to broadcast the change.
type FinalizedOrder struct {
	ID          types.ID
	OrderNumber string
	CustomerID  *types.ID
}
