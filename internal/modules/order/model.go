// README: Order aggregate, status axes, and the role-gated transition table.
package order

import (
	"time"

	"tableside/internal/types"
)

type Status string

const (
	StatusNone           Status = "none"
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusReady          Status = "ready"
	StatusServed         Status = "served"
	StatusOutForDelivery Status = "out-for-delivery"
	StatusDelivered      Status = "delivered"
	StatusDineInComplete Status = "dine-in-completed"
	StatusCancelled      Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodCard   PaymentMethod = "card"
	MethodOnline PaymentMethod = "online"
)

type Type string

const (
	TypeDineIn   Type = "dine-in"
	TypeDelivery Type = "delivery"
	TypeTakeaway Type = "takeaway"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleChef     Role = "chef"
	RoleWaiter   Role = "waiter"
	RoleCashier  Role = "cashier"
	RoleManager  Role = "manager"
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	// RoleSystem is the internal actor for auto-confirm, payment dispatch,
	// and table-reset finalization. It never arrives over the wire.
	RoleSystem Role = "system"
)

// Elevated reports roles that bypass waiter assignment checks on tables.
func Elevated(r Role) bool {
	return r == RoleManager || r == RoleOwner || r == RoleAdmin
}

// Item is a line item with name/price snapshotted at creation time.
// Menu edits after checkout never change a placed order's value.
type Item struct {
	MenuItemID types.ID `json:"menu_item_id"`
	Name       string   `json:"name"`
	Quantity   int      `json:"quantity"`
	UnitPrice  int64    `json:"unit_price"`
	Subtotal   int64    `json:"subtotal"`
}

type DeliveryAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone"`
	Notes      string `json:"notes,omitempty"`
}

func (a *DeliveryAddress) Complete() bool {
	return a != nil && a.Street != "" && a.City != "" && a.PostalCode != "" && a.Phone != ""
}

type Order struct {
	ID                  types.ID
	OrderNumber         string
	CustomerID          *types.ID // nil for guest dine-in orders
	Type                Type
	Items               []Item
	TotalAmount         types.Money
	Status              Status
	PaymentStatus       PaymentStatus
	PaymentMethod       PaymentMethod
	StatusVersion       int
	TableNumber         *int
	DeliveryAddress     *DeliveryAddress
	Notes               string
	EstimatedDeliveryAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CancelledAt         *time.Time
	DeliveredAt         *time.Time
	CancellationReason  string
	RefundReason        string
}

// Completed reports whether an order no longer occupies its table or
// customer slot. Served is terminal for takeaway only; a served dine-in
// order still blocks the table until reset.
func Completed(t Type, s Status) bool {
	switch s {
	case StatusDelivered, StatusDineInComplete, StatusCancelled:
		return true
	case StatusServed:
		return t == TypeTakeaway
	}
	return false
}

func (o *Order) Completed() bool {
	return Completed(o.Type, o.Status)
}

// Total recomputes the invariant sum over item subtotals.
func Total(items []Item) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Subtotal
	}
	return sum
}

type move struct {
	from, to Status
}

// transitions is the whole state machine as data: for each order type, the
// legal moves and the roles allowed to request each move. Role authorization
// lives here and nowhere else.
var transitions = map[Type]map[move][]Role{
	TypeDineIn: {
		{StatusPending, StatusConfirmed}:     {RoleWaiter},
		{StatusConfirmed, StatusPreparing}:   {RoleChef},
		{StatusPreparing, StatusReady}:       {RoleChef},
		{StatusReady, StatusServed}:          {RoleWaiter},
		{StatusServed, StatusDineInComplete}: {RoleSystem}, // table reset only
		{StatusPending, StatusCancelled}:     {RoleChef, RoleWaiter},
		{StatusConfirmed, StatusCancelled}:   {RoleChef, RoleWaiter},
	},
	TypeTakeaway: {
		{StatusPending, StatusConfirmed}:   {RoleWaiter},
		{StatusConfirmed, StatusPreparing}: {RoleChef},
		{StatusPreparing, StatusReady}:     {RoleChef},
		{StatusReady, StatusServed}:        {RoleWaiter},
		{StatusPending, StatusCancelled}:   {RoleCustomer, RoleChef, RoleWaiter},
		{StatusConfirmed, StatusCancelled}: {RoleCustomer, RoleChef, RoleWaiter},
	},
	TypeDelivery: {
		{StatusPending, StatusConfirmed}:        {RoleSystem}, // auto-confirm at creation
		{StatusPending, StatusPreparing}:        {RoleChef},
		{StatusConfirmed, StatusPreparing}:      {RoleChef},
		{StatusPreparing, StatusReady}:          {RoleChef},
		{StatusReady, StatusOutForDelivery}:     {RoleCashier, RoleSystem},
		{StatusOutForDelivery, StatusDelivered}: {RoleWaiter, RoleCashier},
		{StatusPending, StatusCancelled}:        {RoleCustomer, RoleChef, RoleWaiter},
		{StatusConfirmed, StatusCancelled}:      {RoleCustomer, RoleChef, RoleWaiter},
		{StatusPreparing, StatusCancelled}:      {RoleCustomer, RoleChef, RoleWaiter},
		{StatusReady, StatusCancelled}:          {RoleCustomer, RoleChef, RoleWaiter},
	},
}

func CanTransition(t Type, from, to Status) bool {
	_, ok := transitions[t][move{from, to}]
	return ok
}

func RoleAllowed(t Type, from, to Status, role Role) bool {
	roles, ok := transitions[t][move{from, to}]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// InitialStatus: delivery orders auto-confirm at creation (no table to
// verify); dine-in and takeaway wait for waiter confirmation.
func InitialStatus(t Type) Status {
	if t == TypeDelivery {
		return StatusConfirmed
	}
	return StatusPending
}

type Event struct {
	ID         int64
	OrderID    types.ID
	FromStatus Status
	ToStatus   Status
	ActorRole  Role
	ActorID    *types.ID
	CreatedAt  time.Time
}
