// README: Order service; guard checks, CAS persistence, creation invariants.
package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"tableside/internal/types"
)

// Menu resolves referenced items against the current menu at creation
// time; the order keeps snapshots afterward.
type Menu interface {
	GetItem(ctx context.Context, id types.ID) (MenuItem, error)
}

type MenuItem struct {
	ID          types.ID
	Name        string
	Price       types.Money
	IsAvailable bool
}

// Locker serializes check-then-act creation per table number or customer
// id. The store's partial unique indexes remain the authority; the lock
// just keeps well-behaved concurrent checkouts from racing to the insert.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// ETA estimates travel time to a delivery address. Advisory only.
type ETA interface {
	Estimate(ctx context.Context, address string) (time.Duration, error)
}

const defaultDeliveryETA = 45 * time.Minute

type Service struct {
	store *Store
	menu  Menu
	locks Locker
	eta   ETA
}

func NewService(store *Store, menu Menu, locks Locker, eta ETA) *Service {
	return &Service{store: store, menu: menu, locks: locks, eta: eta}
}

type ItemRequest struct {
	MenuItemID types.ID
	Quantity   int
}

type CreateCommand struct {
	CustomerID      *types.ID // nil for guest dine-in checkout
	Type            Type
	Items           []ItemRequest
	TableNumber     *int
	DeliveryAddress *DeliveryAddress
	Notes           string
	PaymentMethod   PaymentMethod
}

type TransitionCommand struct {
	OrderID   types.ID
	Target    Status
	ActorRole Role
	ActorID   *types.ID
	Reason    string // cancellation reason, when Target is cancelled
}

type PaymentCommand struct {
	OrderID    types.ID
	Method     PaymentMethod
	AmountPaid int64
}

type PaymentResult struct {
	Order      *Order
	Change     int64
	Dispatched bool
}

type RefundCommand struct {
	OrderID types.ID
	Reason  string
}

// Create runs the checkout pipeline: validate, serialize per key, check
// the one-active-order invariant, resolve and snapshot menu items, insert.
// All-or-nothing; a single unavailable item rejects the whole order.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Order, error) {
	if len(cmd.Items) == 0 {
		return nil, ErrNoItems
	}
	switch cmd.Type {
	case TypeDineIn:
		if cmd.TableNumber == nil {
			return nil, ErrMissingTable
		}
	case TypeDelivery:
		if !cmd.DeliveryAddress.Complete() {
			return nil, ErrIncompleteAddress
		}
	case TypeTakeaway:
	default:
		return nil, ErrUnknownType
	}

	release, err := s.acquireCreationLocks(ctx, cmd)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.checkActive(ctx, cmd); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(cmd.Items))
	for _, req := range cmd.Items {
		if req.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		mi, err := s.menu.GetItem(ctx, req.MenuItemID)
		if err != nil {
			return nil, err
		}
		if !mi.IsAvailable {
			return nil, &ItemUnavailableError{Name: mi.Name}
		}
		items = append(items, Item{
			MenuItemID: mi.ID,
			Name:       mi.Name,
			Quantity:   req.Quantity,
			UnitPrice:  mi.Price.Amount,
			Subtotal:   mi.Price.Amount * int64(req.Quantity),
		})
	}

	number, err := s.store.NextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	method := cmd.PaymentMethod
	if method == "" {
		method = MethodCash
	}
	payment := PaymentPending
	if method == MethodOnline {
		// Online orders arrive pre-paid.
		payment = PaymentPaid
	}

	now := time.Now()
	o := &Order{
		ID:            newID(),
		OrderNumber:   number,
		CustomerID:    cmd.CustomerID,
		Type:          cmd.Type,
		Items:         items,
		TotalAmount:   types.Money{Amount: Total(items), Currency: "USD"},
		Status:        InitialStatus(cmd.Type),
		PaymentStatus: payment,
		PaymentMethod: method,
		Notes:         cmd.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if cmd.Type == TypeDineIn {
		o.TableNumber = cmd.TableNumber
	}
	if cmd.Type == TypeDelivery {
		o.DeliveryAddress = cmd.DeliveryAddress
		eta := s.estimateETA(ctx, cmd.DeliveryAddress)
		at := now.Add(eta)
		o.EstimatedDeliveryAt = &at
	}

	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: StatusNone,
		ToStatus:   o.Status,
		ActorRole:  RoleCustomer,
		ActorID:    cmd.CustomerID,
		CreatedAt:  now,
	})
	return o, nil
}

// Transition moves one order through the role-gated state machine. The
// write is a compare-and-set on (status, status_version); a lost race
// surfaces as ErrStaleState and the caller re-fetches and retries.
func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Type, o.Status, cmd.Target) {
		return nil, &InvalidTransitionError{Type: o.Type, From: o.Status, To: cmd.Target}
	}
	if !RoleAllowed(o.Type, o.Status, cmd.Target, cmd.ActorRole) {
		return nil, &ForbiddenRoleError{Role: cmd.ActorRole, From: o.Status, To: cmd.Target}
	}
	if cmd.ActorRole == RoleCustomer {
		// Customers cancel only their own orders.
		if o.CustomerID == nil || cmd.ActorID == nil || *o.CustomerID != *cmd.ActorID {
			return nil, ErrNotOwner
		}
	}

	completed := Completed(o.Type, cmd.Target)
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, cmd.Target, o.StatusVersion, completed, cmd.Reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStaleState
	}
	_ = s.store.AppendEvent(ctx, &Event{
		OrderID:    o.ID,
		FromStatus: o.Status,
		ToStatus:   cmd.Target,
		ActorRole:  cmd.ActorRole,
		ActorID:    cmd.ActorID,
		CreatedAt:  time.Now(),
	})
	return s.store.Get(ctx, o.ID)
}

// Pay settles an order. Delivery orders still in the kitchen pipeline are
// dispatched the moment payment clears: cash/card delivery orders are paid
// at the door.
func (s *Service) Pay(ctx context.Context, cmd PaymentCommand) (*PaymentResult, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus != PaymentPending {
		return nil, ErrAlreadyPaid
	}
	if cmd.AmountPaid < o.TotalAmount.Amount {
		return nil, &InsufficientPaymentError{Required: o.TotalAmount.Amount, Paid: cmd.AmountPaid}
	}

	dispatch := o.Type == TypeDelivery &&
		(o.Status == StatusConfirmed || o.Status == StatusPreparing || o.Status == StatusReady)

	ok, err := s.store.ApplyPayment(ctx, o.ID, o.StatusVersion, cmd.Method, dispatch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStaleState
	}
	if dispatch {
		_ = s.store.AppendEvent(ctx, &Event{
			OrderID:    o.ID,
			FromStatus: o.Status,
			ToStatus:   StatusOutForDelivery,
			ActorRole:  RoleSystem,
			CreatedAt:  time.Now(),
		})
	}

	updated, err := s.store.Get(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{
		Order:      updated,
		Change:     cmd.AmountPaid - o.TotalAmount.Amount,
		Dispatched: dispatch,
	}, nil
}

// Refund moves paid to refunded; order status is left untouched.
func (s *Service) Refund(ctx context.Context, cmd RefundCommand) (*Order, error) {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus != PaymentPaid {
		return nil, ErrNotPaid
	}
	ok, err := s.store.ApplyRefund(ctx, o.ID, o.StatusVersion, cmd.Reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStaleState
	}
	return s.store.Get(ctx, o.ID)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

// KitchenQueue lists orders the kitchen should see.
func (s *Service) KitchenQueue(ctx context.Context) ([]*Order, error) {
	return s.store.ListByStatus(ctx, StatusConfirmed, StatusPreparing)
}

func (s *Service) PendingPayments(ctx context.Context) ([]*Order, error) {
	return s.store.PendingPayments(ctx)
}

func (s *Service) OrdersByTable(ctx context.Context, tableNumber int) ([]*Order, error) {
	return s.store.ListDineInByTable(ctx, tableNumber)
}

func (s *Service) OrdersByCustomer(ctx context.Context, customerID types.ID) ([]*Order, error) {
	return s.store.ListByCustomer(ctx, customerID)
}

// UnpaidBill sums the unpaid total for a table's current orders.
func UnpaidBill(orders []*Order) int64 {
	var sum int64
	for _, o := range orders {
		if o.PaymentStatus != PaymentPaid {
			sum += o.TotalAmount.Amount
		}
	}
	return sum
}

func (s *Service) acquireCreationLocks(ctx context.Context, cmd CreateCommand) (func(), error) {
	release := func() {}
	if s.locks == nil {
		return release, nil
	}
	var keys []string
	if cmd.Type == TypeDineIn && cmd.TableNumber != nil {
		keys = append(keys, "table:"+strconv.Itoa(*cmd.TableNumber))
	}
	if cmd.CustomerID != nil {
		keys = append(keys, "customer:"+string(*cmd.CustomerID))
	}
	var releases []func()
	for _, key := range keys {
		r, err := s.locks.Acquire(ctx, key)
		if err != nil {
			for _, done := range releases {
				done()
			}
			return nil, err
		}
		releases = append(releases, r)
	}
	return func() {
		for _, done := range releases {
			done()
		}
	}, nil
}

func (s *Service) checkActive(ctx context.Context, cmd CreateCommand) error {
	if cmd.Type == TypeDineIn && cmd.TableNumber != nil {
		numbers, err := s.store.ActiveByTable(ctx, *cmd.TableNumber)
		if err != nil {
			return err
		}
		if len(numbers) > 0 {
			return &ActiveOrderError{OrderNumbers: numbers}
		}
	}
	// Guests are exempt from the per-customer rule.
	if cmd.CustomerID != nil {
		numbers, err := s.store.ActiveByCustomer(ctx, *cmd.CustomerID)
		if err != nil {
			return err
		}
		if len(numbers) > 0 {
			return &ActiveOrderError{OrderNumbers: numbers}
		}
	}
	return nil
}

func (s *Service) estimateETA(ctx context.Context, addr *DeliveryAddress) time.Duration {
	if s.eta == nil || addr == nil {
		return defaultDeliveryETA
	}
	d, err := s.eta.Estimate(ctx, addr.Street+", "+addr.City+" "+addr.PostalCode)
	if err != nil || d <= 0 {
		return defaultDeliveryETA
	}
	return d
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
