// README: Coordinator facade; the single writer path composing order and
// table lifecycles with event broadcast.
package coordinator

import (
	"context"

	"tableside/internal/events"
	"tableside/internal/modules/order"
	"tableside/internal/modules/table"
	"tableside/internal/types"
)

type Service struct {
	orders *order.Service
	tables *table.Service
	hub    *events.Hub
}

func New(orders *order.Service, tables *table.Service, hub *events.Hub) *Service {
	return &Service{orders: orders, tables: tables, hub: hub}
}

// Subscribe exposes the broadcast stream to dashboards.
func (s *Service) Subscribe(filter ...events.Type) (<-chan events.Event, func()) {
	return s.hub.Subscribe(filter...)
}

func (s *Service) CreateOrder(ctx context.Context, cmd order.CreateCommand) (*order.Order, error) {
	o, err := s.orders.Create(ctx, cmd)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(orderEvent(events.NewOrder, o, string(o.Status)))
	return o, nil
}

func (s *Service) TransitionOrder(ctx context.Context, cmd order.TransitionCommand) (*order.Order, error) {
	o, err := s.orders.Transition(ctx, cmd)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(orderEvent(events.OrderStatusUpdated, o, string(o.Status)))
	if o.Status == order.StatusReady {
		// Kitchen displays listen for this one specifically.
		s.hub.Publish(orderEvent(events.OrderReady, o, string(o.Status)))
	}
	return o, nil
}

func (s *Service) ProcessPayment(ctx context.Context, cmd order.PaymentCommand) (*order.PaymentResult, error) {
	res, err := s.orders.Pay(ctx, cmd)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(orderEvent(events.PaymentStatusUpdated, res.Order, string(res.Order.PaymentStatus)))
	if res.Dispatched {
		s.hub.Publish(orderEvent(events.OrderStatusUpdated, res.Order, string(res.Order.Status)))
	}
	return res, nil
}

func (s *Service) IssueRefund(ctx context.Context, cmd order.RefundCommand) (*order.Order, error) {
	o, err := s.orders.Refund(ctx, cmd)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(orderEvent(events.PaymentStatusUpdated, o, string(o.PaymentStatus)))
	return o, nil
}

func (s *Service) AssignWaiter(ctx context.Context, tableID, waiterID types.ID) (*table.Table, error) {
	t, err := s.tables.AssignWaiter(ctx, tableID, waiterID)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(tableEvent(t))
	return t, nil
}

func (s *Service) SetTableStatus(ctx context.Context, tableID types.ID, status table.Status, actorRole order.Role, actorID types.ID) (*table.Table, error) {
	t, err := s.tables.SetStatus(ctx, tableID, status, actorRole, actorID)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(tableEvent(t))
	return t, nil
}

// ResetTable finalizes served orders and frees the table atomically, then
// broadcasts one status event per finalized order plus the table change.
func (s *Service) ResetTable(ctx context.Context, tableID types.ID) (*table.Table, error) {
	t, finalized, err := s.tables.Reset(ctx, tableID)
	if err != nil {
		return nil, err
	}
	for _, f := range finalized {
		e := events.Event{
			Type:        events.OrderStatusUpdated,
			OrderID:     f.ID,
			OrderNumber: f.OrderNumber,
			Status:      string(order.StatusDineInComplete),
		}
		if f.CustomerID != nil {
			e.CustomerID = *f.CustomerID
		}
		s.hub.Publish(e)
	}
	s.hub.Publish(tableEvent(t))
	return t, nil
}

func (s *Service) GetOrder(ctx context.Context, id types.ID) (*order.Order, error) {
	return s.orders.Get(ctx, id)
}

func (s *Service) KitchenQueue(ctx context.Context) ([]*order.Order, error) {
	return s.orders.KitchenQueue(ctx)
}

func (s *Service) PendingPayments(ctx context.Context) ([]*order.Order, error) {
	return s.orders.PendingPayments(ctx)
}

func (s *Service) OrdersByCustomer(ctx context.Context, customerID types.ID) ([]*order.Order, error) {
	return s.orders.OrdersByCustomer(ctx, customerID)
}

// TableBill lists a table's current orders with the unpaid total.
type TableBill struct {
	TableNumber int
	Orders      []*order.Order
	UnpaidTotal int64
}

func (s *Service) BillForTable(ctx context.Context, tableNumber int) (*TableBill, error) {
	orders, err := s.orders.OrdersByTable(ctx, tableNumber)
	if err != nil {
		return nil, err
	}
	return &TableBill{
		TableNumber: tableNumber,
		Orders:      orders,
		UnpaidTotal: order.UnpaidBill(orders),
	}, nil
}

func (s *Service) ListTables(ctx context.Context) ([]*table.Table, error) {
	return s.tables.List(ctx)
}

func orderEvent(t events.Type, o *order.Order, status string) events.Event {
	e := events.Event{
		Type:        t,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Status:      status,
	}
	if o.CustomerID != nil {
		e.CustomerID = *o.CustomerID
	}
	if o.TableNumber != nil {
		e.TableNumber = *o.TableNumber
	}
	return e
}

func tableEvent(t *table.Table) events.Event {
	return events.Event{
		Type:        events.TableStatusUpdated,
		TableID:     t.ID,
		TableNumber: t.TableNumber,
		Status:      string(t.Status),
	}
}
