// README: Order service tests (checkout pipeline, transitions, payment).
package order

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"tableside/internal/types"
)

var testMenu = fakeMenu{
	"margherita": {ID: "margherita", Name: "Margherita Pizza", Price: types.Money{Amount: 1200, Currency: "USD"}, IsAvailable: true},
	"caesar":     {ID: "caesar", Name: "Caesar Salad", Price: types.Money{Amount: 900, Currency: "USD"}, IsAvailable: true},
	"tiramisu":   {ID: "tiramisu", Name: "Tiramisu", Price: types.Money{Amount: 700, Currency: "USD"}, IsAvailable: false},
}

type fakeMenu map[types.ID]MenuItem

func (m fakeMenu) GetItem(ctx context.Context, id types.ID) (MenuItem, error) {
	mi, ok := m[id]
	if !ok {
		return MenuItem{}, &ItemUnavailableError{Name: string(id)}
	}
	return mi, nil
}

func TestDineInOrderFlow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tableNumber := 1
	o := mustCreateDineIn(t, svc, tableNumber, nil)
	if o.Status != StatusPending {
		t.Fatalf("expected pending after create, got %s", o.Status)
	}
	if o.TotalAmount.Amount != 2*1200+900 {
		t.Fatalf("unexpected total: %d", o.TotalAmount.Amount)
	}

	// The kitchen cannot start before the waiter confirms.
	_, err := svc.Transition(ctx, TransitionCommand{OrderID: o.ID, Target: StatusPreparing, ActorRole: RoleChef})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("chef on pending order: expected ErrInvalidTransition, got %v", err)
	}

	steps := []struct {
		target Status
		role   Role
	}{
		{StatusConfirmed, RoleWaiter},
		{StatusPreparing, RoleChef},
		{StatusReady, RoleChef},
		{StatusServed, RoleWaiter},
	}
	for _, step := range steps {
		if _, err := svc.Transition(ctx, TransitionCommand{OrderID: o.ID, Target: step.target, ActorRole: step.role}); err != nil {
			t.Fatalf("transition to %s as %s: %v", step.target, step.role, err)
		}
		assertStatus(t, svc, o.ID, step.target)
	}

	// Served dine-in orders stay active until the table is reset.
	got, err := svc.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Completed() {
		t.Fatal("served dine-in order reported completed")
	}

	res, err := svc.Pay(ctx, PaymentCommand{OrderID: got.ID, Method: MethodCash, AmountPaid: 4000})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if res.Change != 4000-3300 {
		t.Fatalf("expected change 700, got %d", res.Change)
	}
	if res.Order.PaymentStatus != PaymentPaid {
		t.Fatalf("expected paid, got %s", res.Order.PaymentStatus)
	}
	if res.Dispatched {
		t.Fatal("dine-in payment should never dispatch")
	}
}

func TestForbiddenRoleRejected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	o := mustCreateDineIn(t, svc, 2, nil)

	// Right edge, wrong role.
	_, err := svc.Transition(ctx, TransitionCommand{OrderID: o.ID, Target: StatusConfirmed, ActorRole: RoleChef})
	if !errors.Is(err, ErrForbiddenRole) {
		t.Fatalf("chef confirming: expected ErrForbiddenRole, got %v", err)
	}
	var fre *ForbiddenRoleError
	if !errors.As(err, &fre) || fre.Role != RoleChef {
		t.Fatalf("expected ForbiddenRoleError for chef, got %#v", err)
	}

	// The finalization edge is reserved to the table reset.
	if _, err := svc.Transition(ctx, TransitionCommand{OrderID: o.ID, Target: StatusConfirmed, ActorRole: RoleWaiter}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	for _, step := range []struct {
		target Status
		role   Role
	}{{StatusPreparing, RoleChef}, {StatusReady, RoleChef}, {StatusServed, RoleWaiter}} {
		if _, err := svc.Transition(ctx, TransitionCommand{OrderID: o.ID, Target: step.target, ActorRole: step.role}); err != nil {
			t.Fatalf("transition to %s: %v", step.target, err)
		}
	}
	_, err = svc.Transition(ctx, TransitionCommand{OrderID: o.ID, Target: StatusDineInComplete, ActorRole: RoleWaiter})
	if !errors.Is(err, ErrForbiddenRole) {
		t.Fatalf("waiter finalizing: expected ErrForbiddenRole, got %v", err)
	}
}

func TestOneActiveOrderPerTable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tableNumber := 5
	first := mustCreateDineIn(t, svc, tableNumber, nil)

	_, err := svc.Create(ctx, CreateCommand{
		Type:        TypeDineIn,
		TableNumber: &tableNumber,
		Items:       []ItemRequest{{MenuItemID: "caesar", Quantity: 1}},
	})
	if !errors.Is(err, ErrActiveOrder) {
		t.Fatalf("second order on occupied table: expected ErrActiveOrder, got %v", err)
	}
	var aoe *ActiveOrderError
	if errors.As(err, &aoe) {
		if len(aoe.OrderNumbers) != 1 || aoe.OrderNumbers[0] != first.OrderNumber {
			t.Fatalf("expected blocking order %s, got %v", first.OrderNumber, aoe.OrderNumbers)
		}
	}

	// Cancelling frees the table.
	if _, err := svc.Transition(ctx, TransitionCommand{OrderID: first.ID, Target: StatusCancelled, ActorRole: RoleWaiter, Reason: "guest left"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Create(ctx, CreateCommand{
		Type:        TypeDineIn,
		TableNumber: &tableNumber,
		Items:       []ItemRequest{{MenuItemID: "caesar", Quantity: 1}},
	}); err != nil {
		t.Fatalf("create after cancel: %v", err)
	}
}

func TestOneActiveOrderPerCustomer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	customerID := types.ID("c_active")
	if _, err := svc.Create(ctx, CreateCommand{
		CustomerID: &customerID,
		Type:       TypeTakeaway,
		Items:      []ItemRequest{{MenuItemID: "margherita", Quantity: 1}},
	}); err != nil {
		t.Fatalf("first order: %v", err)
	}

	// Blocked across order types too.
	_, err := svc.Create(ctx, CreateCommand{
		CustomerID:      &customerID,
		Type:            TypeDelivery,
		Items:           []ItemRequest{{MenuItemID: "caesar", Quantity: 1}},
		DeliveryAddress: &DeliveryAddress{Street: "1 Elm St", City: "Springfield", PostalCode: "12345", Phone: "555-0100"},
	})
	if !errors.Is(err, ErrActiveOrder) {
		t.Fatalf("expected ErrActiveOrder, got %v", err)
	}
}

func TestGuestCheckoutSkipsCustomerRule(t *testing.T) {
	svc := newTestService(t)

	// Two guest orders on different tables coexist.
	mustCreateDineIn(t, svc, 7, nil)
	mustCreateDineIn(t, svc, 8, nil)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCommand{Type: TypeTakeaway})
	if !errors.Is(err, ErrNoItems) {
		t.Fatalf("empty items: expected ErrNoItems, got %v", err)
	}

	_, err = svc.Create(ctx, CreateCommand{
		Type:  TypeTakeaway,
		Items: []ItemRequest{{MenuItemID: "caesar", Quantity: 0}},
	})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity: expected ErrInvalidQuantity, got %v", err)
	}

	_, err = svc.Create(ctx, CreateCommand{
		Type:  TypeDineIn,
		Items: []ItemRequest{{MenuItemID: "caesar", Quantity: 1}},
	})
	if !errors.Is(err, ErrMissingTable) {
		t.Fatalf("dine-in without table: expected ErrMissingTable, got %v", err)
	}

	_, err = svc.Create(ctx, CreateCommand{
		Type:            TypeDelivery,
		Items:           []ItemRequest{{MenuItemID: "caesar", Quantity: 1}},
		DeliveryAddress: &DeliveryAddress{Street: "1 Elm St"},
	})
	if !errors.Is(err, ErrIncompleteAddress) {
		t.Fatalf("partial address: expected ErrIncompleteAddress, got %v", err)
	}

	_, err = svc.Create(ctx, CreateCommand{
		Type:  Type("drive-thru"),
		Items: []ItemRequest{{MenuItemID: "caesar", Quantity: 1}},
	})
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("unknown type: expected ErrUnknownType, got %v", err)
	}

	// One unavailable item rejects the whole order.
	_, err = svc.Create(ctx, CreateCommand{
		Type: TypeTakeaway,
		Items: []ItemRequest{
			{MenuItemID: "margherita", Quantity: 1},
			{MenuItemID: "tiramisu", Quantity: 1},
		},
	})
	if !errors.Is(err, ErrItemUnavailable) {
		t.Fatalf("unavailable item: expected ErrItemUnavailable, got %v", err)
	}
}

func TestDeliveryAutoConfirmAndDispatchOnPayment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	customerID := types.ID("c_delivery")
	o, err := svc.Create(ctx, CreateCommand{
		CustomerID:      &customerID,
		Type:            TypeDelivery,
		Items:           []ItemRequest{{MenuItemID: "margherita", Quantity: 2}},
		DeliveryAddress: &DeliveryAddress{Street: "1 Elm St", City: "Springfield", PostalCode: "12345", Phone: "555-0100"},
		PaymentMethod:   MethodCash,
	})
	if err != nil {
		t.Fatalf("create delivery: %v", err)
	}
	if o.Status != StatusConfirmed {
		t.Fatalf("delivery should auto-confirm, got %s", o.Status)
	}
	if o.EstimatedDeliveryAt == nil {
		t.Fatal("expected estimated_delivery_at to be set")
	}

	if _, err := svc.Transition(ctx, TransitionCommand{OrderID: o.ID, Target: StatusPreparing, ActorRole: RoleChef}); err != nil {
		t.Fatalf("preparing: %v", err)
	}
	if _, err := svc.Transition(ctx, TransitionCommand{OrderID: o.ID, Target: StatusReady, ActorRole: RoleChef}); err != nil {
		t.Fatalf("ready: %v", err)
	}

	// Payment clearing while the order sits ready dispatches it atomically.
	res, err := svc.Pay(ctx, PaymentCommand{OrderID: o.ID, Method: MethodCash, AmountPaid: 2400})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if !res.Dispatched {
		t.Fatal("expected payment to dispatch the delivery order")
	}
	if res.Order.Status != StatusOutForDelivery {
		t.Fatalf("expected out-for-delivery, got %s", res.Order.Status)
	}
	if res.Order.PaymentStatus != PaymentPaid {
		t.Fatalf("expected paid, got %s", res.Order.PaymentStatus)
	}

	done, err := svc.Transition(ctx, TransitionCommand{OrderID: o.ID, Target: StatusDelivered, ActorRole: RoleCashier})
	if err != nil {
		t.Fatalf("delivered: %v", err)
	}
	if !done.Completed() {
		t.Fatal("delivered order should be completed")
	}
	if done.DeliveredAt == nil {
		t.Fatal("expected delivered_at to be set")
	}
}

func TestOnlineOrdersArrivePrepaid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	customerID := types.ID("c_online")
	o, err := svc.Create(ctx, CreateCommand{
		CustomerID:    &customerID,
		Type:          TypeTakeaway,
		Items:         []ItemRequest{{MenuItemID: "caesar", Quantity: 1}},
		PaymentMethod: MethodOnline,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.PaymentStatus != PaymentPaid {
		t.Fatalf("online order should be prepaid, got %s", o.PaymentStatus)
	}
}

func TestInsufficientPayment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	o := mustCreateDineIn(t, svc, 3, nil)
	_, err := svc.Pay(ctx, PaymentCommand{OrderID: o.ID, Method: MethodCash, AmountPaid: 100})
	if !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got %v", err)
	}
	var ipe *InsufficientPaymentError
	if !errors.As(err, &ipe) || ipe.Required != o.TotalAmount.Amount || ipe.Paid != 100 {
		t.Fatalf("unexpected payment error payload: %#v", err)
	}
}

func TestRefundRequiresPaid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	o := mustCreateDineIn(t, svc, 4, nil)
	_, err := svc.Refund(ctx, RefundCommand{OrderID: o.ID, Reason: "wrong order"})
	if !errors.Is(err, ErrNotPaid) {
		t.Fatalf("refund before payment: expected ErrNotPaid, got %v", err)
	}

	if _, err := svc.Pay(ctx, PaymentCommand{OrderID: o.ID, Method: MethodCard, AmountPaid: o.TotalAmount.Amount}); err != nil {
		t.Fatalf("pay: %v", err)
	}
	refunded, err := svc.Refund(ctx, RefundCommand{OrderID: o.ID, Reason: "wrong order"})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refunded.PaymentStatus != PaymentRefunded {
		t.Fatalf("expected refunded, got %s", refunded.PaymentStatus)
	}
	if refunded.RefundReason != "wrong order" {
		t.Fatalf("expected refund reason to persist, got %q", refunded.RefundReason)
	}

	// Refunded orders cannot be re-paid or re-refunded.
	if _, err := svc.Pay(ctx, PaymentCommand{OrderID: o.ID, Method: MethodCash, AmountPaid: o.TotalAmount.Amount}); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("re-payment of refunded order: expected ErrAlreadyPaid, got %v", err)
	}
	if _, err := svc.Refund(ctx, RefundCommand{OrderID: o.ID, Reason: "again"}); !errors.Is(err, ErrNotPaid) {
		t.Fatalf("double refund: expected ErrNotPaid, got %v", err)
	}
}

func TestCustomerCancelsOwnOrderOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	owner := types.ID("c_owner")
	stranger := types.ID("c_stranger")
	o, err := svc.Create(ctx, CreateCommand{
		CustomerID: &owner,
		Type:       TypeTakeaway,
		Items:      []ItemRequest{{MenuItemID: "caesar", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Transition(ctx, TransitionCommand{OrderID: o.ID, Target: StatusCancelled, ActorRole: RoleCustomer, ActorID: &stranger, Reason: "changed my mind"})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("stranger cancel: expected ErrNotOwner, got %v", err)
	}

	cancelled, err := svc.Transition(ctx, TransitionCommand{OrderID: o.ID, Target: StatusCancelled, ActorRole: RoleCustomer, ActorID: &owner, Reason: "changed my mind"})
	if err != nil {
		t.Fatalf("owner cancel: %v", err)
	}
	if cancelled.CancellationReason != "changed my mind" {
		t.Fatalf("expected cancellation reason to persist, got %q", cancelled.CancellationReason)
	}
	if cancelled.CancelledAt == nil {
		t.Fatal("expected cancelled_at to be set")
	}
}

func TestKitchenQueue(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a := mustCreateDineIn(t, svc, 10, nil)
	mustCreateDineIn(t, svc, 11, nil) // still pending, must not appear
	if _, err := svc.Transition(ctx, TransitionCommand{OrderID: a.ID, Target: StatusConfirmed, ActorRole: RoleWaiter}); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	queue, err := svc.KitchenQueue(ctx)
	if err != nil {
		t.Fatalf("kitchen queue: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != a.ID {
		t.Fatalf("expected only the confirmed order in the queue, got %d entries", len(queue))
	}
}

func TestUnpaidBill(t *testing.T) {
	orders := []*Order{
		{TotalAmount: types.Money{Amount: 1000}, PaymentStatus: PaymentPending},
		{TotalAmount: types.Money{Amount: 2000}, PaymentStatus: PaymentPaid},
		{TotalAmount: types.Money{Amount: 500}, PaymentStatus: PaymentPending},
	}
	if got := UnpaidBill(orders); got != 1500 {
		t.Fatalf("UnpaidBill = %d, want 1500", got)
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(setupTestStore(t), testMenu, nil, nil)
}

func mustCreateDineIn(t *testing.T, svc *Service, tableNumber int, customerID *types.ID) *Order {
	t.Helper()
	o, err := svc.Create(context.Background(), CreateCommand{
		CustomerID:  customerID,
		Type:        TypeDineIn,
		TableNumber: &tableNumber,
		Items: []ItemRequest{
			{MenuItemID: "margherita", Quantity: 2},
			{MenuItemID: "caesar", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create dine-in order: %v", err)
	}
	return o
}

func assertStatus(t *testing.T, svc *Service, orderID types.ID, want Status) {
	t.Helper()
	o, err := svc.Get(context.Background(), orderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if o.Status != want {
		t.Fatalf("expected status %s, got %s", want, o.Status)
	}
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TABLESIDE_TEST_DSN")
	if dsn == "" {
		t.Skip("TABLESIDE_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigration(ctx, db); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	if _, err := db.Exec(ctx, "TRUNCATE TABLE order_state_events, orders"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return NewStore(db)
}

func applyMigration(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	path := filepath.Join(root, "migrations", "0001_init.sql")
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cleaned := stripSQLComments(string(content))
	for _, stmt := range splitSQL(cleaned) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		stmt := strings.TrimSpace(p)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
