// README: Order store backed by PostgreSQL; CAS updates on status_version.
package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tableside/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const orderColumns = `
	id, order_number, customer_id, order_type, status, payment_status,
	payment_method, status_version, items, total_amount, currency,
	table_number, delivery_address, notes, estimated_delivery_at,
	is_completed, created_at, updated_at, cancelled_at, delivered_at,
	cancellation_reason, refund_reason`

// NextOrderNumber draws from a sequence so numbers stay unique and
// roughly monotonic across concurrent checkouts.
func (s *Store) NextOrderNumber(ctx context.Context) (string, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&n); err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%06d", n), nil
}

func (s *Store) Create(ctx context.Context, o *Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	var address []byte
	if o.DeliveryAddress != nil {
		if address, err = json.Marshal(o.DeliveryAddress); err != nil {
			return err
		}
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, customer_id, order_type, status, payment_status,
			payment_method, status_version, items, total_amount, currency,
			table_number, delivery_address, notes, estimated_delivery_at,
			is_completed, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15,
			$16, $17, $17
		)`,
		string(o.ID),
		o.OrderNumber,
		idPtr(o.CustomerID),
		string(o.Type),
		string(o.Status),
		string(o.PaymentStatus),
		string(o.PaymentMethod),
		o.StatusVersion,
		items,
		o.TotalAmount.Amount,
		o.TotalAmount.Currency,
		o.TableNumber,
		address,
		o.Notes,
		o.EstimatedDeliveryAt,
		o.Completed(),
		o.CreatedAt,
	)
	if isUniqueViolation(err) {
		// Partial unique indexes on (table_number) / (customer_id) for
		// non-completed rows are the authority for the one-active-order
		// invariant; a lost creation race surfaces here.
		return ErrActiveOrder
	}
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Order, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, string(id))
	return scanOrder(row)
}

func (s *Store) GetByNumber(ctx context.Context, number string) (*Order, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, number)
	return scanOrder(row)
}

// UpdateStatus applies a transition only if the persisted (status,
// status_version) pair still matches what the caller read.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, completed bool, reason string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    status_version = status_version + 1,
		    is_completed = $2,
		    updated_at = NOW(),
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END,
		    delivered_at = CASE WHEN $1 = 'delivered' THEN NOW() ELSE delivered_at END,
		    cancellation_reason = CASE WHEN $1 = 'cancelled' THEN $3 ELSE cancellation_reason END
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(to),
		completed,
		reason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ApplyPayment marks the order paid and, when dispatch is set, moves a
// delivery order to out-for-delivery in the same statement so payment and
// dispatch land atomically.
func (s *Store) ApplyPayment(ctx context.Context, id types.ID, version int, method PaymentMethod, dispatch bool) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET payment_status = 'paid',
		    payment_method = $1,
		    status = CASE WHEN $2 THEN 'out-for-delivery' ELSE status END,
		    status_version = status_version + 1,
		    updated_at = NOW()
		WHERE id = $3 AND status_version = $4 AND payment_status <> 'refunded'`,
		string(method),
		dispatch,
		string(id),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ApplyRefund(ctx context.Context, id types.ID, version int, reason string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET payment_status = 'refunded',
		    refund_reason = $1,
		    status_version = status_version + 1,
		    updated_at = NOW()
		WHERE id = $2 AND status_version = $3 AND payment_status = 'paid'`,
		reason,
		string(id),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ActiveByTable returns the order numbers of non-completed dine-in orders
// occupying a table. Used both for the creation invariant and for error
// payloads on blocked resets.
func (s *Store) ActiveByTable(ctx context.Context, tableNumber int) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT order_number FROM orders
		WHERE order_type = 'dine-in' AND table_number = $1 AND NOT is_completed`,
		tableNumber,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

func (s *Store) ActiveByCustomer(ctx context.Context, customerID types.ID) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT order_number FROM orders
		WHERE customer_id = $1 AND NOT is_completed`,
		string(customerID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStrings(rows)
}

func (s *Store) ListByStatus(ctx context.Context, statuses ...Status) ([]*Order, error) {
	in := make([]string, len(statuses))
	for i, st := range statuses {
		in[i] = string(st)
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status = ANY($1) ORDER BY created_at`, in)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (s *Store) ListDineInByTable(ctx context.Context, tableNumber int) ([]*Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE order_type = 'dine-in' AND table_number = $1 AND status <> 'cancelled'
		ORDER BY created_at DESC`,
		tableNumber,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (s *Store) ListByCustomer(ctx context.Context, customerID types.ID) ([]*Order, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC`,
		string(customerID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// PendingPayments lists cash/card orders awaiting the cashier.
func (s *Store) PendingPayments(ctx context.Context) ([]*Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE payment_status = 'pending'
		  AND payment_method IN ('cash', 'card')
		  AND status IN ('ready', 'served', 'delivered', 'dine-in-completed')
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO order_state_events (
			order_id, from_status, to_status, actor_role, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.OrderID),
		string(e.FromStatus),
		string(e.ToStatus),
		string(e.ActorRole),
		idPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var customerID, cancelReason, refundReason sql.NullString
	var items, address []byte
	var tableNumber sql.NullInt64
	var estimatedAt, cancelledAt, deliveredAt sql.NullTime

	err := row.Scan(
		&o.ID, &o.OrderNumber, &customerID, &o.Type, &o.Status, &o.PaymentStatus,
		&o.PaymentMethod, &o.StatusVersion, &items, &o.TotalAmount.Amount, &o.TotalAmount.Currency,
		&tableNumber, &address, &o.Notes, &estimatedAt,
		new(bool), &o.CreatedAt, &o.UpdatedAt, &cancelledAt, &deliveredAt,
		&cancelReason, &refundReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, err
	}
	if len(address) > 0 {
		var a DeliveryAddress
		if err := json.Unmarshal(address, &a); err != nil {
			return nil, err
		}
		o.DeliveryAddress = &a
	}
	if customerID.Valid {
		id := types.ID(customerID.String)
		o.CustomerID = &id
	}
	if tableNumber.Valid {
		n := int(tableNumber.Int64)
		o.TableNumber = &n
	}
	o.EstimatedDeliveryAt = timePtr(estimatedAt)
	o.CancelledAt = timePtr(cancelledAt)
	o.DeliveredAt = timePtr(deliveredAt)
	if cancelReason.Valid {
		o.CancellationReason = cancelReason.String
	}
	if refundReason.Valid {
		o.RefundReason = refundReason.String
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]*Order, error) {
	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func collectStrings(rows pgx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName != "orders_order_number_key"
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
