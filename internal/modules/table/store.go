// README: Table store backed by PostgreSQL; reset runs as one transaction.
package table

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tableside/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const tableColumns = `id, table_number, capacity, status, assigned_waiter, created_at, updated_at`

func (s *Store) Get(ctx context.Context, id types.ID) (*Table, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE id = $1`, string(id))
	return scanTable(row)
}

func (s *Store) GetByNumber(ctx context.Context, number int) (*Table, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+tableColumns+` FROM tables WHERE table_number = $1`, number)
	return scanTable(row)
}

func (s *Store) List(ctx context.Context) ([]*Table, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+tableColumns+` FROM tables ORDER BY table_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AssignWaiter overwrites unconditionally; last writer wins.
func (s *Store) AssignWaiter(ctx context.Context, id types.ID, waiterID types.ID) (*Table, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE tables SET assigned_waiter = $1, updated_at = NOW() WHERE id = $2`,
		string(waiterID), string(id))
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *Store) SetStatus(ctx context.Context, id types.ID, status Status) (*Table, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE tables SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(status), string(id))
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Reset finalizes the table's served dine-in orders to dine-in-completed
// and forces the table back to available with no assigned waiter, all in
// one transaction. Any non-completed order not yet served aborts the whole
// operation, so the table can never go available while a live order still
// points at it.
func (s *Store) Reset(ctx context.Context, id types.ID) (*Table, []FinalizedOrder, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	var tableNumber int
	err = tx.QueryRow(ctx,
		`SELECT table_number FROM tables WHERE id = $1 FOR UPDATE`, string(id)).
		Scan(&tableNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, order_number, customer_id, status FROM orders
		WHERE order_type = 'dine-in' AND table_number = $1 AND NOT is_completed
		FOR UPDATE`,
		tableNumber)
	if err != nil {
		return nil, nil, err
	}

	var served []FinalizedOrder
	var blocking []string
	for rows.Next() {
		var f FinalizedOrder
		var customerID sql.NullString
		var status string
		if err := rows.Scan(&f.ID, &f.OrderNumber, &customerID, &status); err != nil {
			rows.Close()
			return nil, nil, err
		}
		if customerID.Valid {
			cid := types.ID(customerID.String)
			f.CustomerID = &cid
		}
		if status == "served" {
			served = append(served, f)
		} else {
			blocking = append(blocking, f.OrderNumber)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if len(blocking) > 0 {
		return nil, nil, &ActiveOrderError{OrderNumbers: blocking}
	}

	for _, f := range served {
		if _, err := tx.Exec(ctx, `
			UPDATE orders
			SET status = 'dine-in-completed',
			    is_completed = TRUE,
			    status_version = status_version + 1,
			    updated_at = NOW()
			WHERE id = $1 AND status = 'served'`,
			string(f.ID)); err != nil {
			return nil, nil, err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_state_events (
				order_id, from_status, to_status, actor_role, actor_id, created_at
			) VALUES ($1, 'served', 'dine-in-completed', 'system', NULL, $2)`,
			string(f.ID), time.Now()); err != nil {
			return nil, nil, err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE tables
		SET status = 'available', assigned_waiter = NULL, updated_at = NOW()
		WHERE id = $1`,
		string(id)); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return t, served, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTable(row rowScanner) (*Table, error) {
	var t Table
	var waiter sql.NullString
	err := row.Scan(&t.ID, &t.TableNumber, &t.Capacity, &t.Status, &waiter, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if waiter.Valid {
		w := types.ID(waiter.String)
		t.AssignedWaiter = &w
	}
	return &t, nil
}
