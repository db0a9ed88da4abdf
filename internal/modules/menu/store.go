// README: Menu store backed by PostgreSQL.
package menu

import (
	"context"
	"errors"

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

func (s *Store) Get(ctx context.Context, id types.ID) (*Item, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, description, price, currency, is_available, created_at, updated_at
		FROM menu_items WHERE id = $1`, string(id))

	var it Item
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Price.Amount, &it.Price.Currency,
		&it.IsAvailable, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *Store) ListAvailable(ctx context.Context) ([]*Item, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, price, currency, is_available, created_at, updated_at
		FROM menu_items WHERE is_available ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Price.Amount, &it.Price.Currency,
			&it.IsAvailable, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

func (s *Store) Upsert(ctx context.Context, it *Item) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO menu_items (id, name, description, price, currency, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    price = EXCLUDED.price,
		    currency = EXCLUDED.currency,
		    is_available = EXCLUDED.is_available,
		    updated_at = NOW()`,
		string(it.ID), it.Name, it.Description, it.Price.Amount, it.Price.Currency, it.IsAvailable)
	return err
}
