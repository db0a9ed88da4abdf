// README: Menu service; satisfies the order module's resolver interface.
package menu

import (
	"context"

	"tableside/internal/modules/order"
	"tableside/internal/types"
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// GetItem resolves price and availability at checkout time; the order
// snapshots the result and never reads the menu again.
func (s *Service) GetItem(ctx context.Context, id types.ID) (order.MenuItem, error) {
	it, err := s.store.Get(ctx, id)
	if err != nil {
		return order.MenuItem{}, err
	}
	return order.MenuItem{
		ID:          it.ID,
		Name:        it.Name,
		Price:       it.Price,
		IsAvailable: it.IsAvailable,
	}, nil
}

func (s *Service) ListAvailable(ctx context.Context) ([]*Item, error) {
	return s.store.ListAvailable(ctx)
}
