// README: Table service; waiter assignment and occupancy transitions.
package table

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

func (s *Service) Get(ctx context.Context, id types.ID) (*Table, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Table, error) {
	return s.store.List(ctx)
}

// AssignWaiter is a deliberate last-writer-wins overwrite; a waiter may
// claim a table another waiter already holds without a conflict signal.
func (s *Service) AssignWaiter(ctx context.Context, id types.ID, waiterID types.ID) (*Table, error) {
	return s.store.AssignWaiter(ctx, id, waiterID)
}

// SetStatus moves a table between available/occupied/reserved. Waiters may
// only touch tables assigned to them; elevated roles bypass the check.
// occupied -> available through here is the explicit "leave" path.
func (s *Service) SetStatus(ctx context.Context, id types.ID, status Status, actorRole order.Role, actorID types.ID) (*Table, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Elevated(actorRole) {
		if actorRole != order.RoleWaiter {
			return nil, &NotAssignedError{WaiterID: actorID}
		}
		if t.AssignedWaiter == nil || *t.AssignedWaiter != actorID {
			return nil, &NotAssignedError{WaiterID: actorID}
		}
	}
	return s.store.SetStatus(ctx, id, status)
}

// Reset finalizes served orders and frees the table; see Store.Reset.
func (s *Service) Reset(ctx context.Context, id types.ID) (*Table, []FinalizedOrder, error) {
	return s.store.Reset(ctx, id)
}
