// README: Menu item definition used to resolve checkout line items.
package menu

import (
	"errors"
	"time"

	"tableside/internal/types"
)

type Item struct {
	ID          types.ID
	Name        string
	Description string
	Price       types.Money
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var ErrNotFound = errors.New("menu item not found")
