// README: Base handler utilities (JSON helpers, domain error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tableside/internal/locks"
	"tableside/internal/modules/menu"
	"tableside/internal/modules/order"
	"tableside/internal/modules/table"
)

type errorResponse struct {
	Error        string   `json:"error"`
	OrderNumbers []string `json:"order_numbers,omitempty"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

// writeDomainError maps the coordinator's error taxonomy onto HTTP status
// codes in one place; conflict errors carry the blocking order numbers.
func writeDomainError(c *gin.Context, err error) {
	var activeOrder *order.ActiveOrderError
	if errors.As(err, &activeOrder) {
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), OrderNumbers: activeOrder.OrderNumbers})
		return
	}
	var blocked *table.ActiveOrderError
	if errors.As(err, &blocked) {
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), OrderNumbers: blocked.OrderNumbers})
		return
	}

	switch {
	case errors.Is(err, order.ErrNoItems),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrMissingTable),
		errors.Is(err, order.ErrIncompleteAddress),
		errors.Is(err, order.ErrUnknownType),
		errors.Is(err, order.ErrItemUnavailable),
		errors.Is(err, order.ErrInsufficientPayment),
		errors.Is(err, order.ErrAlreadyPaid),
		errors.Is(err, order.ErrNotPaid),
		errors.Is(err, table.ErrInvalidStatus):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, table.ErrNotFound),
		errors.Is(err, menu.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrForbiddenRole),
		errors.Is(err, order.ErrNotOwner),
		errors.Is(err, table.ErrNotAssigned):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrStaleState),
		errors.Is(err, order.ErrActiveOrder),
		errors.Is(err, table.ErrActiveOrder),
		errors.Is(err, locks.ErrBusy):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
