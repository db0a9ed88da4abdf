// README: Menu browsing handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tableside/internal/modules/menu"
	"tableside/internal/types"
)

type MenuHandler struct {
	menu *menu.Service
}

func NewMenuHandler(svc *menu.Service) *MenuHandler {
	return &MenuHandler{menu: svc}
}

type menuItemResponse struct {
	ID          types.ID `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       int64    `json:"price"`
	Currency    string   `json:"currency"`
	IsAvailable bool     `json:"is_available"`
}

func (h *MenuHandler) List(c *gin.Context) {
	items, err := h.menu.ListAvailable(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]menuItemResponse, len(items))
	for i, it := range items {
		out[i] = menuItemResponse{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price.Amount,
			Currency:    it.Price.Currency,
			IsAvailable: it.IsAvailable,
		}
	}
	c.JSON(http.StatusOK, out)
}
