// README: Order handlers for checkout, lookup, and role-gated transitions.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tableside/internal/coordinator"
	"tableside/internal/http/middleware"
	"tableside/internal/modules/order"
	"tableside/internal/types"
)

type OrderHandler struct {
	coord *coordinator.Service
}

func NewOrderHandler(coord *coordinator.Service) *OrderHandler {
	return &OrderHandler{coord: coord}
}

type itemReq struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

type createOrderReq struct {
	OrderType       string                 `json:"order_type"`
	Items           []itemReq              `json:"items"`
	TableNumber     *int                   `json:"table_number,omitempty"`
	DeliveryAddress *order.DeliveryAddress `json:"delivery_address,omitempty"`
	Notes           string                 `json:"notes,omitempty"`
	PaymentMethod   string                 `json:"payment_method,omitempty"`
}

type orderResponse struct {
	ID                  types.ID               `json:"id"`
	OrderNumber         string                 `json:"order_number"`
	CustomerID          string                 `json:"customer_id,omitempty"`
	OrderType           order.Type             `json:"order_type"`
	Items               []order.Item           `json:"items"`
	TotalAmount         int64                  `json:"total_amount"`
	Currency            string                 `json:"currency"`
	OrderStatus         order.Status           `json:"order_status"`
	PaymentStatus       order.PaymentStatus    `json:"payment_status"`
	PaymentMethod       order.PaymentMethod    `json:"payment_method"`
	TableNumber         *int                   `json:"table_number,omitempty"`
	DeliveryAddress     *order.DeliveryAddress `json:"delivery_address,omitempty"`
	Notes               string                 `json:"notes,omitempty"`
	EstimatedDeliveryAt *time.Time             `json:"estimated_delivery_at,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
	CancelledAt         *time.Time             `json:"cancelled_at,omitempty"`
	DeliveredAt         *time.Time             `json:"delivered_at,omitempty"`
	CancellationReason  string                 `json:"cancellation_reason,omitempty"`
	IsCompleted         bool                   `json:"is_completed"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		OrderType:           o.Type,
		Items:               o.Items,
		TotalAmount:         o.TotalAmount.Amount,
		Currency:            o.TotalAmount.Currency,
		OrderStatus:         o.Status,
		PaymentStatus:       o.PaymentStatus,
		PaymentMethod:       o.PaymentMethod,
		TableNumber:         o.TableNumber,
		DeliveryAddress:     o.DeliveryAddress,
		Notes:               o.Notes,
		EstimatedDeliveryAt: o.EstimatedDeliveryAt,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
		CancelledAt:         o.CancelledAt,
		DeliveredAt:         o.DeliveredAt,
		CancellationReason:  o.CancellationReason,
		IsCompleted:         o.Completed(),
	}
	if o.CustomerID != nil {
		resp.CustomerID = string(*o.CustomerID)
	}
	return resp
}

func toOrderResponses(orders []*order.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	return out
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	cmd := order.CreateCommand{
		Type:            order.Type(req.OrderType),
		TableNumber:     req.TableNumber,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		PaymentMethod:   order.PaymentMethod(req.PaymentMethod),
	}
	if id := middleware.ActorID(c); id != "" {
		cid := types.ID(id)
		cmd.CustomerID = &cid
	}
	for _, it := range req.Items {
		cmd.Items = append(cmd.Items, order.ItemRequest{
			MenuItemID: types.ID(it.MenuItemID),
			Quantity:   it.Quantity,
		})
	}

	o, err := h.coord.CreateOrder(c.Request.Context(), cmd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(o))
}

func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.coord.GetOrder(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

type transitionReq struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (h *OrderHandler) Transition(c *gin.Context) {
	var req transitionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	cmd := order.TransitionCommand{
		OrderID:   types.ID(c.Param("id")),
		Target:    order.Status(req.Status),
		ActorRole: middleware.ActorRole(c),
		Reason:    req.Reason,
	}
	if id := middleware.ActorID(c); id != "" {
		aid := types.ID(id)
		cmd.ActorID = &aid
	}

	o, err := h.coord.TransitionOrder(c.Request.Context(), cmd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

type cancelReq struct {
	Reason string `json:"reason,omitempty"`
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	var req cancelReq
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "cancelled by " + string(middleware.ActorRole(c))
	}

	cmd := order.TransitionCommand{
		OrderID:   types.ID(c.Param("id")),
		Target:    order.StatusCancelled,
		ActorRole: middleware.ActorRole(c),
		Reason:    req.Reason,
	}
	if id := middleware.ActorID(c); id != "" {
		aid := types.ID(id)
		cmd.ActorID = &aid
	}

	o, err := h.coord.TransitionOrder(c.Request.Context(), cmd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

// KitchenQueue lists orders awaiting or under preparation.
func (h *OrderHandler) KitchenQueue(c *gin.Context) {
	orders, err := h.coord.KitchenQueue(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(orders))
}

// MyOrders lists the acting customer's order history.
func (h *OrderHandler) MyOrders(c *gin.Context) {
	id := middleware.ActorID(c)
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing actor id")
		return
	}
	orders, err := h.coord.OrdersByCustomer(c.Request.Context(), types.ID(id))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(orders))
}
