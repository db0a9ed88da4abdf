// README: Cashier handlers for settlement and refunds.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tableside/internal/coordinator"
	"tableside/internal/modules/order"
	"tableside/internal/types"
)

type PaymentHandler struct {
	coord *coordinator.Service
}

func NewPaymentHandler(coord *coordinator.Service) *PaymentHandler {
	return &PaymentHandler{coord: coord}
}

type paymentReq struct {
	PaymentMethod string `json:"payment_method"`
	AmountPaid    int64  `json:"amount_paid"`
}

type paymentResp struct {
	Order  orderResponse `json:"order"`
	Change int64         `json:"change"`
}

func (h *PaymentHandler) Process(c *gin.Context) {
	var req paymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	method := order.PaymentMethod(req.PaymentMethod)
	if method != order.MethodCash && method != order.MethodCard && method != order.MethodOnline {
		writeError(c, http.StatusBadRequest, "invalid payment method")
		return
	}

	res, err := h.coord.ProcessPayment(c.Request.Context(), order.PaymentCommand{
		OrderID:    types.ID(c.Param("id")),
		Method:     method,
		AmountPaid: req.AmountPaid,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentResp{Order: toOrderResponse(res.Order), Change: res.Change})
}

type refundReq struct {
	Reason string `json:"reason,omitempty"`
}

func (h *PaymentHandler) Refund(c *gin.Context) {
	var req refundReq
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "refund issued by cashier"
	}

	o, err := h.coord.IssueRefund(c.Request.Context(), order.RefundCommand{
		OrderID: types.ID(c.Param("id")),
		Reason:  req.Reason,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

// Pending lists cash/card orders awaiting settlement.
func (h *PaymentHandler) Pending(c *gin.Context) {
	orders, err := h.coord.PendingPayments(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(orders))
}
