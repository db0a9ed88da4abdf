// README: Table handlers for assignment, occupancy, reset, and billing.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tableside/internal/coordinator"
	"tableside/internal/http/middleware"
	"tableside/internal/modules/order"
	"tableside/internal/modules/table"
	"tableside/internal/types"
)

// staffActor reports whether the caller may touch table assignment or
// reset: the floor staff role or an elevated one. Customers never qualify.
func staffActor(c *gin.Context) bool {
	role := middleware.ActorRole(c)
	return role == order.RoleWaiter || order.Elevated(role)
}

type TableHandler struct {
	coord *coordinator.Service
}

func NewTableHandler(coord *coordinator.Service) *TableHandler {
	return &TableHandler{coord: coord}
}

type tableResponse struct {
	ID             types.ID     `json:"id"`
	TableNumber    int          `json:"table_number"`
	Capacity       int          `json:"capacity"`
	Status         table.Status `json:"status"`
	AssignedWaiter string       `json:"assigned_waiter,omitempty"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func toTableResponse(t *table.Table) tableResponse {
	resp := tableResponse{
		ID:          t.ID,
		TableNumber: t.TableNumber,
		Capacity:    t.Capacity,
		Status:      t.Status,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.AssignedWaiter != nil {
		resp.AssignedWaiter = string(*t.AssignedWaiter)
	}
	return resp
}

func (h *TableHandler) List(c *gin.Context) {
	tables, err := h.coord.ListTables(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]tableResponse, len(tables))
	for i, t := range tables {
		out[i] = toTableResponse(t)
	}
	c.JSON(http.StatusOK, out)
}

type assignReq struct {
	WaiterID string `json:"waiter_id,omitempty"`
}

// Assign claims a table for a waiter. With no body the acting waiter
// self-assigns.
func (h *TableHandler) Assign(c *gin.Context) {
	if !staffActor(c) {
		writeError(c, http.StatusForbidden, "staff role required")
		return
	}
	var req assignReq
	_ = c.ShouldBindJSON(&req)
	waiterID := req.WaiterID
	if waiterID == "" {
		waiterID = middleware.ActorID(c)
	}
	if waiterID == "" {
		writeError(c, http.StatusBadRequest, "missing waiter id")
		return
	}

	t, err := h.coord.AssignWaiter(c.Request.Context(), types.ID(c.Param("id")), types.ID(waiterID))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTableResponse(t))
}

type tableStatusReq struct {
	Status string `json:"status"`
}

func (h *TableHandler) SetStatus(c *gin.Context) {
	var req tableStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	t, err := h.coord.SetTableStatus(c.Request.Context(),
		types.ID(c.Param("id")),
		table.Status(req.Status),
		middleware.ActorRole(c),
		types.ID(middleware.ActorID(c)),
	)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTableResponse(t))
}

func (h *TableHandler) Reset(c *gin.Context) {
	if !staffActor(c) {
		writeError(c, http.StatusForbidden, "staff role required")
		return
	}
	t, err := h.coord.ResetTable(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTableResponse(t))
}

// Bill returns a table's current orders and the unpaid total.
func (h *TableHandler) Bill(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid table number")
		return
	}
	bill, err := h.coord.BillForTable(c.Request.Context(), number)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"table_number": bill.TableNumber,
		"orders":       toOrderResponses(bill.Orders),
		"unpaid_total": bill.UnpaidTotal,
	})
}
