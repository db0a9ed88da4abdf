// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tableside/internal/coordinator"
	"tableside/internal/http/handlers"
	"tableside/internal/http/middleware"
	"tableside/internal/modules/menu"
)

func NewRouter(coord *coordinator.Service, menuSvc *menu.Service, logger *slog.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.Logging(logger), middleware.Actor())

	orderHandler := handlers.NewOrderHandler(coord)
	r.POST("/api/orders", orderHandler.Create)
	r.GET("/api/orders/:id", orderHandler.Get)
	r.POST("/api/orders/:id/status", orderHandler.Transition)
	r.POST("/api/orders/:id/cancel", orderHandler.Cancel)
	r.GET("/api/customer/orders", orderHandler.MyOrders)
	r.GET("/api/kitchen/queue", orderHandler.KitchenQueue)

	paymentHandler := handlers.NewPaymentHandler(coord)
	r.POST("/api/orders/:id/payment", paymentHandler.Process)
	r.POST("/api/orders/:id/refund", paymentHandler.Refund)
	r.GET("/api/cashier/orders", paymentHandler.Pending)

	tableHandler := handlers.NewTableHandler(coord)
	r.GET("/api/tables", tableHandler.List)
	r.PUT("/api/tables/:id/assign", tableHandler.Assign)
	r.PUT("/api/tables/:id/status", tableHandler.SetStatus)
	r.POST("/api/tables/:id/reset", tableHandler.Reset)
	r.GET("/api/tables/number/:number/bill", tableHandler.Bill)

	menuHandler := handlers.NewMenuHandler(menuSvc)
	r.GET("/api/menu", menuHandler.List)

	eventsHandler := handlers.NewEventsHandler(coord)
	r.GET("/api/events", eventsHandler.Stream)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
