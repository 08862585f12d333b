// Package router registers the HTTP routes of the order service.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/concert-order-service/internal/handler"
	"github.com/iliyamo/concert-order-service/internal/middleware"
	"github.com/iliyamo/concert-order-service/internal/model"
)

// RegisterRoutes registers the unauthenticated operational endpoints: the
// liveness probe and the Prometheus exposition of gatherer.
func RegisterRoutes(e *echo.Echo, gatherer prometheus.Gatherer) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// RegisterOrders registers the order endpoints under /v1.  Every route needs
// a valid access token.  Customer routes accept CUSTOMER and ADMIN; the
// /v1/admin group is ADMIN only.  limit throttles the mutating routes.
func RegisterOrders(e *echo.Echo, h *handler.OrderHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	)
	g.POST("/orders", h.CreateOrder, limit)
	g.POST("/orders/:id/confirm", h.ConfirmOrder, limit)
	g.GET("/orders/:id", h.GetOrder)
	g.GET("/orders/:id/tickets/:ticketId/qr", h.TicketQR)
	g.GET("/users/:userId/orders", h.UserOrders)

	admin := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.GET("/orders", h.AllOrders)
	admin.GET("/concerts/:id/sales", h.ConcertSales)
}
