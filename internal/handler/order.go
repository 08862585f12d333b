package handler

import (
	"bytes"
	"context"
	"image/png"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/skip2/go-qrcode"

	"github.com/iliyamo/concert-order-service/internal/order"
)

// OrderService is the order engine as seen by the HTTP layer.
type OrderService interface {
	CreateOrder(ctx context.Context, userID, reservationID uint64) (*order.CreateResult, error)
	ConfirmOrder(ctx context.Context, orderID, userID uint64) (*order.ConfirmResult, error)
	GetOrderByID(ctx context.Context, orderID, userID uint64, isAdmin bool) (*order.OrderView, error)
	GetUserOrders(ctx context.Context, userID uint64) ([]order.OrderSummary, error)
	GetAllOrders(ctx context.Context) ([]order.OrderSummary, error)
	GetSalesByConcert(ctx context.Context, concertID uint64) (*order.SalesReport, error)
}

// qrSize is the edge length in pixels of rendered ticket QR codes.
const qrSize = 256

// OrderHandler serves the order endpoints.  Authentication and role checks
// are done by middleware; ownership checks are done here or in the
// engine.
type OrderHandler struct {
	svc OrderService
}

// NewOrderHandler panics when svc is nil.
func NewOrderHandler(svc OrderService) *OrderHandler {
	if svc == nil {
		panic("nil service passed to NewOrderHandler")
	}
	return &OrderHandler{svc: svc}
}

type createOrderRequest struct {
	ReservationID uint64 `json:"reservation_id" validate:"required,gt=0"`
}

// CreateOrder handles POST /v1/orders.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, order.NewValidation("invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, order.NewValidation("reservation_id is required"))
	}
	res, err := h.svc.CreateOrder(c.Request().Context(), p.UserID, req.ReservationID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// ConfirmOrder handles POST /v1/orders/:id/confirm.
func (h *OrderHandler) ConfirmOrder(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return writeError(c, order.NewValidation("invalid order id"))
	}
	res, err := h.svc.ConfirmOrder(c.Request().Context(), id, p.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// GetOrder handles GET /v1/orders/:id.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return writeError(c, order.NewValidation("invalid order id"))
	}
	view, err := h.svc.GetOrderByID(c.Request().Context(), id, p.UserID, p.IsAdmin())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// TicketQR handles GET /v1/orders/:id/tickets/:ticketId/qr and renders the
// ticket code as a PNG QR code.
func (h *OrderHandler) TicketQR(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return writeError(c, order.NewValidation("invalid order id"))
	}
	ticketID, ok := pathID(c, "ticketId")
	if !ok {
		return writeError(c, order.NewValidation("invalid ticket id"))
	}
	view, err := h.svc.GetOrderByID(c.Request().Context(), id, p.UserID, p.IsAdmin())
	if err != nil {
		return writeError(c, err)
	}
	for _, t := range view.Tickets {
		if t.ID != ticketID {
			continue
		}
		img, err := renderQR(t.Code)
		if err != nil {
			return writeError(c, err)
		}
		return c.Blob(http.StatusOK, "image/png", img)
	}
	return c.JSON(http.StatusNotFound, errorResponse{Error: order.KindNotFound.String(), Message: "ticket not found"})
}

func renderQR(content string) ([]byte, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(qrSize)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UserOrders handles GET /v1/users/:userId/orders.  Customers may only list
// their own orders.
func (h *OrderHandler) UserOrders(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	userID, ok := pathID(c, "userId")
	if !ok {
		return writeError(c, order.NewValidation("invalid user id"))
	}
	if !p.CanView(userID) {
		return writeError(c, order.NewForbidden("cannot view another user's orders"))
	}
	orders, err := h.svc.GetUserOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders, "total": len(orders)})
}

// AllOrders handles GET /v1/admin/orders.
func (h *OrderHandler) AllOrders(c echo.Context) error {
	orders, err := h.svc.GetAllOrders(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders, "total": len(orders)})
}

// ConcertSales handles GET /v1/admin/concerts/:id/sales.
func (h *OrderHandler) ConcertSales(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return writeError(c, order.NewValidation("invalid concert id"))
	}
	rep, err := h.svc.GetSalesByConcert(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}
